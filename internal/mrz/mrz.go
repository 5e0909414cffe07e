// Package mrz parses ICAO 9303 machine readable zones (TD1, TD2, TD3 and the
// MRV-A/MRV-B visa layouts) and verifies their check digits.
package mrz

import (
	"errors"
	"fmt"
	"strings"
)

// Layout identifies the zone geometry.
type Layout int

const (
	LayoutUnknown Layout = iota
	// LayoutTD1 is three lines of 30 characters (ID cards).
	LayoutTD1
	// LayoutTD2 is two lines of 36 characters.
	LayoutTD2
	// LayoutTD3 is two lines of 44 characters (passports).
	LayoutTD3
	// LayoutMRVA is a two line, 44 character visa.
	LayoutMRVA
	// LayoutMRVB is a two line, 36 character visa.
	LayoutMRVB
)

func (l Layout) String() string {
	switch l {
	case LayoutTD1:
		return "TD1"
	case LayoutTD2:
		return "TD2"
	case LayoutTD3:
		return "TD3"
	case LayoutMRVA:
		return "MRV-A"
	case LayoutMRVB:
		return "MRV-B"
	default:
		return "unknown"
	}
}

// ErrMalformed is returned when the zone lines do not form a known layout.
var ErrMalformed = errors.New("malformed machine readable zone")

// Check is the outcome of one check digit.
type Check struct {
	Field string
	Want  byte
	Got   byte
	OK    bool
}

// Document is a parsed zone. Dates are kept in their YYMMDD zone form.
type Document struct {
	Layout         Layout
	DocumentCode   string
	Issuer         string
	DocumentNumber string
	Opt1           string
	Opt2           string
	DateOfBirth    string
	Sex            string
	DateOfExpiry   string
	Nationality    string
	PrimaryID      string
	SecondaryID    string
	Raw            string
	Checks         []Check
}

// Verified reports whether every check digit matched.
func (d *Document) Verified() bool {
	if len(d.Checks) == 0 {
		return false
	}
	for _, c := range d.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// FailedChecks lists the fields whose check digit did not match.
func (d *Document) FailedChecks() []string {
	var out []string
	for _, c := range d.Checks {
		if !c.OK {
			out = append(out, c.Field)
		}
	}
	return out
}

// charValue maps a zone character to its check digit weight input.
func charValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 0
	}
}

// CheckDigit computes the 7-3-1 weighted check digit of s.
func CheckDigit(s string) byte {
	weights := [3]int{7, 3, 1}
	sum := 0
	for i := range len(s) {
		sum += charValue(s[i]) * weights[i%3]
	}
	return byte('0' + sum%10)
}

func (d *Document) check(field, data string, digit byte) {
	want := CheckDigit(data)
	got := digit
	// A filler in place of the digit is accepted for all-filler fields.
	if got == '<' && strings.Trim(data, "<") == "" {
		got = '0'
	}
	d.Checks = append(d.Checks, Check{Field: field, Want: want, Got: digit, OK: want == got})
}

// Parse parses the zone lines. Lines must already be normalised (see
// Normalize).
func Parse(lines []string) (*Document, error) {
	switch {
	case len(lines) == 3 && allLen(lines, 30):
		return parseTD1(lines), nil
	case len(lines) == 2 && allLen(lines, 36):
		if lines[0][0] == 'V' {
			return parseTwoLine(lines, LayoutMRVB), nil
		}
		return parseTwoLine(lines, LayoutTD2), nil
	case len(lines) == 2 && allLen(lines, 44):
		if lines[0][0] == 'V' {
			return parseTwoLine(lines, LayoutMRVA), nil
		}
		return parseTwoLine(lines, LayoutTD3), nil
	default:
		return nil, fmt.Errorf("%d lines: %w", len(lines), ErrMalformed)
	}
}

func allLen(lines []string, n int) bool {
	for _, l := range lines {
		if len(l) != n {
			return false
		}
	}
	return true
}

func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "<", " "))
}

func splitNames(s string) (primary, secondary string) {
	s = strings.TrimRight(s, "<")
	p, sec, _ := strings.Cut(s, "<<")
	return clean(p), strings.Join(strings.Fields(clean(sec)), " ")
}

// parseTwoLine handles TD2, TD3 and both visa layouts, which share the
// second line structure up to the optional data.
func parseTwoLine(lines []string, layout Layout) *Document {
	l1, l2 := lines[0], lines[1]
	n := len(l1)
	d := &Document{Layout: layout, Raw: strings.Join(lines, "\n")}
	d.DocumentCode = strings.TrimRight(l1[0:2], "<")
	d.Issuer = clean(l1[2:5])
	d.PrimaryID, d.SecondaryID = splitNames(l1[5:])

	d.DocumentNumber = clean(l2[0:9])
	d.Nationality = clean(l2[10:13])
	d.DateOfBirth = l2[13:19]
	d.Sex = clean(l2[20:21])
	d.DateOfExpiry = l2[21:27]

	d.check("document_number", l2[0:9], l2[9])
	d.check("date_of_birth", l2[13:19], l2[19])
	d.check("date_of_expiry", l2[21:27], l2[27])

	switch layout {
	case LayoutTD3:
		d.Opt1 = clean(l2[28:42])
		d.check("personal_number", l2[28:42], l2[42])
		d.check("composite", l2[0:10]+l2[13:20]+l2[21:43], l2[43])
	case LayoutTD2:
		d.Opt1 = clean(l2[28:35])
		d.check("composite", l2[0:10]+l2[13:20]+l2[21:35], l2[35])
	default:
		d.Opt1 = clean(l2[28:n])
	}
	return d
}

func parseTD1(lines []string) *Document {
	l1, l2, l3 := lines[0], lines[1], lines[2]
	d := &Document{Layout: LayoutTD1, Raw: strings.Join(lines, "\n")}
	d.DocumentCode = strings.TrimRight(l1[0:2], "<")
	d.Issuer = clean(l1[2:5])

	number, numberDigit := l1[5:14], l1[14]
	opt1 := l1[15:30]
	if numberDigit == '<' && strings.Trim(number, "<") != "" {
		// Long document numbers continue in the optional field; the last
		// character before the filler is their check digit.
		ext := strings.TrimRight(opt1, "<")
		if i := strings.IndexByte(ext, '<'); i >= 0 {
			ext = ext[:i]
		}
		if len(ext) > 0 {
			number += ext[:len(ext)-1]
			numberDigit = ext[len(ext)-1]
			opt1 = opt1[len(ext):]
		}
	}
	d.DocumentNumber = clean(number)
	d.Opt1 = clean(opt1)
	d.check("document_number", number, numberDigit)

	d.DateOfBirth = l2[0:6]
	d.check("date_of_birth", l2[0:6], l2[6])
	d.Sex = clean(l2[7:8])
	d.DateOfExpiry = l2[8:14]
	d.check("date_of_expiry", l2[8:14], l2[14])
	d.Nationality = clean(l2[15:18])
	d.Opt2 = clean(l2[18:29])
	d.check("composite", l1[5:30]+l2[0:7]+l2[8:15]+l2[18:29], l2[29])

	d.PrimaryID, d.SecondaryID = splitNames(l3)
	return d
}

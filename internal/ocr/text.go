package ocr

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// CleanOptions controls text post-processing.
type CleanOptions struct {
	NormalizeForm      string            // "NFC" (default), "NFKC", "NFD", "NFKD"
	CollapseWhitespace bool              // collapse runs of spaces and tabs within a line
	Trim               bool              // trim each line
	RemoveControlChars bool              // remove non-printable control characters
	RemoveZeroWidth    bool              // remove zero-width spaces and joiners
	ReplaceMap         map[string]string // replacements applied after normalization
}

// DefaultCleanOptions returns the defaults for OCR output. NFKC folds
// full-width and compatibility forms, which engines emit for MRZ fillers.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		NormalizeForm:      "NFKC",
		CollapseWhitespace: true,
		Trim:               true,
		RemoveControlChars: true,
		RemoveZeroWidth:    true,
		ReplaceMap:         DefaultReplaceMap(),
	}
}

// DefaultReplaceMap folds typographic punctuation to ASCII.
func DefaultReplaceMap() map[string]string {
	return map[string]string{
		"\u2018": "'",
		"\u2019": "'",
		"\u201C": "\"",
		"\u201D": "\"",
		"\u201E": "\"",
		"\u2013": "-",
		"\u2014": "-",
		"\u00A0": " ",
		"\u2009": " ",
	}
}

// CleanText normalizes OCR output line by line; line breaks are preserved.
func CleanText(s string, opts CleanOptions) string {
	if s == "" {
		return s
	}
	switch strings.ToUpper(opts.NormalizeForm) {
	case "NFKC":
		s = norm.NFKC.String(s)
	case "NFD":
		s = norm.NFD.String(s)
	case "NFKD":
		s = norm.NFKD.String(s)
	default:
		s = norm.NFC.String(s)
	}
	if opts.RemoveZeroWidth {
		s = strings.Map(func(r rune) rune {
			switch r {
			case '\u200B', '\u200C', '\u200D', '\uFEFF':
				return -1
			}
			return r
		}, s)
	}
	if opts.RemoveControlChars {
		s = strings.Map(func(r rune) rune {
			if r != '\n' && unicode.IsControl(r) {
				if r == '\t' || r == '\r' {
					return ' '
				}
				return -1
			}
			return r
		}, s)
	}
	if len(opts.ReplaceMap) > 0 {
		keys := make([]string, 0, len(opts.ReplaceMap))
		for k := range opts.ReplaceMap {
			keys = append(keys, k)
		}
		// Longer keys first so overlapping keys do not shadow each other.
		slices.SortFunc(keys, func(a, b string) int { return len(b) - len(a) })
		for _, k := range keys {
			s = strings.ReplaceAll(s, k, opts.ReplaceMap[k])
		}
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if opts.CollapseWhitespace {
			l = spaceRe.ReplaceAllString(l, " ")
		}
		if opts.Trim {
			l = strings.TrimSpace(l)
		}
		lines[i] = l
	}
	return strings.Join(lines, "\n")
}

var spaceRe = regexp.MustCompile(`[ \t]+`)

var upper = cases.Upper(language.Und)

// Upper upper-cases with full Unicode case mapping, so field extraction
// matches regardless of how the engine cased its output.
func Upper(s string) string { return upper.String(s) }

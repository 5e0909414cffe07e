package mrz

import (
	"strings"
	"unicode"
)

var confusions = strings.NewReplacer(
	"«", "<<",
	"‹", "<",
	"≪", "<<",
	"|", "<",
)

// Normalize cleans one OCR line: upper case, no whitespace, common filler
// look-alikes replaced by '<'. Characters outside the zone alphabet are
// dropped.
func Normalize(line string) string {
	line = confusions.Replace(strings.ToUpper(line))
	var sb strings.Builder
	for _, r := range line {
		switch {
		case unicode.IsSpace(r):
		case r == '<', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Find locates a machine readable zone among OCR lines. It returns the
// normalised zone lines, preferring the last candidate because zones sit
// at the bottom of documents.
func Find(lines []string) ([]string, bool) {
	norm := make([]string, 0, len(lines))
	for _, l := range lines {
		if n := Normalize(l); n != "" {
			norm = append(norm, n)
		}
	}
	for i := len(norm) - 1; i >= 0; i-- {
		n := len(norm[i])
		switch n {
		case 44, 36:
			if i >= 1 && len(norm[i-1]) == n && strings.Contains(norm[i-1], "<") {
				return []string{norm[i-1], norm[i]}, true
			}
		case 30:
			if i >= 2 && len(norm[i-1]) == 30 && len(norm[i-2]) == 30 {
				return []string{norm[i-2], norm[i-1], norm[i]}, true
			}
		}
	}
	return nil, false
}

// LooksLikeZone reports whether any line could belong to a zone: long,
// filler heavy and in the zone alphabet.
func LooksLikeZone(lines []string) bool {
	for _, l := range lines {
		n := Normalize(l)
		if len(n) >= 28 && strings.Count(n, "<") >= 3 {
			return true
		}
	}
	return false
}

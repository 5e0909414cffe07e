// Package parsers extracts typed fields from OCR text with configurable
// templates: raw text, regular expressions, dates and IBANs.
package parsers

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// Parser extracts one field from text.
type Parser interface {
	Name() string
	Type() settings.ParserType
	Parse(text string) (result.ParsedField, bool)
}

// New builds the parser described by spec.
func New(spec settings.ParserSpec) (Parser, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("parser without name: %w", status.ErrInvalidArgument)
	}
	base := base{name: spec.Name, typ: spec.Type, required: spec.Required}
	switch spec.Type {
	case settings.ParserRaw, "":
		base.typ = settings.ParserRaw
		return &rawParser{base: base}, nil
	case settings.ParserRegex:
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("parser %s: pattern %q: %w", spec.Name, spec.Pattern, status.ErrInvalidArgument)
		}
		return &regexParser{base: base, re: re}, nil
	case settings.ParserDate:
		layouts := spec.DateFormats
		if len(layouts) == 0 {
			layouts = DefaultDateFormats
		}
		return &dateParser{base: base, layouts: layouts}, nil
	case settings.ParserIBAN:
		return &ibanParser{base: base}, nil
	default:
		return nil, fmt.Errorf("parser %s: unknown type %q: %w", spec.Name, spec.Type, status.ErrInvalidArgument)
	}
}

type base struct {
	name     string
	typ      settings.ParserType
	required bool
}

func (b base) Name() string              { return b.name }
func (b base) Type() settings.ParserType { return b.typ }

func (b base) field(value string, found bool) result.ParsedField {
	return result.ParsedField{
		Parser:   b.name,
		Type:     string(b.typ),
		Value:    value,
		Required: b.required,
		Found:    found,
	}
}

type rawParser struct{ base }

func (p *rawParser) Parse(text string) (result.ParsedField, bool) {
	v := strings.TrimSpace(text)
	return p.field(v, v != ""), v != ""
}

type regexParser struct {
	base
	re *regexp.Regexp
}

func (p *regexParser) Parse(text string) (result.ParsedField, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return p.field("", false), false
	}
	v := m[0]
	if len(m) > 1 {
		v = m[1]
	}
	v = strings.TrimSpace(v)
	return p.field(v, v != ""), v != ""
}

// DefaultDateFormats are tried when a date parser lists none.
var DefaultDateFormats = []string{
	"02.01.2006",
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02.01.06",
}

var dateCandidate = regexp.MustCompile(`\b(\d{1,4}[./-]\d{1,2}[./-]\d{2,4}|\d{1,2} [A-Za-z]{3} \d{4})\b`)

type dateParser struct {
	base
	layouts []string
}

func (p *dateParser) Parse(text string) (result.ParsedField, bool) {
	for _, c := range dateCandidate.FindAllString(text, -1) {
		for _, layout := range p.layouts {
			if d, err := time.Parse(layout, c); err == nil {
				f := p.field(c, true)
				f.Date = &d
				return f, true
			}
		}
	}
	return p.field("", false), false
}

var ibanCandidate = regexp.MustCompile(`\b[A-Z]{2}\d{2}(?: ?[A-Z0-9]){11,30}\b`)

type ibanParser struct{ base }

func (p *ibanParser) Parse(text string) (result.ParsedField, bool) {
	for _, c := range ibanCandidate.FindAllString(strings.ToUpper(text), -1) {
		iban := strings.ReplaceAll(c, " ", "")
		if ValidIBAN(iban) {
			return p.field(iban, true), true
		}
	}
	return p.field("", false), false
}

// ValidIBAN checks length and the ISO 13616 mod-97 checksum.
func ValidIBAN(iban string) bool {
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}
	rearranged := iban[4:] + iban[:4]
	rem := 0
	for i := range len(rearranged) {
		c := rearranged[i]
		switch {
		case c >= '0' && c <= '9':
			rem = (rem*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			rem = (rem*100 + int(c-'A') + 10) % 97
		default:
			return false
		}
	}
	return rem == 1
}

// Template is a compiled set of parser groups.
type Template struct {
	groups []compiledGroup
}

type compiledGroup struct {
	name    string
	parsers []Parser
}

// Compile builds every parser in groups.
func Compile(groups []settings.ParserGroup) (*Template, error) {
	t := &Template{}
	for _, g := range groups {
		cg := compiledGroup{name: g.Name}
		for _, spec := range g.Parsers {
			p, err := New(spec)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", g.Name, err)
			}
			cg.parsers = append(cg.parsers, p)
		}
		t.groups = append(t.groups, cg)
	}
	return t, nil
}

// Run applies every parser to text.
func (t *Template) Run(text string) []result.ParsedGroup {
	out := make([]result.ParsedGroup, 0, len(t.groups))
	for _, g := range t.groups {
		pg := result.ParsedGroup{Name: g.name}
		for _, p := range g.parsers {
			f, _ := p.Parse(text)
			pg.Fields = append(pg.Fields, f)
		}
		out = append(out, pg)
	}
	return out
}

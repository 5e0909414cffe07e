// Package aamva parses the PDF417 payload of North American driver licenses
// and identity cards (AAMVA DL/ID card design standard).
package aamva

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotAAMVA is returned for payloads without the AAMVA header.
var ErrNotAAMVA = errors.New("not an AAMVA payload")

// Document is a parsed license payload.
type Document struct {
	IssuerID            string
	Version             int
	JurisdictionVersion int
	// SubfileType is "DL" or "ID".
	SubfileType string
	Fields      map[string]string
}

const (
	compliance = '@'
	headerLen  = 21 // "@\n\x1e\rANSI " + IIN(6) + version(2) + jurisdiction(2) + entries(2)
)

// Parse decodes a raw barcode payload. It is lenient about separators
// because jurisdictions vary in how strictly they follow the standard.
func Parse(data string) (*Document, error) {
	if len(data) < headerLen || data[0] != compliance {
		return nil, ErrNotAAMVA
	}
	idx := strings.Index(data, "ANSI ")
	if idx < 0 {
		idx = strings.Index(data, "AAMVA")
	}
	if idx < 0 || idx > 8 {
		return nil, ErrNotAAMVA
	}
	p := idx + 5
	if len(data) < p+12 {
		return nil, fmt.Errorf("truncated header: %w", ErrNotAAMVA)
	}
	doc := &Document{
		IssuerID: data[p : p+6],
		Fields:   make(map[string]string),
	}
	doc.Version, _ = strconv.Atoi(data[p+6 : p+8])
	entries := 1
	rest := p + 8
	if doc.Version >= 2 {
		doc.JurisdictionVersion, _ = strconv.Atoi(data[p+8 : p+10])
		entries, _ = strconv.Atoi(data[p+10 : p+12])
		rest = p + 12
	} else if n, err := strconv.Atoi(data[p+8 : p+10]); err == nil {
		entries = n
		rest = p + 10
	}

	body := locateSubfile(data, rest, entries, doc)
	if body == "" {
		return nil, fmt.Errorf("no DL or ID subfile: %w", ErrNotAAMVA)
	}
	parseElements(body, doc.Fields)
	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("no data elements: %w", ErrNotAAMVA)
	}
	return doc, nil
}

// locateSubfile reads the subfile designators and returns the body of the
// first DL or ID subfile, falling back to a search when offsets are wrong.
func locateSubfile(data string, pos, entries int, doc *Document) string {
	for i := 0; i < entries && pos+10 <= len(data); i++ {
		typ := data[pos : pos+2]
		offset, err1 := strconv.Atoi(data[pos+2 : pos+6])
		length, err2 := strconv.Atoi(data[pos+6 : pos+10])
		pos += 10
		if typ != "DL" && typ != "ID" {
			continue
		}
		doc.SubfileType = typ
		if err1 == nil && err2 == nil && offset+length <= len(data) && strings.HasPrefix(data[offset:], typ) {
			return data[offset+2 : offset+length]
		}
	}
	for _, typ := range []string{"DL", "ID"} {
		if i := strings.Index(data[min(pos, len(data)):], typ+"DAQ"); i >= 0 {
			doc.SubfileType = typ
			return data[pos+i+2:]
		}
		if i := strings.Index(data[min(pos, len(data)):], typ+"DCA"); i >= 0 {
			doc.SubfileType = typ
			return data[pos+i+2:]
		}
	}
	return ""
}

func parseElements(body string, fields map[string]string) {
	tokens := strings.FieldsFunc(body, func(r rune) bool {
		return r == '\n' || r == '\r' || r == '\x1e'
	})
	for _, tok := range tokens {
		if len(tok) < 3 || !isElementID(tok[:3]) {
			continue
		}
		id := tok[:3]
		if _, dup := fields[id]; dup {
			continue
		}
		fields[id] = strings.TrimSpace(tok[3:])
	}
}

func isElementID(s string) bool {
	if s[0] != 'D' && s[0] != 'Z' {
		return false
	}
	for i := 1; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

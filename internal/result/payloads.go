package result

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/MeKo-Tech/docscan/internal/status"
)

// Point is a location in upright image coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NamedImage is a crop attached to a result on request (full document,
// machine readable zone, face).
type NamedImage struct {
	Name  string      `json:"name" yaml:"name"`
	Image image.Image `json:"-" yaml:"-"`
}

// Barcode is the payload of BarDecoder, PDF417 and ZXing results.
type Barcode struct {
	Symbology string  `json:"symbology" yaml:"symbology"`
	Text      string  `json:"text" yaml:"text"`
	RawBytes  []byte  `json:"raw_bytes,omitempty" yaml:"raw_bytes,omitempty"`
	Uncertain bool    `json:"uncertain,omitempty" yaml:"uncertain,omitempty"`
	Inverted  bool    `json:"inverted,omitempty" yaml:"inverted,omitempty"`
	Points    []Point `json:"points,omitempty" yaml:"points,omitempty"`
}

func (b Barcode) empty() bool { return b.Text == "" && len(b.RawBytes) == 0 }
func (b Barcode) valid() bool { return !b.empty() && !b.Uncertain }

func (b Barcode) fingerprint() string {
	if b.Text != "" {
		return b.Symbology + "|" + b.Text
	}
	return fmt.Sprintf("%s|%x", b.Symbology, b.RawBytes)
}

// USDL is a parsed AAMVA driver license payload. Fields are keyed by the
// three letter AAMVA element identifiers (DAQ, DCS, DBB, ...).
type USDL struct {
	Version  int               `json:"version" yaml:"version"`
	IssuerID string            `json:"issuer_id" yaml:"issuer_id"`
	Fields   map[string]string `json:"fields" yaml:"fields"`
	Raw      string            `json:"raw" yaml:"raw"`
	RawBytes []byte            `json:"-" yaml:"-"`
	// Uncertain is set when the barcode decoded with a weak checksum.
	Uncertain bool `json:"uncertain,omitempty" yaml:"uncertain,omitempty"`
}

// Field returns the value of an AAMVA element. Keys outside the AAMVA
// element set fail with status.ErrUnknownKey; known keys that are absent
// from this license return "".
func (u USDL) Field(key string) (string, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if v, ok := u.Fields[key]; ok {
		return v, nil
	}
	if _, ok := USDLKeys[key]; !ok {
		return "", fmt.Errorf("usdl field %q: %w", key, status.ErrUnknownKey)
	}
	return "", nil
}

func (u USDL) empty() bool { return u.Raw == "" && len(u.Fields) == 0 }

func (u USDL) valid() bool {
	if u.Uncertain || u.Fields[USDLCustomerID] == "" {
		return false
	}
	return u.Fields[USDLFamilyName] != "" || u.Fields[USDLFullName] != ""
}

// MRTDDocumentType classifies a travel document by its MRZ layout and code.
type MRTDDocumentType int

const (
	MRTDUnknown MRTDDocumentType = iota
	MRTDIdentityCard
	MRTDPassport
	MRTDVisa
	MRTDGreenCard
)

func (t MRTDDocumentType) String() string {
	switch t {
	case MRTDIdentityCard:
		return "identity_card"
	case MRTDPassport:
		return "passport"
	case MRTDVisa:
		return "visa"
	case MRTDGreenCard:
		return "green_card"
	default:
		return "unknown"
	}
}

// MarshalText renders the type by name in JSON and YAML output.
func (t MRTDDocumentType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// MRTD is the payload of a machine readable travel document.
type MRTD struct {
	DocumentType             MRTDDocumentType `json:"document_type" yaml:"document_type"`
	DocumentCode             string           `json:"document_code" yaml:"document_code"`
	Issuer                   string           `json:"issuer" yaml:"issuer"`
	DocumentNumber           string           `json:"document_number" yaml:"document_number"`
	Opt1                     string           `json:"opt1,omitempty" yaml:"opt1,omitempty"`
	Opt2                     string           `json:"opt2,omitempty" yaml:"opt2,omitempty"`
	DateOfBirth              string           `json:"date_of_birth" yaml:"date_of_birth"`
	Sex                      string           `json:"sex" yaml:"sex"`
	DateOfExpiry             string           `json:"date_of_expiry" yaml:"date_of_expiry"`
	Nationality              string           `json:"nationality" yaml:"nationality"`
	PrimaryID                string           `json:"primary_id" yaml:"primary_id"`
	SecondaryID              string           `json:"secondary_id" yaml:"secondary_id"`
	AlienNumber              string           `json:"alien_number,omitempty" yaml:"alien_number,omitempty"`
	ApplicationReceiptNumber string           `json:"application_receipt_number,omitempty" yaml:"application_receipt_number,omitempty"`
	ImmigrantCaseNumber      string           `json:"immigrant_case_number,omitempty" yaml:"immigrant_case_number,omitempty"`
	RawMRZ                   string           `json:"raw_mrz" yaml:"raw_mrz"`
	// Parsed is false when only the raw zone text could be recovered.
	Parsed   bool         `json:"parsed" yaml:"parsed"`
	Verified bool         `json:"verified" yaml:"verified"`
	Images   []NamedImage `json:"images,omitempty" yaml:"images,omitempty"`
}

func (m MRTD) empty() bool { return m.RawMRZ == "" }
func (m MRTD) valid() bool { return m.Parsed && m.Verified }

// MyKad is the payload of a Malaysian identity card.
type MyKad struct {
	NRICNumber    string       `json:"nric_number" yaml:"nric_number"`
	OwnerFullName string       `json:"owner_full_name" yaml:"owner_full_name"`
	OwnerAddress  string       `json:"owner_address" yaml:"owner_address"`
	BirthDate     time.Time    `json:"birth_date" yaml:"birth_date"`
	Sex           string       `json:"sex" yaml:"sex"`
	Religion      string       `json:"religion,omitempty" yaml:"religion,omitempty"`
	Images        []NamedImage `json:"images,omitempty" yaml:"images,omitempty"`
}

func (m MyKad) empty() bool { return m.NRICNumber == "" && m.OwnerFullName == "" }
func (m MyKad) valid() bool { return m.NRICNumber != "" && !m.BirthDate.IsZero() && m.OwnerFullName != "" }

// IKad is the payload of a Malaysian immigrant card. Fields whose
// extraction was disabled are left empty.
type IKad struct {
	Name           string       `json:"name" yaml:"name"`
	PassportNumber string       `json:"passport_number,omitempty" yaml:"passport_number,omitempty"`
	DateOfExpiry   time.Time    `json:"date_of_expiry,omitzero" yaml:"date_of_expiry,omitempty"`
	Sector         string       `json:"sector,omitempty" yaml:"sector,omitempty"`
	Employer       string       `json:"employer,omitempty" yaml:"employer,omitempty"`
	Address        string       `json:"address,omitempty" yaml:"address,omitempty"`
	Nationality    string       `json:"nationality,omitempty" yaml:"nationality,omitempty"`
	Sex            string       `json:"sex,omitempty" yaml:"sex,omitempty"`
	Images         []NamedImage `json:"images,omitempty" yaml:"images,omitempty"`
	// Required lists the fields that had to be found for the card to be valid.
	Required []string `json:"-" yaml:"-"`
}

func (k IKad) empty() bool {
	return k.Name == "" && k.PassportNumber == "" && k.Employer == "" && k.Address == ""
}

func (k IKad) valid() bool {
	if k.Name == "" {
		return false
	}
	for _, f := range k.Required {
		if k.fieldValue(f) == "" {
			return false
		}
	}
	return true
}

func (k IKad) fieldValue(name string) string {
	switch name {
	case "passport_number":
		return k.PassportNumber
	case "date_of_expiry":
		if k.DateOfExpiry.IsZero() {
			return ""
		}
		return k.DateOfExpiry.Format(time.DateOnly)
	case "sector":
		return k.Sector
	case "employer":
		return k.Employer
	case "address":
		return k.Address
	case "nationality":
		return k.Nationality
	case "sex":
		return k.Sex
	default:
		return k.Name
	}
}

// ParsedField is the output of one template parser.
type ParsedField struct {
	Parser   string     `json:"parser" yaml:"parser"`
	Type     string     `json:"type" yaml:"type"`
	Value    string     `json:"value" yaml:"value"`
	Date     *time.Time `json:"date,omitempty" yaml:"date,omitempty"`
	Required bool       `json:"required,omitempty" yaml:"required,omitempty"`
	Found    bool       `json:"found" yaml:"found"`
}

// ParsedGroup collects the parsers run over one OCR pass.
type ParsedGroup struct {
	Name   string        `json:"name" yaml:"name"`
	Fields []ParsedField `json:"fields" yaml:"fields"`
}

// BlinkInput is the payload of free-form OCR template parsing.
type BlinkInput struct {
	Classification string        `json:"classification,omitempty" yaml:"classification,omitempty"`
	Text           string        `json:"text" yaml:"text"`
	Groups         []ParsedGroup `json:"groups" yaml:"groups"`
	Flipped        bool          `json:"flipped,omitempty" yaml:"flipped,omitempty"`
}

func (b BlinkInput) field(group, parser string) (ParsedField, bool) {
	for _, g := range b.Groups {
		if g.Name != group {
			continue
		}
		for _, f := range g.Fields {
			if f.Parser == parser && f.Found {
				return f, true
			}
		}
	}
	return ParsedField{}, false
}

// ParsedString returns the value a parser extracted.
func (b BlinkInput) ParsedString(group, parser string) (string, bool) {
	f, ok := b.field(group, parser)
	return f.Value, ok
}

// ParsedDate returns the date a date parser extracted.
func (b BlinkInput) ParsedDate(group, parser string) (time.Time, bool) {
	f, ok := b.field(group, parser)
	if !ok || f.Date == nil {
		return time.Time{}, false
	}
	return *f.Date, true
}

func (b BlinkInput) empty() bool {
	for _, g := range b.Groups {
		for _, f := range g.Fields {
			if f.Found {
				return false
			}
		}
	}
	return true
}

func (b BlinkInput) valid() bool {
	if b.empty() {
		return false
	}
	for _, g := range b.Groups {
		for _, f := range g.Fields {
			if f.Required && !f.Found {
				return false
			}
		}
	}
	return true
}

func (b BlinkInput) fingerprint() string {
	var sb strings.Builder
	for _, g := range b.Groups {
		for _, f := range g.Fields {
			if f.Found {
				fmt.Fprintf(&sb, "%s/%s=%s;", g.Name, f.Parser, f.Value)
			}
		}
	}
	return sb.String()
}

// Package result models recognition outcomes.
//
// A Result is a tagged union: its Kind says which payload is present, and
// the typed accessors return the payload only when the kind matches. Asking
// for the wrong payload is not an error; the accessor reports ok == false.
// A List is the ordered, immutable output of one recognition pass.
package result

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is one recognized item.
type Result struct {
	kind       Kind
	empty      bool
	valid      bool
	confidence float64

	barcode    *Barcode
	usdl       *USDL
	mrtd       *MRTD
	mykad      *MyKad
	ikad       *IKad
	blinkInput *BlinkInput
}

func newBarcode(kind Kind, b Barcode) Result {
	return Result{kind: kind, barcode: &b, empty: b.empty(), valid: b.valid(), confidence: 1}
}

// NewBarDecoder wraps a 1-D barcode from the dedicated decoder.
func NewBarDecoder(b Barcode) Result { return newBarcode(KindBarDecoder, b) }

// NewZXing wraps a barcode from the generic multi-format decoder.
func NewZXing(b Barcode) Result { return newBarcode(KindZXing, b) }

// NewPDF417 wraps a PDF417 symbol.
func NewPDF417(b Barcode) Result { return newBarcode(KindPDF417, b) }

// NewUSDL wraps a parsed driver license.
func NewUSDL(u USDL) Result {
	return Result{kind: KindUSDL, usdl: &u, empty: u.empty(), valid: u.valid(), confidence: 1}
}

// NewMRTD wraps a travel document zone.
func NewMRTD(m MRTD) Result {
	return Result{kind: KindMRTD, mrtd: &m, empty: m.empty(), valid: m.valid(), confidence: 1}
}

// NewMyKad wraps a MyKad card.
func NewMyKad(m MyKad) Result {
	return Result{kind: KindMyKad, mykad: &m, empty: m.empty(), valid: m.valid(), confidence: 1}
}

// NewIKad wraps an iKad card.
func NewIKad(k IKad) Result {
	return Result{kind: KindIKad, ikad: &k, empty: k.empty(), valid: k.valid(), confidence: 1}
}

// NewBlinkInput wraps template parser output.
func NewBlinkInput(b BlinkInput) Result {
	return Result{kind: KindBlinkInput, blinkInput: &b, empty: b.empty(), valid: b.valid(), confidence: 1}
}

// WithConfidence returns a copy carrying the back-end's confidence in [0,1].
func (r Result) WithConfidence(c float64) Result {
	r.confidence = min(max(c, 0), 1)
	return r
}

// Kind returns the payload tag.
func (r Result) Kind() Kind { return r.kind }

// IsEmpty reports that the back-end produced no data at all.
func (r Result) IsEmpty() bool { return r.kind == KindUnknown || r.empty }

// IsValid reports that the data passed the back-end's own consistency checks.
// A result can be non-empty and still invalid (for example an MRZ with a
// failed check digit).
func (r Result) IsValid() bool { return r.kind != KindUnknown && r.valid }

// Confidence is the back-end's score in [0,1].
func (r Result) Confidence() float64 { return r.confidence }

func (r Result) IsBarDecoder() bool { return r.kind == KindBarDecoder }
func (r Result) IsZXing() bool      { return r.kind == KindZXing }
func (r Result) IsPDF417() bool     { return r.kind == KindPDF417 }
func (r Result) IsUSDL() bool       { return r.kind == KindUSDL }
func (r Result) IsMRTD() bool       { return r.kind == KindMRTD }
func (r Result) IsMyKad() bool      { return r.kind == KindMyKad }
func (r Result) IsIKad() bool       { return r.kind == KindIKad }
func (r Result) IsBlinkInput() bool { return r.kind == KindBlinkInput }

// Barcode returns the payload of BarDecoder, ZXing and PDF417 results.
func (r Result) Barcode() (Barcode, bool) {
	if r.barcode == nil || !r.kind.IsBarcode() {
		return Barcode{}, false
	}
	return *r.barcode, true
}

// USDL returns the driver license payload.
func (r Result) USDL() (USDL, bool) {
	if r.usdl == nil || r.kind != KindUSDL {
		return USDL{}, false
	}
	return *r.usdl, true
}

// USDLField is a shortcut for USDL().Field(key). On a non-USDL result it
// returns "" and no error.
func (r Result) USDLField(key string) (string, error) {
	u, ok := r.USDL()
	if !ok {
		return "", nil
	}
	return u.Field(key)
}

// MRTD returns the travel document payload.
func (r Result) MRTD() (MRTD, bool) {
	if r.mrtd == nil || r.kind != KindMRTD {
		return MRTD{}, false
	}
	return *r.mrtd, true
}

// MyKad returns the MyKad payload.
func (r Result) MyKad() (MyKad, bool) {
	if r.mykad == nil || r.kind != KindMyKad {
		return MyKad{}, false
	}
	return *r.mykad, true
}

// IKad returns the iKad payload.
func (r Result) IKad() (IKad, bool) {
	if r.ikad == nil || r.kind != KindIKad {
		return IKad{}, false
	}
	return *r.ikad, true
}

// BlinkInput returns the template parser payload.
func (r Result) BlinkInput() (BlinkInput, bool) {
	if r.blinkInput == nil || r.kind != KindBlinkInput {
		return BlinkInput{}, false
	}
	return *r.blinkInput, true
}

// Images returns the crops attached to document results.
func (r Result) Images() []NamedImage {
	switch {
	case r.mrtd != nil:
		return r.mrtd.Images
	case r.mykad != nil:
		return r.mykad.Images
	case r.ikad != nil:
		return r.ikad.Images
	}
	return nil
}

// Fingerprint identifies the recognized content; two results with the same
// kind and fingerprint describe the same item.
func (r Result) Fingerprint() string {
	var body string
	switch {
	case r.barcode != nil:
		body = r.barcode.fingerprint()
	case r.usdl != nil:
		body = r.usdl.Raw
	case r.mrtd != nil:
		body = r.mrtd.RawMRZ
	case r.mykad != nil:
		body = r.mykad.NRICNumber + "|" + r.mykad.OwnerFullName
	case r.ikad != nil:
		body = r.ikad.PassportNumber + "|" + r.ikad.Name
	case r.blinkInput != nil:
		body = r.blinkInput.fingerprint()
	}
	return r.kind.String() + ":" + body
}

// Summary is a one-line human readable description used by the CLI.
func (r Result) Summary() string {
	var detail string
	switch {
	case r.barcode != nil:
		detail = fmt.Sprintf("%s %q", r.barcode.Symbology, r.barcode.Text)
	case r.usdl != nil:
		detail = strings.TrimSpace(r.usdl.Fields[USDLFirstName] + " " + r.usdl.Fields[USDLFamilyName] + " " + r.usdl.Fields[USDLCustomerID])
	case r.mrtd != nil:
		detail = fmt.Sprintf("%s %s %s, %s", r.mrtd.DocumentType, r.mrtd.DocumentNumber, r.mrtd.PrimaryID, r.mrtd.SecondaryID)
	case r.mykad != nil:
		detail = r.mykad.NRICNumber + " " + r.mykad.OwnerFullName
	case r.ikad != nil:
		detail = r.ikad.Name + " " + r.ikad.PassportNumber
	case r.blinkInput != nil:
		detail = r.blinkInput.fingerprint()
	}
	return fmt.Sprintf("[%s valid=%t] %s", r.kind, r.IsValid(), strings.TrimSpace(detail))
}

type wireResult struct {
	Kind       string      `json:"kind" yaml:"kind"`
	Empty      bool        `json:"empty" yaml:"empty"`
	Valid      bool        `json:"valid" yaml:"valid"`
	Confidence float64     `json:"confidence" yaml:"confidence"`
	Barcode    *Barcode    `json:"barcode,omitempty" yaml:"barcode,omitempty"`
	USDL       *USDL       `json:"usdl,omitempty" yaml:"usdl,omitempty"`
	MRTD       *MRTD       `json:"mrtd,omitempty" yaml:"mrtd,omitempty"`
	MyKad      *MyKad      `json:"mykad,omitempty" yaml:"mykad,omitempty"`
	IKad       *IKad       `json:"ikad,omitempty" yaml:"ikad,omitempty"`
	BlinkInput *BlinkInput `json:"blinkinput,omitempty" yaml:"blinkinput,omitempty"`
}

func (r Result) wire() wireResult {
	return wireResult{
		Kind:       r.kind.String(),
		Empty:      r.IsEmpty(),
		Valid:      r.IsValid(),
		Confidence: r.confidence,
		Barcode:    r.barcode,
		USDL:       r.usdl,
		MRTD:       r.mrtd,
		MyKad:      r.mykad,
		IKad:       r.ikad,
		BlinkInput: r.blinkInput,
	}
}

// MarshalJSON renders the kind tag next to the single populated payload.
func (r Result) MarshalJSON() ([]byte, error) { return json.Marshal(r.wire()) }

// MarshalYAML implements yaml.Marshaler.
func (r Result) MarshalYAML() (any, error) { return r.wire(), nil }

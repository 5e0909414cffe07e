package result

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/status"
)

// Kind tags the payload carried by a Result. The numeric order of the
// constants is the dispatch priority.
type Kind int

const (
	// KindUnknown marks a zero Result.
	KindUnknown Kind = iota
	// KindBarDecoder is a 1-D barcode from the dedicated Code39/Code128 decoder.
	KindBarDecoder
	// KindPDF417 is a PDF417 symbol.
	KindPDF417
	// KindUSDL is a US driver license (AAMVA) PDF417 payload.
	KindUSDL
	// KindMRTD is a machine readable travel document zone.
	KindMRTD
	// KindMyKad is a Malaysian identity card.
	KindMyKad
	// KindIKad is a Malaysian immigrant (foreign worker) card.
	KindIKad
	// KindZXing is any symbology handled by the generic multi-format decoder.
	KindZXing
	// KindBlinkInput is free-form OCR text run through template parsers.
	KindBlinkInput
)

// Priority lists every recognizable kind in dispatch order: barcode
// families, then document-field parsers, then generic 2-D and OCR formats.
var Priority = []Kind{
	KindBarDecoder,
	KindPDF417,
	KindUSDL,
	KindMRTD,
	KindMyKad,
	KindIKad,
	KindZXing,
	KindBlinkInput,
}

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindBarDecoder: "bardecoder",
	KindPDF417:     "pdf417",
	KindUSDL:       "usdl",
	KindMRTD:       "mrtd",
	KindMyKad:      "mykad",
	KindIKad:       "ikad",
	KindZXing:      "zxing",
	KindBlinkInput: "blinkinput",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Priority {
		if kindNames[k] == want {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("recognizer kind %q: %w", s, status.ErrInvalidArgument)
}

// IsBarcode reports whether results of this kind carry a Barcode payload.
func (k Kind) IsBarcode() bool {
	return k == KindBarDecoder || k == KindPDF417 || k == KindZXing
}

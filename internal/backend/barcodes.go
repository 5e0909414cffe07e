package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/MeKo-Tech/docscan/internal/aamva"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// barcodeBackend is the common shape of the barcode back-ends: a scan plan,
// a decoder for one variant and a function turning a symbol into a result.
type barcodeBackend struct {
	kind   result.Kind
	plan   scanPlan
	decode variantDecoder
	build  func(bc result.Barcode) (*result.Result, error)
}

func (b *barcodeBackend) Kind() result.Kind { return b.kind }

func (b *barcodeBackend) Attempt(ctx context.Context, in *Input) (*result.Result, error) {
	bc, err := scan(ctx, in.Gray(), b.plan, b.decode)
	if err != nil {
		return nil, fmt.Errorf("%s decode: %w", b.kind, err)
	}
	if bc == nil {
		return nil, nil
	}
	slog.Debug("Barcode decoded", "kind", b.kind, "symbology", bc.Symbology,
		"inverted", bc.Inverted, "uncertain", bc.Uncertain)
	return b.build(*bc)
}

// NewBarDecoder builds the 1-D Code39/Code128 back-end.
func NewBarDecoder(s *settings.Settings, _ *Deps) (Backend, error) {
	cfg, ok := s.BarDecoder()
	if !ok {
		return nil, fmt.Errorf("bar decoder disabled: %w", status.ErrInvalidArgument)
	}
	var readers []gozxing.Reader
	if cfg.ScanCode128 {
		readers = append(readers, oned.NewCode128Reader())
	}
	if cfg.ScanCode39 {
		readers = append(readers, oned.NewCode39Reader())
	}
	return &barcodeBackend{
		kind: result.KindBarDecoder,
		plan: scanPlan{
			inverse:   cfg.ShouldScanInverse,
			autoScale: cfg.UseAutoScale,
		},
		decode: readerDecoder(readers, cfg.TryHarder),
		build: func(bc result.Barcode) (*result.Result, error) {
			r := result.NewBarDecoder(bc)
			return &r, nil
		},
	}, nil
}

// NewZXing builds the generic 1-D/2-D back-end.
func NewZXing(s *settings.Settings, _ *Deps) (Backend, error) {
	cfg, ok := s.ZXing()
	if !ok {
		return nil, fmt.Errorf("zxing disabled: %w", status.ErrInvalidArgument)
	}
	var readers []gozxing.Reader
	add := func(on bool, r gozxing.Reader) {
		if on {
			readers = append(readers, r)
		}
	}
	add(cfg.ScanQRCode, qrcode.NewQRCodeReader())
	add(cfg.ScanDataMatrix, datamatrix.NewDataMatrixReader())
	add(cfg.ScanAztec, aztec.NewAztecReader())
	add(cfg.ScanEAN13, oned.NewEAN13Reader())
	add(cfg.ScanEAN8, oned.NewEAN8Reader())
	add(cfg.ScanUPCA, oned.NewUPCAReader())
	add(cfg.ScanUPCE, oned.NewUPCEReader())
	add(cfg.ScanITF, oned.NewITFReader())
	add(cfg.ScanCode128, oned.NewCode128Reader())
	add(cfg.ScanCode39, oned.NewCode39Reader())
	return &barcodeBackend{
		kind: result.KindZXing,
		plan: scanPlan{
			inverse:   cfg.ShouldScanInverse,
			autoScale: cfg.SlowThoroughScan,
			quietZone: cfg.SlowThoroughScan,
		},
		decode: readerDecoder(readers, cfg.SlowThoroughScan),
		build: func(bc result.Barcode) (*result.Result, error) {
			r := result.NewZXing(bc)
			return &r, nil
		},
	}, nil
}

// NewPDF417 builds the PDF417 back-end on the decoder in deps.
func NewPDF417(s *settings.Settings, deps *Deps) (Backend, error) {
	cfg, ok := s.PDF417()
	if !ok {
		return nil, fmt.Errorf("pdf417 disabled: %w", status.ErrInvalidArgument)
	}
	dec, err := deps.pdf417Decoder()
	if err != nil {
		return nil, err
	}
	return &barcodeBackend{
		kind: result.KindPDF417,
		plan: scanPlan{
			inverse:   cfg.ShouldScanInverse,
			quietZone: cfg.NullQuietZoneAllowed,
			pure:      cfg.ShouldScanUncertain,
		},
		decode: dec,
		build: func(bc result.Barcode) (*result.Result, error) {
			r := result.NewPDF417(bc)
			return &r, nil
		},
	}, nil
}

// NewUSDL builds the driver license back-end: PDF417 decoding followed by
// AAMVA parsing. Symbols that are not AAMVA payloads are no match.
func NewUSDL(s *settings.Settings, deps *Deps) (Backend, error) {
	cfg, ok := s.USDL()
	if !ok {
		return nil, fmt.Errorf("usdl disabled: %w", status.ErrInvalidArgument)
	}
	dec, err := deps.pdf417Decoder()
	if err != nil {
		return nil, err
	}
	return &barcodeBackend{
		kind: result.KindUSDL,
		plan: scanPlan{
			autoScale: cfg.UseAutoScale,
			quietZone: cfg.NullQuietZoneAllowed,
			pure:      cfg.ShouldScanUncertain,
		},
		decode: dec,
		build: func(bc result.Barcode) (*result.Result, error) {
			return usdlResult(bc.Text, bc.RawBytes, bc.Uncertain)
		},
	}, nil
}

// usdlResult parses an AAMVA payload. It returns nil when the payload is not
// a driver license.
func usdlResult(text string, raw []byte, uncertain bool) (*result.Result, error) {
	doc, err := aamva.Parse(text)
	if errors.Is(err, aamva.ErrNotAAMVA) {
		slog.Debug("PDF417 symbol is not an AAMVA payload")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse aamva payload: %w", err)
	}
	r := result.NewUSDL(result.USDL{
		Version:   doc.Version,
		IssuerID:  doc.IssuerID,
		Fields:    doc.Fields,
		Raw:       text,
		RawBytes:  raw,
		Uncertain: uncertain,
	})
	return &r, nil
}

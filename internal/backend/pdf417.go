package backend

import (
	"context"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"

	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// PDF417Symbol is a decoded PDF417 symbol. Points are in the coordinates of
// the image handed to the decoder.
type PDF417Symbol struct {
	Text     string
	RawBytes []byte
	Points   []result.Point
}

// PDF417Decoder locates and decodes a PDF417 symbol in img. It returns
// (nil, nil) when img holds none; errors are faults of the pass. pure
// requests the relaxed search for a symbol that fills the image.
//
// gozxing ships no PDF417 reader, so the PDF417 and USDL formats need a
// decoder supplied through Deps.
type PDF417Decoder interface {
	DecodePDF417(ctx context.Context, img *image.Gray, pure bool) (*PDF417Symbol, error)
}

// PDF417DecoderFunc adapts a function to PDF417Decoder.
type PDF417DecoderFunc func(ctx context.Context, img *image.Gray, pure bool) (*PDF417Symbol, error)

func (f PDF417DecoderFunc) DecodePDF417(ctx context.Context, img *image.Gray, pure bool) (*PDF417Symbol, error) {
	return f(ctx, img, pure)
}

// pdf417Decoder adapts the configured decoder to the variant scan.
func (d *Deps) pdf417Decoder() (variantDecoder, error) {
	if d == nil || d.PDF417 == nil {
		return nil, fmt.Errorf("no pdf417 decoder configured: %w", status.ErrResourceNotFound)
	}
	dec := d.PDF417
	return func(ctx context.Context, v variant, pure bool) (*result.Barcode, error) {
		sym, err := dec.DecodePDF417(ctx, v.img, pure)
		if err != nil || sym == nil {
			return nil, err
		}
		pts := make([]result.Point, len(sym.Points))
		for i, p := range sym.Points {
			pts[i] = v.unmap(p.X, p.Y)
		}
		return &result.Barcode{
			Symbology: symbology(gozxing.BarcodeFormat_PDF_417),
			Text:      sym.Text,
			RawBytes:  sym.RawBytes,
			Inverted:  v.inverted,
			Points:    pts,
		}, nil
	}, nil
}

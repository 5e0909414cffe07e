package backend

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"

	"github.com/MeKo-Tech/docscan/internal/result"
)

// scanPlan describes how a barcode back-end searches an image.
type scanPlan struct {
	tryHarder bool
	inverse   bool
	autoScale bool
	// quietZone pads the image with white so symbols touching the border
	// still decode.
	quietZone bool
	// pure adds a pass for symbols filling the image. Symbols found only by
	// that pass are reported as uncertain.
	pure bool
}

// variantDecoder decodes one variant. It returns (nil, nil) when the variant
// holds no symbol; points are already mapped back to the input.
type variantDecoder func(ctx context.Context, v variant, pure bool) (*result.Barcode, error)

// variant is one transformed copy of the input. Points decoded in it map
// back with (p - offset) / scale.
type variant struct {
	img      *image.Gray
	scale    float64
	offset   float64
	inverted bool
}

func (v variant) unmap(x, y float64) result.Point {
	return result.Point{X: (x - v.offset) / v.scale, Y: (y - v.offset) / v.scale}
}

const quietZoneWidth = 16

// scan runs decode over the variants of gray and returns the first symbol.
func scan(ctx context.Context, gray *image.Gray, plan scanPlan, decode variantDecoder) (*result.Barcode, error) {
	if decode == nil || gray == nil || gray.Rect.Empty() {
		return nil, nil
	}
	for _, v := range variants(gray, plan) {
		if bc, err := decode(ctx, v, false); err != nil || bc != nil {
			return bc, err
		}
	}
	if plan.pure {
		for _, v := range variants(gray, scanPlan{inverse: plan.inverse}) {
			bc, err := decode(ctx, v, true)
			if err != nil {
				return nil, err
			}
			if bc != nil {
				bc.Uncertain = true
				return bc, nil
			}
		}
	}
	return nil, nil
}

func variants(gray *image.Gray, plan scanPlan) []variant {
	base := []variant{{img: gray, scale: 1}}
	if plan.quietZone {
		base = append(base, variant{img: pad(gray, quietZoneWidth), scale: 1, offset: quietZoneWidth})
	}
	if plan.autoScale {
		if s := autoScaleFactor(gray.Rect.Dx(), gray.Rect.Dy()); s != 1 {
			w := max(1, int(float64(gray.Rect.Dx())*s))
			h := max(1, int(float64(gray.Rect.Dy())*s))
			scaled := toGray(imaging.Resize(gray, w, h, imaging.Lanczos))
			base = append(base, variant{img: scaled, scale: s})
		}
	}
	if !plan.inverse {
		return base
	}
	out := base
	for _, v := range base {
		inv := v
		inv.img = invert(v.img)
		inv.inverted = true
		out = append(out, inv)
	}
	return out
}

// readerDecoder tries the gozxing readers in order on each variant. It is
// nil when there are no readers.
func readerDecoder(readers []gozxing.Reader, tryHarder bool) variantDecoder {
	if len(readers) == 0 {
		return nil
	}
	hints := map[gozxing.DecodeHintType]interface{}{}
	if tryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	pureHints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_PURE_BARCODE: true,
	}
	return func(_ context.Context, v variant, pure bool) (*result.Barcode, error) {
		h := hints
		if pure {
			h = pureHints
		}
		bmp, err := gozxing.NewBinaryBitmapFromImage(v.img)
		if err != nil {
			return nil, err
		}
		for _, r := range readers {
			res, err := r.Decode(bmp, h)
			r.Reset()
			if err != nil {
				// gozxing reports "not found", checksum and format failures as
				// errors; none of them is a fault of the pass.
				if isDecodeMiss(err) {
					continue
				}
				return nil, err
			}
			if res == nil {
				continue
			}
			return &result.Barcode{
				Symbology: symbology(res.GetBarcodeFormat()),
				Text:      res.GetText(),
				RawBytes:  res.GetRawBytes(),
				Inverted:  v.inverted,
				Points:    mapPoints(res.GetResultPoints(), v),
			}, nil
		}
		return nil, nil
	}
}

func isDecodeMiss(err error) bool {
	var re gozxing.ReaderException
	return errors.As(err, &re)
}

func mapPoints(pts []gozxing.ResultPoint, v variant) []result.Point {
	if len(pts) == 0 {
		return nil
	}
	out := make([]result.Point, 0, len(pts))
	for _, p := range pts {
		if p == nil {
			continue
		}
		out = append(out, v.unmap(p.GetX(), p.GetY()))
	}
	return out
}

// autoScaleFactor brings tiny crops up and huge frames down to the size
// range the binarizer works best in.
func autoScaleFactor(w, h int) float64 {
	short := min(w, h)
	long := max(w, h)
	switch {
	case short < 200:
		return 2
	case long > 2400:
		return 1600 / float64(long)
	default:
		return 1
	}
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Rect, img, b.Min, draw.Src)
	return g
}

func invert(g *image.Gray) *image.Gray {
	out := image.NewGray(g.Rect)
	for i, p := range g.Pix {
		out.Pix[i] = 255 - p
	}
	return out
}

func pad(g *image.Gray, margin int) *image.Gray {
	b := g.Rect
	out := image.NewGray(image.Rect(0, 0, b.Dx()+2*margin, b.Dy()+2*margin))
	draw.Draw(out, out.Rect, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(margin, margin, margin+b.Dx(), margin+b.Dy()), g, b.Min, draw.Src)
	return out
}

var symbologies = map[gozxing.BarcodeFormat]string{
	gozxing.BarcodeFormat_AZTEC:       "aztec",
	gozxing.BarcodeFormat_CODABAR:     "codabar",
	gozxing.BarcodeFormat_CODE_39:     "code39",
	gozxing.BarcodeFormat_CODE_93:     "code93",
	gozxing.BarcodeFormat_CODE_128:    "code128",
	gozxing.BarcodeFormat_DATA_MATRIX: "data_matrix",
	gozxing.BarcodeFormat_EAN_8:       "ean8",
	gozxing.BarcodeFormat_EAN_13:      "ean13",
	gozxing.BarcodeFormat_ITF:         "itf",
	gozxing.BarcodeFormat_PDF_417:     "pdf417",
	gozxing.BarcodeFormat_QR_CODE:     "qr_code",
	gozxing.BarcodeFormat_UPC_A:       "upca",
	gozxing.BarcodeFormat_UPC_E:       "upce",
}

func symbology(f gozxing.BarcodeFormat) string {
	if s, ok := symbologies[f]; ok {
		return s
	}
	return "unknown"
}

package backend

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/docscan/internal/ocr"
	"github.com/MeKo-Tech/docscan/internal/result"
)

// ocrBackend holds what every OCR driven back-end needs.
type ocrBackend struct {
	kind      result.Kind
	engine    ocr.Engine
	languages []string
}

func newOCRBackend(kind result.Kind, deps *Deps, languages []string) (ocrBackend, error) {
	if deps == nil {
		return ocrBackend{}, fmt.Errorf("%s: missing dependencies", kind)
	}
	engine, err := deps.Engine()
	if err != nil {
		return ocrBackend{}, err
	}
	return ocrBackend{kind: kind, engine: engine, languages: languages}, nil
}

func (b ocrBackend) Kind() result.Kind { return b.kind }

func (b ocrBackend) lines(ctx context.Context, img image.Image, whitelist string) ([]ocr.Line, error) {
	lines, err := b.engine.RecognizeLines(ctx, img, ocr.Options{Languages: b.languages, Whitelist: whitelist})
	if err != nil {
		return nil, fmt.Errorf("%s ocr (%s): %w", b.kind, b.engine.Name(), err)
	}
	return lines, nil
}

// unionBox returns the smallest rectangle covering the boxes of lines.
func unionBox(lines []ocr.Line) image.Rectangle {
	var r image.Rectangle
	for _, l := range lines {
		r = r.Union(l.Box)
	}
	return r
}

// cropNamed crops img to rect (clipped to the image) as a named attachment.
func cropNamed(name string, img image.Image, rect image.Rectangle) (result.NamedImage, bool) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return result.NamedImage{}, false
	}
	return result.NamedImage{Name: name, Image: imaging.Crop(img, rect)}, true
}

// faceRegion is where a portrait sits on an upright ID-1 card: one third of
// the width below the header, on the left or right edge.
func faceRegion(b image.Rectangle, left bool) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if left {
		return image.Rect(b.Min.X+w/20, b.Min.Y+h/4, b.Min.X+w*7/20, b.Min.Y+h*17/20)
	}
	return image.Rect(b.Min.X+w*13/20, b.Min.Y+h/4, b.Min.X+w*19/20, b.Min.Y+h*17/20)
}

package testutil

import (
	"context"
	"image"
	"sync"

	"github.com/MeKo-Tech/docscan/internal/ocr"
)

// FakeEngine is a scripted OCR engine. It returns Lines for every call (or
// Err), records calls, and can block until released so tests can observe a
// running pass.
type FakeEngine struct {
	Lines []ocr.Line
	Err   error

	// Started receives one value per call when non-nil.
	Started chan struct{}
	// Release, when non-nil, is waited on before returning.
	Release chan struct{}
	// Flipped returns these lines instead when the image is upside down.
	FlippedLines []ocr.Line

	mu      sync.Mutex
	calls   int
	closed  bool
	options []ocr.Options
}

// NewFakeEngine returns an engine answering with one line per text.
func NewFakeEngine(texts ...string) *FakeEngine {
	return &FakeEngine{Lines: LinesOf(texts...)}
}

// LinesOf turns texts into full confidence OCR lines stacked 20 px apart.
func LinesOf(texts ...string) []ocr.Line {
	lines := make([]ocr.Line, len(texts))
	for i, t := range texts {
		lines[i] = ocr.Line{Text: t, Confidence: 0.99, Box: image.Rect(10, 10+20*i, 10+8*len(t), 26+20*i)}
	}
	return lines
}

// Name implements ocr.Engine.
func (f *FakeEngine) Name() string { return "fake" }

// RecognizeLines implements ocr.Engine.
func (f *FakeEngine) RecognizeLines(ctx context.Context, img image.Image, opts ocr.Options) ([]ocr.Line, error) {
	f.mu.Lock()
	f.calls++
	f.options = append(f.options, opts)
	f.mu.Unlock()
	if f.Started != nil {
		f.Started <- struct{}{}
	}
	if f.Release != nil {
		select {
		case <-f.Release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if f.FlippedLines != nil && isFlipped(img) {
		return f.FlippedLines, nil
	}
	return f.Lines, nil
}

// isFlipped detects the marker FlippedMarker paints in the bottom right
// corner: after a half turn it appears top left.
func isFlipped(img image.Image) bool {
	b := img.Bounds()
	r, _, _, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	return r>>8 == 1
}

// Close implements ocr.Engine.
func (f *FakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Calls returns how often RecognizeLines ran.
func (f *FakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Closed reports whether Close was called.
func (f *FakeEngine) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Options returns the options of every call.
func (f *FakeEngine) Options() []ocr.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ocr.Options(nil), f.options...)
}

// Factory returns an ocr.Factory handing out f.
func (f *FakeEngine) Factory() ocr.Factory {
	return func(string) (ocr.Engine, error) { return f, nil }
}

// FlippedMarker marks the bottom right pixel of img with gray level 1 so a
// FakeEngine can tell when it receives the image rotated by 180 degrees.
func FlippedMarker(img *image.Gray) {
	b := img.Bounds()
	img.Pix[(b.Dy()-1)*img.Stride+b.Dx()-1] = 1
}

// Package backend implements the format-specific recognizers a Recognizer
// dispatches to, and the Registry that constructs them from Settings.
//
// A Backend reports "no match" as (nil, nil). A non-nil error is a fault and
// aborts the whole recognition pass.
package backend

import (
	"context"
	"image"
	"image/draw"

	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/result"
)

// Backend recognizes one format.
type Backend interface {
	Kind() result.Kind
	Attempt(ctx context.Context, in *Input) (*result.Result, error)
}

// Input is the image material handed to every back-end of one pass.
type Input struct {
	// Raw is the bound image buffer, un-cropped and un-rotated.
	Raw *rawimage.Image
	// ROI is the region of interest in raw coordinates; empty means the whole
	// frame.
	ROI image.Rectangle
	// Upright is the ROI crop rotated to the canonical orientation.
	Upright image.Image

	gray *image.Gray
}

// NewInput wraps an upright working image.
func NewInput(raw *rawimage.Image, roi image.Rectangle, upright image.Image) *Input {
	return &Input{Raw: raw, ROI: roi, Upright: upright}
}

// Gray returns the luminance of Upright, computed once per Input.
func (in *Input) Gray() *image.Gray {
	if in.gray != nil {
		return in.gray
	}
	if g, ok := in.Upright.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		in.gray = g
		return g
	}
	b := in.Upright.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Rect, in.Upright, b.Min, draw.Src)
	in.gray = g
	return g
}

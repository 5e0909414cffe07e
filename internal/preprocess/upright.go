package preprocess

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// Upright rotates img so that its content is in the natural reading
// orientation, given the orientation it was captured in.
func Upright(img image.Image, o rawimage.Orientation) image.Image {
	switch o {
	case rawimage.LandscapeRight:
		return imaging.Rotate270(img)
	case rawimage.PortraitUpside:
		return imaging.Rotate180(img)
	case rawimage.LandscapeLeft:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// WorkingView crops img to roi (the whole frame when empty) and rotates the
// crop upright. This is the view back-ends recognize and result points refer
// to.
func WorkingView(img *rawimage.Image, roi image.Rectangle) image.Image {
	src := img.ToImage()
	if !roi.Empty() {
		src = imaging.Crop(src, roi)
	}
	return Upright(src, img.Orientation())
}

// Options bundles the optional corrections applied by Apply, in order:
// dewarp, then mirror.
type Options struct {
	Dewarp *Params
	Mirror *Axis
}

// Enabled reports whether any correction is configured.
func (o Options) Enabled() bool { return o.Dewarp != nil || o.Mirror != nil }

// Apply runs the configured corrections and returns a new image. The input
// is never modified. With no corrections configured, Apply returns a copy.
func Apply(img *rawimage.Image, opts Options) (*rawimage.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("preprocess: nil image: %w", status.ErrInvalidArgument)
	}
	var (
		out *rawimage.Image
		err error
	)
	if opts.Dewarp != nil {
		out, err = BarrelDewarp(img, *opts.Dewarp)
	} else {
		out, err = rawimage.Copy(img)
	}
	if err != nil {
		return nil, err
	}
	if opts.Mirror != nil {
		if err := Mirror(out, *opts.Mirror); err != nil {
			out.Release()
			return nil, err
		}
	}
	return out, nil
}

package preprocess

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// Axis selects the reflection performed by Mirror.
type Axis int

const (
	// AxisHorizontal swaps left and right.
	AxisHorizontal Axis = iota
	// AxisVertical swaps top and bottom.
	AxisVertical
)

func (a Axis) String() string {
	switch a {
	case AxisHorizontal:
		return "horizontal"
	case AxisVertical:
		return "vertical"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis accepts "horizontal" or "vertical".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal", "h":
		return AxisHorizontal, nil
	case "vertical", "v":
		return AxisVertical, nil
	default:
		return 0, fmt.Errorf("mirror axis %q: %w", s, status.ErrInvalidArgument)
	}
}

// Mirror reflects img in place. Format, geometry and orientation are unchanged.
func Mirror(img *rawimage.Image, axis Axis) error {
	if img == nil || img.Released() {
		return fmt.Errorf("mirror: nil or released image: %w", status.ErrInvalidArgument)
	}
	if axis != AxisHorizontal && axis != AxisVertical {
		return fmt.Errorf("mirror: axis %d: %w", int(axis), status.ErrInvalidArgument)
	}

	w, h, stride := img.Width(), img.Height(), img.BytesPerRow()
	pix := img.MutableBytes()
	if img.Format() == rawimage.FormatNV21 {
		mirrorPlane(pix[:stride*h], w, h, stride, 1, axis)
		// Each V/U pair is one chroma sample.
		mirrorPlane(pix[stride*h:], w/2, h/2, stride, 2, axis)
		return nil
	}
	mirrorPlane(pix, w, h, stride, img.Format().BytesPerPixel(), axis)
	return nil
}

// MirrorCopy returns a reflected copy and leaves img untouched.
func MirrorCopy(img *rawimage.Image, axis Axis) (*rawimage.Image, error) {
	out, err := rawimage.Copy(img)
	if err != nil {
		return nil, err
	}
	if err := Mirror(out, axis); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

func mirrorPlane(pix []byte, w, h, stride, bpp int, axis Axis) {
	if axis == AxisVertical {
		rowLen := w * bpp
		tmp := make([]byte, rowLen)
		for top, bottom := 0, h-1; top < bottom; top, bottom = top+1, bottom-1 {
			a := pix[top*stride : top*stride+rowLen]
			b := pix[bottom*stride : bottom*stride+rowLen]
			copy(tmp, a)
			copy(a, b)
			copy(b, tmp)
		}
		return
	}
	for y := range h {
		row := pix[y*stride:]
		for l, r := 0, w-1; l < r; l, r = l+1, r-1 {
			for c := range bpp {
				row[l*bpp+c], row[r*bpp+c] = row[r*bpp+c], row[l*bpp+c]
			}
		}
	}
}

package preprocess

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/MeKo-Tech/docscan/internal/rawimage"
)

// TestMirror_Involution verifies that mirroring twice over the same axis
// restores the original buffer for every format.
func TestMirror_Involution(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("mirror twice is identity", prop.ForAll(
		func(halfW, halfH, f, a int) bool {
			format := rawimage.PixelFormat(f)
			w, h := halfW*2, halfH*2
			stride := w * format.BytesPerPixel()
			need, err := rawimage.RequiredLen(w, h, stride, format)
			if err != nil {
				return false
			}
			data := make([]byte, need)
			for i := range data {
				data[i] = byte(i * 17)
			}
			img, err := rawimage.New(data, w, h, stride, format)
			if err != nil {
				return false
			}
			axis := Axis(a)
			if Mirror(img, axis) != nil || Mirror(img, axis) != nil {
				return false
			}
			return bytes.Equal(img.Bytes(), data)
		},
		gen.IntRange(1, 24),
		gen.IntRange(1, 24),
		gen.IntRange(int(rawimage.FormatBGRA), int(rawimage.FormatNV21)),
		gen.IntRange(int(AxisHorizontal), int(AxisVertical)),
	))

	properties.TestingRun(t)
}

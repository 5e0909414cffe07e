package rawimage

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestRawBytes_RoundTrip verifies that creating an image and reading its raw
// bytes yields exactly the geometry-covered prefix of the input.
func TestRawBytes_RoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("bytes round-trip for every valid geometry", prop.ForAll(
		func(halfW, halfH, pad, f int, seed uint8) bool {
			format := PixelFormat(f)
			w, h := halfW*2, halfH*2
			stride := w*format.BytesPerPixel() + pad
			need, err := RequiredLen(w, h, stride, format)
			if err != nil {
				return false
			}
			data := make([]byte, need+pad)
			for i := range data {
				data[i] = seed + byte(i*31)
			}
			img, err := New(data, w, h, stride, format)
			if err != nil {
				return false
			}
			defer img.Release()
			return bytes.Equal(img.Bytes(), data[:need]) &&
				img.Width() == w && img.Height() == h &&
				img.BytesPerRow() == stride && img.Format() == format
		},
		gen.IntRange(1, 40),
		gen.IntRange(1, 40),
		gen.IntRange(0, 16),
		gen.IntRange(int(FormatBGRA), int(FormatNV21)),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

package preprocess

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/status"
)

func newImage(t *testing.T, w, h int, format rawimage.PixelFormat) *rawimage.Image {
	t.Helper()
	stride := w * format.BytesPerPixel()
	need, err := rawimage.RequiredLen(w, h, stride, format)
	require.NoError(t, err)
	data := make([]byte, need)
	for i := range data {
		data[i] = byte((i*13 + i/stride*5) % 251)
	}
	img, err := rawimage.New(data, w, h, stride, format)
	require.NoError(t, err)
	return img
}

func TestBarrelDewarp_IdentityParams(t *testing.T) {
	for _, f := range []rawimage.PixelFormat{rawimage.FormatGray, rawimage.FormatBGR, rawimage.FormatBGRA, rawimage.FormatNV21} {
		t.Run(f.String(), func(t *testing.T) {
			img := newImage(t, 16, 10, f)
			require.NoError(t, img.SetOrientation(rawimage.LandscapeLeft))

			out, err := BarrelDewarp(img, IdentityParams())
			require.NoError(t, err)
			assert.Equal(t, img.Bytes(), out.Bytes())
			assert.Equal(t, f, out.Format())
			assert.Equal(t, rawimage.LandscapeLeft, out.Orientation())
			assert.NotSame(t, img, out)
		})
	}
}

func TestBarrelDewarp_InvalidParams(t *testing.T) {
	img := newImage(t, 8, 8, rawimage.FormatGray)
	cases := map[string]Params{
		"zero scale":     {Scale: 0},
		"negative scale": {Scale: -1},
		"nan k1":         {K1: math.NaN(), Scale: 1},
		"inf p2":         {P2: math.Inf(1), Scale: 1},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := BarrelDewarp(img, p)
			assert.ErrorIs(t, err, status.ErrInvalidArgument)
			_, err = NewBarrelDewarper(p)
			assert.ErrorIs(t, err, status.ErrInvalidArgument)
		})
	}
	_, err := BarrelDewarp(nil, IdentityParams())
	assert.ErrorIs(t, err, status.ErrInvalidArgument)
}

func TestBarrelDewarp_DoesNotMutateInput(t *testing.T) {
	img := newImage(t, 20, 20, rawimage.FormatBGR)
	before := img.Bytes()
	gen := img.Generation()

	d, err := NewBarrelDewarper(Params{K1: 0.3, K2: -0.05, Scale: 1.1})
	require.NoError(t, err)
	out, err := d.Dewarp(img)
	require.NoError(t, err)

	assert.Equal(t, before, img.Bytes())
	assert.Equal(t, gen, img.Generation())
	assert.NotEqual(t, before, out.Bytes())
	assert.Equal(t, 0.3, d.Params().K1)
}

func TestBarrelDewarp_OutOfFrameIsZero(t *testing.T) {
	data := make([]byte, 10*10)
	for i := range data {
		data[i] = 200
	}
	img, err := rawimage.New(data, 10, 10, 10, rawimage.FormatGray)
	require.NoError(t, err)

	out, err := BarrelDewarp(img, Params{Scale: 3})
	require.NoError(t, err)
	pix := out.Bytes()
	assert.Equal(t, byte(0), pix[0], "corner samples outside the frame")
	assert.Equal(t, byte(200), pix[5*10+5], "centre still samples the frame")
}

func TestMirror_HorizontalBGR(t *testing.T) {
	data := []byte{
		1, 2, 3, 4, 5, 6, 7, 8, 9, 0xEE,
	}
	img, err := rawimage.New(data, 3, 1, 10, rawimage.FormatBGR)
	require.NoError(t, err)
	require.NoError(t, Mirror(img, AxisHorizontal))
	assert.Equal(t, []byte{7, 8, 9, 4, 5, 6, 1, 2, 3, 0xEE}, img.Bytes(), "row padding is untouched")
}

func TestMirror_VerticalGray(t *testing.T) {
	img, err := rawimage.New([]byte{1, 2, 3, 4, 5, 6}, 2, 3, 2, rawimage.FormatGray)
	require.NoError(t, err)
	gen := img.Generation()
	require.NoError(t, Mirror(img, AxisVertical))
	assert.Equal(t, []byte{5, 6, 3, 4, 1, 2}, img.Bytes())
	assert.Greater(t, img.Generation(), gen)
}

func TestMirror_NV21Chroma(t *testing.T) {
	data := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		10, 11, 20, 21,
	}
	img, err := rawimage.New(data, 4, 2, 4, rawimage.FormatNV21)
	require.NoError(t, err)
	require.NoError(t, Mirror(img, AxisHorizontal))
	assert.Equal(t, []byte{
		4, 3, 2, 1,
		8, 7, 6, 5,
		20, 21, 10, 11,
	}, img.Bytes())
}

func TestMirror_InvalidArguments(t *testing.T) {
	img := newImage(t, 4, 4, rawimage.FormatGray)
	assert.ErrorIs(t, Mirror(img, Axis(7)), status.ErrInvalidArgument)
	assert.ErrorIs(t, Mirror(nil, AxisHorizontal), status.ErrInvalidArgument)

	_, err := ParseAxis("diagonal")
	assert.ErrorIs(t, err, status.ErrInvalidArgument)
	a, err := ParseAxis("Vertical")
	require.NoError(t, err)
	assert.Equal(t, AxisVertical, a)
}

func TestMirrorCopy_LeavesInput(t *testing.T) {
	img := newImage(t, 6, 4, rawimage.FormatBGRA)
	before := img.Bytes()
	out, err := MirrorCopy(img, AxisHorizontal)
	require.NoError(t, err)
	assert.Equal(t, before, img.Bytes())
	assert.NotEqual(t, before, out.Bytes())
}

func TestUpright(t *testing.T) {
	img := newImage(t, 6, 4, rawimage.FormatGray).ToImage()
	assert.Equal(t, img, Upright(img, rawimage.Portrait))
	for _, o := range []rawimage.Orientation{rawimage.LandscapeLeft, rawimage.LandscapeRight} {
		b := Upright(img, o).Bounds()
		assert.Equal(t, 4, b.Dx(), o.String())
		assert.Equal(t, 6, b.Dy(), o.String())
	}
	b := Upright(img, rawimage.PortraitUpside).Bounds()
	assert.Equal(t, 6, b.Dx())
}

func TestWorkingView(t *testing.T) {
	img := newImage(t, 10, 6, rawimage.FormatGray)
	require.NoError(t, img.SetOrientation(rawimage.LandscapeRight))

	assert.Equal(t, image.Rect(0, 0, 6, 10), WorkingView(img, image.Rectangle{}).Bounds())
	assert.Equal(t, image.Rect(0, 0, 3, 4), WorkingView(img, image.Rect(2, 1, 6, 4)).Bounds())
}

func TestApply(t *testing.T) {
	img := newImage(t, 8, 8, rawimage.FormatGray)
	before := img.Bytes()

	plain, err := Apply(img, Options{})
	require.NoError(t, err)
	assert.Equal(t, before, plain.Bytes())
	assert.False(t, Options{}.Enabled())

	axis := AxisHorizontal
	params := IdentityParams()
	opts := Options{Dewarp: &params, Mirror: &axis}
	assert.True(t, opts.Enabled())
	out, err := Apply(img, opts)
	require.NoError(t, err)

	want, err := MirrorCopy(img, AxisHorizontal)
	require.NoError(t, err)
	assert.Equal(t, want.Bytes(), out.Bytes())
	assert.Equal(t, before, img.Bytes())

	_, err = Apply(nil, Options{})
	assert.ErrorIs(t, err, status.ErrInvalidArgument)
}

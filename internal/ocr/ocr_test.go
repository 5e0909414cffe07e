package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	in := "  P<UTO\u200bERIKSSON  \t ANNA \n\uff2c\uff18\uff19\uff18\u201c "
	got := CleanText(in, DefaultCleanOptions())
	assert.Equal(t, "P<UTOERIKSSON ANNA\nL898\"", got)
	assert.Empty(t, CleanText("", DefaultCleanOptions()))
}

func TestUpper(t *testing.T) {
	assert.Equal(t, "STRASSE", Upper("stra\u00dfe"))
}

func TestFilterWhitelist(t *testing.T) {
	assert.Equal(t, "AB 12", FilterWhitelist("aAB 1x2", "AB12"))
	assert.Equal(t, "free", FilterWhitelist("free", ""))
}

func TestLineHelpers(t *testing.T) {
	lines := []Line{{Text: "one", Confidence: 0.5}, {Text: "two", Confidence: 1}}
	assert.Equal(t, "one\ntwo", JoinLines(lines))
	assert.Equal(t, []string{"one", "two"}, Texts(lines))
	assert.InDelta(t, 0.75, MeanConfidence(lines), 1e-9)
	assert.Zero(t, MeanConfidence(nil))
}

func TestSplitLines(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 100))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	black := image.NewUniform(color.Black)
	draw.Draw(img, image.Rect(20, 10, 180, 22), black, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(40, 60, 120, 75), black, image.Point{}, draw.Src)

	rects := SplitLines(img)
	require.Len(t, rects, 2)
	assert.True(t, image.Rect(20, 10, 180, 22).In(rects[0]))
	assert.True(t, image.Rect(40, 60, 120, 75).In(rects[1]))
	assert.Less(t, rects[0].Max.Y, rects[1].Min.Y)
}

func TestSplitLines_BlankAndEmpty(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 50, 50))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	assert.Empty(t, SplitLines(img))
	assert.Empty(t, SplitLines(image.NewGray(image.Rectangle{})))
}

func TestResizeForRecognition(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 20))
	out := resizeForRecognition(img, 48, 0, 8)
	assert.Equal(t, 48, out.Bounds().Dy())
	assert.Zero(t, out.Bounds().Dx()%8)
	assert.GreaterOrEqual(t, out.Bounds().Dx(), 240)

	clamped := resizeForRecognition(img, 48, 100, 8)
	assert.Equal(t, 104, clamped.Bounds().Dx())
}

func TestNormalize(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, G: 0, B: 255, A: 255})
	dst := make([]float32, 6)
	normalize(img, dst)
	assert.InDelta(t, 1, dst[0], 1e-6)
	assert.InDelta(t, -1, dst[2], 1e-6)
	assert.InDelta(t, 1, dst[4], 1e-6)
}

package utils

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/testutil"
)

func listOf(rs ...result.Result) *result.List {
	agg := result.NewAggregator()
	for _, r := range rs {
		agg.Add(r)
	}
	return agg.List()
}

func isOverlay(img *image.RGBA, x, y int) bool {
	return img.RGBAAt(x, y) == OverlayColor
}

func TestAnnotate_QRPolygon(t *testing.T) {
	src := testutil.BlankImage(100, 100, 255)
	qr := result.NewZXing(result.Barcode{
		Symbology: "qr_code",
		Text:      "x",
		Points:    []result.Point{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 90, Y: 90}, {X: 10, Y: 90}},
	})
	out := Annotate(src, listOf(qr), 1)

	assert.True(t, isOverlay(out, 50, 10))
	assert.True(t, isOverlay(out, 90, 50))
	assert.False(t, isOverlay(out, 50, 50))
}

func TestAnnotate_LinearSymbolGetsBox(t *testing.T) {
	src := testutil.BlankImage(200, 100, 255)
	bar := result.NewBarDecoder(result.Barcode{
		Symbology: "code128",
		Text:      "ABC",
		Points:    []result.Point{{X: 20, Y: 50}, {X: 180, Y: 50}},
	})
	out := Annotate(src, listOf(bar), 1)
	assert.True(t, isOverlay(out, 100, 48))
	assert.False(t, isOverlay(out, 100, 50))
}

func TestAnnotate_IgnoresOtherKinds(t *testing.T) {
	src := testutil.BlankImage(20, 20, 255)
	out := Annotate(src, listOf(result.NewMRTD(result.MRTD{RawMRZ: "P<"})), 2)
	for y := range 20 {
		for x := range 20 {
			assert.False(t, isOverlay(out, x, y))
		}
	}
	assert.Equal(t, image.Rect(0, 0, 20, 20), Annotate(src, nil, 1).Bounds())
}

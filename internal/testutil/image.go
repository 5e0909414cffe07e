package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MeKo-Tech/docscan/internal/rawimage"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test image sizes.
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
	LargeSize  = ImageSize{1024, 768}
)

// TextImage renders lines top to bottom in black on white with the basic
// bitmap font. Each line is drawn at scale times the font size.
func TextImage(lines []string, size ImageSize, scale int) *image.Gray {
	scale = max(1, scale)
	face := basicfont.Face7x13
	lineH := face.Metrics().Height.Ceil()
	small := image.NewGray(image.Rect(0, 0, size.Width/scale, size.Height/scale))
	draw.Draw(small, small.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	d := &font.Drawer{Dst: small, Src: image.NewUniform(color.Black), Face: face}
	for i, l := range lines {
		d.Dot = fixed.P(4, (i+1)*(lineH+4))
		d.DrawString(l)
	}
	if scale == 1 {
		return small
	}
	return GrayImage(imaging.Resize(small, size.Width, size.Height, imaging.NearestNeighbor))
}

// BlankImage returns a uniformly coloured gray image.
func BlankImage(w, h int, c uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = c
	}
	return img
}

// QRImage encodes text as a QR code of roughly size×size pixels.
func QRImage(t testing.TB, text string, size int) *image.Gray {
	t.Helper()
	m, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	require.NoError(t, err)
	return bitMatrixImage(m)
}

// Code128Image encodes text as a Code 128 barcode.
func Code128Image(t testing.TB, text string, w, h int) *image.Gray {
	t.Helper()
	m, err := oned.NewCode128Writer().Encode(text, gozxing.BarcodeFormat_CODE_128, w, h, nil)
	require.NoError(t, err)
	return bitMatrixImage(m)
}

func bitMatrixImage(m *gozxing.BitMatrix) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.GetWidth(), m.GetHeight()))
	for y := range m.GetHeight() {
		for x := range m.GetWidth() {
			if !m.Get(x, y) {
				img.Pix[y*img.Stride+x] = 0xFF
			}
		}
	}
	return img
}

// Compose pastes img onto a white canvas of the given size at pt.
func Compose(size ImageSize, img image.Image, pt image.Point) *image.Gray {
	canvas := BlankImage(size.Width, size.Height, 0xFF)
	draw.Draw(canvas, img.Bounds().Sub(img.Bounds().Min).Add(pt), img, img.Bounds().Min, draw.Src)
	return canvas
}

// GrayImage converts any image to gray with a zero origin.
func GrayImage(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Rect, img, b.Min, draw.Src)
	return g
}

// RawImage wraps img in an image buffer of the requested format.
func RawImage(t testing.TB, img image.Image, format rawimage.PixelFormat) *rawimage.Image {
	t.Helper()
	raw, err := rawimage.FromImage(img, format)
	require.NoError(t, err)
	return raw
}

// SaveImage saves an image as PNG, creating parent directories.
func SaveImage(t testing.TB, img image.Image, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()
	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

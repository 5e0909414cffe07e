package utils

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/testutil"
)

func TestIsSupportedImage(t *testing.T) {
	for path, want := range map[string]bool{
		"a.png":      true,
		"b.JPG":      true,
		"c.tiff":     true,
		"d.webp":     true,
		"e.gif":      false,
		"f":          false,
		"scan.pdf":   false,
		"dir/g.jpeg": true,
	} {
		assert.Equal(t, want, IsSupportedImage(path), path)
	}
}

func TestSaveAndLoadImage(t *testing.T) {
	dir := t.TempDir()
	src := testutil.BlankImage(40, 30, 90)
	src.SetGray(3, 4, color.Gray{Y: 250})

	path := filepath.Join(dir, "nested", "frame.png")
	require.NoError(t, SaveImage(path, src))

	img, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 40, meta.Width)
	assert.Equal(t, 30, meta.Height)
	assert.Positive(t, meta.SizeBytes)
	r, _, _, _ := img.At(3, 4).RGBA()
	assert.Equal(t, uint32(250), r>>8)
}

func TestLoadRawImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, SaveImage(path, testutil.BlankImage(64, 48, 128)))

	raw, meta, err := LoadRawImage(path, rawimage.LandscapeLeft)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", meta.Format)
	assert.Equal(t, rawimage.FormatBGRA, raw.Format())
	assert.Equal(t, rawimage.LandscapeLeft, raw.Orientation())
	assert.Equal(t, image.Rect(0, 0, 64, 48), raw.Bounds())
}

func TestLoadImage_Errors(t *testing.T) {
	_, _, err := LoadImage("")
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "load", ipe.Operation)

	_, _, err = LoadImage("scan.gif")
	require.Error(t, err)

	_, _, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	require.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o600))
	_, _, err = LoadImage(bad)
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)
}

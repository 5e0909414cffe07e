// Package utils holds the image file helpers shared by the CLI and the batch
// runner: decoding input files into raw frames, writing result crops and
// drawing result overlays.
package utils

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/MeKo-Tech/docscan/internal/preprocess"
	"github.com/MeKo-Tech/docscan/internal/rawimage"
)

// ImageProcessingError represents errors that can occur during image file handling.
type ImageProcessingError struct {
	Operation string
	Path      string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("image %s error for %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("image %s error: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	return slices.Contains(SupportedImageExtensions, strings.ToLower(filepath.Ext(path)))
}

// ImageMetadata captures lightweight file and pixel information.
type ImageMetadata struct {
	Path      string `json:"path" yaml:"path"`
	Format    string `json:"format" yaml:"format"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
}

// LoadImage opens and decodes an image file, returning the image and metadata.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	if path == "" {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
	}
	if !IsSupportedImage(path) {
		err := fmt.Errorf("unsupported format: %s", filepath.Ext(path))
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Path: path, Err: err}
	}

	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided image file path is expected
	if err != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Path: path, Err: err}
	}

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "decode", Path: path, Err: err}
	}

	b := img.Bounds()
	return img, ImageMetadata{
		Path:      path,
		Format:    format,
		SizeBytes: fi.Size(),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}, nil
}

// LoadRawImage decodes an image file into a BGRA frame buffer with the
// given capture orientation.
func LoadRawImage(path string, o rawimage.Orientation) (*rawimage.Image, ImageMetadata, error) {
	img, meta, err := LoadImage(path)
	if err != nil {
		return nil, meta, err
	}
	return ToRaw(img, o, meta)
}

// ToRaw wraps a decoded image in a BGRA frame buffer.
func ToRaw(img image.Image, o rawimage.Orientation, meta ImageMetadata) (*rawimage.Image, ImageMetadata, error) {
	raw, err := rawimage.FromImage(img, rawimage.FormatBGRA)
	if err != nil {
		return nil, meta, &ImageProcessingError{Operation: "convert", Path: meta.Path, Err: err}
	}
	if err := raw.SetOrientation(o); err != nil {
		raw.Release()
		return nil, meta, &ImageProcessingError{Operation: "convert", Path: meta.Path, Err: err}
	}
	return raw, meta, nil
}

// PrepareRaw converts a decoded image into a frame buffer captured in
// orientation o and applies the configured corrections. The caller owns the
// returned buffer.
func PrepareRaw(img image.Image, o rawimage.Orientation, opts preprocess.Options, meta ImageMetadata) (*rawimage.Image, error) {
	raw, _, err := ToRaw(img, o, meta)
	if err != nil || !opts.Enabled() {
		return raw, err
	}
	defer raw.Release()
	out, err := preprocess.Apply(raw, opts)
	if err != nil {
		return nil, &ImageProcessingError{Operation: "preprocess", Path: meta.Path, Err: err}
	}
	return out, nil
}

// SaveImage encodes img as PNG or JPEG depending on the extension of path,
// creating parent directories.
func SaveImage(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return &ImageProcessingError{Operation: "save", Path: path, Err: err}
	}
	f, err := os.Create(path) //nolint:gosec // G304: output path chosen by the user
	if err != nil {
		return &ImageProcessingError{Operation: "save", Path: path, Err: err}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &ImageProcessingError{Operation: "save", Path: path, Err: err}
	}
	return nil
}

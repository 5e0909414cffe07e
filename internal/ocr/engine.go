// Package ocr defines the text recognition contract used by the OCR-backed
// recognizers (MRTD, MyKad, iKad, BlinkInput) and ships two engines.
//
// The default build links the ONNX Runtime CTC line recognizer. Building with
// -tags=ocr_tesseract links the Tesseract engine (requires libtesseract)
// instead:
//
//	go build -tags=ocr_tesseract ./...
package ocr

import (
	"context"
	"image"
	"strings"
)

// Line is one recognized text line in the coordinates of the input image.
type Line struct {
	Text       string
	Confidence float64
	Box        image.Rectangle
}

// Options tune a single recognition call.
type Options struct {
	// Languages are engine specific codes ("eng", "msa"). Empty uses the
	// engine default.
	Languages []string
	// Whitelist restricts output characters. Empty allows everything.
	Whitelist string
}

// Engine recognizes text lines in an image. Implementations must be safe
// for sequential reuse; concurrent use is only required when documented.
type Engine interface {
	Name() string
	RecognizeLines(ctx context.Context, img image.Image, opts Options) ([]Line, error)
	Close() error
}

// Factory constructs an engine that loads its data from resourcesDir.
type Factory func(resourcesDir string) (Engine, error)

// DefaultFactory builds the engine linked into this binary.
func DefaultFactory(resourcesDir string) (Engine, error) {
	return newDefaultEngine(resourcesDir)
}

// JoinLines returns the text of all lines separated by newlines.
func JoinLines(lines []Line) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, "\n")
}

// Texts returns the text of each line.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

// MeanConfidence averages line confidences; 0 for no lines.
func MeanConfidence(lines []Line) float64 {
	if len(lines) == 0 {
		return 0
	}
	var s float64
	for _, l := range lines {
		s += l.Confidence
	}
	return s / float64(len(lines))
}

// FilterWhitelist drops runes that are not in whitelist. An empty whitelist
// keeps everything. Spaces are always kept.
func FilterWhitelist(s, whitelist string) string {
	if whitelist == "" {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		if r == ' ' || strings.ContainsRune(whitelist, r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

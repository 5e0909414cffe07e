//go:build ocr_tesseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/MeKo-Tech/docscan/internal/models"
	"github.com/MeKo-Tech/docscan/internal/status"
)

func newDefaultEngine(resourcesDir string) (Engine, error) {
	return NewTesseractEngine(models.TessdataDir(resourcesDir)), nil
}

// TesseractEngine recognizes lines through libtesseract. One client is
// created per call.
type TesseractEngine struct {
	tessdata      string
	clientFactory func() *gosseract.Client
	mu            sync.Mutex
}

// NewTesseractEngine creates an engine reading language data from tessdata.
func NewTesseractEngine(tessdata string) *TesseractEngine {
	return &TesseractEngine{tessdata: tessdata, clientFactory: gosseract.NewClient}
}

// Name implements Engine.
func (e *TesseractEngine) Name() string { return "tesseract" }

// RecognizeLines implements Engine.
func (e *TesseractEngine) RecognizeLines(ctx context.Context, img image.Image, opts Options) ([]Line, error) {
	if img == nil {
		return nil, fmt.Errorf("recognize lines: nil image: %w", status.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	c := e.clientFactory()
	defer func() { _ = c.Close() }()
	if e.tessdata != "" {
		if err := c.SetTessdataPrefix(e.tessdata); err != nil {
			return nil, fmt.Errorf("set tessdata: %w", err)
		}
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(opts.Languages) > 0 {
		if err := c.SetLanguage(opts.Languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if opts.Whitelist != "" {
		if err := c.SetWhitelist(opts.Whitelist); err != nil {
			return nil, fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	lines := make([]Line, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(CleanText(b.Word, DefaultCleanOptions()))
		text = FilterWhitelist(text, opts.Whitelist)
		if text == "" {
			continue
		}
		lines = append(lines, Line{Text: text, Confidence: b.Confidence / 100.0, Box: b.Box})
	}
	return lines, nil
}

// Close implements Engine.
func (e *TesseractEngine) Close() error { return nil }

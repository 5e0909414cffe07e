package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/docscan/internal/preprocess"
	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/status"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

// Scanner runs one recognition pass over a frame. *recognizer.Recognizer
// satisfies it.
type Scanner interface {
	Recognize(ctx context.Context, img *rawimage.Image) (*result.List, error)
}

// ProcessorConfig contains configuration for PDF scanning.
type ProcessorConfig struct {
	// Orientation the page images are assumed to be captured in.
	Orientation rawimage.Orientation
	// Corrections applied to every page image before recognition.
	Preprocess preprocess.Options
	// Passwords for encrypted documents.
	Credentials *Credentials
	// Minimum image side in pixels; smaller images (logos, bullets) are skipped.
	MinImageSize int
}

// DefaultProcessorConfig returns the default processor configuration.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		Orientation:  rawimage.Portrait,
		MinImageSize: 32,
	}
}

// Processor scans the images embedded in PDF documents.
type Processor struct {
	scanner Scanner
	config  ProcessorConfig
	extract func(filename, pageRange string, creds *Credentials) (map[int][]image.Image, error)
}

// NewProcessor creates a PDF processor that recognizes with scanner.
func NewProcessor(scanner Scanner, config ProcessorConfig) (*Processor, error) {
	if scanner == nil {
		return nil, fmt.Errorf("pdf processor: nil scanner: %w", status.ErrInvalidArgument)
	}
	if !config.Orientation.Valid() {
		return nil, fmt.Errorf("pdf processor: orientation %d: %w", config.Orientation, status.ErrInvalidArgument)
	}
	return &Processor{scanner: scanner, config: config, extract: ExtractImagesWithCredentials}, nil
}

// ProcessFile scans the selected pages of filename. Recognition errors abort
// the document; cancellation surfaces as status.ErrCancelled.
func (p *Processor) ProcessFile(ctx context.Context, filename string, pageRange string) (*DocumentResult, error) {
	if filename == "" {
		return nil, fmt.Errorf("pdf processor: empty filename: %w", status.ErrInvalidArgument)
	}
	startTime := time.Now()

	pageImages, err := p.extract(filename, pageRange, p.config.Credentials)
	if err != nil {
		if IsPasswordError(err) && p.config.Credentials.Empty() {
			return nil, fmt.Errorf("%s is encrypted, a password is required: %w", filename, err)
		}
		return nil, err
	}
	extractTime := time.Since(startTime)
	slog.Debug("Extracted PDF images", "file", filename, "pages", len(pageImages), "duration", extractTime)

	doc := &DocumentResult{Filename: filename, Pages: make([]PageResult, 0, len(pageImages))}
	var recognitionTime time.Duration
	for _, pageNum := range sortedPages(pageImages) {
		page, err := p.processPage(ctx, pageNum, pageImages[pageNum])
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNum, err)
		}
		recognitionTime += time.Duration(page.Processing.RecognitionTimeMs) * time.Millisecond
		doc.Pages = append(doc.Pages, *page)
	}

	doc.TotalPages = len(doc.Pages)
	if n, err := PageCount(filename, p.config.Credentials); err == nil {
		doc.TotalPages = n
	}
	doc.Processing = ProcessingInfo{
		ExtractionTimeMs:  extractTime.Milliseconds(),
		RecognitionTimeMs: recognitionTime.Milliseconds(),
		TotalTimeMs:       time.Since(startTime).Milliseconds(),
	}
	return doc, nil
}

func (p *Processor) processPage(ctx context.Context, pageNum int, images []image.Image) (*PageResult, error) {
	pageStart := time.Now()
	page := &PageResult{PageNumber: pageNum, Images: make([]ImageResult, 0, len(images))}

	for i, img := range images {
		b := img.Bounds()
		if min(b.Dx(), b.Dy()) < p.config.MinImageSize {
			slog.Debug("Skipping small PDF image", "page", pageNum, "index", i, "width", b.Dx(), "height", b.Dy())
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Join(status.ErrCancelled, err)
		}

		list, err := p.scanImage(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		page.Images = append(page.Images, ImageResult{
			ImageIndex: i,
			Width:      b.Dx(),
			Height:     b.Dy(),
			Results:    list,
		})
	}

	page.Processing.RecognitionTimeMs = time.Since(pageStart).Milliseconds()
	page.Processing.TotalTimeMs = page.Processing.RecognitionTimeMs
	return page, nil
}

func (p *Processor) scanImage(ctx context.Context, img image.Image) (*result.List, error) {
	raw, err := utils.PrepareRaw(img, p.config.Orientation, p.config.Preprocess, utils.ImageMetadata{})
	if err != nil {
		return nil, err
	}
	defer raw.Release()
	return p.scanner.Recognize(ctx, raw)
}

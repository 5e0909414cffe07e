package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/docscan/internal/ocr"
	"github.com/MeKo-Tech/docscan/internal/parsers"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/status"
)

type blinkInputBackend struct {
	ocrBackend
	cfg      settings.BlinkInputSettings
	template *parsers.Template
}

// NewBlinkInput builds the template parsing back-end. Invalid parser
// definitions fail here, before the first pass.
func NewBlinkInput(s *settings.Settings, deps *Deps) (Backend, error) {
	cfg, ok := s.BlinkInput()
	if !ok {
		return nil, fmt.Errorf("blinkinput disabled: %w", status.ErrInvalidArgument)
	}
	tmpl, err := parsers.Compile(cfg.Groups)
	if err != nil {
		return nil, err
	}
	base, err := newOCRBackend(result.KindBlinkInput, deps, s.OCRLanguages())
	if err != nil {
		return nil, err
	}
	return &blinkInputBackend{ocrBackend: base, cfg: cfg, template: tmpl}, nil
}

func (b *blinkInputBackend) Attempt(ctx context.Context, in *Input) (*result.Result, error) {
	r, err := b.parse(ctx, in, false)
	if err != nil || r != nil || !b.cfg.AllowFlippedRecognition {
		return r, err
	}
	slog.Debug("No template field found, retrying upside down")
	return b.parse(ctx, in, true)
}

func (b *blinkInputBackend) parse(ctx context.Context, in *Input, flipped bool) (*result.Result, error) {
	img := in.Upright
	if flipped {
		img = imaging.Rotate180(img)
	}
	lines, err := b.lines(ctx, img, "")
	if err != nil {
		return nil, err
	}
	text := ocr.JoinLines(lines)
	r := result.NewBlinkInput(result.BlinkInput{
		Classification: b.cfg.Classification,
		Text:           text,
		Groups:         b.template.Run(text),
		Flipped:        flipped,
	}).WithConfidence(ocr.MeanConfidence(lines))
	if r.IsEmpty() {
		return nil, nil
	}
	return &r, nil
}

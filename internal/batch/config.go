package batch

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/MeKo-Tech/docscan/internal/preprocess"
	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/result"
)

// Scanner is the part of a Recognizer a worker drives.
// *recognizer.Recognizer satisfies it.
type Scanner interface {
	SetImage(img *rawimage.Image) error
	SetROI(rect image.Rectangle) error
	ClearROI() error
	RecognizeImage(ctx context.Context) (*result.List, error)
	Close() error
}

// ScannerFactory creates one Scanner per worker.
type ScannerFactory func() (Scanner, error)

// Config holds all configuration for batch scanning.
type Config struct {
	// Frame handling
	Orientation rawimage.Orientation
	Preprocess  preprocess.Options
	ROI         image.Rectangle

	// Parallel processing settings
	Workers         int
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Artifacts
	OverlayDir string
	ImagesDir  string

	// Progress reporting; nil disables it.
	Progress ProgressCallback
}

// DefaultConfig returns the configuration used when the caller sets nothing.
func DefaultConfig() *Config {
	return &Config{Orientation: rawimage.Portrait, Workers: 1}
}

// ItemResult is the outcome of scanning one file.
type ItemResult struct {
	Path     string        `json:"file" yaml:"file"`
	Width    int           `json:"width,omitempty" yaml:"width,omitempty"`
	Height   int           `json:"height,omitempty" yaml:"height,omitempty"`
	Results  *result.List  `json:"results" yaml:"results"`
	Duration time.Duration `json:"-" yaml:"-"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`

	err error
}

// Err returns the error that stopped this file, if any.
func (r *ItemResult) Err() error { return r.err }

// Result holds the result of batch processing, in discovery order.
type Result struct {
	Items       []*ItemResult
	Duration    time.Duration
	WorkerCount int
}

// Stats summarizes a batch.
type Stats struct {
	Files           int           `json:"files" yaml:"files"`
	Failed          int           `json:"failed" yaml:"failed"`
	WithResults     int           `json:"with_results" yaml:"with_results"`
	Results         int           `json:"results" yaml:"results"`
	ValidResults    int           `json:"valid_results" yaml:"valid_results"`
	Workers         int           `json:"workers" yaml:"workers"`
	TotalDuration   time.Duration `json:"total_duration" yaml:"total_duration"`
	AveragePerImage time.Duration `json:"average_per_image" yaml:"average_per_image"`
}

// Stats computes summary statistics.
func (r *Result) Stats() Stats {
	s := Stats{Files: len(r.Items), Workers: r.WorkerCount, TotalDuration: r.Duration}
	var scanTime time.Duration
	for _, it := range r.Items {
		if it == nil {
			continue
		}
		if it.err != nil {
			s.Failed++
			continue
		}
		scanTime += it.Duration
		if n := it.Results.Len(); n > 0 {
			s.WithResults++
			s.Results += n
			s.ValidResults += it.Results.ValidCount()
		}
	}
	if done := s.Files - s.Failed; done > 0 {
		s.AveragePerImage = scanTime / time.Duration(done)
	}
	return s
}

// FormatResults renders the results as text, json, yaml or csv.
func (r *Result) FormatResults(format string, precision int) (string, error) {
	return formatBatchResults(r.Items, format, precision)
}

// WriteResults writes the formatted results to w.
func (r *Result) WriteResults(w io.Writer, format string, precision int) error {
	out, err := r.FormatResults(format, precision)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

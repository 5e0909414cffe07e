// Package batch scans many image files in parallel, one Recognizer per
// worker, and renders the collected results.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MeKo-Tech/docscan/internal/status"
)

// ErrNoImages is returned when discovery finds nothing to scan.
var ErrNoImages = errors.New("no image files found")

// ProcessBatch discovers the image files named by paths (files or
// directories) and scans them. On error the returned Result still holds the
// files scanned so far.
func ProcessBatch(ctx context.Context, paths []string, config *Config, newScanner ScannerFactory) (*Result, error) {
	if newScanner == nil {
		return nil, fmt.Errorf("batch: nil scanner factory: %w", status.ErrInvalidArgument)
	}
	if config == nil {
		config = DefaultConfig()
	}

	files, err := discoverImageFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	startTime := time.Now()
	items, workers, err := processFiles(ctx, files, config, newScanner)
	if items == nil {
		return nil, err
	}
	res := &Result{
		Items:       items,
		Duration:    time.Since(startTime),
		WorkerCount: workers,
	}
	if err != nil {
		return res, fmt.Errorf("batch processing failed: %w", err)
	}
	return res, nil
}

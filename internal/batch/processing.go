package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/MeKo-Tech/docscan/internal/preprocess"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

type fileJob struct {
	index int
	path  string
}

type fileDone struct {
	index int
	item  *ItemResult
}

// workerCount clamps the configured worker count to [1, files].
func workerCount(configured, files int) int {
	if configured <= 0 {
		configured = runtime.NumCPU()
	}
	return max(1, min(configured, files))
}

// processFiles scans files with a pool of workers, each owning one Scanner.
// Items keep the order of files. Without ContinueOnError the first failure
// stops the remaining work and is returned; unscanned entries stay nil.
func processFiles(ctx context.Context, files []string, cfg *Config, newScanner ScannerFactory) ([]*ItemResult, int, error) {
	workers := workerCount(cfg.Workers, len(files))
	scanners := make([]Scanner, 0, workers)
	defer func() {
		for _, sc := range scanners {
			if err := sc.Close(); err != nil {
				slog.Warn("Closing scanner failed", "error", err)
			}
		}
	}()
	for range workers {
		sc, err := newScanner()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create scanner: %w", err)
		}
		scanners = append(scanners, sc)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := cfg.Progress
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	progress.OnStart(len(files))
	defer progress.OnComplete()

	jobs := make(chan fileJob)
	results := make(chan fileDone, workers)

	var wg sync.WaitGroup
	for _, sc := range scanners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- fileDone{index: job.index, item: scanFile(ctx, sc, job.path, cfg)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, path := range files {
			select {
			case jobs <- fileJob{index: i, path: path}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	items := make([]*ItemResult, len(files))
	var firstErr error
	done := 0
	for res := range results {
		item := res.item
		items[res.index] = item
		done++
		if item.err != nil {
			progress.OnError(item.Path, item.err)
			if !cfg.ContinueOnError && firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", item.Path, item.err)
				cancel()
			}
		}
		progress.OnProgress(done, len(files))
	}

	if firstErr == nil {
		if err := ctx.Err(); err != nil && done < len(files) {
			firstErr = err
		}
	}
	return items, workers, firstErr
}

// scanFile runs one file through sc. Failures are recorded on the item.
func scanFile(ctx context.Context, sc Scanner, path string, cfg *Config) *ItemResult {
	start := time.Now()
	item := &ItemResult{Path: path}
	fail := func(err error) *ItemResult {
		item.err = err
		item.Error = err.Error()
		item.Duration = time.Since(start)
		return item
	}

	img, meta, err := utils.LoadImage(path)
	if err != nil {
		return fail(err)
	}
	item.Width, item.Height = meta.Width, meta.Height

	raw, err := utils.PrepareRaw(img, cfg.Orientation, cfg.Preprocess, meta)
	if err != nil {
		return fail(err)
	}
	defer raw.Release()

	if err := sc.SetImage(raw); err != nil {
		return fail(err)
	}
	if cfg.ROI.Empty() {
		err = sc.ClearROI()
	} else {
		err = sc.SetROI(cfg.ROI)
	}
	if err != nil {
		return fail(err)
	}

	list, err := sc.RecognizeImage(ctx)
	if err != nil {
		return fail(err)
	}
	item.Results = list
	item.Duration = time.Since(start)
	slog.Debug("Scanned file", "file", path, "results", list.Len(), "duration", item.Duration)

	if cfg.OverlayDir != "" || cfg.ImagesDir != "" {
		if err := saveArtifacts(preprocess.WorkingView(raw, cfg.ROI), list, path, cfg); err != nil {
			slog.Warn("Saving artifacts failed", "file", path, "error", err)
		}
	}
	return item
}

// saveArtifacts writes the overlay and the crops attached to results.
func saveArtifacts(view image.Image, list *result.List, path string, cfg *Config) error {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var errs []error
	if cfg.OverlayDir != "" {
		out := filepath.Join(cfg.OverlayDir, base+"_overlay.png")
		errs = append(errs, utils.SaveImage(out, utils.Annotate(view, list, 2)))
	}
	if cfg.ImagesDir != "" {
		for i, r := range list.Results() {
			for _, crop := range r.Images() {
				name := fmt.Sprintf("%s_%d_%s_%s.png", base, i, r.Kind(), crop.Name)
				errs = append(errs, utils.SaveImage(filepath.Join(cfg.ImagesDir, name), crop.Image))
			}
		}
	}
	return errors.Join(errs...)
}

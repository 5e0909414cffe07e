package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/recognizer"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/status"
	"github.com/MeKo-Tech/docscan/internal/testutil"
)

// stubScanner reports one ZXing result per frame whose text is the frame
// width. Frames 13 pixels wide fail.
type stubScanner struct {
	img    *rawimage.Image
	roi    image.Rectangle
	closed atomic.Bool
}

func (s *stubScanner) SetImage(img *rawimage.Image) error { s.img = img; return nil }

func (s *stubScanner) SetROI(rect image.Rectangle) error {
	if !rect.In(s.img.Bounds()) {
		return status.ErrInvalidArgument
	}
	s.roi = rect
	return nil
}

func (s *stubScanner) ClearROI() error { s.roi = image.Rectangle{}; return nil }

func (s *stubScanner) RecognizeImage(ctx context.Context) (*result.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(status.ErrCancelled, err)
	}
	w := s.img.Width()
	if !s.roi.Empty() {
		w = s.roi.Dx()
	}
	if w == 13 {
		return nil, status.ErrFail
	}
	agg := result.NewAggregator()
	agg.Add(result.NewZXing(result.Barcode{Symbology: "QR_CODE", Text: string(rune('A' + w%26))}))
	return agg.List(), nil
}

func (s *stubScanner) Close() error { s.closed.Store(true); return nil }

type stubFactory struct {
	mu       sync.Mutex
	scanners []*stubScanner
}

func (f *stubFactory) New() (Scanner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc := &stubScanner{}
	f.scanners = append(f.scanners, sc)
	return sc, nil
}

func writeImages(t *testing.T, dir string, widths ...int) []string {
	t.Helper()
	paths := make([]string, len(widths))
	for i, w := range widths {
		paths[i] = filepath.Join(dir, string(rune('a'+i))+".png")
		testutil.SaveImage(t, testutil.BlankImage(w, 20, 255), paths[i])
	}
	return paths
}

func TestProcessBatch_Errors(t *testing.T) {
	f := &stubFactory{}

	_, err := ProcessBatch(context.Background(), []string{t.TempDir()}, nil, nil)
	require.ErrorIs(t, err, status.ErrInvalidArgument)

	_, err = ProcessBatch(context.Background(), []string{t.TempDir()}, nil, f.New)
	require.ErrorIs(t, err, ErrNoImages)

	_, err = ProcessBatch(context.Background(), []string{"/nonexistent/file.png"}, nil, f.New)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")

	_, err = ProcessBatch(context.Background(), writeImages(t, t.TempDir(), 20), nil,
		func() (Scanner, error) { return nil, errors.New("no license") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no license")
}

func TestProcessBatch_OrderAndWorkers(t *testing.T) {
	dir := t.TempDir()
	writeImages(t, dir, 20, 21, 22, 23, 24, 25)
	f := &stubFactory{}
	cfg := DefaultConfig()
	cfg.Workers = 3

	res, err := ProcessBatch(context.Background(), []string{dir}, cfg, f.New)
	require.NoError(t, err)
	assert.Equal(t, 3, res.WorkerCount)
	require.Len(t, res.Items, 6)
	for i, it := range res.Items {
		assert.Equal(t, filepath.Join(dir, string(rune('a'+i))+".png"), it.Path)
		assert.Equal(t, 20+i, it.Width)
		require.Equal(t, 1, it.Results.Len())
	}
	require.Len(t, f.scanners, 3)
	for _, sc := range f.scanners {
		assert.True(t, sc.closed.Load())
	}

	stats := res.Stats()
	assert.Equal(t, 6, stats.Files)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 6, stats.WithResults)
}

func TestProcessBatch_WorkersClampedToFiles(t *testing.T) {
	f := &stubFactory{}
	cfg := DefaultConfig()
	cfg.Workers = 8
	res, err := ProcessBatch(context.Background(), writeImages(t, t.TempDir(), 20, 21), cfg, f.New)
	require.NoError(t, err)
	assert.Equal(t, 2, res.WorkerCount)
	assert.Len(t, f.scanners, 2)
}

func TestProcessBatch_StopOnError(t *testing.T) {
	paths := writeImages(t, t.TempDir(), 13)
	f := &stubFactory{}

	res, err := ProcessBatch(context.Background(), paths, DefaultConfig(), f.New)
	require.ErrorIs(t, err, status.ErrFail)
	require.NotNil(t, res)
	require.NotNil(t, res.Items[0])
	require.ErrorIs(t, res.Items[0].Err(), status.ErrFail)
}

func TestProcessBatch_ContinueOnError(t *testing.T) {
	paths := writeImages(t, t.TempDir(), 20, 13, 22)
	f := &stubFactory{}
	cfg := DefaultConfig()
	cfg.ContinueOnError = true
	var progress bytes.Buffer
	cfg.Progress = NewConsoleProgressCallback(&progress, "scan: ")

	res, err := ProcessBatch(context.Background(), paths, cfg, f.New)
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.NotEmpty(t, res.Items[1].Error)
	assert.Equal(t, 1, res.Items[2].Results.Len())

	stats := res.Stats()
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.WithResults)
	assert.Contains(t, progress.String(), "0/3")
	assert.Contains(t, progress.String(), "3/3")
	assert.Contains(t, progress.String(), "Completed")
}

func TestProcessBatch_ROI(t *testing.T) {
	paths := writeImages(t, t.TempDir(), 40)
	f := &stubFactory{}
	cfg := DefaultConfig()
	cfg.ROI = image.Rect(0, 0, 13, 10)

	_, err := ProcessBatch(context.Background(), paths, cfg, f.New)
	require.ErrorIs(t, err, status.ErrFail, "the ROI narrows the frame to the failing width")

	cfg.ROI = image.Rect(0, 0, 100, 10)
	_, err = ProcessBatch(context.Background(), paths, cfg, f.New)
	require.ErrorIs(t, err, status.ErrInvalidArgument)
}

func TestProcessBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &stubFactory{}

	_, err := ProcessBatch(ctx, writeImages(t, t.TempDir(), 20, 21), DefaultConfig(), f.New)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrCancelled) || errors.Is(err, context.Canceled))
}

func TestProcessBatch_RealRecognizerWritesOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qr.png")
	qr := testutil.QRImage(t, "docscan batch", 200)
	testutil.SaveImage(t, testutil.Compose(testutil.MediumSize, qr, image.Pt(100, 80)), path)

	s := settings.New()
	s.EnableDefaults(result.KindZXing)
	s.SetLicenseKey(testutil.LicenseKey(t, ""))
	cfg := DefaultConfig()
	cfg.OverlayDir = filepath.Join(dir, "overlays")

	res, err := ProcessBatch(context.Background(), []string{path}, cfg, func() (Scanner, error) {
		return recognizer.New(s)
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Items[0].Results.Len())
	r, err := res.Items[0].Results.At(0)
	require.NoError(t, err)
	bc, ok := r.Barcode()
	require.True(t, ok)
	assert.Equal(t, "docscan batch", bc.Text)

	_, err = os.Stat(filepath.Join(cfg.OverlayDir, "qr_overlay.png"))
	require.NoError(t, err)
}

func TestWorkerCount(t *testing.T) {
	assert.Equal(t, 1, workerCount(1, 10))
	assert.Equal(t, 4, workerCount(4, 10))
	assert.Equal(t, 2, workerCount(4, 2))
	assert.GreaterOrEqual(t, workerCount(0, 1000), 1)
}

// Package recognizer dispatches a raw image to the enabled recognition
// back-ends and aggregates their outcomes into a result.List.
//
// A Recognizer runs one pass at a time. The pass visits back-ends in
// result.Priority order and checks for cancellation between them; a running
// back-end is never interrupted. Configuration changes are only accepted
// while the Recognizer is Idle.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/docscan/internal/backend"
	"github.com/MeKo-Tech/docscan/internal/license"
	"github.com/MeKo-Tech/docscan/internal/ocr"
	"github.com/MeKo-Tech/docscan/internal/preprocess"
	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// Option customises a Recognizer.
type Option func(*Recognizer)

// WithRegistry replaces the back-end registry.
func WithRegistry(r *backend.Registry) Option {
	return func(rec *Recognizer) {
		if r != nil {
			rec.registry = r
		}
	}
}

// WithValidator replaces the license validator.
func WithValidator(v license.Validator) Option {
	return func(rec *Recognizer) {
		if v != nil {
			rec.validator = v
		}
	}
}

// WithCallback installs a pass observer.
func WithCallback(cb Callback) Option {
	return func(rec *Recognizer) {
		if cb != nil {
			rec.callback = cb
		}
	}
}

// WithOCRFactory selects the OCR engine used by OCR-backed formats.
func WithOCRFactory(f ocr.Factory) Option {
	return func(rec *Recognizer) { rec.ocrFactory = f }
}

// WithPDF417Decoder supplies the decoder behind the PDF417 and USDL formats.
func WithPDF417Decoder(d backend.PDF417Decoder) Option {
	return func(rec *Recognizer) { rec.pdf417 = d }
}

type inputKey struct {
	img        *rawimage.Image
	generation uint64
	roi        image.Rectangle
}

// Recognizer binds a Settings snapshot and runs recognition passes.
type Recognizer struct {
	registry   *backend.Registry
	validator  license.Validator
	callback   Callback
	ocrFactory ocr.Factory
	pdf417     backend.PDF417Decoder

	// state moves Running -> Cancelled only through
	// CancelCurrentRecognition; the pass polls it between back-ends.
	state atomic.Int32

	mu       sync.Mutex
	settings *settings.Settings
	img      *rawimage.Image
	roi      image.Rectangle
	closed   bool

	// Lazily built per bound Settings.
	validated bool
	deps      *backend.Deps
	backends  []backend.Backend

	cacheKey inputKey
	input    *backend.Input
}

// New binds a snapshot of s.
func New(s *settings.Settings, opts ...Option) (*Recognizer, error) {
	if s == nil {
		return nil, fmt.Errorf("recognizer: nil settings: %w", status.ErrInvalidArgument)
	}
	r := &Recognizer{
		registry:  backend.DefaultRegistry(),
		validator: license.NewValidator(nil),
		callback:  NoOpCallback{},
		settings:  s.Clone(),
	}
	for _, opt := range opts {
		opt(r)
	}
	slog.Debug("Recognizer created", "formats", len(r.settings.EnabledKinds()),
		"multiple_results", r.settings.OutputMultipleResults())
	return r, nil
}

// State returns the current lifecycle state.
func (r *Recognizer) State() State { return State(r.state.Load()) }

// Settings returns a copy of the bound settings.
func (r *Recognizer) Settings() *settings.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings.Clone()
}

// idleLocked reports ErrInvalidState unless the Recognizer is Idle and open.
// r.mu must be held.
func (r *Recognizer) idleLocked(op string) error {
	if r.closed {
		return fmt.Errorf("%s: recognizer closed: %w", op, status.ErrInvalidState)
	}
	if s := r.State(); s != Idle {
		return fmt.Errorf("%s while %s: %w", op, s, status.ErrInvalidState)
	}
	return nil
}

// SetImage binds the image the next pass recognizes. The Recognizer does
// not copy it; callers must not mutate it during a pass.
func (r *Recognizer) SetImage(img *rawimage.Image) error {
	if img == nil {
		return fmt.Errorf("set image: nil image: %w", status.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.idleLocked("set image"); err != nil {
		return err
	}
	r.img = img
	return nil
}

// SetROI restricts recognition to rect, in raw image pixel coordinates. The
// prior ROI is kept when rect is rejected.
func (r *Recognizer) SetROI(rect image.Rectangle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.idleLocked("set roi"); err != nil {
		return err
	}
	if rect.Empty() || rect.Min.X < 0 || rect.Min.Y < 0 {
		return fmt.Errorf("roi %v: %w", rect, status.ErrInvalidArgument)
	}
	if r.img != nil && !rect.In(r.img.Bounds()) {
		return fmt.Errorf("roi %v outside image %v: %w", rect, r.img.Bounds(), status.ErrInvalidArgument)
	}
	r.roi = rect
	return nil
}

// ClearROI makes the next pass use the whole image.
func (r *Recognizer) ClearROI() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.idleLocked("clear roi"); err != nil {
		return err
	}
	r.roi = image.Rectangle{}
	return nil
}

// ROI returns the region of interest, or the zero rectangle for none.
func (r *Recognizer) ROI() image.Rectangle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roi
}

// UpdateSettings binds a snapshot of s and drops everything built from the
// previous settings.
func (r *Recognizer) UpdateSettings(s *settings.Settings) error {
	if s == nil {
		return fmt.Errorf("update settings: nil settings: %w", status.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.idleLocked("update settings"); err != nil {
		return err
	}
	r.settings = s.Clone()
	slog.Debug("Recognizer settings updated", "formats", len(r.settings.EnabledKinds()))
	return r.dropCachesLocked()
}

// Reset clears the ROI, the bound image and every cache. Settings are kept.
func (r *Recognizer) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.idleLocked("reset"); err != nil {
		return err
	}
	r.roi = image.Rectangle{}
	r.img = nil
	return r.dropCachesLocked()
}

// Close releases back-end resources. The Recognizer cannot be used afterwards.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if err := r.idleLocked("close"); err != nil {
		return err
	}
	r.closed = true
	r.img = nil
	return r.dropCachesLocked()
}

func (r *Recognizer) dropCachesLocked() error {
	r.validated = false
	r.backends = nil
	r.input = nil
	r.cacheKey = inputKey{}
	if r.deps == nil {
		return nil
	}
	err := r.deps.Close()
	r.deps = nil
	if err != nil {
		return fmt.Errorf("release back-ends: %w", err)
	}
	return nil
}

// CancelCurrentRecognition asks a running pass to stop at its next
// checkpoint. The back-end running at that moment completes; its outcome is
// discarded. It is a no-op while Idle.
func (r *Recognizer) CancelCurrentRecognition() {
	if r.state.CompareAndSwap(int32(Running), int32(Cancelled)) {
		slog.Debug("Recognition cancel requested")
	}
}

// Recognize binds img and runs a pass over it.
func (r *Recognizer) Recognize(ctx context.Context, img *rawimage.Image) (*result.List, error) {
	if err := r.SetImage(img); err != nil {
		return nil, err
	}
	return r.RecognizeImage(ctx)
}

// RecognizeImage runs one pass over the bound image. It fails with
// ErrInvalidState when another pass is running.
func (r *Recognizer) RecognizeImage(ctx context.Context) (*result.List, error) {
	start := time.Now()
	list, outcome, err := r.run(ctx)
	passesTotal.WithLabelValues(outcome).Inc()
	if outcome != outcomeRejected {
		passDuration.Observe(time.Since(start).Seconds())
	}
	return list, err
}

// pass is the state a running pass reads without holding r.mu.
type pass struct {
	settings *settings.Settings
	backends []backend.Backend
	input    *backend.Input
}

func (r *Recognizer) run(ctx context.Context) (*result.List, string, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, outcomeRejected, fmt.Errorf("recognize: recognizer closed: %w", status.ErrInvalidState)
	}
	if !r.state.CompareAndSwap(int32(Idle), int32(Running)) {
		s := r.State()
		r.mu.Unlock()
		return nil, outcomeRejected, fmt.Errorf("recognize while %s: %w", s, status.ErrInvalidState)
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.state.Store(int32(Idle))
		r.mu.Unlock()
	}()

	r.callback.OnRecognitionStarted()

	p, err := r.prepare()
	if err != nil {
		slog.Debug("Recognition setup failed", "error", err)
		return nil, outcomeFault, err
	}
	if len(p.backends) == 0 {
		r.callback.OnDetectionFailed()
		r.callback.OnRecognitionFinished(0)
		return result.EmptyList(), outcomeEmpty, nil
	}

	agg := result.NewAggregator()
	multi := p.settings.OutputMultipleResults()
	for _, b := range p.backends {
		if err := r.checkpoint(ctx); err != nil {
			agg.Discard()
			slog.Debug("Recognition cancelled", "before", b.Kind())
			return nil, outcomeCancelled, err
		}
		r.callback.OnBackendStarted(b.Kind())
		res, err := r.attempt(ctx, b, p.input)
		if err != nil {
			agg.Discard()
			if errors.Is(err, status.ErrCancelled) {
				return nil, outcomeCancelled, err
			}
			return nil, outcomeFault, err
		}
		if res == nil {
			continue
		}
		if agg.Add(*res) {
			resultsTotal.WithLabelValues(res.Kind().String()).Inc()
		}
		if !multi {
			break
		}
	}

	// A cancel that arrived while the last back-end ran still wins.
	if err := r.checkpoint(ctx); err != nil {
		agg.Discard()
		slog.Debug("Recognition cancelled", "after", "dispatch")
		return nil, outcomeCancelled, err
	}

	list := agg.List()
	if list.Len() == 0 {
		r.callback.OnDetectionFailed()
	}
	r.callback.OnRecognitionFinished(list.Len())
	slog.Debug("Recognition finished", "results", list.Len(), "kinds", list.Kinds())
	if list.Len() == 0 {
		return list, outcomeEmpty, nil
	}
	return list, outcomeResults, nil
}

// checkpoint reports ErrCancelled once cancellation was requested through
// CancelCurrentRecognition or ctx.
func (r *Recognizer) checkpoint(ctx context.Context) error {
	if r.State() == Cancelled {
		return fmt.Errorf("recognize: %w", status.ErrCancelled)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("recognize: %w", errors.Join(status.ErrCancelled, err))
	}
	return nil
}

func (r *Recognizer) attempt(ctx context.Context, b backend.Backend, in *backend.Input) (*result.Result, error) {
	kind := b.Kind().String()
	start := time.Now()
	res, err := b.Attempt(ctx, in)
	backendDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || r.State() == Cancelled):
		backendAttemptsTotal.WithLabelValues(kind, attemptNoMatch).Inc()
		return nil, fmt.Errorf("%s: %w", kind, errors.Join(status.ErrCancelled, err))
	case err != nil:
		backendAttemptsTotal.WithLabelValues(kind, attemptFault).Inc()
		slog.Debug("Back-end fault", "kind", kind, "error", err)
		return nil, fmt.Errorf("%s back-end: %w", kind, err)
	case res == nil:
		backendAttemptsTotal.WithLabelValues(kind, attemptNoMatch).Inc()
		slog.Debug("Back-end found nothing", "kind", kind, "duration", time.Since(start))
		return nil, nil
	default:
		backendAttemptsTotal.WithLabelValues(kind, attemptMatch).Inc()
		slog.Debug("Back-end matched", "kind", kind, "valid", res.IsValid(), "duration", time.Since(start))
		return res, nil
	}
}

// prepare validates the bound settings, builds the back-ends and the working
// input, reusing whatever is cached. It runs in Running state, so
// configuration calls are already rejected while it holds r.mu.
func (r *Recognizer) prepare() (*pass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.settings
	kinds := s.EnabledKinds()
	p := &pass{settings: s}
	if len(kinds) == 0 {
		return p, nil
	}

	if !r.validated {
		err := r.validator.Validate(license.Request{
			Key:               s.LicenseKey(),
			Licensee:          s.Licensee(),
			ResourcesLocation: s.ResourcesLocation(),
			Kinds:             kinds,
			NeedsResources:    r.registry.NeedsResources(kinds),
		})
		if err != nil {
			return nil, fmt.Errorf("validate settings: %w", err)
		}
		r.validated = true
		slog.Debug("Settings validated", "formats", kinds)
	}

	if r.backends == nil {
		if r.deps == nil {
			r.deps = backend.NewDeps(r.ocrFactory, s.ResourcesLocation())
			r.deps.PDF417 = r.pdf417
		}
		bs, err := r.registry.Build(s, r.deps, kinds)
		if err != nil {
			return nil, fmt.Errorf("build back-ends: %w", err)
		}
		r.backends = bs
	}
	p.backends = r.backends

	in, err := r.inputLocked()
	if err != nil {
		return nil, err
	}
	p.input = in
	return p, nil
}

// inputLocked returns the upright working image for the bound image and ROI.
func (r *Recognizer) inputLocked() (*backend.Input, error) {
	img := r.img
	if img == nil {
		return nil, fmt.Errorf("recognize: no image set: %w", status.ErrInvalidState)
	}
	if img.Released() {
		return nil, fmt.Errorf("recognize: image released: %w", status.ErrInvalidArgument)
	}
	roi := r.roi
	if !roi.Empty() && !roi.In(img.Bounds()) {
		return nil, fmt.Errorf("roi %v outside image %v: %w", roi, img.Bounds(), status.ErrInvalidArgument)
	}

	key := inputKey{img: img, generation: img.Generation(), roi: roi}
	if r.input != nil && r.cacheKey == key {
		return r.input, nil
	}

	in := backend.NewInput(img, roi, preprocess.WorkingView(img, roi))
	r.input = in
	r.cacheKey = key
	slog.Debug("Working image built", "size", in.Upright.Bounds().Size(), "roi", roi,
		"orientation", img.Orientation())
	return in, nil
}

package backend

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/docscan/internal/ocr"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// Factory builds a back-end from the bound settings.
type Factory func(s *settings.Settings, deps *Deps) (Backend, error)

// Deps are the collaborators shared by the back-ends of one Recognizer.
type Deps struct {
	OCRFactory   ocr.Factory
	ResourcesDir string

	// PDF417 decodes symbols for the PDF417 and USDL formats. Without it
	// those formats fail to build with status.ErrResourceNotFound.
	PDF417 PDF417Decoder

	mu     sync.Mutex
	engine ocr.Engine
}

// NewDeps returns dependencies using factory for OCR. A nil factory selects
// ocr.DefaultFactory.
func NewDeps(factory ocr.Factory, resourcesDir string) *Deps {
	if factory == nil {
		factory = ocr.DefaultFactory
	}
	return &Deps{OCRFactory: factory, ResourcesDir: resourcesDir}
}

// Engine returns the shared OCR engine, creating it on first use.
func (d *Deps) Engine() (ocr.Engine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.engine != nil {
		return d.engine, nil
	}
	e, err := d.OCRFactory(d.ResourcesDir)
	if err != nil {
		return nil, fmt.Errorf("create ocr engine: %w", err)
	}
	slog.Debug("OCR engine created", "engine", e.Name(), "resources", d.ResourcesDir)
	d.engine = e
	return e, nil
}

// Close releases the OCR engine if one was created.
func (d *Deps) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.engine == nil {
		return nil
	}
	err := d.engine.Close()
	d.engine = nil
	return err
}

type entry struct {
	factory        Factory
	needsResources bool
}

// Registry maps recognizer kinds to their factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[result.Kind]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[result.Kind]entry)}
}

// DefaultRegistry wires every built-in format.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(result.KindBarDecoder, false, NewBarDecoder)
	r.Register(result.KindPDF417, false, NewPDF417)
	r.Register(result.KindUSDL, false, NewUSDL)
	r.Register(result.KindMRTD, true, NewMRTD)
	r.Register(result.KindMyKad, true, NewMyKad)
	r.Register(result.KindIKad, true, NewIKad)
	r.Register(result.KindZXing, false, NewZXing)
	r.Register(result.KindBlinkInput, true, NewBlinkInput)
	return r
}

// Register installs or replaces the factory for kind. needsResources marks
// formats that load models from the resources location.
func (r *Registry) Register(kind result.Kind, needsResources bool, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[kind] = entry{factory: f, needsResources: needsResources}
}

// NeedsResources reports whether any of kinds loads from the resources
// location.
func (r *Registry) NeedsResources(kinds []result.Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, k := range kinds {
		if r.entries[k].needsResources {
			return true
		}
	}
	return false
}

// Build constructs the back-ends for kinds, preserving their order.
func (r *Registry) Build(s *settings.Settings, deps *Deps, kinds []result.Kind) ([]Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Backend, 0, len(kinds))
	for _, k := range kinds {
		e, ok := r.entries[k]
		if !ok {
			return nil, fmt.Errorf("no back-end registered for %s: %w", k, status.ErrResourceNotFound)
		}
		b, err := e.factory(s, deps)
		if err != nil {
			return nil, fmt.Errorf("build %s back-end: %w", k, err)
		}
		out = append(out, b)
	}
	return out, nil
}

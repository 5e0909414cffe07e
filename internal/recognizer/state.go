package recognizer

import "github.com/MeKo-Tech/docscan/internal/result"

// State is the lifecycle state of a Recognizer.
type State int32

const (
	// Idle accepts configuration changes and new passes.
	Idle State = iota
	// Running is a pass in progress.
	Running
	// Cancelled is a running pass that will stop at its next checkpoint.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Callback observes a recognition pass. Methods are called synchronously
// on the goroutine running the pass and must not block.
type Callback interface {
	OnRecognitionStarted()
	OnBackendStarted(kind result.Kind)
	// OnDetectionFailed is called when a completed pass produced no result.
	OnDetectionFailed()
	OnRecognitionFinished(results int)
}

// NoOpCallback implements Callback but does nothing.
type NoOpCallback struct{}

func (NoOpCallback) OnRecognitionStarted()        {}
func (NoOpCallback) OnBackendStarted(result.Kind) {}
func (NoOpCallback) OnDetectionFailed()           {}
func (NoOpCallback) OnRecognitionFinished(int)    {}

// CallbackFuncs adapts optional functions to Callback.
type CallbackFuncs struct {
	Started        func()
	BackendStarted func(kind result.Kind)
	Failed         func()
	Finished       func(results int)
}

func (c CallbackFuncs) OnRecognitionStarted() {
	if c.Started != nil {
		c.Started()
	}
}

func (c CallbackFuncs) OnBackendStarted(kind result.Kind) {
	if c.BackendStarted != nil {
		c.BackendStarted(kind)
	}
}

func (c CallbackFuncs) OnDetectionFailed() {
	if c.Failed != nil {
		c.Failed()
	}
}

func (c CallbackFuncs) OnRecognitionFinished(results int) {
	if c.Finished != nil {
		c.Finished(results)
	}
}

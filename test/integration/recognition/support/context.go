// Package support holds the step definitions of the recognition feature
// suite.
package support

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/recognizer"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/testutil"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	T *testing.T

	Settings   *settings.Settings
	OCRLines   []string
	Recognizer *recognizer.Recognizer
	Image      *rawimage.Image

	LastList   *result.List
	LastError  error
	LastROIErr error
	Events     []string

	TempDir string
}

// NewTestContext creates a scenario context bound to t.
func NewTestContext(t *testing.T) (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "docscan-features-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TestContext{
		T:        t,
		Settings: settings.New(),
		TempDir:  tempDir,
	}, nil
}

// recognizerFor returns the scenario's recognizer, creating it from the
// current settings on first use.
func (testCtx *TestContext) recognizerFor() (*recognizer.Recognizer, error) {
	if testCtx.Recognizer != nil {
		return testCtx.Recognizer, nil
	}
	fake := testutil.NewFakeEngine(testCtx.OCRLines...)
	r, err := recognizer.New(testCtx.Settings,
		recognizer.WithOCRFactory(fake.Factory()),
		recognizer.WithCallback(recognizer.CallbackFuncs{
			BackendStarted: func(kind result.Kind) {
				testCtx.Events = append(testCtx.Events, kind.String())
			},
		}),
	)
	if err != nil {
		return nil, err
	}
	testCtx.Recognizer = r
	return r, nil
}

// Cleanup releases the scenario's resources.
func (testCtx *TestContext) Cleanup(ctx context.Context) error {
	var firstErr error
	if testCtx.Recognizer != nil {
		if err := testCtx.Recognizer.Close(); err != nil {
			firstErr = err
		}
	}
	if testCtx.Image != nil {
		testCtx.Image.Release()
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

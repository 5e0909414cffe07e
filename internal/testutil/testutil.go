// Package testutil provides fixtures shared by the package and acceptance
// tests: synthetic document and barcode images, a scripted OCR engine and
// sample payloads.
package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docscan/internal/license"
)

// GetProjectRoot returns the project root directory by finding go.mod.
func GetProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("failed to get caller information")
	}
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("could not find go.mod file starting from %s", filepath.Dir(filename))
}

// ResourcesDir creates an empty resources directory for formats that
// require one.
func ResourcesDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "resources")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	return dir
}

// LicenseKey issues a development key for licensee covering formats (all
// when empty), valid for one day.
func LicenseKey(t *testing.T, licensee string, formats ...string) string {
	t.Helper()
	key, err := license.Issue(license.DefaultSecret, license.Claims{
		Licensee: licensee,
		Issued:   time.Now().UTC(),
		Expires:  time.Now().UTC().Add(24 * time.Hour),
		Formats:  formats,
	})
	require.NoError(t, err)
	return key
}

package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docscan/internal/status"
)

func TestGetResourcesDir(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		env      string
		expected string
	}{
		{"explicit directory takes precedence", "/explicit", "/env", "/explicit"},
		{"environment variable used when no explicit dir", "", "/env", "/env"},
		{"default", "", "", DefaultResourcesDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvResourcesDir, tt.env)
			assert.Equal(t, tt.expected, GetResourcesDir(tt.explicit))
		})
	}
}

func TestResolvePath_OrganizedAndFlat(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, RecognitionMobile), RecognitionModelPath(dir, false))

	organized := filepath.Join(dir, TypeRecognition, VariantMobile)
	require.NoError(t, os.MkdirAll(organized, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(organized, RecognitionMobile), []byte("x"), 0o600))
	assert.Equal(t, filepath.Join(organized, RecognitionMobile), RecognitionModelPath(dir, false))
	assert.Equal(t, filepath.Join(dir, RecognitionServer), RecognitionModelPath(dir, true))

	assert.Equal(t, filepath.Join(dir, DictionaryPPOCRKeysV1), DictionaryPath(dir, DictionaryPPOCRKeysV1))
}

func TestTessdataDir(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, TessdataDir(dir))
	require.NoError(t, os.Mkdir(filepath.Join(dir, TypeTessdata), 0o750))
	assert.Equal(t, filepath.Join(dir, TypeTessdata), TessdataDir(dir))
}

func TestRequireFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.onnx")
	assert.ErrorIs(t, RequireFile(p), status.ErrResourceNotFound)
	require.NoError(t, os.WriteFile(p, nil, 0o600))
	assert.NoError(t, RequireFile(p))
}

// Package models resolves the on-disk layout of the resources directory that
// OCR-backed recognizers load from.
//
//	<resources>/
//	  recognition/mobile/PP-OCRv5_mobile_rec.onnx
//	  recognition/server/PP-OCRv5_server_rec.onnx
//	  dictionaries/ppocr_keys_v1.txt
//	  tessdata/eng.traineddata
//
// Files may also sit directly in the resources directory (flat layout).
package models

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/docscan/internal/status"
)

// Resource file names.
const (
	RecognitionMobile     = "PP-OCRv5_mobile_rec.onnx"
	RecognitionServer     = "PP-OCRv5_server_rec.onnx"
	DictionaryPPOCRKeysV1 = "ppocr_keys_v1.txt"
)

// Resource type directories.
const (
	TypeRecognition  = "recognition"
	TypeDictionaries = "dictionaries"
	TypeTessdata     = "tessdata"
)

// Model variants.
const (
	VariantMobile = "mobile"
	VariantServer = "server"
)

// DefaultResourcesDir is used when nothing else is configured.
const DefaultResourcesDir = "resources"

// EnvResourcesDir overrides the resources directory.
const EnvResourcesDir = "DOCSCAN_RESOURCES_DIR"

// GetResourcesDir returns the resources directory.
// Priority: 1. explicit dir, 2. environment variable, 3. DefaultResourcesDir.
func GetResourcesDir(dir string) string {
	if dir != "" {
		return dir
	}
	if envDir := os.Getenv(EnvResourcesDir); envDir != "" {
		return envDir
	}
	return DefaultResourcesDir
}

// ResolvePath returns the organised path of a resource when it exists and
// the flat path otherwise.
func ResolvePath(dir, resourceType, variant, filename string) string {
	base := GetResourcesDir(dir)
	if resourceType != "" {
		organized := filepath.Join(base, resourceType, filename)
		if variant != "" {
			organized = filepath.Join(base, resourceType, variant, filename)
		}
		if _, err := os.Stat(organized); err == nil {
			return organized
		}
	}
	return filepath.Join(base, filename)
}

// RecognitionModelPath returns the CTC line recognition model path.
func RecognitionModelPath(dir string, useServer bool) string {
	if useServer {
		return ResolvePath(dir, TypeRecognition, VariantServer, RecognitionServer)
	}
	return ResolvePath(dir, TypeRecognition, VariantMobile, RecognitionMobile)
}

// DictionaryPath returns the path of a character dictionary.
func DictionaryPath(dir, filename string) string {
	return ResolvePath(dir, TypeDictionaries, "", filename)
}

// TessdataDir returns the Tesseract language data directory.
func TessdataDir(dir string) string {
	base := GetResourcesDir(dir)
	organized := filepath.Join(base, TypeTessdata)
	if info, err := os.Stat(organized); err == nil && info.IsDir() {
		return organized
	}
	return base
}

// RequireFile reports status.ErrResourceNotFound when path does not exist.
func RequireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("resource %s: %w", path, status.ErrResourceNotFound)
	}
	return nil
}

//go:build !ocr_tesseract

package ocr

func newDefaultEngine(resourcesDir string) (Engine, error) {
	return NewONNXEngine(DefaultONNXConfig(resourcesDir))
}

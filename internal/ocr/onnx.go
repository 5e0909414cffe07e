package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	onnxrt "github.com/yalue/onnxruntime_go"

	"github.com/MeKo-Tech/docscan/internal/mempool"
	"github.com/MeKo-Tech/docscan/internal/models"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// ONNXConfig configures the CTC line recognizer.
type ONNXConfig struct {
	ModelPath      string
	DictPath       string
	ImageHeight    int // model input height; 0 adopts the model's fixed height or 48
	MaxWidth       int // 0 means unbounded
	PadMultiple    int
	NumThreads     int
	UseServerModel bool
}

// DefaultONNXConfig resolves model and dictionary paths inside resourcesDir.
func DefaultONNXConfig(resourcesDir string) ONNXConfig {
	return ONNXConfig{
		ModelPath:   models.RecognitionModelPath(resourcesDir, false),
		DictPath:    models.DictionaryPath(resourcesDir, models.DictionaryPPOCRKeysV1),
		ImageHeight: 48,
		PadMultiple: 8,
	}
}

// ONNXEngine recognizes text lines with a PaddleOCR style CTC model.
// Lines are located by projection profile, then recognized one by one.
type ONNXEngine struct {
	cfg     ONNXConfig
	session *onnxrt.DynamicAdvancedSession
	output  onnxrt.InputOutputInfo
	charset *Charset
	mu      sync.Mutex
}

// NewONNXEngine loads the model and dictionary.
func NewONNXEngine(cfg ONNXConfig) (*ONNXEngine, error) {
	if err := models.RequireFile(cfg.ModelPath); err != nil {
		return nil, err
	}
	if err := models.RequireFile(cfg.DictPath); err != nil {
		return nil, err
	}
	charset, err := LoadCharset(cfg.DictPath)
	if err != nil {
		return nil, err
	}

	if err := setONNXLibraryPath(); err != nil {
		return nil, fmt.Errorf("onnx runtime library: %w", err)
	}
	if !onnxrt.IsInitialized() {
		if err := onnxrt.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("model input/output info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("expected 1 input and 1 output, got %d and %d: %w",
			len(inputs), len(outputs), status.ErrInvalidArgument)
	}
	if dims := inputs[0].Dimensions; len(dims) == 4 && dims[2] > 0 && cfg.ImageHeight <= 0 {
		cfg.ImageHeight = int(dims[2])
	}
	if cfg.ImageHeight <= 0 {
		cfg.ImageHeight = 48
	}

	opts, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer func() { _ = opts.Destroy() }()
	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("set thread count: %w", err)
		}
	}

	session, err := onnxrt.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	slog.Debug("ONNX line recognizer loaded", "model", cfg.ModelPath, "charset_size", charset.Classes()-1)

	return &ONNXEngine{cfg: cfg, session: session, output: outputs[0], charset: charset}, nil
}

// Name implements Engine.
func (e *ONNXEngine) Name() string { return "onnx" }

// RecognizeLines implements Engine. The context is checked between lines.
func (e *ONNXEngine) RecognizeLines(ctx context.Context, img image.Image, opts Options) ([]Line, error) {
	if img == nil {
		return nil, fmt.Errorf("recognize lines: nil image: %w", status.ErrInvalidArgument)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, fmt.Errorf("recognize lines: engine closed: %w", status.ErrInvalidState)
	}

	var lines []Line
	for _, rect := range SplitLines(img) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, conf, err := e.recognize(imaging.Crop(img, rect))
		if err != nil {
			return nil, err
		}
		text = FilterWhitelist(CleanText(text, DefaultCleanOptions()), opts.Whitelist)
		if text == "" {
			continue
		}
		lines = append(lines, Line{Text: text, Confidence: conf, Box: rect})
	}
	return lines, nil
}

func (e *ONNXEngine) recognize(patch image.Image) (string, float64, error) {
	resized := resizeForRecognition(patch, e.cfg.ImageHeight, e.cfg.MaxWidth, e.cfg.PadMultiple)
	b := resized.Bounds()
	w, h := b.Dx(), b.Dy()

	data := mempool.GetFloat32(3 * w * h)
	defer mempool.PutFloat32(data)
	data = data[:3*w*h]
	normalize(resized, data)

	input, err := onnxrt.NewTensor(onnxrt.NewShape(1, 3, int64(h), int64(w)), data)
	if err != nil {
		return "", 0, fmt.Errorf("input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []onnxrt.Value{nil}
	if err := e.session.Run([]onnxrt.Value{input}, outputs); err != nil {
		return "", 0, fmt.Errorf("run recognition: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()

	out, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return "", 0, errors.New("unexpected recognition output type")
	}
	shape := out.GetShape()
	if len(shape) < 3 {
		return "", 0, fmt.Errorf("unexpected output rank %d", len(shape))
	}
	classes := e.charset.Classes()
	first := classesFirst(shape, classes)
	steps := int(shape[1])
	numClasses := int(shape[2])
	if first {
		steps, numClasses = int(shape[2]), int(shape[1])
	}
	idx, conf := DecodeGreedy(out.GetData(), steps, numClasses, 0, first)
	return e.charset.Decode(idx), conf, nil
}

// Close implements Engine.
func (e *ONNXEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}

// resizeForRecognition scales to targetHeight keeping the aspect ratio and
// pads the width with black to a multiple of padMultiple.
func resizeForRecognition(img image.Image, targetHeight, maxWidth, padMultiple int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return imaging.New(max(1, padMultiple), targetHeight, color.Black)
	}
	newW := max(1, int(float64(w)*float64(targetHeight)/float64(h)))
	if maxWidth > 0 {
		newW = min(newW, maxWidth)
	}
	resized := imaging.Resize(img, newW, targetHeight, imaging.Linear)
	padW := newW
	if padMultiple > 0 && padW%padMultiple != 0 {
		padW += padMultiple - padW%padMultiple
	}
	if padW == newW {
		return resized
	}
	canvas := imaging.New(padW, targetHeight, color.Black)
	return imaging.Paste(canvas, resized, image.Pt(0, 0))
}

// normalize writes CHW RGB values scaled to [-1, 1] into dst.
func normalize(img image.Image, dst []float32) {
	n := imaging.Clone(img)
	w, h := n.Bounds().Dx(), n.Bounds().Dy()
	plane := w * h
	for y := range h {
		for x := range w {
			p := n.Pix[y*n.Stride+x*4:]
			i := y*w + x
			dst[i] = float32(p[0])/127.5 - 1
			dst[plane+i] = float32(p[1])/127.5 - 1
			dst[2*plane+i] = float32(p[2])/127.5 - 1
		}
	}
}

// setONNXLibraryPath points onnxruntime_go at the shared library. The
// ONNXRUNTIME_LIB environment variable wins over the well-known locations.
func setONNXLibraryPath() error {
	if p := os.Getenv("ONNXRUNTIME_LIB"); p != "" {
		onnxrt.SetSharedLibraryPath(p)
		return nil
	}
	name, err := libraryName()
	if err != nil {
		return err
	}
	candidates := []string{
		filepath.Join("/usr/local/lib", name),
		filepath.Join("/usr/lib", name),
		filepath.Join("/opt/onnxruntime/cpu/lib", name),
	}
	if root, err := findProjectRoot(); err == nil {
		candidates = append(candidates, filepath.Join(root, "onnxruntime", "lib", name))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			onnxrt.SetSharedLibraryPath(p)
			return nil
		}
	}
	return fmt.Errorf("%s not found: %w", name, status.ErrResourceNotFound)
}

func libraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// findProjectRoot walks up from the working directory to the nearest go.mod.
func findProjectRoot() (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root, nil
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "", errors.New("could not find project root")
		}
		root = parent
	}
}

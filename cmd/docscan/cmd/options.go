package cmd

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docscan/internal/batch"
	"github.com/MeKo-Tech/docscan/internal/config"
	"github.com/MeKo-Tech/docscan/internal/license"
	"github.com/MeKo-Tech/docscan/internal/preprocess"
	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/recognizer"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// addRecognitionFlags registers the flags shared by scan, batch and pdf.
func addRecognitionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("formats", nil,
		"formats to enable (bardecoder, pdf417, usdl, mrtd, mykad, ikad, zxing, blinkinput)")
	f.Bool("multi", false, "report every matching format instead of only the first")
	f.String("license-key", "", "license key")
	f.String("licensee", "", "licensee the license key was issued to")
	f.StringSlice("ocr-languages", nil, "OCR languages for the document formats")
	f.String("orientation", "", "capture orientation (portrait, landscape-right, portrait-upside, landscape-left)")
	f.String("mirror", "", "mirror frames before recognition (horizontal, vertical)")
	f.Bool("dewarp", false, "correct barrel distortion before recognition")
	f.Float64("dewarp-k1", 0, "radial distortion coefficient k1")
	f.Float64("dewarp-k2", 0, "radial distortion coefficient k2")
	f.Float64("dewarp-scale", 1, "dewarp field scale")
}

// addOutputFlags registers the result output flags.
func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("format", "f", "", "output format (text, json, yaml, csv)")
	f.StringP("output", "o", "", "output file (default: stdout)")
	f.Int("precision", 0, "confidence decimal places (default from config)")
	f.String("metrics-file", "", "write recognition metrics in Prometheus text format to this file")
}

// applyRecognitionFlags copies changed flags over cfg. CLI flags win over
// config file values.
func applyRecognitionFlags(cfg *config.Config, cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("formats") {
		cfg.Recognition.Formats, _ = f.GetStringSlice("formats")
	}
	if f.Changed("multi") {
		cfg.Recognition.MultipleResults, _ = f.GetBool("multi")
	}
	if f.Changed("license-key") {
		cfg.License.Key, _ = f.GetString("license-key")
	}
	if f.Changed("licensee") {
		cfg.License.Licensee, _ = f.GetString("licensee")
	}
	if f.Changed("ocr-languages") {
		cfg.Recognition.OCRLanguages, _ = f.GetStringSlice("ocr-languages")
	}
	if f.Changed("orientation") {
		cfg.Preprocess.Orientation, _ = f.GetString("orientation")
	}
	if f.Changed("mirror") {
		cfg.Preprocess.Mirror, _ = f.GetString("mirror")
	}
	if f.Changed("dewarp") {
		cfg.Preprocess.Dewarp.Enabled, _ = f.GetBool("dewarp")
	}
	if f.Changed("dewarp-k1") {
		cfg.Preprocess.Dewarp.K1, _ = f.GetFloat64("dewarp-k1")
	}
	if f.Changed("dewarp-k2") {
		cfg.Preprocess.Dewarp.K2, _ = f.GetFloat64("dewarp-k2")
	}
	if f.Changed("dewarp-scale") {
		cfg.Preprocess.Dewarp.Scale, _ = f.GetFloat64("dewarp-scale")
	}
	if f.Lookup("roi") != nil && f.Changed("roi") {
		cfg.Preprocess.ROI, _ = f.GetString("roi")
	}

	if f.Changed("format") {
		cfg.Output.Format, _ = f.GetString("format")
	}
	if f.Changed("output") {
		cfg.Output.File, _ = f.GetString("output")
	}
	if f.Changed("precision") {
		cfg.Output.ConfidencePrecision, _ = f.GetInt("precision")
	}
	if f.Changed("metrics-file") {
		cfg.Output.MetricsFile, _ = f.GetString("metrics-file")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", errors.Join(status.ErrInvalidArgument, err))
	}
	return nil
}

// commandConfig returns a copy of the loaded configuration with the
// command's flags applied.
func commandConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := *GetConfig()
	cfg.Recognition.Formats = append([]string(nil), cfg.Recognition.Formats...)
	if err := applyRecognitionFlags(&cfg, cmd); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// frameOptions is the per-frame preparation derived from the configuration.
type frameOptions struct {
	orientation rawimage.Orientation
	preprocess  preprocess.Options
	roi         image.Rectangle
}

func frameOptionsOf(cfg *config.Config) (frameOptions, error) {
	var fo frameOptions
	var err error
	if fo.orientation, err = cfg.Orientation(); err != nil {
		return fo, err
	}
	if fo.preprocess, err = cfg.PreprocessOptions(); err != nil {
		return fo, err
	}
	if fo.roi, err = cfg.ROI(); err != nil {
		return fo, err
	}
	return fo, nil
}

// newRecognizer builds a Recognizer for cfg. Back-end activity is logged at
// debug level.
func newRecognizer(cfg *config.Config) (*recognizer.Recognizer, error) {
	s, err := cfg.ToSettings()
	if err != nil {
		return nil, err
	}
	return recognizer.New(s,
		recognizer.WithValidator(license.NewValidator([]byte(cfg.License.Secret))),
		recognizer.WithCallback(recognizer.CallbackFuncs{
			BackendStarted: func(kind result.Kind) {
				slog.Debug("Back-end started", "kind", kind.String())
			},
			Finished: func(results int) {
				slog.Debug("Recognition finished", "results", results)
			},
		}),
	)
}

// scannerFactory returns a batch.ScannerFactory creating one Recognizer per
// worker.
func scannerFactory(cfg *config.Config) batch.ScannerFactory {
	return func() (batch.Scanner, error) {
		return newRecognizer(cfg)
	}
}

// openOutput returns the writer for results: the configured file or stdout.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // user-specified output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// writeMetrics dumps the default registry to path in text exposition format.
func writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	slog.Debug("Metrics written", "file", path)
	return nil
}

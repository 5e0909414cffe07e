//nolint:lll
package config

import (
	"github.com/MeKo-Tech/docscan/internal/preprocess"
	"github.com/MeKo-Tech/docscan/internal/settings"
)

// Config represents the complete configuration for the docscan application.
// It includes settings for all commands (scan, pdf, batch, license) and
// supports loading from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	ResourcesDir string `mapstructure:"resources_dir" yaml:"resources_dir" json:"resources_dir"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// License credentials
	License LicenseConfig `mapstructure:"license" yaml:"license" json:"license"`

	// Recognizer configuration
	Recognition RecognitionConfig `mapstructure:"recognition" yaml:"recognition" json:"recognition"`

	// Frame corrections applied before recognition
	Preprocess PreprocessConfig `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// LicenseConfig holds the license key and, for the issue command, the
// signing secret.
type LicenseConfig struct {
	Key      string `mapstructure:"key" yaml:"key" json:"key"`
	Licensee string `mapstructure:"licensee" yaml:"licensee" json:"licensee"`
	Secret   string `mapstructure:"secret" yaml:"secret,omitempty" json:"-"`
}

// RecognitionConfig selects the enabled formats and their options. Only the
// sub-sections of formats listed in Formats are used.
type RecognitionConfig struct {
	Formats         []string `mapstructure:"formats" yaml:"formats" json:"formats"`
	MultipleResults bool     `mapstructure:"multiple_results" yaml:"multiple_results" json:"multiple_results"`
	OCRLanguages    []string `mapstructure:"ocr_languages" yaml:"ocr_languages" json:"ocr_languages"`

	BarDecoder settings.BarDecoderSettings `mapstructure:"bar_decoder" yaml:"bar_decoder" json:"bar_decoder"`
	ZXing      settings.ZXingSettings      `mapstructure:"zxing" yaml:"zxing" json:"zxing"`
	PDF417     settings.PDF417Settings     `mapstructure:"pdf417" yaml:"pdf417" json:"pdf417"`
	USDL       settings.USDLSettings       `mapstructure:"usdl" yaml:"usdl" json:"usdl"`
	MRTD       settings.MRTDSettings       `mapstructure:"mrtd" yaml:"mrtd" json:"mrtd"`
	MyKad      settings.MyKadSettings      `mapstructure:"mykad" yaml:"mykad" json:"mykad"`
	IKad       settings.IKadSettings       `mapstructure:"ikad" yaml:"ikad" json:"ikad"`
	BlinkInput settings.BlinkInputSettings `mapstructure:"blinkinput" yaml:"blinkinput" json:"blinkinput"`
}

// PreprocessConfig contains the corrections applied to every frame.
type PreprocessConfig struct {
	// Orientation is the capture orientation (portrait, landscape-right,
	// portrait-upside, landscape-left).
	Orientation string `mapstructure:"orientation" yaml:"orientation" json:"orientation"`
	// Mirror is "", "horizontal" or "vertical".
	Mirror string       `mapstructure:"mirror" yaml:"mirror" json:"mirror"`
	Dewarp DewarpConfig `mapstructure:"dewarp" yaml:"dewarp" json:"dewarp"`
	// ROI is "x,y,w,h" in raw pixel coordinates, empty for the whole frame.
	ROI string `mapstructure:"roi" yaml:"roi" json:"roi"`
}

// DewarpConfig contains barrel distortion correction settings.
type DewarpConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	preprocess.Params `mapstructure:",squash" yaml:",inline"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format              string `mapstructure:"format" yaml:"format" json:"format"`
	File                string `mapstructure:"file" yaml:"file" json:"file"`
	ConfidencePrecision int    `mapstructure:"confidence_precision" yaml:"confidence_precision" json:"confidence_precision"`
	MetricsFile         string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive       bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

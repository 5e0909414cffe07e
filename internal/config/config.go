package config

import (
	"fmt"
	"image"
	"slices"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/models"
	"github.com/MeKo-Tech/docscan/internal/parsers"
	"github.com/MeKo-Tech/docscan/internal/preprocess"
	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ResourcesDir: models.DefaultResourcesDir,
		LogLevel:     "info",
		Verbose:      false,
		Recognition: RecognitionConfig{
			Formats:      []string{result.KindZXing.String()},
			OCRLanguages: []string{"eng"},
			BarDecoder:   *settings.DefaultBarDecoderSettings(),
			ZXing:        *settings.DefaultZXingSettings(),
			PDF417:       *settings.DefaultPDF417Settings(),
			USDL:         *settings.DefaultUSDLSettings(),
			MRTD:         *settings.DefaultMRTDSettings(),
			MyKad:        *settings.DefaultMyKadSettings(),
			IKad:         *settings.DefaultIKadSettings(),
			BlinkInput:   *settings.DefaultBlinkInputSettings(),
		},
		Preprocess: PreprocessConfig{
			Orientation: rawimage.Portrait.String(),
			Dewarp:      DewarpConfig{Params: preprocess.IdentityParams()},
		},
		Output: OutputConfig{
			Format:              "text",
			ConfidencePrecision: 2,
		},
		Batch: BatchConfig{
			Workers:         4,
			ContinueOnError: false,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "yaml", "csv"}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if c.Output.ConfidencePrecision < 0 || c.Output.ConfidencePrecision > 6 {
		return fmt.Errorf("invalid confidence precision: %d (must be between 0 and 6)", c.Output.ConfidencePrecision)
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	if _, err := c.Kinds(); err != nil {
		return err
	}
	if slices.Contains(c.Recognition.Formats, result.KindZXing.String()) && !c.Recognition.ZXing.AnyEnabled() {
		return fmt.Errorf("zxing is enabled but no symbology is selected: %w", status.ErrInvalidArgument)
	}
	if slices.Contains(c.Recognition.Formats, result.KindBlinkInput.String()) {
		if _, err := parsers.Compile(c.Recognition.BlinkInput.Groups); err != nil {
			return fmt.Errorf("invalid blinkinput parsers: %w", err)
		}
	}

	if _, err := c.Orientation(); err != nil {
		return err
	}
	if _, err := c.PreprocessOptions(); err != nil {
		return err
	}
	if _, err := c.ROI(); err != nil {
		return err
	}
	return nil
}

// Kinds parses Recognition.Formats, in priority order and without duplicates.
func (c *Config) Kinds() ([]result.Kind, error) {
	enabled := make(map[result.Kind]bool, len(c.Recognition.Formats))
	for _, name := range c.Recognition.Formats {
		k, err := result.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("invalid format: %w", err)
		}
		enabled[k] = true
	}
	var kinds []result.Kind
	for _, k := range result.Priority {
		if enabled[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// ToSettings converts the configuration into recognizer settings.
func (c *Config) ToSettings() (*settings.Settings, error) {
	kinds, err := c.Kinds()
	if err != nil {
		return nil, err
	}
	r := c.Recognition
	s := settings.New()
	for _, k := range kinds {
		switch k {
		case result.KindBarDecoder:
			s.SetBarDecoder(&r.BarDecoder)
		case result.KindZXing:
			s.SetZXing(&r.ZXing)
		case result.KindPDF417:
			s.SetPDF417(&r.PDF417)
		case result.KindUSDL:
			s.SetUSDL(&r.USDL)
		case result.KindMRTD:
			s.SetMRTD(&r.MRTD)
		case result.KindMyKad:
			s.SetMyKad(&r.MyKad)
		case result.KindIKad:
			s.SetIKad(&r.IKad)
		case result.KindBlinkInput:
			s.SetBlinkInput(&r.BlinkInput)
		}
	}
	if c.License.Licensee != "" {
		s.SetLicenseKeyForLicensee(c.License.Licensee, c.License.Key)
	} else {
		s.SetLicenseKey(c.License.Key)
	}
	s.SetResourcesLocation(models.GetResourcesDir(c.ResourcesDir))
	s.SetOCRLanguages(r.OCRLanguages...)
	s.SetOutputMultipleResults(r.MultipleResults)
	return s, nil
}

// Orientation parses Preprocess.Orientation; empty means portrait.
func (c *Config) Orientation() (rawimage.Orientation, error) {
	if c.Preprocess.Orientation == "" {
		return rawimage.Portrait, nil
	}
	o, err := rawimage.ParseOrientation(c.Preprocess.Orientation)
	if err != nil {
		return 0, fmt.Errorf("invalid preprocess orientation: %w", err)
	}
	return o, nil
}

// PreprocessOptions converts the mirror and dewarp sections.
func (c *Config) PreprocessOptions() (preprocess.Options, error) {
	var opts preprocess.Options
	if c.Preprocess.Dewarp.Enabled {
		p := c.Preprocess.Dewarp.Params
		if err := p.Validate(); err != nil {
			return opts, fmt.Errorf("invalid preprocess dewarp: %w", err)
		}
		opts.Dewarp = &p
	}
	if c.Preprocess.Mirror != "" {
		axis, err := preprocess.ParseAxis(c.Preprocess.Mirror)
		if err != nil {
			return opts, fmt.Errorf("invalid preprocess mirror: %w", err)
		}
		opts.Mirror = &axis
	}
	return opts, nil
}

// ROI parses Preprocess.ROI. The zero rectangle means no ROI.
func (c *Config) ROI() (image.Rectangle, error) {
	return ParseROI(c.Preprocess.ROI)
}

// ParseROI parses "x,y,w,h". An empty string yields the zero rectangle.
func ParseROI(s string) (image.Rectangle, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return image.Rectangle{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid roi %q (want x,y,w,h): %w", s, status.ErrInvalidArgument)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid roi %q: %w", s, status.ErrInvalidArgument)
		}
		v[i] = n
	}
	if v[0] < 0 || v[1] < 0 || v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("invalid roi %q: %w", s, status.ErrInvalidArgument)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

package config

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docscan/internal/preprocess"
	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/settings"
	"github.com/MeKo-Tech/docscan/internal/status"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "chatty" }},
		{"output format", func(c *Config) { c.Output.Format = "xml" }},
		{"precision", func(c *Config) { c.Output.ConfidencePrecision = 9 }},
		{"workers", func(c *Config) { c.Batch.Workers = 0 }},
		{"unknown format", func(c *Config) { c.Recognition.Formats = []string{"barcode"} }},
		{"zxing without symbology", func(c *Config) { c.Recognition.ZXing = settings.ZXingSettings{} }},
		{"bad parser", func(c *Config) {
			c.Recognition.Formats = []string{"blinkinput"}
			c.Recognition.BlinkInput.Groups = []settings.ParserGroup{{
				Name:    "g",
				Parsers: []settings.ParserSpec{{Name: "r", Type: settings.ParserRegex, Pattern: "("}},
			}}
		}},
		{"orientation", func(c *Config) { c.Preprocess.Orientation = "sideways" }},
		{"mirror", func(c *Config) { c.Preprocess.Mirror = "diagonal" }},
		{"dewarp scale", func(c *Config) {
			c.Preprocess.Dewarp.Enabled = true
			c.Preprocess.Dewarp.Scale = 0
		}},
		{"roi", func(c *Config) { c.Preprocess.ROI = "1,2,3" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestToSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Recognition.Formats = []string{"blinkinput", "mrtd", "usdl"}
	cfg.Recognition.MultipleResults = true
	cfg.Recognition.MRTD.ShowMachineReadableZone = true
	cfg.Recognition.OCRLanguages = []string{"eng", "msa"}
	cfg.License = LicenseConfig{Key: "k", Licensee: "acme"}
	cfg.ResourcesDir = "/opt/resources"

	s, err := cfg.ToSettings()
	require.NoError(t, err)
	assert.Equal(t, []result.Kind{result.KindUSDL, result.KindMRTD, result.KindBlinkInput}, s.EnabledKinds())
	assert.True(t, s.OutputMultipleResults())
	assert.Equal(t, "acme", s.Licensee())
	assert.Equal(t, "k", s.LicenseKey())
	assert.Equal(t, "/opt/resources", s.ResourcesLocation())
	assert.Equal(t, []string{"eng", "msa"}, s.OCRLanguages())

	m, ok := s.MRTD()
	require.True(t, ok)
	assert.True(t, m.ShowMachineReadableZone)

	// Later edits of the config do not leak into the settings.
	cfg.Recognition.MRTD.ShowMachineReadableZone = false
	m, _ = s.MRTD()
	assert.True(t, m.ShowMachineReadableZone)
}

func TestToSettings_UnknownFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Recognition.Formats = []string{"hologram"}
	_, err := cfg.ToSettings()
	require.ErrorIs(t, err, status.ErrInvalidArgument)
}

func TestPreprocessOptions(t *testing.T) {
	cfg := DefaultConfig()
	opts, err := cfg.PreprocessOptions()
	require.NoError(t, err)
	assert.False(t, opts.Enabled())

	cfg.Preprocess.Mirror = "vertical"
	cfg.Preprocess.Dewarp = DewarpConfig{Enabled: true, Params: preprocess.Params{K1: -0.1, Scale: 1}}
	opts, err = cfg.PreprocessOptions()
	require.NoError(t, err)
	require.NotNil(t, opts.Mirror)
	assert.Equal(t, preprocess.AxisVertical, *opts.Mirror)
	require.NotNil(t, opts.Dewarp)
	assert.InDelta(t, -0.1, opts.Dewarp.K1, 1e-9)
}

func TestOrientation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Preprocess.Orientation = ""
	o, err := cfg.Orientation()
	require.NoError(t, err)
	assert.Equal(t, rawimage.Portrait, o)

	cfg.Preprocess.Orientation = "portrait-upside"
	o, err = cfg.Orientation()
	require.NoError(t, err)
	assert.Equal(t, rawimage.PortraitUpside, o)
}

func TestParseROI(t *testing.T) {
	r, err := ParseROI("")
	require.NoError(t, err)
	assert.True(t, r.Empty())

	r, err = ParseROI(" 10, 20, 30, 40 ")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 20, 40, 60), r)

	for _, bad := range []string{"a,b,c,d", "1,2,3", "-1,0,5,5", "0,0,0,5"} {
		_, err := ParseROI(bad)
		assert.ErrorIs(t, err, status.ErrInvalidArgument, bad)
	}
}

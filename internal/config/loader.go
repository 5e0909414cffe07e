package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "docscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "DOCSCAN"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so that flags
// bound by the CLI take part in resolution.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewIsolatedLoader creates a loader with its own viper instance.
func NewIsolatedLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load loads configuration from files, environment variables, and sets defaults.
// It returns the loaded configuration and any error encountered.
func (l *Loader) Load() (*Config, error) {
	return l.load("", true)
}

// LoadWithoutValidation is Load without Validate.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	return l.load("", false)
}

// LoadWithFile loads configuration from a specific file path. An empty path
// falls back to the search paths.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	return l.load(configFile, true)
}

// LoadWithFileWithoutValidation is LoadWithFile without Validate.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	return l.load(configFile, false)
}

func (l *Loader) load(configFile string, validate bool) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing file in the search paths is fine; defaults and env apply.
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	// Env values for list keys arrive as one comma separated string.
	config.Recognition.Formats = splitList(config.Recognition.Formats)
	config.Recognition.OCRLanguages = splitList(config.Recognition.OCRLanguages)

	if validate {
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return &config, nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Get returns a value from the configuration.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// recognition.mrtd.allow_unverified <- DOCSCAN_RECOGNITION_MRTD_ALLOW_UNVERIFIED
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("resources_dir", d.ResourcesDir)
	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("license.key", d.License.Key)
	l.v.SetDefault("license.licensee", d.License.Licensee)
	l.v.SetDefault("license.secret", d.License.Secret)

	r := d.Recognition
	l.v.SetDefault("recognition.formats", r.Formats)
	l.v.SetDefault("recognition.multiple_results", r.MultipleResults)
	l.v.SetDefault("recognition.ocr_languages", r.OCRLanguages)

	l.v.SetDefault("recognition.bar_decoder.scan_code39", r.BarDecoder.ScanCode39)
	l.v.SetDefault("recognition.bar_decoder.scan_code128", r.BarDecoder.ScanCode128)
	l.v.SetDefault("recognition.bar_decoder.scan_inverse", r.BarDecoder.ShouldScanInverse)
	l.v.SetDefault("recognition.bar_decoder.try_harder", r.BarDecoder.TryHarder)
	l.v.SetDefault("recognition.bar_decoder.auto_scale", r.BarDecoder.UseAutoScale)

	l.v.SetDefault("recognition.zxing.scan_aztec", r.ZXing.ScanAztec)
	l.v.SetDefault("recognition.zxing.scan_code128", r.ZXing.ScanCode128)
	l.v.SetDefault("recognition.zxing.scan_code39", r.ZXing.ScanCode39)
	l.v.SetDefault("recognition.zxing.scan_data_matrix", r.ZXing.ScanDataMatrix)
	l.v.SetDefault("recognition.zxing.scan_ean13", r.ZXing.ScanEAN13)
	l.v.SetDefault("recognition.zxing.scan_ean8", r.ZXing.ScanEAN8)
	l.v.SetDefault("recognition.zxing.scan_itf", r.ZXing.ScanITF)
	l.v.SetDefault("recognition.zxing.scan_qr_code", r.ZXing.ScanQRCode)
	l.v.SetDefault("recognition.zxing.scan_upca", r.ZXing.ScanUPCA)
	l.v.SetDefault("recognition.zxing.scan_upce", r.ZXing.ScanUPCE)
	l.v.SetDefault("recognition.zxing.scan_inverse", r.ZXing.ShouldScanInverse)
	l.v.SetDefault("recognition.zxing.slow_thorough_scan", r.ZXing.SlowThoroughScan)

	l.v.SetDefault("recognition.pdf417.scan_inverse", r.PDF417.ShouldScanInverse)
	l.v.SetDefault("recognition.pdf417.null_quiet_zone", r.PDF417.NullQuietZoneAllowed)
	l.v.SetDefault("recognition.pdf417.scan_uncertain", r.PDF417.ShouldScanUncertain)

	l.v.SetDefault("recognition.usdl.null_quiet_zone", r.USDL.NullQuietZoneAllowed)
	l.v.SetDefault("recognition.usdl.scan_uncertain", r.USDL.ShouldScanUncertain)
	l.v.SetDefault("recognition.usdl.auto_scale", r.USDL.UseAutoScale)

	l.v.SetDefault("recognition.mrtd.allow_unparsed", r.MRTD.AllowUnparsedResults)
	l.v.SetDefault("recognition.mrtd.allow_unverified", r.MRTD.AllowUnverifiedResults)
	l.v.SetDefault("recognition.mrtd.show_full_document", r.MRTD.ShowFullDocument)
	l.v.SetDefault("recognition.mrtd.show_mrz", r.MRTD.ShowMachineReadableZone)

	l.v.SetDefault("recognition.mykad.show_full_document", r.MyKad.ShowFullDocument)
	l.v.SetDefault("recognition.mykad.show_face_image", r.MyKad.ShowFaceImage)

	l.v.SetDefault("recognition.ikad.show_full_document", r.IKad.ShowFullDocument)
	l.v.SetDefault("recognition.ikad.show_face_image", r.IKad.ShowFaceImage)
	l.v.SetDefault("recognition.ikad.extract_passport_number", r.IKad.ExtractPassportNumber)
	l.v.SetDefault("recognition.ikad.extract_expiry_date", r.IKad.ExtractExpiryDate)
	l.v.SetDefault("recognition.ikad.extract_sector", r.IKad.ExtractSector)
	l.v.SetDefault("recognition.ikad.extract_employer", r.IKad.ExtractEmployer)
	l.v.SetDefault("recognition.ikad.extract_address", r.IKad.ExtractAddress)
	l.v.SetDefault("recognition.ikad.extract_nationality", r.IKad.ExtractNationality)
	l.v.SetDefault("recognition.ikad.extract_sex", r.IKad.ExtractSex)

	l.v.SetDefault("recognition.blinkinput.allow_flipped", r.BlinkInput.AllowFlippedRecognition)
	l.v.SetDefault("recognition.blinkinput.classification", r.BlinkInput.Classification)
	l.v.SetDefault("recognition.blinkinput.groups", r.BlinkInput.Groups)

	l.v.SetDefault("preprocess.orientation", d.Preprocess.Orientation)
	l.v.SetDefault("preprocess.mirror", d.Preprocess.Mirror)
	l.v.SetDefault("preprocess.roi", d.Preprocess.ROI)
	l.v.SetDefault("preprocess.dewarp.enabled", d.Preprocess.Dewarp.Enabled)
	l.v.SetDefault("preprocess.dewarp.k1", d.Preprocess.Dewarp.K1)
	l.v.SetDefault("preprocess.dewarp.k2", d.Preprocess.Dewarp.K2)
	l.v.SetDefault("preprocess.dewarp.k3", d.Preprocess.Dewarp.K3)
	l.v.SetDefault("preprocess.dewarp.p1", d.Preprocess.Dewarp.P1)
	l.v.SetDefault("preprocess.dewarp.p2", d.Preprocess.Dewarp.P2)
	l.v.SetDefault("preprocess.dewarp.scale", d.Preprocess.Dewarp.Scale)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.file", d.Output.File)
	l.v.SetDefault("output.confidence_precision", d.Output.ConfidencePrecision)
	l.v.SetDefault("output.metrics_file", d.Output.MetricsFile)

	l.v.SetDefault("batch.workers", d.Batch.Workers)
	l.v.SetDefault("batch.recursive", d.Batch.Recursive)
	l.v.SetDefault("batch.continue_on_error", d.Batch.ContinueOnError)
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]interface{} {
	return l.v.AllSettings()
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile generates a default configuration file.
func GenerateDefaultConfigFile(filename string) error {
	loader := NewIsolatedLoader()
	loader.setDefaults()

	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}

	return loader.WriteConfigToFile(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}

	paths = append(paths, "/etc/"+ConfigFileName)

	return paths
}

// PrintConfigInfo prints information about configuration loading for debugging.
func (l *Loader) PrintConfigInfo() {
	fmt.Printf("Configuration file used: %s\n", l.GetConfigFileUsed())
	fmt.Printf("Configuration search paths: %v\n", GetConfigSearchPaths())
	fmt.Printf("Environment prefix: %s\n", EnvPrefix)
}

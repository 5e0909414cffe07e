package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/docscan/internal/config"
	"github.com/MeKo-Tech/docscan/internal/models"
	"github.com/MeKo-Tech/docscan/internal/status"
	"github.com/MeKo-Tech/docscan/internal/version"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "docscan",
	Short: "Barcode and identity document recognition",
	Long: `docscan recognizes barcodes, driver license barcodes, machine readable
travel documents and Malaysian identity cards in images and PDFs.

Every enabled format is tried on each image in a fixed priority order and the
results are aggregated into one list. Formats are selected in the configuration
file or with --formats.

Examples:
  docscan scan photo.jpg --formats zxing,usdl
  docscan batch images/ --recursive --workers 8 --format csv
  docscan pdf document.pdf --pages 1-3 --format json
  docscan config init`,
	SilenceUsage:      true,
	PersistentPreRunE: setupCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.Flags().GetBool("version")
		if v {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "docscan version %s\n", version.String())
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// An interrupt cancels the running recognition.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(status.ExitCode(err))
	}
}

// GetRootCommand returns the root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/docscan, /etc/docscan)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	defaultResourcesDir := models.DefaultResourcesDir
	if envDir := os.Getenv(models.EnvResourcesDir); envDir != "" {
		defaultResourcesDir = envDir
	}
	rootCmd.PersistentFlags().String("resources-dir", defaultResourcesDir,
		"directory containing OCR models and data (can also be set via "+models.EnvResourcesDir+")")

	rootCmd.Flags().Bool("version", false, "print version information and exit")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("resources_dir", rootCmd.PersistentFlags().Lookup("resources-dir"))
}

// setupCommand loads the configuration and installs the structured logger.
func setupCommand(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(true); err != nil {
		return err
	}
	setupLogging(globalConfig)
	return nil
}

// loadConfig reads the config file, environment and bound flags.
func loadConfig(validate bool) error {
	configLoader = config.NewLoader()

	var err error
	if validate {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.LoadWithFileWithoutValidation(cfgFile)
	}
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", errors.Join(status.ErrInvalidArgument, err))
	}
	return nil
}

func setupLogging(cfg *config.Config) {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}

	// Results go to stdout, so logs stay on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// GetConfig returns the global configuration.
func GetConfig() *config.Config {
	if globalConfig == nil {
		if err := loadConfig(false); err != nil {
			d := config.DefaultConfig()
			return &d
		}
	}
	return globalConfig
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}

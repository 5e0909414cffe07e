package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/docscan/internal/config"
)

// configCmd groups the configuration helpers.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and generate configuration files",
	// Loads without validation so a broken file can still be inspected.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(false); err != nil {
			return err
		}
		setupLogging(globalConfig)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a configuration file with the default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := config.ConfigFileName + ".yaml"
		if len(args) == 1 {
			filename = args[0]
		}
		if err := config.GenerateDefaultConfigFile(filename); err != nil {
			return fmt.Errorf("failed to write configuration: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", filename)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		out := cmd.OutOrStdout()
		used := GetConfigLoader().GetConfigFileUsed()
		if used == "" {
			used = "(none, defaults and environment)"
		}
		_, _ = fmt.Fprintf(out, "# file: %s\n# search paths: %v\n# environment prefix: %s\n",
			used, config.GetConfigSearchPaths(), config.EnvPrefix)
		shown := *cfg
		if shown.License.Secret != "" {
			shown.License.Secret = "********"
		}
		bts, err := yaml.Marshal(shown)
		if err != nil {
			return err
		}
		_, err = out.Write(bts)
		if err != nil {
			return err
		}
		if verr := cfg.Validate(); verr != nil {
			_, _ = fmt.Fprintf(out, "# invalid: %v\n", verr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

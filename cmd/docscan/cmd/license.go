package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docscan/internal/license"
	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/status"
)

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Issue and inspect license keys",
	Long: `Issue and inspect license keys. Keys are signed with license.secret from
the configuration, or the development secret when none is set.`,
}

var licenseIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a license key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		var claims license.Claims
		claims.Licensee, _ = f.GetString("licensee")
		claims.Formats, _ = f.GetStringSlice("formats")
		for _, name := range claims.Formats {
			if _, err := result.ParseKind(name); err != nil {
				return fmt.Errorf("invalid format: %w", err)
			}
		}
		if validFor, _ := f.GetDuration("valid-for"); validFor > 0 {
			claims.Expires = time.Now().UTC().Add(validFor)
		} else if validFor < 0 {
			return fmt.Errorf("negative --valid-for: %w", status.ErrInvalidArgument)
		}

		key, err := license.Issue([]byte(GetConfig().License.Secret), claims)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var licenseInspectCmd = &cobra.Command{
	Use:   "inspect [key]",
	Short: "Verify a license key and print its claims",
	Long:  "Verify a license key and print its claims. Without an argument the configured key is used.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		key := cfg.License.Key
		if len(args) == 1 {
			key = args[0]
		}
		if key == "" {
			return errors.Join(status.ErrInvalidLicenseKey, errors.New("no license key given"))
		}
		claims, err := license.Parse([]byte(cfg.License.Secret), key)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(claims)
	},
}

func init() {
	rootCmd.AddCommand(licenseCmd)
	licenseCmd.AddCommand(licenseIssueCmd, licenseInspectCmd)

	licenseIssueCmd.Flags().String("licensee", "", "bind the key to this licensee")
	licenseIssueCmd.Flags().StringSlice("formats", nil, "restrict the key to these formats (default: all)")
	licenseIssueCmd.Flags().Duration("valid-for", 0, "key lifetime, e.g. 8760h (default: no expiry)")
}

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docscan/internal/batch"
	"github.com/MeKo-Tech/docscan/internal/config"
)

// batchCmd represents the batch command for parallel image processing.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Recognize documents in many images in parallel",
	Long: `Scan many image files in parallel. Each worker owns its own recognizer.
Directories are expanded, recursively with --recursive.

Examples:
  docscan batch images/ --recursive --workers 8
  docscan batch *.jpg --format csv --output results.csv
  docscan batch scans/ --include '*.png' --exclude 'thumb_*' --continue-on-error`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatchCommand,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addRecognitionFlags(batchCmd)
	addOutputFlags(batchCmd)
	batchCmd.Flags().String("roi", "", "region of interest x,y,w,h applied to every image")
	batchCmd.Flags().String("overlay-dir", "", "directory to write result overlays")
	batchCmd.Flags().String("images-dir", "", "directory to write document crops (faces, full documents)")
	batchCmd.Flags().IntP("workers", "w", 0, "number of parallel workers (default from config, 0 = number of CPUs)")
	batchCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	batchCmd.Flags().StringSlice("include", nil, "only scan files matching these glob patterns")
	batchCmd.Flags().StringSlice("exclude", nil, "skip files matching these glob patterns")
	batchCmd.Flags().Bool("continue-on-error", false, "keep going when a file fails")
	batchCmd.Flags().Bool("progress", false, "show a progress bar on stderr")
}

// configToBatchConfig maps the configuration and batch flags to batch.Config.
// CLI flags override config file values.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) (*batch.Config, error) {
	bc, err := scanOptions(cfg, cmd)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()

	bc.Workers = cfg.Batch.Workers
	if f.Changed("workers") {
		bc.Workers, _ = f.GetInt("workers")
	}
	bc.Recursive = cfg.Batch.Recursive
	if f.Changed("recursive") {
		bc.Recursive, _ = f.GetBool("recursive")
	}
	bc.ContinueOnError = cfg.Batch.ContinueOnError
	if f.Changed("continue-on-error") {
		bc.ContinueOnError, _ = f.GetBool("continue-on-error")
	}
	bc.IncludePatterns, _ = f.GetStringSlice("include")
	bc.ExcludePatterns, _ = f.GetStringSlice("exclude")

	if progress, _ := f.GetBool("progress"); progress {
		bc.Progress = batch.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Scanning ")
	} else {
		bc.Progress = batch.NewLogProgressCallback(slog.Default(), 25)
	}
	return bc, nil
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	bc, err := configToBatchConfig(cfg, cmd)
	if err != nil {
		return err
	}

	res, runErr := batch.ProcessBatch(cmd.Context(), args, bc, scannerFactory(cfg))
	if res != nil {
		if err := writeBatchResults(cmd, cfg, res); err != nil {
			return err
		}
		stats := res.Stats()
		slog.Info("Batch finished",
			"files", stats.Files,
			"failed", stats.Failed,
			"with_results", stats.WithResults,
			"results", stats.Results,
			"workers", stats.Workers,
			"duration", stats.TotalDuration)
	}
	if err := writeMetrics(cfg.Output.MetricsFile); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("batch: %w", runErr)
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docscan/internal/batch"
	"github.com/MeKo-Tech/docscan/internal/config"
)

// scanCmd recognizes documents in image files one after another.
var scanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Recognize barcodes and documents in images",
	Long: `Run the enabled recognizers over one or more image files and print the
aggregated results.

Supported formats: JPEG, PNG, BMP, TIFF, WebP

Examples:
  docscan scan card.jpg --formats mykad
  docscan scan label.png --formats zxing,pdf417 --multi --format json
  docscan scan photo.jpg --roi 100,200,800,300 --overlay-dir out/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScanCommand,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	addRecognitionFlags(scanCmd)
	addOutputFlags(scanCmd)
	scanCmd.Flags().String("roi", "", "region of interest x,y,w,h in raw pixel coordinates")
	scanCmd.Flags().String("overlay-dir", "", "directory to write result overlays")
	scanCmd.Flags().String("images-dir", "", "directory to write document crops (faces, full documents)")
}

// scanOptions builds the batch configuration shared by scan and batch.
func scanOptions(cfg *config.Config, cmd *cobra.Command) (*batch.Config, error) {
	fo, err := frameOptionsOf(cfg)
	if err != nil {
		return nil, err
	}
	bc := batch.DefaultConfig()
	bc.Orientation = fo.orientation
	bc.Preprocess = fo.preprocess
	bc.ROI = fo.roi
	bc.OverlayDir, _ = cmd.Flags().GetString("overlay-dir")
	bc.ImagesDir, _ = cmd.Flags().GetString("images-dir")
	return bc, nil
}

func runScanCommand(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	bc, err := scanOptions(cfg, cmd)
	if err != nil {
		return err
	}
	bc.Workers = 1

	res, runErr := batch.ProcessBatch(cmd.Context(), args, bc, scannerFactory(cfg))
	if res != nil {
		if err := writeBatchResults(cmd, cfg, res); err != nil {
			return err
		}
	}
	if err := writeMetrics(cfg.Output.MetricsFile); err != nil {
		return err
	}
	return runErr
}

// writeBatchResults renders res to the configured output.
func writeBatchResults(cmd *cobra.Command, cfg *config.Config, res *batch.Result) (err error) {
	w, closeOut, err := openOutput(cmd, cfg.Output.File)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
	}()
	return res.WriteResults(w, cfg.Output.Format, cfg.Output.ConfidencePrecision)
}

package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/docscan/internal/config"
	"github.com/MeKo-Tech/docscan/internal/pdf"
)

// pdfCmd represents the pdf command.
var pdfCmd = &cobra.Command{
	Use:   "pdf [file...]",
	Short: "Recognize documents in the images embedded in PDF files",
	Long: `Extract the images embedded in PDF pages and run the enabled recognizers
over each of them. Works with scanned documents and PDFs that carry photos of
cards, passports or labels.

Examples:
  docscan pdf document.pdf
  docscan pdf *.pdf --format json --formats mrtd
  docscan pdf scan.pdf --pages 1-5 --password secret`,
	Args: cobra.MinimumNArgs(1),
	RunE: processPDFs,
}

func init() {
	rootCmd.AddCommand(pdfCmd)

	addRecognitionFlags(pdfCmd)
	addOutputFlags(pdfCmd)
	pdfCmd.Flags().String("pages", "", "page range to process (e.g., '1-5', '1,3,5')")
	pdfCmd.Flags().Int("min-image-size", pdf.DefaultProcessorConfig().MinImageSize,
		"skip embedded images whose shorter side is below this many pixels")
	pdfCmd.Flags().StringP("password", "p", "", "user password for encrypted PDFs")
	pdfCmd.Flags().String("owner-password", "", "owner password for encrypted PDFs")
}

func processPDFs(cmd *cobra.Command, args []string) (err error) {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	fo, err := frameOptionsOf(cfg)
	if err != nil {
		return err
	}

	pc := pdf.DefaultProcessorConfig()
	pc.Orientation = fo.orientation
	pc.Preprocess = fo.preprocess
	pc.MinImageSize, _ = cmd.Flags().GetInt("min-image-size")
	user, _ := cmd.Flags().GetString("password")
	owner, _ := cmd.Flags().GetString("owner-password")
	pc.Credentials = &pdf.Credentials{UserPassword: user, OwnerPassword: owner}
	pageRange, _ := cmd.Flags().GetString("pages")

	rec, err := newRecognizer(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rec.Close() }()

	processor, err := pdf.NewProcessor(rec, pc)
	if err != nil {
		return err
	}

	docs := make([]*pdf.DocumentResult, 0, len(args))
	var runErr error
	for _, file := range args {
		doc, perr := processor.ProcessFile(cmd.Context(), file, pageRange)
		if perr != nil {
			runErr = fmt.Errorf("%s: %w", file, perr)
			break
		}
		docs = append(docs, doc)
	}

	w, closeOut, err := openOutput(cmd, cfg.Output.File)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
	}()
	if err := writePDFResults(w, docs, cfg); err != nil {
		return err
	}
	if err := writeMetrics(cfg.Output.MetricsFile); err != nil {
		return err
	}
	return runErr
}

type pdfDocument struct {
	Documents []*pdf.DocumentResult `json:"documents" yaml:"documents"`
}

// writePDFResults renders docs in the configured output format.
func writePDFResults(w io.Writer, docs []*pdf.DocumentResult, cfg *config.Config) error {
	precision := cfg.Output.ConfidencePrecision
	switch strings.ToLower(cfg.Output.Format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pdfDocument{Documents: docs})
	case "yaml":
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(pdfDocument{Documents: docs}); err != nil {
			return err
		}
		return enc.Close()
	case "csv":
		return writePDFCSV(w, docs, precision)
	default:
		return writePDFText(w, docs, precision)
	}
}

func writePDFText(w io.Writer, docs []*pdf.DocumentResult, precision int) error {
	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "# %s (%d pages)\n", doc.Filename, doc.TotalPages)
		found := false
		for _, page := range doc.Pages {
			for _, img := range page.Images {
				for _, r := range img.Results.Results() {
					found = true
					fmt.Fprintf(&b, "page %d image %d: %s confidence=%s\n", page.PageNumber, img.ImageIndex,
						r.Summary(), strconv.FormatFloat(r.Confidence(), 'f', precision, 64))
				}
			}
		}
		if !found {
			b.WriteString("no results\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writePDFCSV(w io.Writer, docs []*pdf.DocumentResult, precision int) error {
	cw := csv.NewWriter(w)
	rows := [][]string{{"file", "page", "image", "kind", "valid", "confidence", "summary"}}
	for _, doc := range docs {
		for _, page := range doc.Pages {
			for _, img := range page.Images {
				for _, r := range img.Results.Results() {
					rows = append(rows, []string{
						doc.Filename,
						strconv.Itoa(page.PageNumber),
						strconv.Itoa(img.ImageIndex),
						r.Kind().String(),
						strconv.FormatBool(r.IsValid()),
						strconv.FormatFloat(r.Confidence(), 'f', precision, 64),
						r.Summary(),
					})
				}
			}
		}
	}
	return cw.WriteAll(rows)
}

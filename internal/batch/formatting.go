package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats understood by FormatResults.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// formatBatchResults formats the batch processing results in the specified format.
func formatBatchResults(items []*ItemResult, format string, precision int) (string, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return formatJSON(items)
	case FormatYAML:
		return formatYAML(items)
	case FormatCSV:
		return formatCSV(items, precision)
	case FormatText, "":
		return formatText(items, precision), nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

type batchDocument struct {
	Images []*ItemResult `json:"images" yaml:"images"`
}

func formatJSON(items []*ItemResult) (string, error) {
	bts, err := json.MarshalIndent(batchDocument{Images: nonNil(items)}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bts) + "\n", nil
}

func formatYAML(items []*ItemResult) (string, error) {
	bts, err := yaml.Marshal(batchDocument{Images: nonNil(items)})
	return string(bts), err
}

func formatCSV(items []*ItemResult, precision int) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	rows := [][]string{{"file", "index", "kind", "valid", "confidence", "summary", "error"}}

	for _, it := range nonNil(items) {
		if it.Error != "" || it.Results.Len() == 0 {
			rows = append(rows, []string{it.Path, "", "", "", "", "", it.Error})
			continue
		}
		for i, r := range it.Results.Results() {
			rows = append(rows, []string{
				it.Path,
				strconv.Itoa(i),
				r.Kind().String(),
				strconv.FormatBool(r.IsValid()),
				strconv.FormatFloat(r.Confidence(), 'f', precision, 64),
				r.Summary(),
				"",
			})
		}
	}

	if err := writer.WriteAll(rows); err != nil {
		return "", err
	}
	return output.String(), nil
}

func formatText(items []*ItemResult, precision int) string {
	var output strings.Builder
	for i, it := range nonNil(items) {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "# %s\n", it.Path)
		switch {
		case it.Error != "":
			fmt.Fprintf(&output, "error: %s\n", it.Error)
		case it.Results.Len() == 0:
			output.WriteString("no results\n")
		default:
			for _, r := range it.Results.Results() {
				fmt.Fprintf(&output, "%s confidence=%s\n", r.Summary(),
					strconv.FormatFloat(r.Confidence(), 'f', precision, 64))
			}
		}
	}
	return output.String()
}

func nonNil(items []*ItemResult) []*ItemResult {
	out := make([]*ItemResult, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

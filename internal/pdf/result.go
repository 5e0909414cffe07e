package pdf

import (
	"github.com/MeKo-Tech/docscan/internal/result"
)

// ImageResult holds the recognition output for one image embedded in a page.
type ImageResult struct {
	ImageIndex int          `json:"image_index" yaml:"image_index"`
	Width      int          `json:"width" yaml:"width"`
	Height     int          `json:"height" yaml:"height"`
	Results    *result.List `json:"results" yaml:"results"`
}

// PageResult holds the images scanned on a single PDF page.
type PageResult struct {
	PageNumber int            `json:"page_number" yaml:"page_number"`
	Images     []ImageResult  `json:"images" yaml:"images"`
	Processing ProcessingInfo `json:"processing" yaml:"processing"`
}

// DocumentResult represents the scan of a complete PDF document.
type DocumentResult struct {
	Filename   string         `json:"filename" yaml:"filename"`
	TotalPages int            `json:"total_pages" yaml:"total_pages"`
	Pages      []PageResult   `json:"pages" yaml:"pages"`
	Processing ProcessingInfo `json:"processing" yaml:"processing"`
}

// ProcessingInfo contains timing information.
type ProcessingInfo struct {
	ExtractionTimeMs  int64 `json:"extraction_time_ms,omitempty" yaml:"extraction_time_ms,omitempty"`
	RecognitionTimeMs int64 `json:"recognition_time_ms" yaml:"recognition_time_ms"`
	TotalTimeMs       int64 `json:"total_time_ms" yaml:"total_time_ms"`
}

// Results flattens every result of the document in page and image order.
func (d *DocumentResult) Results() []result.Result {
	if d == nil {
		return nil
	}
	var out []result.Result
	for _, p := range d.Pages {
		for _, img := range p.Images {
			out = append(out, img.Results.Results()...)
		}
	}
	return out
}

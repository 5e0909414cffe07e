// Package pdf extracts the images embedded in PDF pages and runs them
// through a Recognizer.
package pdf

import (
	"fmt"
	"image"
	_ "image/jpeg" // pdfcpu emits DCT streams as jpg
	_ "image/png"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/tiff" // CCITT and some flate images come out as tif
)

// ExtractImages returns the images embedded in the selected pages of a PDF
// file keyed by 1-based page number. An empty pageRange selects all pages.
func ExtractImages(filename string, pageRange string) (map[int][]image.Image, error) {
	return ExtractImagesWithCredentials(filename, pageRange, nil)
}

// ExtractImagesWithCredentials is ExtractImages for documents that need a
// user or owner password.
func ExtractImagesWithCredentials(filename, pageRange string, creds *Credentials) (map[int][]image.Image, error) {
	pageNumbers, err := parsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	var pageStrings []string
	if len(pageNumbers) > 0 {
		pageStrings = make([]string, len(pageNumbers))
		for i, pageNum := range pageNumbers {
			pageStrings[i] = strconv.Itoa(pageNum)
		}
	}

	f, err := os.Open(filename) //nolint:gosec // G304: Reading user-provided PDF file path is expected
	if err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	out := make(map[int][]image.Image)
	digest := func(img model.Image, _ bool, _ int) error {
		decoded, _, err := image.Decode(img)
		if err != nil {
			slog.Debug("Skipping undecodable PDF image",
				"file", filename, "page", img.PageNr, "name", img.Name, "type", img.FileType, "error", err)
			return nil
		}
		out[img.PageNr] = append(out[img.PageNr], decoded)
		return nil
	}
	if err := api.ExtractImages(f, pageStrings, digest, creds.configuration()); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}
	return out, nil
}

// PageCount returns the number of pages in a PDF file.
func PageCount(filename string, creds *Credentials) (int, error) {
	f, err := os.Open(filename) //nolint:gosec // G304: Reading user-provided PDF file path is expected
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return api.PageCount(f, creds.configuration())
}

// sortedPages returns the keys of pages in ascending order.
func sortedPages[T any](pages map[int]T) []int {
	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// parsePageRange parses a page range string like "1-5" or "1,3,5".
func parsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil // Empty means all pages
	}

	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

// parseRangeToken parses either a single page token (e.g., "3") or a range token (e.g., "1-5").
func parseRangeToken(part string) ([]int, error) {
	if !strings.Contains(part, "-") {
		page, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page number: %s", part)
		}
		if page < 1 {
			return nil, fmt.Errorf("page numbers start at 1: %d", page)
		}
		return []int{page}, nil
	}

	rangeParts := strings.Split(part, "-")
	if len(rangeParts) != 2 {
		return nil, fmt.Errorf("invalid range format: %s", part)
	}
	start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
	}
	end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
	}
	if start < 1 {
		return nil, fmt.Errorf("page numbers start at 1: %d", start)
	}
	if start > end {
		return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
	}
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out, nil
}

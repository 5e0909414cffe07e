package ocr

import (
	"image"
	"image/draw"
)

// SplitLines segments a page into text line rectangles using the
// horizontal projection of dark pixels. Pixels darker than the image mean
// by a margin count as ink. Rows with ink below minInk are gaps.
func SplitLines(img image.Image) []image.Rectangle {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		gray = image.NewGray(b)
		draw.Draw(gray, b, img, b.Min, draw.Src)
	}
	w, h := b.Dx(), b.Dy()

	var sum int
	for y := range h {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for _, p := range row {
			sum += int(p)
		}
	}
	threshold := sum/(w*h) - 40

	ink := make([]int, h)
	for y := range h {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for _, p := range row {
			if int(p) < threshold {
				ink[y]++
			}
		}
	}

	minInk := max(1, w/200)
	var rects []image.Rectangle
	start := -1
	for y := 0; y <= h; y++ {
		inked := y < h && ink[y] >= minInk
		switch {
		case inked && start < 0:
			start = y
		case !inked && start >= 0:
			if y-start >= 4 {
				rects = append(rects, lineRect(gray, ink, threshold, start, y, w).Add(b.Min))
			}
			start = -1
		}
	}
	return rects
}

// lineRect trims the columns without ink and adds a small vertical margin.
func lineRect(gray *image.Gray, _ []int, threshold, y0, y1, w int) image.Rectangle {
	x0, x1 := w, 0
	for y := y0; y < y1; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x, p := range row {
			if int(p) < threshold {
				x0 = min(x0, x)
				x1 = max(x1, x+1)
			}
		}
	}
	h := gray.Rect.Dy()
	pad := max(1, (y1-y0)/6)
	return image.Rect(max(0, x0-pad), max(0, y0-pad), min(w, x1+pad), min(h, y1+pad))
}

package utils

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/MeKo-Tech/docscan/internal/result"
)

// OverlayColor is the outline color of detected barcodes.
var OverlayColor = color.RGBA{R: 255, A: 255}

// Annotate copies img and outlines every barcode of list that carries
// result points. Points are in the coordinates of img.
func Annotate(img image.Image, list *result.List, thickness int) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	if list == nil {
		return dst
	}
	for _, r := range list.Results() {
		bc, ok := r.Barcode()
		if !ok || len(bc.Points) == 0 {
			continue
		}
		if len(bc.Points) <= 2 {
			// 1-D symbols report the two ends of the scan line.
			DrawRect(dst, boundsOf(bc.Points).Inset(-thickness*2), OverlayColor, thickness)
			continue
		}
		DrawPolygon(dst, bc.Points, OverlayColor, thickness)
	}
	return dst
}

func boundsOf(pts []result.Point) image.Rectangle {
	q0 := roundPt(pts[0])
	r := image.Rectangle{Min: q0, Max: q0.Add(image.Pt(1, 1))}
	for _, p := range pts[1:] {
		q := roundPt(p)
		r = r.Union(image.Rectangle{Min: q, Max: q.Add(image.Pt(1, 1))})
	}
	return r
}

func roundPt(p result.Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// DrawRect draws an axis-aligned rectangle outline into dst.
func DrawRect(dst *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	// Top and bottom edges
	for t := range thickness {
		yTop := rect.Min.Y + t
		yBot := rect.Max.Y - 1 - t
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, yTop, col)
			dst.Set(x, yBot, col)
		}
	}
	// Left and right edges
	for t := range thickness {
		xLeft := rect.Min.X + t
		xRight := rect.Max.X - 1 - t
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(xLeft, y, col)
			dst.Set(xRight, y, col)
		}
	}
}

// DrawPolygon draws connected line segments and closes the polygon.
func DrawPolygon(dst *image.RGBA, pts []result.Point, col color.Color, thickness int) {
	if len(pts) < 2 {
		return
	}
	for i := range pts {
		drawLine(dst, roundPt(pts[i]), roundPt(pts[(i+1)%len(pts)]), col, thickness)
	}
}

// drawLine draws a line between two points using a simple Bresenham variant.
func drawLine(dst *image.RGBA, a, b image.Point, col color.Color, thickness int) {
	x0, y0 := a.X, a.Y
	x1, y1 := b.X, b.Y
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		drawThickPoint(dst, x0, y0, col, thickness)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawThickPoint(dst *image.RGBA, x, y int, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	r := (thickness - 1) / 2
	for yy := y - r; yy <= y+r; yy++ {
		for xx := x - r; xx <= x+r; xx++ {
			if image.Pt(xx, yy).In(dst.Bounds()) {
				dst.Set(xx, yy, col)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package rawimage

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/MeKo-Tech/docscan/internal/status"
)

// luma uses the integer Rec.601 weights.
func luma(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

// Gray returns the luminance plane as a standard library image, in raw
// (un-rotated) coordinates.
func (m *Image) Gray() *image.Gray {
	out := image.NewGray(m.Bounds())
	if m.released {
		return out
	}
	for y := range m.height {
		row := m.pix[y*m.stride:]
		dst := out.Pix[y*out.Stride : y*out.Stride+m.width]
		switch m.format {
		case FormatGray, FormatNV21:
			copy(dst, row[:m.width])
		case FormatBGR:
			for x := range m.width {
				p := row[x*3:]
				dst[x] = luma(p[2], p[1], p[0])
			}
		case FormatBGRA:
			for x := range m.width {
				p := row[x*4:]
				dst[x] = luma(p[2], p[1], p[0])
			}
		}
	}
	return out
}

// ToImage converts the buffer to a standard library image in raw coordinates:
// *image.NRGBA for BGR/BGRA, *image.Gray for gray and *image.YCbCr for NV21.
func (m *Image) ToImage() image.Image {
	if m.released {
		return image.NewGray(image.Rectangle{})
	}
	switch m.format {
	case FormatGray:
		return m.Gray()
	case FormatNV21:
		return m.ycbcr()
	default:
		out := image.NewNRGBA(m.Bounds())
		bpp := m.format.BytesPerPixel()
		for y := range m.height {
			row := m.pix[y*m.stride:]
			dst := out.Pix[y*out.Stride:]
			for x := range m.width {
				p := row[x*bpp:]
				d := dst[x*4:]
				d[0], d[1], d[2] = p[2], p[1], p[0]
				if bpp == 4 {
					d[3] = p[3]
				} else {
					d[3] = 0xFF
				}
			}
		}
		return out
	}
}

func (m *Image) ycbcr() *image.YCbCr {
	out := image.NewYCbCr(m.Bounds(), image.YCbCrSubsampleRatio420)
	for y := range m.height {
		copy(out.Y[y*out.YStride:y*out.YStride+m.width], m.pix[y*m.stride:])
	}
	vu := m.pix[m.stride*m.height:]
	for j := range m.height / 2 {
		row := vu[j*m.stride:]
		for i := range m.width / 2 {
			out.Cr[j*out.CStride+i] = row[2*i]
			out.Cb[j*out.CStride+i] = row[2*i+1]
		}
	}
	return out
}

// FromImage encodes src into a new buffer of the requested format with a
// tightly packed stride.
func FromImage(src image.Image, format PixelFormat) (*Image, error) {
	if src == nil {
		return nil, fmt.Errorf("from image: nil source: %w", status.ErrInvalidArgument)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	stride := w * format.BytesPerPixel()
	need, err := RequiredLen(w, h, stride, format)
	if err != nil {
		return nil, err
	}
	data := make([]byte, need)

	switch format {
	case FormatGray:
		g := image.NewGray(image.Rect(0, 0, w, h))
		draw.Draw(g, g.Bounds(), src, b.Min, draw.Src)
		for y := range h {
			copy(data[y*stride:], g.Pix[y*g.Stride:y*g.Stride+w])
		}
	case FormatNV21:
		encodeNV21(data, src, w, h)
	default:
		n := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(n, n.Bounds(), src, b.Min, draw.Src)
		bpp := format.BytesPerPixel()
		for y := range h {
			for x := range w {
				s := n.Pix[y*n.Stride+x*4:]
				d := data[y*stride+x*bpp:]
				d[0], d[1], d[2] = s[2], s[1], s[0]
				if bpp == 4 {
					d[3] = s[3]
				}
			}
		}
	}
	return New(data, w, h, stride, format)
}

func encodeNV21(data []byte, src image.Image, w, h int) {
	b := src.Bounds()
	vu := data[w*h:]
	for y := range h {
		for x := range w {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			yy, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			data[y*w+x] = yy
			if x%2 == 0 && y%2 == 0 {
				off := (y/2)*w + x
				vu[off] = cr
				vu[off+1] = cb
			}
		}
	}
}

// Package preprocess applies geometric corrections to raw frames before
// recognition: lens (barrel) dewarping, mirroring and rotation to upright.
//
// Every function is a pure function of its inputs and parameters. Functions
// returning a new *rawimage.Image preserve the input's pixel format and
// orientation.
package preprocess

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/MeKo-Tech/docscan/internal/mempool"
	"github.com/MeKo-Tech/docscan/internal/rawimage"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// Params are Brown–Conrady lens distortion coefficients. K1..K3 are radial
// terms, P1 and P2 tangential. Coordinates are normalised by half of the
// longer image side, so the coefficients do not depend on resolution.
// Scale widens (>1) or narrows (<1) the sampled field of the source.
type Params struct {
	K1    float64 `mapstructure:"k1" yaml:"k1" json:"k1"`
	K2    float64 `mapstructure:"k2" yaml:"k2" json:"k2"`
	K3    float64 `mapstructure:"k3" yaml:"k3" json:"k3"`
	P1    float64 `mapstructure:"p1" yaml:"p1" json:"p1"`
	P2    float64 `mapstructure:"p2" yaml:"p2" json:"p2"`
	Scale float64 `mapstructure:"scale" yaml:"scale" json:"scale"`
}

// IdentityParams leave the image unchanged.
func IdentityParams() Params { return Params{Scale: 1} }

// Validate checks the coefficients.
func (p Params) Validate() error {
	for name, v := range map[string]float64{"k1": p.K1, "k2": p.K2, "k3": p.K3, "p1": p.P1, "p2": p.P2, "scale": p.Scale} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("dewarp %s is not finite: %w", name, status.ErrInvalidArgument)
		}
	}
	if p.Scale <= 0 {
		return fmt.Errorf("dewarp scale %v must be positive: %w", p.Scale, status.ErrInvalidArgument)
	}
	return nil
}

// BarrelDewarper applies one validated parameter set to many frames.
type BarrelDewarper struct {
	params Params
}

// NewBarrelDewarper validates params once.
func NewBarrelDewarper(params Params) (*BarrelDewarper, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &BarrelDewarper{params: params}, nil
}

// Params returns the coefficients in use.
func (d *BarrelDewarper) Params() Params { return d.params }

// Dewarp returns a corrected copy of img.
func (d *BarrelDewarper) Dewarp(img *rawimage.Image) (*rawimage.Image, error) {
	return BarrelDewarp(img, d.params)
}

// BarrelDewarp returns a corrected copy of img. Destination pixels whose
// source falls outside the frame are filled with zero.
func BarrelDewarp(img *rawimage.Image, params Params) (*rawimage.Image, error) {
	if img == nil || img.Released() {
		return nil, fmt.Errorf("dewarp: nil or released image: %w", status.ErrInvalidArgument)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	w, h := img.Width(), img.Height()
	srcMap := mempool.GetFloat32(2 * w * h)
	defer mempool.PutFloat32(srcMap)
	buildMap(srcMap, w, h, params)

	src := img.Bytes()
	dst := make([]byte, len(src))
	stride := img.BytesPerRow()

	switch img.Format() {
	case rawimage.FormatNV21:
		remapPlane(dst, src, srcMap, w, h, stride, 1)
		remapChroma(dst[stride*h:], src[stride*h:], srcMap, w, h, stride)
	default:
		remapPlane(dst, src, srcMap, w, h, stride, img.Format().BytesPerPixel())
	}

	out, err := rawimage.New(dst, w, h, stride, img.Format())
	if err != nil {
		return nil, err
	}
	if err := out.SetOrientation(img.Orientation()); err != nil {
		return nil, err
	}
	slog.Debug("Barrel dewarp applied", "width", w, "height", h, "k1", params.K1, "k2", params.K2, "scale", params.Scale)
	return out, nil
}

// buildMap stores, for every destination pixel, the source coordinate it samples.
func buildMap(m []float32, w, h int, p Params) {
	cx := float64(w-1) / 2
	cy := float64(h-1) / 2
	norm := float64(max(w, h)) / 2
	for y := range h {
		for x := range w {
			xn := (float64(x) - cx) / norm * p.Scale
			yn := (float64(y) - cy) / norm * p.Scale
			r2 := xn*xn + yn*yn
			radial := 1 + p.K1*r2 + p.K2*r2*r2 + p.K3*r2*r2*r2
			xd := xn*radial + 2*p.P1*xn*yn + p.P2*(r2+2*xn*xn)
			yd := yn*radial + p.P1*(r2+2*yn*yn) + 2*p.P2*xn*yn
			i := 2 * (y*w + x)
			m[i] = float32(xd*norm + cx)
			m[i+1] = float32(yd*norm + cy)
		}
	}
}

// remapPlane resamples an interleaved plane with bilinear interpolation.
func remapPlane(dst, src []byte, m []float32, w, h, stride, bpp int) {
	for y := range h {
		for x := range w {
			i := 2 * (y*w + x)
			sx, sy, ok := clampSource(m[i], m[i+1], w, h)
			if !ok {
				continue
			}
			x0, y0 := int(sx), int(sy)
			x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
			fx, fy := sx-float64(x0), sy-float64(y0)
			d := dst[y*stride+x*bpp:]
			for c := range bpp {
				p00 := float64(src[y0*stride+x0*bpp+c])
				p10 := float64(src[y0*stride+x1*bpp+c])
				p01 := float64(src[y1*stride+x0*bpp+c])
				p11 := float64(src[y1*stride+x1*bpp+c])
				top := p00 + (p10-p00)*fx
				bottom := p01 + (p11-p01)*fx
				d[c] = uint8(math.Round(top + (bottom-top)*fy))
			}
		}
	}
}

// remapChroma resamples the NV21 V/U plane with nearest-neighbour lookups
// taken from the luma map at even coordinates.
func remapChroma(dst, src []byte, m []float32, w, h, stride int) {
	for j := range h / 2 {
		for i := range w / 2 {
			k := 2 * ((2*j)*w + 2*i)
			sx, sy, ok := clampSource(m[k], m[k+1], w, h)
			d := dst[j*stride+2*i:]
			if !ok {
				d[0], d[1] = 128, 128
				continue
			}
			ci := min(int(math.Round(sx))/2, w/2-1)
			cj := min(int(math.Round(sy))/2, h/2-1)
			s := src[cj*stride+2*ci:]
			d[0], d[1] = s[0], s[1]
		}
	}
}

// clampSource accepts coordinates up to half a pixel outside the frame, which
// absorbs float rounding at the borders, and clamps them onto the grid.
func clampSource(fx, fy float32, w, h int) (float64, float64, bool) {
	sx, sy := float64(fx), float64(fy)
	if sx < -0.5 || sy < -0.5 || sx > float64(w)-0.5 || sy > float64(h)-0.5 {
		return 0, 0, false
	}
	return math.Min(math.Max(sx, 0), float64(w-1)), math.Min(math.Max(sy, 0), float64(h-1)), true
}

package rawimage

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/status"
)

// PixelFormat is the memory layout of a raw buffer.
type PixelFormat int

const (
	// FormatBGRA is 4 bytes per pixel: blue, green, red, alpha.
	FormatBGRA PixelFormat = iota
	// FormatBGR is 3 bytes per pixel: blue, green, red.
	FormatBGR
	// FormatGray is one luminance byte per pixel.
	FormatGray
	// FormatNV21 is a full-resolution Y plane followed by an interleaved,
	// half-resolution V/U plane (Android camera default).
	FormatNV21
)

var formatNames = map[PixelFormat]string{
	FormatBGRA: "bgra",
	FormatBGR:  "bgr",
	FormatGray: "gray",
	FormatNV21: "nv21",
}

func (f PixelFormat) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// Valid reports whether f is a known format.
func (f PixelFormat) Valid() bool {
	_, ok := formatNames[f]
	return ok
}

// BytesPerPixel returns the size of one pixel in the first (or only) plane.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatBGRA:
		return 4
	case FormatBGR:
		return 3
	case FormatGray, FormatNV21:
		return 1
	default:
		return 0
	}
}

// ParsePixelFormat accepts the lower-case names used in configuration files.
func ParsePixelFormat(s string) (PixelFormat, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == want {
			return f, nil
		}
	}
	return 0, fmt.Errorf("pixel format %q: %w", s, status.ErrInvalidArgument)
}

// Orientation describes how the device was held when the frame was captured.
// Recognition always runs on the upright view derived from it.
type Orientation int

const (
	// Portrait is the natural orientation; no rotation needed.
	Portrait Orientation = iota
	// LandscapeRight means the content appears rotated 90° counter-clockwise.
	LandscapeRight
	// PortraitUpside means the content is upside down.
	PortraitUpside
	// LandscapeLeft means the content appears rotated 90° clockwise.
	LandscapeLeft
)

var orientationNames = map[Orientation]string{
	Portrait:       "portrait",
	LandscapeRight: "landscape-right",
	PortraitUpside: "portrait-upside",
	LandscapeLeft:  "landscape-left",
}

func (o Orientation) String() string {
	if s, ok := orientationNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	_, ok := orientationNames[o]
	return ok
}

// ParseOrientation accepts the names produced by Orientation.String.
func ParseOrientation(s string) (Orientation, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for o, name := range orientationNames {
		if name == want {
			return o, nil
		}
	}
	return 0, fmt.Errorf("orientation %q: %w", s, status.ErrInvalidArgument)
}

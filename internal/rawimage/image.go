// Package rawimage holds camera and scanner frames in their native memory
// layout.
//
// An Image owns a private copy of its pixel bytes. Every mutation bumps a
// generation counter so consumers that derive expensive state from the
// buffer (working images, ROI crops) can tell when that state is stale.
// An Image is not safe for concurrent mutation.
package rawimage

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/docscan/internal/mempool"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// MaxBufferBytes caps a single pixel buffer. Larger requests fail with
// status.ErrAllocationFailure instead of exhausting memory.
const MaxBufferBytes = 1 << 30

// Image is a raw pixel buffer plus its geometry and orientation.
type Image struct {
	pix         []byte
	width       int
	height      int
	stride      int
	format      PixelFormat
	orientation Orientation
	generation  uint64
	released    bool
}

// New creates an Image from caller memory. The first RequiredLen bytes of
// data are copied and any trailing bytes are ignored; the caller keeps
// ownership of its slice.
func New(data []byte, width, height, bytesPerRow int, format PixelFormat) (*Image, error) {
	pix, err := allocate(data, width, height, bytesPerRow, format)
	if err != nil {
		return nil, err
	}
	return &Image{
		pix:         pix,
		width:       width,
		height:      height,
		stride:      bytesPerRow,
		format:      format,
		orientation: Portrait,
	}, nil
}

// Copy returns a deep copy of other, including its orientation.
func Copy(other *Image) (*Image, error) {
	if other == nil || other.released {
		return nil, fmt.Errorf("copy image: nil or released source: %w", status.ErrInvalidArgument)
	}
	img, err := New(other.pix, other.width, other.height, other.stride, other.format)
	if err != nil {
		return nil, err
	}
	img.orientation = other.orientation
	return img, nil
}

// RequiredLen returns the number of bytes a buffer of the given geometry
// occupies, or an error when the geometry is inconsistent.
func RequiredLen(width, height, bytesPerRow int, format PixelFormat) (int, error) {
	if !format.Valid() {
		return 0, fmt.Errorf("unknown pixel format %d: %w", int(format), status.ErrInvalidArgument)
	}
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("dimensions %dx%d must be positive: %w", width, height, status.ErrInvalidArgument)
	}
	if format == FormatNV21 && (width%2 != 0 || height%2 != 0) {
		return 0, fmt.Errorf("nv21 requires even dimensions, got %dx%d: %w", width, height, status.ErrInvalidArgument)
	}
	minStride := int64(width) * int64(format.BytesPerPixel())
	if int64(bytesPerRow) < minStride {
		return 0, fmt.Errorf("bytes per row %d below minimum %d: %w", bytesPerRow, minStride, status.ErrInvalidArgument)
	}
	rows := int64(height)
	if format == FormatNV21 {
		rows += int64(height) / 2
	}
	need := int64(bytesPerRow) * rows
	if need > MaxBufferBytes {
		return 0, fmt.Errorf("buffer of %d bytes exceeds limit %d: %w", need, MaxBufferBytes, status.ErrAllocationFailure)
	}
	return int(need), nil
}

func allocate(data []byte, width, height, bytesPerRow int, format PixelFormat) ([]byte, error) {
	need, err := RequiredLen(width, height, bytesPerRow, format)
	if err != nil {
		return nil, err
	}
	if len(data) < need {
		return nil, fmt.Errorf("buffer has %d bytes, geometry needs %d: %w", len(data), need, status.ErrInvalidArgument)
	}
	pix := mempool.GetBytes(need)
	copy(pix, data[:need])
	return pix, nil
}

// SetRawBuffer replaces the pixel storage and geometry. Like New it keeps only
// the bytes the geometry covers. The previous storage is returned to the
// pool. On error the Image is unchanged.
func (m *Image) SetRawBuffer(data []byte, width, height, bytesPerRow int, format PixelFormat) error {
	pix, err := allocate(data, width, height, bytesPerRow, format)
	if err != nil {
		return err
	}
	mempool.PutBytes(m.pix)
	m.pix = pix
	m.width = width
	m.height = height
	m.stride = bytesPerRow
	m.format = format
	m.released = false
	m.generation++
	return nil
}

// Orientation returns the capture orientation.
func (m *Image) Orientation() Orientation { return m.orientation }

// SetOrientation records how the frame was captured.
func (m *Image) SetOrientation(o Orientation) error {
	if !o.Valid() {
		return fmt.Errorf("orientation %d: %w", int(o), status.ErrInvalidArgument)
	}
	if o != m.orientation {
		m.orientation = o
		m.generation++
	}
	return nil
}

// Bytes returns a copy of the pixel buffer, exactly RequiredLen bytes long.
// Writing to it never affects the Image.
func (m *Image) Bytes() []byte {
	if m.released {
		return nil
	}
	out := make([]byte, len(m.pix))
	copy(out, m.pix)
	return out
}

// MutableBytes returns the pixel buffer itself for in-place edits. Calling it
// invalidates any state derived from the previous contents.
func (m *Image) MutableBytes() []byte {
	m.generation++
	return m.pix
}

// Width returns the width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the height in pixels.
func (m *Image) Height() int { return m.height }

// BytesPerRow returns the row stride of the first plane.
func (m *Image) BytesPerRow() int { return m.stride }

// Format returns the pixel layout.
func (m *Image) Format() PixelFormat { return m.format }

// Generation increases on every mutation.
func (m *Image) Generation() uint64 { return m.generation }

// Bounds returns the buffer rectangle in raw (un-rotated) coordinates.
func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

// Released reports whether Release has been called.
func (m *Image) Released() bool { return m.released }

// Release returns the pixel storage to the pool. The Image must not be used
// afterwards except for SetRawBuffer, which re-arms it.
func (m *Image) Release() {
	if m.released {
		return
	}
	mempool.PutBytes(m.pix)
	m.pix = nil
	m.released = true
	m.generation++
}

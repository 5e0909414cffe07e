package mempool

import (
	"sync"
)

// Sized pools for pixel buffers ([]byte) and remap/tensor buffers ([]float32).
// Image buffers are large and short lived in scan loops, so reusing them keeps
// GC pressure flat when the same camera geometry is fed frame after frame.

var (
	bytePools    sync.Map // key: size class (int), value: *sync.Pool
	float32Pools sync.Map // key: size class (int), value: *sync.Pool
)

// sizeClass rounds n up to the next multiple of 1024 (minimum 1024).
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	r := (n + step - 1) / step
	return r * step
}

func bytePool(cls int) *sync.Pool {
	pAny, _ := bytePools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]byte, cls) }})
	p, _ := pAny.(*sync.Pool)
	return p
}

func float32Pool(cls int) *sync.Pool {
	pAny, _ := float32Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float32, cls) }})
	p, _ := pAny.(*sync.Pool)
	return p
}

// GetBytes retrieves a zeroed []byte of length n from the pool.
// The caller must return it via PutBytes when done.
func GetBytes(n int) []byte {
	cls := sizeClass(n)
	p := bytePool(cls)
	if p == nil {
		return make([]byte, n, cls)
	}
	buf, ok := p.Get().([]byte)
	if !ok || cap(buf) < cls {
		buf = make([]byte, cls)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

// PutBytes returns a buffer to the pool. It is safe to pass a nil slice.
func PutBytes(buf []byte) {
	if buf == nil {
		return
	}
	// Buffers that did not come from the pool may have an odd capacity; file
	// them under the class they can fully serve.
	cls := cap(buf) / 1024 * 1024
	if cls < 1024 {
		return
	}
	if p := bytePool(cls); p != nil {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}

// GetFloat32 retrieves a []float32 buffer of at least n elements from the pool.
// The returned slice has length n; contents are not zeroed.
// The caller must return it via PutFloat32 when done.
func GetFloat32(n int) []float32 {
	cls := sizeClass(n)
	p := float32Pool(cls)
	if p == nil {
		return make([]float32, n, cls)
	}
	buf, ok := p.Get().([]float32)
	if !ok || cap(buf) < cls {
		buf = make([]float32, cls)
	}
	return buf[:n]
}

// PutFloat32 returns a buffer to the pool. It is safe to pass a nil slice.
func PutFloat32(buf []float32) {
	if buf == nil {
		return
	}
	cls := cap(buf) / 1024 * 1024
	if cls < 1024 {
		return
	}
	if p := float32Pool(cls); p != nil {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}

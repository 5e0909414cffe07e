package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"small size gets minimum", 1, 1024},
		{"exactly 1024", 1024, 1024},
		{"just over 1024", 1025, 2048},
		{"odd number", 1500, 2048},
		{"large size", 10000, 10240},
		{"zero size", 0, 1024},
		{"negative size", -1, 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sizeClass(tt.input))
		})
	}
}

func TestGetBytesIsZeroed(t *testing.T) {
	buf := GetBytes(3000)
	require.Len(t, buf, 3000)
	for i := range buf {
		buf[i] = 0xFF
	}
	PutBytes(buf)

	again := GetBytes(2500)
	require.Len(t, again, 2500)
	for i, b := range again {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: %#x", i, b)
		}
	}
	PutBytes(again)
}

func TestGetBytesCapacity(t *testing.T) {
	buf := GetBytes(100)
	assert.Len(t, buf, 100)
	assert.GreaterOrEqual(t, cap(buf), 1024)
	PutBytes(buf)
}

func TestPutNilAndForeignBuffers(t *testing.T) {
	assert.NotPanics(t, func() {
		PutBytes(nil)
		PutFloat32(nil)
		PutBytes(make([]byte, 10))
		PutFloat32(make([]float32, 3000))
	})
	buf := GetFloat32(2048)
	assert.Len(t, buf, 2048)
	PutFloat32(buf)
}

func TestConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := range 100 {
				n := 512 + (seed*131+i*17)%8192
				b := GetBytes(n)
				if len(b) != n {
					t.Errorf("len = %d, want %d", len(b), n)
				}
				b[0] = byte(i)
				PutBytes(b)

				f := GetFloat32(n)
				f[n-1] = float32(i)
				PutFloat32(f)
			}
		}(g)
	}
	wg.Wait()
}

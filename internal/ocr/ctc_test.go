package ocr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docscan/internal/status"
)

func TestDecodeGreedy_TimeMajor(t *testing.T) {
	// T=4, C=4, blank=0: 1,1,blank,2 collapses to 1,2
	logits := []float32{
		0.1, 0.9, 0.0, 0.0,
		0.2, 0.8, 0.0, 0.0,
		0.9, 0.05, 0.03, 0.02,
		0.1, 0.2, 0.7, 0.0,
	}
	idx, conf := DecodeGreedy(logits, 4, 4, 0, false)
	assert.Equal(t, []int{1, 2}, idx)
	assert.InDelta(t, (0.9+0.7)/2, conf, 1e-6)
}

func TestDecodeGreedy_ClassesFirst(t *testing.T) {
	logits := []float32{
		0.1, 0.2, 0.9, 0.1,
		0.9, 0.8, 0.05, 0.2,
		0.0, 0.0, 0.03, 0.7,
		0.0, 0.0, 0.02, 0.0,
	}
	idx, _ := DecodeGreedy(logits, 4, 4, 0, true)
	assert.Equal(t, []int{1, 2}, idx)
}

func TestDecodeGreedy_RepeatAfterBlankIsKept(t *testing.T) {
	logits := []float32{
		0, 1, 0,
		1, 0, 0,
		0, 1, 0,
	}
	idx, _ := DecodeGreedy(logits, 3, 3, 0, false)
	assert.Equal(t, []int{1, 1}, idx)
}

func TestDecodeGreedy_Degenerate(t *testing.T) {
	idx, conf := DecodeGreedy(nil, 3, 3, 0, false)
	assert.Nil(t, idx)
	assert.Zero(t, conf)

	idx, conf = DecodeGreedy([]float32{1, 0, 1, 0}, 2, 2, 0, false)
	assert.Empty(t, idx)
	assert.Zero(t, conf)
}

func TestDecodeGreedy_SoftmaxForLogits(t *testing.T) {
	_, conf := DecodeGreedy([]float32{0, 5, 0}, 1, 3, 0, false)
	assert.Greater(t, conf, 0.9)
	assert.Less(t, conf, 1.0)
}

func TestClassesFirst(t *testing.T) {
	assert.False(t, classesFirst([]int64{1, 40, 97}, 97))
	assert.True(t, classesFirst([]int64{1, 97, 40}, 97))
	assert.False(t, classesFirst([]int64{97}, 97))
}

func TestCharset(t *testing.T) {
	cs := NewCharset([]string{"A", "B", "C"})
	assert.Equal(t, 5, cs.Classes())
	assert.Empty(t, cs.Token(0))
	assert.Equal(t, "A", cs.Token(1))
	assert.Equal(t, " ", cs.Token(4))
	assert.Empty(t, cs.Token(5))
	assert.Equal(t, "CAB A", cs.Decode([]int{3, 1, 2, 4, 1}))
}

func TestLoadCharset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.txt")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffx\r\ny\n\nz\n"), 0o600))

	cs, err := LoadCharset(path)
	require.NoError(t, err)
	assert.Equal(t, "xyz", cs.Decode([]int{1, 2, 3}))

	_, err = LoadCharset(filepath.Join(dir, "missing.txt"))
	require.ErrorIs(t, err, status.ErrResourceNotFound)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n\n"), 0o600))
	_, err = LoadCharset(empty)
	require.ErrorIs(t, err, status.ErrResourceNotFound)
}

func TestNewONNXEngine_MissingModel(t *testing.T) {
	_, err := NewONNXEngine(DefaultONNXConfig(t.TempDir()))
	require.ErrorIs(t, err, status.ErrResourceNotFound)
}

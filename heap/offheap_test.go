package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapOffHeap(t *testing.T) {
	h := &Heap{}
	err := h.InitOffHeap(64 * 1024)
	require.Nil(t, err)
	assert.True(t, h.mapped)
	assert.Equal(t, 64*1024, h.FreeHeapSize())

	p := h.Malloc(100)
	assert.NotNil(t, p)
	copy(p, "mapped")
	assert.Equal(t, []byte("mapped"), p[:6])

	h.Free(p)
	assert.Equal(t, 64*1024, h.FreeHeapSize())

	assert.Nil(t, h.Close())
	assert.False(t, h.initialized)

	// second Close is a no-op
	assert.Nil(t, h.Close())
}

func TestHeapOffHeapInvalidSize(t *testing.T) {
	h := &Heap{}
	assert.Equal(t, ErrHeapTooSmall, h.InitOffHeap(0))
}

func TestHeapCloseNotMapped(t *testing.T) {
	h := newTestHeap(t, 1024)
	assert.Nil(t, h.Close())
	assert.True(t, h.initialized)
}

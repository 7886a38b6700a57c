package ymem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ylib-go/ymem/heap"
)

func TestPortAliases(t *testing.T) {
	old := Default()
	defer Use(old)

	h := &heap.Heap{}
	require.Nil(t, h.Init(make([]byte, 1024)))
	Use(h)

	p := PortMalloc(100)
	assert.NotNil(t, p)
	assert.Equal(t, 1024-120, PortGetFreeHeapSize())

	PortFree(p)
	assert.Equal(t, 1024, PortGetFreeHeapSize())
	assert.Equal(t, 1024-120, PortGetMinimumEverFreeHeapSize())
}

func TestDefaultHeapLazyInit(t *testing.T) {
	old := Default()
	defer Use(old)
	Use(&heap.Heap{})

	p := Malloc(100)
	assert.NotNil(t, p)
	assert.Equal(t, heap.DefaultHeapSize-120, PortGetFreeHeapSize())
	Free(p)
	assert.Equal(t, heap.DefaultHeapSize, PortGetFreeHeapSize())
}

func TestConvenienceAliases(t *testing.T) {
	old := Default()
	defer Use(old)

	h := &heap.Heap{}
	require.Nil(t, h.Init(make([]byte, 1024)))
	Use(h)

	p := Calloc(4, 8)
	assert.Equal(t, 32, len(p))
	for _, b := range p {
		assert.Equal(t, byte(0), b)
	}

	p = Realloc(p, 100)
	assert.NotNil(t, p)

	Free(p)
	assert.Equal(t, 1024, PortGetFreeHeapSize())
}

func TestUseIgnoresNil(t *testing.T) {
	old := Default()
	Use(nil)
	assert.Same(t, old, Default())
}

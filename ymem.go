// Package ymem exposes one process-default heap under the naming convention
// of an RTOS port layer, so code written against that allocator can swap in
// this one without touching call sites. Subsystems that want an explicit
// allocator handle use the heap package directly.
package ymem

import "github.com/ylib-go/ymem/heap"

var defaultHeap = &heap.Heap{}

// Use replaces the process-default heap. Intended to be called once at
// startup, before any allocation.
func Use(h *heap.Heap) {
	if h != nil {
		defaultHeap = h
	}
}

// Default returns the process-default heap.
func Default() *heap.Heap {
	return defaultHeap
}

// PortMalloc allocates from the default heap.
func PortMalloc(size int) []byte {
	return defaultHeap.Malloc(size)
}

// PortFree returns an allocation to the default heap.
func PortFree(p []byte) {
	defaultHeap.Free(p)
}

// PortGetFreeHeapSize returns the free bytes of the default heap.
func PortGetFreeHeapSize() int {
	return defaultHeap.FreeHeapSize()
}

// PortGetMinimumEverFreeHeapSize returns the default heap's low-water mark.
func PortGetMinimumEverFreeHeapSize() int {
	return defaultHeap.MinimumEverFreeHeapSize()
}

// Malloc ...
func Malloc(size int) []byte {
	return defaultHeap.Malloc(size)
}

// Free ...
func Free(p []byte) {
	defaultHeap.Free(p)
}

// Realloc ...
func Realloc(p []byte, size int) []byte {
	return defaultHeap.Realloc(p, size)
}

// Calloc ...
func Calloc(num, size int) []byte {
	return defaultHeap.Calloc(num, size)
}

package heap

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// InitOffHeap maps an anonymous region outside the Go heap and builds the
// arena over it, keeping a large arena out of the garbage collector's scan
// set. Close releases the mapping.
func (h *Heap) InitOffHeap(size int) error {
	if size <= 0 {
		return ErrHeapTooSmall
	}
	buf, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return errors.Wrapf(err, "heap: cannot mmap %d bytes", size)
	}
	if err := h.Init(buf); err != nil {
		_ = unix.Munmap(buf)
		return err
	}
	h.mapped = true
	return nil
}

// Close unmaps an arena created by InitOffHeap and leaves the heap
// uninitialized. A heap over a caller-supplied or default buffer is a no-op.
func (h *Heap) Close() error {
	if !h.mapped {
		return nil
	}
	buf := h.arena
	h.mapped = false
	h.initialized = false
	h.arena = nil
	h.data = nil
	h.size = 0
	h.freeList = nullPtr
	if err := unix.Munmap(buf); err != nil {
		return errors.Wrap(err, "heap: munmap arena")
	}
	return nil
}

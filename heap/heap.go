// Package heap implements a byte-granular first-fit allocator over a single
// contiguous arena. Free blocks are kept on a singly linked list sorted by
// ascending address and are never coalesced: address-adjacent free neighbors
// stay separate list entries.
//
// A Heap performs no locking of its own. Every operation is a non-reentrant
// critical section; callers sharing a Heap across goroutines must serialize
// access themselves.
package heap

import (
	"math"
	"unsafe"

	"github.com/pkg/errors"
)

// ErrHeapTooSmall is returned by Init when the aligned buffer cannot hold
// two block headers.
var ErrHeapTooSmall = errors.New("heap: buffer too small for two block headers")

// ErrHeapTooLarge is returned by Init when the buffer exceeds the 32-bit
// block offset range.
var ErrHeapTooLarge = errors.New("heap: buffer exceeds 4 GiB offset range")

const nullPtr uint32 = math.MaxUint32

// blockLink prefixes every block in the arena, free or allocated.
// nextFreeBlock is meaningful only while the block sits on the free list.
// The trailing pad keeps the header a multiple of ByteAlignment so user
// data after it stays aligned.
type blockLink struct {
	nextFreeBlock uint32
	blockSize     uint32
	magic         uint32
	_             uint32
}

const headerSize = uint32(unsafe.Sizeof(blockLink{}))

// Heap manages one arena. The zero value is ready to use: the first Malloc
// initializes it with a fresh DefaultHeapSize buffer.
type Heap struct {
	arena []byte
	data  unsafe.Pointer
	size  int

	freeList    uint32
	initialized bool
	mapped      bool

	stats Stats

	mallocFailedHook func()
	freeHook         func(p []byte, size int)
	mallocHook       func(p []byte, size int)
}

// Init sets up the arena over buf, or over a fresh DefaultHeapSize buffer
// when buf is nil. The usable size is rounded down to ByteAlignment. The
// whole arena becomes a single free block. Block offsets are 32-bit, so a
// buffer past 4 GiB is rejected.
func (h *Heap) Init(buf []byte) error {
	if buf == nil {
		buf = make([]byte, DefaultHeapSize)
	}
	size := AlignDown(len(buf))
	if size < int(headerSize)*2 {
		return ErrHeapTooSmall
	}
	if uint64(size) > math.MaxUint32 {
		return ErrHeapTooLarge
	}

	h.arena = buf
	h.data = unsafe.Pointer(&buf[0])
	h.size = size
	h.mapped = false
	h.initialized = true

	first := h.headerAt(0)
	first.blockSize = uint32(size)
	first.nextFreeBlock = nullPtr
	if checkEnable {
		first.magic = magicFree
	}
	h.freeList = 0

	if statsEnable {
		h.stats = Stats{
			TotalHeapSize:           size,
			FreeHeapSize:            size,
			MinimumEverFreeHeapSize: size,
			NumberOfFreeBlocks:      1,
			MaxBlockSize:            size,
			MinBlockSize:            size,
		}
	}
	return nil
}

func (h *Heap) headerAt(off uint32) *blockLink {
	return (*blockLink)(unsafe.Pointer(uintptr(h.data) + uintptr(off)))
}

// userBytes returns the usable region of the block starting at off.
func (h *Heap) userBytes(off uint32, size int) []byte {
	start := int(off + headerSize)
	return h.arena[start : start+size : start+size]
}

// blockOffset recovers the header offset for an allocation returned by
// Malloc. Reports false for any address outside the arena.
func (h *Heap) blockOffset(p []byte) (uint32, bool) {
	addr := uintptr(unsafe.Pointer(&p[0]))
	base := uintptr(h.data)
	if addr < base+uintptr(headerSize) || addr >= base+uintptr(h.size) {
		return 0, false
	}
	return uint32(addr-base) - headerSize, true
}

// insertBlock links the block at off into the free list, keeping the list
// sorted by ascending address. Adjacent free blocks are not merged.
func (h *Heap) insertBlock(off uint32) {
	prev := nullPtr
	cur := h.freeList
	for cur != nullPtr && cur < off {
		prev = cur
		cur = h.headerAt(cur).nextFreeBlock
	}
	h.headerAt(off).nextFreeBlock = cur
	if prev != nullPtr {
		h.headerAt(prev).nextFreeBlock = off
	} else {
		h.freeList = off
	}
}

func (h *Heap) contentOfList() []uint32 {
	var result []uint32
	for cur := h.freeList; cur != nullPtr; cur = h.headerAt(cur).nextFreeBlock {
		result = append(result, cur)
	}
	return result
}

// Malloc returns size usable bytes from the arena, or nil when size is not
// positive or no free block fits. The first block in address order whose
// size covers the request is taken; an oversized block is split when the
// remainder exceeds MinimalBlockSize plus one header, otherwise the whole
// block is consumed.
func (h *Heap) Malloc(size int) []byte {
	if !h.initialized {
		if err := h.Init(nil); err != nil {
			return nil
		}
	}
	if size <= 0 {
		return nil
	}
	if size > h.size-int(headerSize) {
		if h.mallocFailedHook != nil {
			h.mallocFailedHook()
		}
		return nil
	}
	wanted := uint32(AlignUp(size + int(headerSize)))

	prev := nullPtr
	for cur := h.freeList; cur != nullPtr; {
		block := h.headerAt(cur)
		if block.blockSize >= wanted {
			if block.blockSize-wanted > MinimalBlockSize+headerSize {
				split := cur + wanted
				splitBlock := h.headerAt(split)
				splitBlock.blockSize = block.blockSize - wanted
				if checkEnable {
					splitBlock.magic = magicFree
				}
				splitBlock.nextFreeBlock = block.nextFreeBlock
				block.blockSize = wanted
				block.nextFreeBlock = split
			} else {
				wanted = block.blockSize
			}

			if prev != nullPtr {
				h.headerAt(prev).nextFreeBlock = block.nextFreeBlock
			} else {
				h.freeList = block.nextFreeBlock
			}

			if checkEnable {
				block.magic = magicAlloc
			}
			if statsEnable {
				h.stats.FreeHeapSize -= int(wanted)
				if h.stats.FreeHeapSize < h.stats.MinimumEverFreeHeapSize {
					h.stats.MinimumEverFreeHeapSize = h.stats.FreeHeapSize
				}
				h.stats.SuccessfulAllocations++
			}

			user := h.userBytes(cur, int(wanted-headerSize))
			if h.mallocHook != nil {
				h.mallocHook(user, int(wanted-headerSize))
			}
			return user
		}
		prev = cur
		cur = block.nextFreeBlock
	}

	if h.mallocFailedHook != nil {
		h.mallocFailedHook()
	}
	return nil
}

// Free returns an allocation to the free list. A nil slice is a no-op. A
// pointer outside the arena, or a header whose magic is not the allocated
// sentinel, is silently dropped.
func (h *Heap) Free(p []byte) {
	if len(p) == 0 || !h.initialized {
		return
	}
	off, ok := h.blockOffset(p)
	if !ok {
		return
	}
	block := h.headerAt(off)
	if checkEnable {
		if block.magic != magicAlloc {
			return
		}
		block.magic = magicFree
	}
	h.insertBlock(off)
	if statsEnable {
		h.stats.FreeHeapSize += int(block.blockSize)
		h.stats.SuccessfulFrees++
	}
	if h.freeHook != nil {
		h.freeHook(p, int(block.blockSize-headerSize))
	}
}

// Realloc grows an allocation. A nil p behaves as Malloc, size 0 frees and
// returns nil. When the existing block already covers size the same slice
// comes back unchanged; otherwise a fresh block is allocated, the old bytes
// copied, and the old block freed. On allocation failure the original block
// stays intact and nil is returned.
func (h *Heap) Realloc(p []byte, size int) []byte {
	if len(p) == 0 {
		return h.Malloc(size)
	}
	if size <= 0 {
		h.Free(p)
		return nil
	}
	off, ok := h.blockOffset(p)
	if !ok {
		return nil
	}
	oldSize := int(h.headerAt(off).blockSize) - int(headerSize)
	if oldSize >= size {
		return p
	}
	newp := h.Malloc(size)
	if newp != nil {
		copy(newp, p)
		h.Free(p)
	}
	return newp
}

// Calloc allocates num*size bytes and zero-fills them. Recycled blocks
// carry stale data, so the fill is unconditional. A product that would
// overflow returns nil.
func (h *Heap) Calloc(num, size int) []byte {
	if num <= 0 || size <= 0 {
		return nil
	}
	total := num * size
	if total/size != num {
		return nil
	}
	p := h.Malloc(total)
	clear(p)
	return p
}

// MallocSize reports the usable size of an allocation, which can exceed the
// requested size when a remainder was absorbed. Returns 0 for nil or for a
// pointer outside the arena.
func (h *Heap) MallocSize(p []byte) int {
	if len(p) == 0 || !h.initialized {
		return 0
	}
	off, ok := h.blockOffset(p)
	if !ok {
		return 0
	}
	return int(h.headerAt(off).blockSize) - int(headerSize)
}

// SetMallocFailedHook installs fn to run on every failed Malloc. Passing
// nil removes the hook.
func (h *Heap) SetMallocFailedHook(fn func()) {
	h.mallocFailedHook = fn
}

// SetFreeHook installs fn to run after every successful Free with the
// freed allocation and its usable size.
func (h *Heap) SetFreeHook(fn func(p []byte, size int)) {
	h.freeHook = fn
}

// SetMallocHook installs fn to run after every successful Malloc with the
// new allocation and its usable size.
func (h *Heap) SetMallocHook(fn func(p []byte, size int)) {
	h.mallocHook = fn
}

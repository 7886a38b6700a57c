package mempool

import (
	"github.com/pkg/errors"

	"github.com/ylib-go/ymem/heap"
)

// CreateSized builds a pool whose backing buffer comes from the heap
// manager. The buffer is released again if pool construction fails, and
// Destroy returns it.
func CreateSized(h *heap.Heap, blksize int, nblks int) (*Pool, error) {
	if h == nil {
		return nil, ErrInvalidAddr
	}
	if blksize <= 0 || nblks <= 0 {
		return nil, ErrInvalidSize
	}
	total := nblks * heap.AlignUp(blksize)
	buf := h.Malloc(total)
	if buf == nil {
		return nil, ErrNoFreeBlks
	}
	p, err := Create(buf, nblks, blksize)
	if err != nil {
		h.Free(buf)
		return nil, errors.Wrap(err, "mempool: create over heap buffer")
	}
	p.owner = h
	return p, nil
}

// Destroy returns the backing buffer to the owning heap, if any, and
// invalidates the control block. Every later operation fails with
// ErrInvalidPool. Calling Destroy twice is safe.
func (p *Pool) Destroy() {
	if !p.valid() {
		return
	}
	if p.owner != nil {
		p.owner.Free(p.addr)
	}
	p.addr = nil
	p.data = nil
	p.freeList = nullPtr
	p.nFree = 0
	p.magic = 0
	p.owner = nil
}

// Alloc is the legacy-naming pass-through for Get. It returns nil when the
// pool is exhausted or invalid.
func (p *Pool) Alloc() []byte {
	blk, err := p.Get()
	if err != nil {
		return nil
	}
	return blk
}

// FreeBlock is the legacy-naming pass-through for Put.
func (p *Pool) FreeBlock(blk []byte) error {
	return p.Put(blk)
}

// GetStats is the legacy-naming pass-through for Query, reporting free and
// total block counts.
func (p *Pool) GetStats() (free int, total int, err error) {
	data, err := p.Query()
	if err != nil {
		return 0, 0, err
	}
	return data.NFree, data.NBlks, nil
}

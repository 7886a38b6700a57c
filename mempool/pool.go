// Package mempool implements a fixed-block memory pool over a caller-owned
// backing buffer. The buffer is partitioned into equal blocks threaded into
// an intrusive free list through each free block's first word, giving O(1)
// Get and Put.
//
// A Pool performs no locking. Concurrent Get/Put from two goroutines is a
// data race on the free list; callers serialize access themselves.
package mempool

import (
	"math"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/ylib-go/ymem/heap"
)

// Pool error codes.
var (
	ErrInvalidPool  = errors.New("mempool: invalid pool")
	ErrInvalidAddr  = errors.New("mempool: invalid buffer address")
	ErrInvalidBlks  = errors.New("mempool: block count must be at least 2")
	ErrInvalidSize  = errors.New("mempool: block size below pointer width")
	ErrNoFreeBlks   = errors.New("mempool: no free blocks")
	ErrPoolFull     = errors.New("mempool: pool is full")
	ErrInvalidBlock = errors.New("mempool: invalid block pointer")
)

const (
	nameEnable  = true
	nameMaxLen  = 32
	checkEnable = true
)

const poolMagic uint32 = 0x4D454D21 // "MEM!"

const nullPtr uint32 = math.MaxUint32

// poolListHead is the view of a free block's first word: the offset of its
// successor in the backing buffer.
type poolListHead struct {
	next uint32
}

// Pool is a fixed-block partition control block.
type Pool struct {
	addr     []byte
	data     unsafe.Pointer
	freeList uint32
	blkSize  int
	nBlks    int
	nFree    int
	magic    uint32
	name     string

	// owner is set only for pools built by CreateSized; Destroy returns
	// the backing buffer to it.
	owner *heap.Heap
}

// Data is the read-only snapshot Query returns.
type Data struct {
	Addr     []byte
	FreeList uint32
	BlkSize  int
	NBlks    int
	NFree    int
	NUsed    int
}

// Create partitions buf into nblks blocks of blksize bytes, aligned up to
// ByteAlignment, and threads them into the free list. The buffer must cover
// nblks aligned blocks.
func Create(buf []byte, nblks int, blksize int) (*Pool, error) {
	if buf == nil {
		return nil, ErrInvalidAddr
	}
	if nblks < 2 {
		return nil, ErrInvalidBlks
	}
	if blksize < int(unsafe.Sizeof(uintptr(0))) {
		return nil, ErrInvalidSize
	}
	aligned := heap.AlignUp(blksize)
	if len(buf) < nblks*aligned {
		return nil, ErrInvalidAddr
	}

	p := &Pool{
		addr:     buf,
		data:     unsafe.Pointer(&buf[0]),
		freeList: 0,
		blkSize:  aligned,
		nBlks:    nblks,
		nFree:    nblks,
		magic:    poolMagic,
	}
	if nameEnable {
		p.name = "?MEM"
	}

	for i := 0; i < nblks-1; i++ {
		off := uint32(i * aligned)
		p.linkAt(off).next = off + uint32(aligned)
	}
	p.linkAt(uint32((nblks-1)*aligned)).next = nullPtr

	return p, nil
}

func (p *Pool) linkAt(off uint32) *poolListHead {
	return (*poolListHead)(unsafe.Pointer(uintptr(p.data) + uintptr(off)))
}

// block returns the block starting at off as a capped slice.
func (p *Pool) block(off uint32) []byte {
	start := int(off)
	return p.addr[start : start+p.blkSize : start+p.blkSize]
}

// blockOffset validates that blk starts inside the partition on a block
// boundary and returns its offset.
func (p *Pool) blockOffset(blk []byte) (uint32, bool) {
	addr := uintptr(unsafe.Pointer(&blk[0]))
	base := uintptr(p.data)
	end := base + uintptr(p.nBlks*p.blkSize)
	if addr < base || addr >= end {
		return 0, false
	}
	off := int(addr - base)
	if off%p.blkSize != 0 {
		return 0, false
	}
	return uint32(off), true
}

// valid reports whether the control block exists and has not been destroyed
// or overwritten.
func (p *Pool) valid() bool {
	if p == nil || p.addr == nil {
		return false
	}
	if checkEnable && p.magic != poolMagic {
		return false
	}
	return true
}

func (p *Pool) contentOfList() []uint32 {
	var result []uint32
	for cur := p.freeList; cur != nullPtr; cur = p.linkAt(cur).next {
		result = append(result, cur)
	}
	return result
}

// Get pops a block off the free list.
func (p *Pool) Get() ([]byte, error) {
	if !p.valid() {
		return nil, ErrInvalidPool
	}
	if p.nFree == 0 {
		return nil, ErrNoFreeBlks
	}
	off := p.freeList
	p.freeList = p.linkAt(off).next
	p.nFree--
	return p.block(off), nil
}

// Put pushes a block back onto the free list. The block must start inside
// the partition on an exact block boundary; a full pool rejects the return,
// which also guards against double frees.
func (p *Pool) Put(blk []byte) error {
	if !p.valid() {
		return ErrInvalidPool
	}
	if len(blk) == 0 {
		return ErrInvalidBlock
	}
	off, ok := p.blockOffset(blk)
	if !ok {
		return ErrInvalidBlock
	}
	if p.nFree >= p.nBlks {
		return ErrPoolFull
	}
	p.linkAt(off).next = p.freeList
	p.freeList = off
	p.nFree++
	return nil
}

// Query returns a snapshot of the partition. It never mutates state.
func (p *Pool) Query() (Data, error) {
	if !p.valid() {
		return Data{}, ErrInvalidPool
	}
	return Data{
		Addr:     p.addr,
		FreeList: p.freeList,
		BlkSize:  p.blkSize,
		NBlks:    p.nBlks,
		NFree:    p.nFree,
		NUsed:    p.nBlks - p.nFree,
	}, nil
}

// SetName attaches a diagnostic label, truncated to the configured maximum.
func (p *Pool) SetName(name string) error {
	if !p.valid() {
		return ErrInvalidPool
	}
	if !nameEnable {
		return nil
	}
	if len(name) > nameMaxLen {
		name = name[:nameMaxLen]
	}
	p.name = name
	return nil
}

// Name returns the diagnostic label.
func (p *Pool) Name() (string, error) {
	if !p.valid() {
		return "", ErrInvalidPool
	}
	return p.name, nil
}

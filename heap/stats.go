package heap

import "github.com/sirupsen/logrus"

// Stats is a snapshot of heap accounting.
type Stats struct {
	TotalHeapSize           int
	FreeHeapSize            int
	MinimumEverFreeHeapSize int
	NumberOfFreeBlocks      int
	MaxBlockSize            int
	MinBlockSize            int
	SuccessfulAllocations   int
	SuccessfulFrees         int
}

// FreeHeapSize returns the bytes currently on the free list, header
// overhead included.
func (h *Heap) FreeHeapSize() int {
	if !h.initialized {
		return 0
	}
	if statsEnable {
		return h.stats.FreeHeapSize
	}
	total := 0
	for cur := h.freeList; cur != nullPtr; {
		block := h.headerAt(cur)
		total += int(block.blockSize)
		cur = block.nextFreeBlock
	}
	return total
}

// MinimumEverFreeHeapSize returns the low-water mark of FreeHeapSize. It
// never increases.
func (h *Heap) MinimumEverFreeHeapSize() int {
	if !h.initialized || !statsEnable {
		return 0
	}
	return h.stats.MinimumEverFreeHeapSize
}

// GetStats returns a snapshot of the heap accounting. The free-block count
// and the max/min free-block sizes are recomputed from the free list.
func (h *Heap) GetStats() Stats {
	if !h.initialized {
		return Stats{}
	}
	s := h.stats
	s.NumberOfFreeBlocks = 0
	s.MaxBlockSize = 0
	s.MinBlockSize = 0
	for cur := h.freeList; cur != nullPtr; {
		block := h.headerAt(cur)
		size := int(block.blockSize)
		s.NumberOfFreeBlocks++
		if size > s.MaxBlockSize {
			s.MaxBlockSize = size
		}
		if s.MinBlockSize == 0 || size < s.MinBlockSize {
			s.MinBlockSize = size
		}
		cur = block.nextFreeBlock
	}
	return s
}

// CheckIntegrity walks the free list verifying every node has a non-zero
// size, an in-bounds offset and the free magic. Diagnostic only; a false
// result means the arena has been corrupted.
func (h *Heap) CheckIntegrity() bool {
	if !h.initialized {
		return true
	}
	maxBlocks := h.size / int(headerSize)
	count := 0
	for cur := h.freeList; cur != nullPtr; {
		if int(cur)+int(headerSize) > h.size {
			return false
		}
		count++
		if count > maxBlocks {
			return false
		}
		block := h.headerAt(cur)
		if block.blockSize == 0 {
			return false
		}
		if checkEnable && block.magic != magicFree {
			return false
		}
		cur = block.nextFreeBlock
	}
	return true
}

// PrintInfo logs every free block and a summary line. Diagnostic only.
func (h *Heap) PrintInfo() {
	if !h.initialized {
		logrus.Info("heap: not initialized")
		return
	}
	index := 0
	for cur := h.freeList; cur != nullPtr; {
		block := h.headerAt(cur)
		logrus.WithFields(logrus.Fields{
			"index":  index,
			"offset": cur,
			"size":   block.blockSize,
		}).Info("heap: free block")
		index++
		cur = block.nextFreeBlock
	}
	logrus.WithFields(logrus.Fields{
		"free_heap_size": h.FreeHeapSize(),
		"total_size":     h.size,
	}).Info("heap: summary")
}

package mempool

import "github.com/sirupsen/logrus"

// CheckIntegrity walks the free list verifying the node count matches the
// free count and every node sits in range on a block boundary. Diagnostic
// only; a false result means the pool has been corrupted.
func (p *Pool) CheckIntegrity() bool {
	if !p.valid() {
		return false
	}
	if p.nFree > p.nBlks {
		return false
	}
	end := p.nBlks * p.blkSize
	count := 0
	for cur := p.freeList; cur != nullPtr; {
		count++
		if count > p.nFree {
			return false
		}
		if int(cur) >= end {
			return false
		}
		if int(cur)%p.blkSize != 0 {
			return false
		}
		cur = p.linkAt(cur).next
	}
	return count == p.nFree
}

// PrintInfo logs the partition snapshot. Diagnostic only.
func (p *Pool) PrintInfo() {
	data, err := p.Query()
	if err != nil {
		logrus.WithError(err).Warn("mempool: query failed")
		return
	}
	entry := logrus.WithFields(logrus.Fields{
		"block_size":   data.BlkSize,
		"total_blocks": data.NBlks,
		"free_blocks":  data.NFree,
		"used_blocks":  data.NUsed,
		"utilization":  float64(data.NUsed) * 100 / float64(data.NBlks),
	})
	if nameEnable {
		entry = entry.WithField("name", p.name)
	}
	entry.Info("mempool: partition info")
}

package heap

// Compile-time configuration of the heap manager. These mirror the knobs a
// firmware build would set in its config header; they are constants rather
// than Init parameters so block layout never varies at runtime.
const (
	// DefaultHeapSize is the arena size used when Init is given no buffer.
	DefaultHeapSize = 32 * 1024

	// MinimalBlockSize is the smallest leftover worth splitting off. A free
	// block is only split when the remainder exceeds this plus one header.
	MinimalBlockSize = 16

	// ByteAlignment applies to every returned allocation and to the arena
	// size itself. Must be a power of two.
	ByteAlignment = 8

	statsEnable = true
	checkEnable = true
)

// Magic sentinels written into block headers when corruption checking is
// compiled in. Checked on Free, never used for allocation decisions.
const (
	magicFree  uint32 = 0xDEADBEEF
	magicAlloc uint32 = 0xABCDEF00
)

// AlignUp rounds n up to ByteAlignment.
func AlignUp(n int) int {
	return (n + ByteAlignment - 1) &^ (ByteAlignment - 1)
}

// AlignDown rounds n down to ByteAlignment.
func AlignDown(n int) int {
	return n &^ (ByteAlignment - 1)
}

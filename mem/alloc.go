// Package mem provides aligned memory allocation for bitmap backing buffers.
package mem

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Alignment is the byte alignment of buffers returned by AllocAligned
// (64 bytes, one cache line on the targeted architectures).
const Alignment = 64

// CacheLineSize returns the target cache line size in bytes for the
// architecture the binary was built for.
func CacheLineSize() int {
	return int(unsafe.Sizeof(cpu.CacheLinePad{}))
}

// AllocAligned allocates a byte slice of the given size with 64-byte alignment.
// The returned slice is guaranteed to start at a memory address divisible by 64.
//
// Note: This function allocates slightly more memory than requested to ensure
// alignment. The underlying array is kept alive by the returned slice.
func AllocAligned(size int) []byte {
	if size == 0 {
		return nil
	}

	// Allocate size + alignment so an aligned offset always exists within
	// the buffer.
	totalSize := size + Alignment
	buf := make([]byte, totalSize)

	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // unsafe is required for memory alignment
	addr := uintptr(ptr)
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	return buf[offset : offset+uintptr(size)]
}

// AllocAlignedUint64 allocates a uint64 slice of n words with 64-byte alignment.
// Useful when the caller wants to manipulate slabs directly.
func AllocAlignedUint64(n int) []uint64 {
	if n == 0 {
		return nil
	}

	byteSlice := AllocAligned(n * 8)

	// Safe because AllocAligned guarantees 64-byte alignment, which is also
	// 8-byte aligned (required for uint64).
	ptr := unsafe.Pointer(&byteSlice[0])   //nolint:gosec // unsafe is required for memory alignment
	return unsafe.Slice((*uint64)(ptr), n) //nolint:gosec // unsafe is required for memory alignment
}

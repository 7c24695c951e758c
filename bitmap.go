package hibit

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/hibit/mem"
)

const (
	// SlabBits is the number of bits per slab, the atomic unit of read and
	// write for both arrays.
	SlabBits = 64

	slabBitsLog2 = 6
)

// blockSlabsLog2 selects the block geometry from the target cache line:
// 8 slabs (512 bits) on 64-byte cache lines, 16 slabs (1024 bits) on
// 128-byte cache lines.
func blockSlabsLog2() uint32 {
	if mem.CacheLineSize() >= 128 {
		return 4
	}
	return 3
}

// layout holds the derived array extents, in slabs.
type layout struct {
	array1Slabs uint32
	array2Slabs uint32
	blockLog2   uint32
}

func computeLayout(bits uint32) layout {
	blockLog2 := blockSlabsLog2()
	spb := uint32(1) << blockLog2

	// array2: one slab per 64 bits, rounded up to whole blocks. The
	// addition is done in 64 bits so counts near 1<<32 don't wrap.
	n2 := uint32((uint64(bits) + SlabBits - 1) >> slabBitsLog2)
	n2 = (n2 + spb - 1) &^ (spb - 1)

	// array1: one bit per block, rounded up to whole blocks so that array2
	// starts cache-line aligned when the buffer itself is.
	blocks := n2 >> blockLog2
	n1 := (blocks + SlabBits - 1) >> slabBitsLog2
	n1 = (n1 + spb - 1) &^ (spb - 1)

	return layout{array1Slabs: n1, array2Slabs: n2, blockLog2: blockLog2}
}

// Footprint returns the number of bytes of backing memory required for a
// bitmap of at least bits positions, including both arrays and alignment
// padding. It is pure and deterministic; callers use it to size an arena or
// allocation ahead of Init.
//
// Footprint(0) returns 0; Init rejects a zero bit count.
func Footprint(bits uint32) uint32 {
	if bits == 0 {
		return 0
	}
	l := computeLayout(bits)
	return (l.array1Slabs + l.array2Slabs) * 8
}

// Bitmap is the exclusive writer handle over a hierarchical scan bitmap.
//
// A Bitmap does not own its backing buffer; it interprets a caller-supplied
// slice as the two bit arrays. At most one goroutine may use the writer
// operations (Set, Clear, SetSlab, Reset, Scan, Free); concurrent readers go
// through Reader handles. See the package documentation for the full
// concurrency model.
type Bitmap struct {
	array1 []uint64
	array2 []uint64

	bits       uint32
	blockLog2  uint32 // log2(slabs per block)
	index2Mask uint32 // slabs per block - 1

	// Scan cursor. Writer-only state: index1/offset1 walk array1 at slab
	// granularity, index2/go2 drain the slabs of the current block.
	index1  uint32
	offset1 uint32
	index2  uint32
	go2     bool
}

// Init constructs a bitmap of the given bit count in place over buf.
//
// buf must be at least Footprint(bits) bytes and 8-byte aligned (slabs are
// accessed through 64-bit atomic operations); cache-line alignment, as
// produced by mem.AllocAligned, is recommended for scan performance but not
// required for correctness. Both arrays are zeroed, equivalent to a fresh
// Reset.
//
// Failures wrap ErrInvalidArgument: zero bits, a nil or undersized buffer,
// or a misaligned buffer.
func Init(bits uint32, buf []byte) (*Bitmap, error) {
	if bits == 0 {
		return nil, fmt.Errorf("%w: bits must be > 0", ErrInvalidArgument)
	}
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrInvalidArgument)
	}

	need := Footprint(bits)
	if len(buf) < int(need) {
		return nil, &ErrBufferTooSmall{Need: need, Got: len(buf)}
	}

	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // in-place construction over the caller's buffer
	if uintptr(ptr)%8 != 0 {
		return nil, &ErrBufferMisaligned{Addr: uintptr(ptr)}
	}

	l := computeLayout(bits)
	words := unsafe.Slice((*uint64)(ptr), int(l.array1Slabs+l.array2Slabs)) //nolint:gosec // bounds checked above

	b := &Bitmap{
		array1:     words[:l.array1Slabs:l.array1Slabs],
		array2:     words[l.array1Slabs:],
		bits:       bits,
		blockLog2:  l.blockLog2,
		index2Mask: (1 << l.blockLog2) - 1,
	}
	b.Reset()

	return b, nil
}

// Bits returns the configured bit count.
func (b *Bitmap) Bits() uint32 { return b.bits }

// Reset clears all bits and restores the just-initialized state, including
// the scan cursor. Writer-only; callers must ensure no concurrent reader
// depends on observing the old contents mid-reset.
func (b *Bitmap) Reset() {
	for i := range b.array1 {
		b.array1[i] = 0
	}
	for i := range b.array2 {
		atomic.StoreUint64(&b.array2[i], 0)
	}
	b.scanInit()
}

// Get reports whether the bit at pos is set. Safe to call concurrently with
// the writer; see Reader for the read-only handle handed to other
// goroutines.
//
// Panics if pos >= Bits().
func (b *Bitmap) Get(pos uint32) bool {
	checkPos(pos, b.bits)
	return atomic.LoadUint64(&b.array2[pos>>slabBitsLog2])>>(pos&(SlabBits-1))&1 != 0
}

// Prefetch0 hints that the cache line backing pos will be accessed soon.
// Purely advisory and never required for correctness. Go has no portable
// prefetch intrinsic, so the hint is an ordinary load of the slab, which
// pulls its line into cache.
//
// Panics if pos >= Bits().
func (b *Bitmap) Prefetch0(pos uint32) {
	checkPos(pos, b.bits)
	_ = atomic.LoadUint64(&b.array2[pos>>slabBitsLog2])
}

// Set sets the bit at pos and marks the owning block non-empty in array1.
// Writer-only, O(1).
//
// Panics if pos >= Bits().
func (b *Bitmap) Set(pos uint32) {
	checkPos(pos, b.bits)

	i2 := pos >> slabBitsLog2
	atomic.StoreUint64(&b.array2[i2], b.array2[i2]|1<<(pos&(SlabBits-1)))

	blk := i2 >> b.blockLog2
	b.array1[blk>>slabBitsLog2] |= 1 << (blk & (SlabBits - 1))
}

// Clear clears the bit at pos. If that empties the whole block, the owning
// array1 summary bit is cleared as well. Writer-only, O(1) slab work plus at
// most one cache line sweep when the slab goes to zero.
//
// Panics if pos >= Bits().
func (b *Bitmap) Clear(pos uint32) {
	checkPos(pos, b.bits)

	i2 := pos >> slabBitsLog2
	v := b.array2[i2] &^ (1 << (pos & (SlabBits - 1)))
	atomic.StoreUint64(&b.array2[i2], v)

	if v != 0 {
		return
	}
	b.refreshSummary(i2)
}

// SetSlab replaces the whole slab containing pos and recomputes the owning
// array1 summary bit from the new value. Bulk alternative to 64 Set/Clear
// calls. Writer-only.
//
// Panics if pos >= Bits().
func (b *Bitmap) SetSlab(pos uint32, slab uint64) {
	checkPos(pos, b.bits)

	i2 := pos >> slabBitsLog2
	atomic.StoreUint64(&b.array2[i2], slab)

	if slab != 0 {
		blk := i2 >> b.blockLog2
		b.array1[blk>>slabBitsLog2] |= 1 << (blk & (SlabBits - 1))
		return
	}
	b.refreshSummary(i2)
}

// refreshSummary re-derives the array1 bit for the block containing array2
// slab i2, after that slab was written to zero.
func (b *Bitmap) refreshSummary(i2 uint32) {
	start := i2 &^ b.index2Mask
	for _, s := range b.array2[start : start+b.index2Mask+1] {
		if s != 0 {
			return
		}
	}

	blk := i2 >> b.blockLog2
	b.array1[blk>>slabBitsLog2] &^= 1 << (blk & (SlabBits - 1))
}

// Free detaches the handle from the backing buffer. The buffer itself stays
// with its allocator and is never freed or altered here. Any operation on a
// freed handle is a contract violation and panics.
func (b *Bitmap) Free() {
	b.array1 = nil
	b.array2 = nil
	b.bits = 0
}

func checkPos(pos, bits uint32) {
	if pos >= bits {
		panic(fmt.Sprintf("hibit: position %d out of range [0, %d)", pos, bits))
	}
}

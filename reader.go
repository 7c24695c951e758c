package hibit

import "sync/atomic"

// Reader is a freely copyable read-only handle over a bitmap. Any number of
// goroutines may hold Readers and call Get/Prefetch0 concurrently with the
// single writer, with no locking: the writer's slab mutations are 64-bit
// atomic stores, so a Reader observes either the old or the new whole slab,
// never a torn word.
//
// The type split is deliberate: the writer capability lives on *Bitmap and
// is not duplicated here, so sharing Readers around cannot accidentally
// create a second writer.
//
// A Reader is invalidated by Bitmap.Free; using it afterwards panics.
type Reader struct {
	array2 []uint64
	bits   uint32
}

// Reader returns a read-only handle for handing to other goroutines.
func (b *Bitmap) Reader() Reader {
	return Reader{array2: b.array2, bits: b.bits}
}

// Bits returns the configured bit count.
func (r Reader) Bits() uint32 { return r.bits }

// Get reports whether the bit at pos is set.
//
// Panics if pos >= Bits().
func (r Reader) Get(pos uint32) bool {
	checkPos(pos, r.bits)
	return atomic.LoadUint64(&r.array2[pos>>slabBitsLog2])>>(pos&(SlabBits-1))&1 != 0
}

// Prefetch0 hints that the cache line backing pos will be accessed soon.
// Advisory only; see Bitmap.Prefetch0.
//
// Panics if pos >= Bits().
func (r Reader) Prefetch0(pos uint32) {
	checkPos(pos, r.bits)
	_ = atomic.LoadUint64(&r.array2[pos>>slabBitsLog2])
}

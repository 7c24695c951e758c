package hibit

import "math/bits"

// Scan returns the position and raw value of the next non-empty slab,
// advancing the internal cursor past it so the following call continues
// immediately after. The cursor wraps around automatically at the end of the
// bit space, so a round-robin polling loop never needs its own wrap logic.
// Callers extract individual set bits from the returned slab themselves,
// typically with bits.TrailingZeros64 and slab &= slab - 1.
//
// ok is false only when no bit in the entire bitmap is set.
//
// Scan consults array1 first, skipping empty blocks 64 at a time, then walks
// the slabs of the located block. It mutates the cursor and is therefore
// writer-only: safe to interleave with the writer's own Set/Clear/SetSlab,
// never with another goroutine's Scan.
func (b *Bitmap) Scan() (pos uint32, slab uint64, ok bool) {
	// Finish draining the current block, if any.
	if b.go2 {
		if pos, slab, ok = b.scanRead(); ok {
			return pos, slab, true
		}
	}

	// Locate the next non-empty block via array1.
	if b.scanSearch() {
		b.scanReadInit()
		return b.scanRead()
	}

	// Empty bitmap.
	return 0, 0, false
}

// scanInit parks the cursor just before position 0 so the first search
// starts at the beginning of array1.
func (b *Bitmap) scanInit() {
	b.index1 = uint32(len(b.array1)) - 1
	b.offset1 = SlabBits - 1
	b.go2 = false
}

// mask1 masks off the bit at offset1 and everything below it, so the search
// resumes strictly after the block the cursor last visited.
func (b *Bitmap) mask1() uint64 {
	return ^uint64(1) << b.offset1
}

func (b *Bitmap) index1Inc() {
	b.index1++
	if b.index1 == uint32(len(b.array1)) {
		b.index1 = 0
	}
}

// scanSearch advances index1/offset1 to the next set summary bit, wrapping
// around at the end of array1. Returns false after a full fruitless pass,
// which can only mean the bitmap is empty.
func (b *Bitmap) scanSearch() bool {
	// Rest of the current array1 slab.
	v := b.array1[b.index1] & b.mask1()
	if v != 0 {
		b.offset1 = uint32(bits.TrailingZeros64(v))
		return true
	}

	b.index1Inc()
	b.offset1 = 0

	// Full pass over the remaining array1 slabs, including the wrap back to
	// the slab the search started in.
	for range b.array1 {
		v = b.array1[b.index1]
		if v != 0 {
			b.offset1 = uint32(bits.TrailingZeros64(v))
			return true
		}
		b.index1Inc()
	}

	return false
}

// scanReadInit points index2 at the first slab of the block the search
// landed on.
func (b *Bitmap) scanReadInit() {
	blk := b.index1<<slabBitsLog2 + b.offset1
	b.index2 = blk << b.blockLog2
	b.go2 = true
}

// scanRead returns the next non-zero slab of the current block, clearing go2
// once index2 steps past the block boundary.
func (b *Bitmap) scanRead() (pos uint32, slab uint64, ok bool) {
	for b.go2 {
		v := b.array2[b.index2]
		i2 := b.index2

		b.index2++
		b.go2 = b.index2&b.index2Mask != 0

		if v != 0 {
			return i2 << slabBitsLog2, v, true
		}
	}
	return 0, 0, false
}

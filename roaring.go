package hibit

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// LoadRoaring ORs every position of rb into the bitmap, writing at slab
// granularity through the SetSlab path instead of one Set call per position.
// Useful for seeding a slot index from a materialized ID set. Bits already
// set stay set; slabs not containing any member of rb are untouched.
//
// Fails with an ErrInvalidArgument-wrapped error, before any mutation, when
// rb contains a position >= Bits(). Writer-only.
func (b *Bitmap) LoadRoaring(rb *roaring.Bitmap) error {
	if rb == nil || rb.IsEmpty() {
		return nil
	}
	if max := rb.Maximum(); max >= b.bits {
		return fmt.Errorf("%w: roaring position %d out of range [0, %d)", ErrInvalidArgument, max, b.bits)
	}

	it := rb.Iterator()

	var (
		cur  uint32
		acc  uint64
		have bool
	)
	for it.HasNext() {
		pos := it.Next()
		s := pos >> slabBitsLog2
		if have && s != cur {
			b.SetSlab(cur<<slabBitsLog2, b.array2[cur]|acc)
			acc = 0
		}
		cur = s
		have = true
		acc |= 1 << (pos & (SlabBits - 1))
	}
	if have {
		b.SetSlab(cur<<slabBitsLog2, b.array2[cur]|acc)
	}

	return nil
}

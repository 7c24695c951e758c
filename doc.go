// Package hibit implements a two-level hierarchical scan bitmap for tracking
// membership of large, densely numbered sets (queue slots, descriptor rings,
// object pool entries) with cache-optimized discovery of set bits.
//
// # Memory Layout
//
// Logically the bitmap is an array of n single-bit flags. Physically it is
// organized as two parallel arrays carved out of one caller-supplied buffer:
//
//	┌──────────────────────┬──────────────────────────────────────────────┐
//	│  array1 (summary)    │  array2 (bit storage)                        │
//	│  1 bit per block     │  blocks of 8/16 slabs (512/1024 bits each)   │
//	└──────────────────────┴──────────────────────────────────────────────┘
//
// array2 holds the actual bits, grouped into 64-bit slabs; slabs are grouped
// into blocks sized to one cache line (512 bits on 64-byte cache lines, 1024
// bits on 128-byte cache lines). array1 carries one summary bit per block,
// set exactly when at least one bit in the block is set. Scanning consults
// array1 first, skipping 64 empty blocks per TrailingZeros64, which is why
// sparse scans are far cheaper than a linear sweep of array2.
//
// All reads and writes of array1 and array2 happen in whole slabs.
//
// # Concurrency Model
//
// The bitmap performs no internal locking. For lock-free operation a single
// writer goroutine may call Set, Clear, SetSlab, Reset, and Scan, while any
// number of reader goroutines call Get and Prefetch0 concurrently through
// Reader handles. Slab writes are 64-bit atomic stores, so a concurrent
// reader observes either the old or the new slab value, never a torn word.
// Applications with multiple logical writers must serialize them externally
// (e.g. with a mutex) before touching any writer-only operation.
//
// # Quick Start
//
//	n := uint32(1 << 20)
//	buf := mem.AllocAligned(int(hibit.Footprint(n)))
//	bm, _ := hibit.Init(n, buf)
//
//	bm.Set(42)
//	for {
//	    pos, slab, ok := bm.Scan()
//	    if !ok {
//	        break // bitmap is empty
//	    }
//	    for slab != 0 {
//	        bit := uint32(bits.TrailingZeros64(slab))
//	        handle(pos + bit)
//	        slab &= slab - 1
//	    }
//	}
//
// The backing buffer is borrowed, never owned: Free detaches the handle but
// leaves the buffer to its allocator.
package hibit

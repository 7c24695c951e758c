package hibit_test

import (
	"fmt"
	"log"
	"math/bits"

	"github.com/hupe1980/hibit"
	"github.com/hupe1980/hibit/mem"
)

// Example demonstrates the footprint/init lifecycle and a scan drain loop.
func Example() {
	const slots = 4096

	buf := mem.AllocAligned(int(hibit.Footprint(slots)))
	bm, err := hibit.Init(slots, buf)
	if err != nil {
		log.Fatal(err)
	}
	defer bm.Free()

	bm.Set(3)
	bm.Set(7)
	bm.Set(2000)

	for {
		pos, slab, ok := bm.Scan()
		if !ok {
			break
		}
		bm.SetSlab(pos, 0) // claim the slab
		for slab != 0 {
			fmt.Println(pos + uint32(bits.TrailingZeros64(slab)))
			slab &= slab - 1
		}
	}
	// Output:
	// 3
	// 7
	// 2000
}

// ExampleBitmap_Reader shows handing a read-only view to another goroutine.
func ExampleBitmap_Reader() {
	buf := mem.AllocAligned(int(hibit.Footprint(256)))
	bm, err := hibit.Init(256, buf)
	if err != nil {
		log.Fatal(err)
	}

	bm.Set(9)

	r := bm.Reader() // copyable; safe alongside the single writer
	fmt.Println(r.Get(9), r.Get(10))
	// Output: true false
}

package arena

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hibit"
	"github.com/hupe1980/hibit/mem"
)

func TestArena_Alloc(t *testing.T) {
	a := New(1024)
	require.Equal(t, 1024, a.Size())

	r1, err := a.Alloc(100)
	require.NoError(t, err)
	require.Len(t, r1, 100)
	assert.Zero(t, uintptr(unsafe.Pointer(&r1[0]))%mem.Alignment)

	r2, err := a.Alloc(100)
	require.NoError(t, err)
	assert.Zero(t, uintptr(unsafe.Pointer(&r2[0]))%mem.Alignment)

	// Regions must not overlap.
	r1[99] = 0xAA
	r2[0] = 0xBB
	assert.Equal(t, byte(0xAA), r1[99])
}

func TestArena_Full(t *testing.T) {
	a := New(128)

	_, err := a.Alloc(100)
	require.NoError(t, err)

	_, err = a.Alloc(100)
	require.ErrorIs(t, err, ErrArenaFull)
}

func TestArena_Reset(t *testing.T) {
	a := New(256)

	_, err := a.Alloc(200)
	require.NoError(t, err)
	_, err = a.Alloc(200)
	require.ErrorIs(t, err, ErrArenaFull)

	a.Reset()

	_, err = a.Alloc(200)
	require.NoError(t, err)
}

func TestArena_ZeroAlloc(t *testing.T) {
	a := New(64)
	buf, err := a.Alloc(0)
	require.NoError(t, err)
	assert.Nil(t, buf)
}

func TestArena_ConcurrentAlloc(t *testing.T) {
	const (
		workers = 8
		each    = 50
	)

	a := New(workers * each * (64 + mem.Alignment))

	var wg sync.WaitGroup
	regions := make([][][]byte, workers)
	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				buf, err := a.Alloc(64)
				if err != nil {
					t.Error(err)
					return
				}
				regions[w] = append(regions[w], buf)
			}
		}()
	}
	wg.Wait()

	// All regions distinct: write a worker tag and verify no overwrite.
	for w, rs := range regions {
		for _, r := range rs {
			r[0] = byte(w + 1)
		}
	}
	for w, rs := range regions {
		for _, r := range rs {
			require.Equal(t, byte(w+1), r[0])
		}
	}
}

// TestArena_HostsBitmaps carves two bitmap backing blocks out of one arena,
// the intended usage.
func TestArena_HostsBitmaps(t *testing.T) {
	const slots = 4096

	fp := int(hibit.Footprint(slots))
	a := New(2 * (fp + mem.Alignment))

	bufA, err := a.Alloc(fp)
	require.NoError(t, err)
	bufB, err := a.Alloc(fp)
	require.NoError(t, err)

	bmA, err := hibit.Init(slots, bufA)
	require.NoError(t, err)
	bmB, err := hibit.Init(slots, bufB)
	require.NoError(t, err)

	bmA.Set(10)
	assert.True(t, bmA.Get(10))
	assert.False(t, bmB.Get(10), "bitmaps sharing an arena must not alias")
}

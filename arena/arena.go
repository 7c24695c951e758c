// Package arena carves cache-line-aligned regions out of a single
// allocation, so several bitmaps (e.g. one activity index per queue) can
// share one backing block sized up front with hibit.Footprint.
//
// Alloc is safe for concurrent use; Reset is not and invalidates every
// region handed out so far. The arena never reclaims individual regions.
package arena

import (
	"errors"
	"sync/atomic"

	"github.com/hupe1980/hibit/mem"
)

// ErrArenaFull is returned when an allocation does not fit in the remaining
// space.
var ErrArenaFull = errors.New("arena: full")

// Arena is a flat bump allocator over one contiguous buffer.
type Arena struct {
	buf []byte
	ptr atomic.Uint64 // current allocation offset
}

// New creates an arena over a freshly allocated, cache-line-aligned buffer
// of the given size.
func New(size int) *Arena {
	return &Arena{buf: mem.AllocAligned(size)}
}

// FromBytes creates an arena over an existing buffer. Regions are aligned
// relative to the buffer start, so the buffer itself should be cache-line
// aligned for the alignment guarantee to carry through.
func FromBytes(buf []byte) *Arena {
	return &Arena{buf: buf}
}

// Alloc carves size bytes out of the arena, aligned to mem.Alignment.
// Returns ErrArenaFull when the region does not fit.
func (a *Arena) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}

	for {
		cur := a.ptr.Load()
		padding := (mem.Alignment - cur%mem.Alignment) % mem.Alignment
		start := cur + padding
		next := start + uint64(size)

		if next > uint64(len(a.buf)) {
			return nil, ErrArenaFull
		}

		if a.ptr.CompareAndSwap(cur, next) {
			return a.buf[start:next:next], nil
		}
	}
}

// Remaining returns the number of bytes still available, ignoring any
// alignment padding a future Alloc may add.
func (a *Arena) Remaining() int {
	return len(a.buf) - int(a.ptr.Load())
}

// Size returns the total capacity of the arena in bytes.
func (a *Arena) Size() int {
	return len(a.buf)
}

// Reset rewinds the allocator to the beginning. Every region previously
// returned by Alloc aliases memory that will be handed out again; callers
// must guarantee none of them is still in use.
func (a *Arena) Reset() {
	a.ptr.Store(0)
}

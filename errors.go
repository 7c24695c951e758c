package hibit

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is the sentinel wrapped by all construction and
	// bulk-load failures.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrBufferTooSmall indicates a backing buffer smaller than the footprint
// required for the requested bit count.
//
// It wraps ErrInvalidArgument, accessible via errors.Is.
type ErrBufferTooSmall struct {
	Need uint32
	Got  int
}

func (e *ErrBufferTooSmall) Error() string {
	return fmt.Sprintf("buffer too small: need %d bytes, got %d", e.Need, e.Got)
}

func (e *ErrBufferTooSmall) Unwrap() error { return ErrInvalidArgument }

// ErrBufferMisaligned indicates a backing buffer whose start address is not
// 8-byte aligned. Slabs are accessed through 64-bit atomic loads and stores,
// which require word alignment.
//
// It wraps ErrInvalidArgument, accessible via errors.Is.
type ErrBufferMisaligned struct {
	Addr uintptr
}

func (e *ErrBufferMisaligned) Error() string {
	return fmt.Sprintf("buffer misaligned: address %#x is not 8-byte aligned", e.Addr)
}

func (e *ErrBufferMisaligned) Unwrap() error { return ErrInvalidArgument }

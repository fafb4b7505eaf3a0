// SPDX-License-Identifier: Unlicense OR MIT

/*
Package arena implements a fixed-capacity bump allocator.

An Arena hands out slices of a single preallocated buffer and frees
them all at once with Reset. It is intended for per-frame scratch
data where individual frees are never needed.
*/
package arena

import "errors"

// ErrFull is reported when an allocation does not fit in the
// remaining capacity. The arena is left unchanged.
var ErrFull = errors.New("arena: out of capacity")

// Arena is a bump allocator over a fixed buffer. The zero value is
// unusable; use New.
type Arena struct {
	buf    []byte
	cursor int
	// end of the most recent allocation, for in-place resizing.
	lastStart int
	lastEnd   int
}

// New returns an arena with the given capacity in bytes.
func New(capacity int) *Arena {
	if capacity < 0 {
		panic("arena: negative capacity")
	}
	return &Arena{buf: make([]byte, capacity)}
}

// Alloc returns a zeroed slice of size bytes whose first byte is
// aligned to align, which must be a power of two. A zero size
// returns an empty, non-nil slice without consuming capacity.
func (a *Arena) Alloc(size, align int) ([]byte, error) {
	if size < 0 {
		panic("arena: negative size")
	}
	if align <= 0 || align&(align-1) != 0 {
		panic("arena: alignment must be a power of two")
	}
	start := (a.cursor + align - 1) &^ (align - 1)
	if start > len(a.buf) || size > len(a.buf)-start {
		return nil, ErrFull
	}
	if size == 0 {
		return a.buf[start:start:start], nil
	}
	end := start + size
	clear(a.buf[start:end])
	a.cursor = end
	a.lastStart = start
	a.lastEnd = end
	return a.buf[start:end:end], nil
}

// Grow extends buf to newSize bytes. If buf is the most recent
// allocation it grows in place, otherwise a new slice is allocated
// and the contents copied. The returned slice replaces buf.
func (a *Arena) Grow(buf []byte, newSize int) ([]byte, error) {
	if newSize < len(buf) {
		panic("arena: Grow to a smaller size")
	}
	if newSize == len(buf) {
		return buf, nil
	}
	if a.isLast(buf) {
		extra := newSize - len(buf)
		if extra > len(a.buf)-a.lastEnd {
			return nil, ErrFull
		}
		end := a.lastEnd + extra
		clear(a.buf[a.lastEnd:end])
		a.cursor = end
		a.lastEnd = end
		return a.buf[a.lastStart:end:end], nil
	}
	grown, err := a.Alloc(newSize, 1)
	if err != nil {
		return nil, err
	}
	copy(grown, buf)
	return grown, nil
}

// Shrink reduces buf to newSize bytes, returning the freed bytes to
// the arena if buf is the most recent allocation.
func (a *Arena) Shrink(buf []byte, newSize int) []byte {
	if newSize > len(buf) {
		panic("arena: Shrink to a larger size")
	}
	if a.isLast(buf) {
		a.lastEnd = a.lastStart + newSize
		a.cursor = a.lastEnd
	}
	return buf[:newSize]
}

// Reset frees every allocation at once. Slices handed out earlier
// must not be used afterwards.
func (a *Arena) Reset() {
	a.cursor = 0
	a.lastStart = 0
	a.lastEnd = 0
}

// Remaining reports the bytes left before Alloc fails, ignoring
// alignment padding.
func (a *Arena) Remaining() int {
	return len(a.buf) - a.cursor
}

// Cap reports the total capacity in bytes.
func (a *Arena) Cap() int {
	return len(a.buf)
}

func (a *Arena) isLast(buf []byte) bool {
	if len(buf) == 0 || a.lastEnd == a.lastStart {
		return false
	}
	return &buf[0] == &a.buf[a.lastStart] && len(buf) == a.lastEnd-a.lastStart
}

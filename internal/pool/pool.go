// SPDX-License-Identifier: Unlicense OR MIT

/*
Package pool provides fixed-capacity generational containers.

A Pool hands out Handles that detect use after free: removing a
value bumps the slot's generation, so handles to the old value go
stale instead of aliasing the next occupant. SlotMap is the same
idea with a caller-defined key type.
*/
package pool

import "errors"

// ErrFull is reported when every slot is occupied or retired.
var ErrFull = errors.New("pool: out of slots")

// freeEnd terminates the intrusive free list. It also caps the pool
// capacity, since slot indices share the uint16 space with it.
const freeEnd = 0xffff

// MaxCap is the largest capacity accepted by NewPool.
const MaxCap = freeEnd

// Handle refers to a value in a Pool. The zero Handle is never
// valid.
type Handle struct {
	index      uint16
	generation uint16
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

type slot[T any] struct {
	value      T
	generation uint16
	// next free slot when free, else freeEnd.
	nextFree uint16
	free     bool
}

// Pool is a fixed-capacity generational pool. The zero value is
// unusable; use NewPool.
type Pool[T any] struct {
	slots []slot[T]
	// first free slot below the high-water mark, or freeEnd.
	freeHead uint16
	// slots ever used; slots beyond it have never been handed out.
	highWater int
	live      int
}

// NewPool returns a pool holding up to capacity values. Capacity
// must be between 1 and MaxCap.
func NewPool[T any](capacity int) *Pool[T] {
	if capacity < 1 || capacity > MaxCap {
		panic("pool: capacity out of range")
	}
	return &Pool[T]{
		slots:    make([]slot[T], capacity),
		freeHead: freeEnd,
	}
}

// Insert stores v and returns a handle to it, or ErrFull when no
// slot is available.
func (p *Pool[T]) Insert(v T) (Handle, error) {
	var idx uint16
	switch {
	case p.freeHead != freeEnd:
		idx = p.freeHead
		p.freeHead = p.slots[idx].nextFree
	case p.highWater < len(p.slots):
		idx = uint16(p.highWater)
		p.slots[idx].generation = 1
		p.highWater++
	default:
		return Handle{}, ErrFull
	}
	s := &p.slots[idx]
	s.value = v
	s.free = false
	s.nextFree = freeEnd
	p.live++
	return Handle{index: idx, generation: s.generation}, nil
}

// Get returns a pointer to the value h refers to, or nil and false
// if h is stale or was never issued.
func (p *Pool[T]) Get(h Handle) (*T, bool) {
	if int(h.index) >= p.highWater {
		return nil, false
	}
	s := &p.slots[h.index]
	if s.free || s.generation != h.generation {
		return nil, false
	}
	return &s.value, true
}

// Remove deletes the value h refers to and returns it. Handles to
// the removed value become stale. A slot whose generation counter
// is exhausted is retired rather than reused.
func (p *Pool[T]) Remove(h Handle) (T, bool) {
	var zero T
	v, ok := p.Get(h)
	if !ok {
		return zero, false
	}
	s := &p.slots[h.index]
	out := *v
	s.value = zero
	s.free = true
	p.live--
	if s.generation == freeEnd {
		// Retired: never pushed back on the free list.
		return out, true
	}
	s.generation++
	s.nextFree = p.freeHead
	p.freeHead = h.index
	return out, true
}

// Len reports the number of live values.
func (p *Pool[T]) Len() int {
	return p.live
}

// Cap reports the pool capacity.
func (p *Pool[T]) Cap() int {
	return len(p.slots)
}

// Range calls fn for every live value, in slot order, until fn
// returns false. Only slots below the high-water mark are visited.
func (p *Pool[T]) Range(fn func(Handle, *T) bool) {
	for i := 0; i < p.highWater; i++ {
		s := &p.slots[i]
		if s.free {
			continue
		}
		if !fn(Handle{index: uint16(i), generation: s.generation}, &s.value) {
			return
		}
	}
}

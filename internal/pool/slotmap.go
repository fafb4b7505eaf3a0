// SPDX-License-Identifier: Unlicense OR MIT

package pool

import "errors"

// ErrSlotMapFull is reported when every slot is occupied or
// retired. The caller keeps the value it tried to insert.
var ErrSlotMapFull = errors.New("pool: slot map full")

// Key is implemented by small value types naming a SlotMap's key
// space, so that keys of different maps cannot be confused. The
// zero key always resolves to the default value held in slot 0.
type Key[K comparable] interface {
	comparable
	// FromParts assembles a key; the receiver is ignored.
	FromParts(index, epoch uint32) K
	Index() uint32
	Epoch() uint32
}

type mapSlot[T any] struct {
	value T
	epoch uint32
	// next free slot index, or the map's own length when none.
	nextFree uint32
	free     bool
}

// SlotMap is a fixed-capacity map from generational keys to values.
// The zero value is unusable; use NewSlotMap.
type SlotMap[K Key[K], T any] struct {
	slots    []mapSlot[T]
	freeHead uint32
	// slots ever used, including the default slot 0.
	highWater int
	live      int
}

// NewSlotMap returns a map holding up to capacity values beyond the
// default. Slot 0 holds def: any key with index 0 resolves to it, it
// cannot be removed, and Range visits it first.
func NewSlotMap[K Key[K], T any](capacity int, def T) *SlotMap[K, T] {
	if capacity < 1 {
		panic("pool: capacity out of range")
	}
	m := &SlotMap[K, T]{
		slots:     make([]mapSlot[T], capacity+1),
		highWater: 1,
	}
	m.slots[0].value = def
	m.freeHead = uint32(len(m.slots))
	return m
}

// Insert stores v and returns its key, or ErrSlotMapFull.
func (m *SlotMap[K, T]) Insert(v T) (K, error) {
	var zero K
	var idx uint32
	switch {
	case m.freeHead != uint32(len(m.slots)):
		idx = m.freeHead
		m.freeHead = m.slots[idx].nextFree
	case m.highWater < len(m.slots):
		idx = uint32(m.highWater)
		m.slots[idx].epoch = 1
		m.highWater++
	default:
		return zero, ErrSlotMapFull
	}
	s := &m.slots[idx]
	s.value = v
	s.free = false
	m.live++
	return zero.FromParts(idx, s.epoch), nil
}

// Get returns a pointer to the value k refers to, or nil and false
// if k is stale or was never issued. Index 0 always resolves to the
// default value, whatever the key's epoch.
func (m *SlotMap[K, T]) Get(k K) (*T, bool) {
	idx := k.Index()
	if idx == 0 {
		return &m.slots[0].value, true
	}
	if int(idx) >= m.highWater {
		return nil, false
	}
	s := &m.slots[idx]
	if s.free || s.epoch != k.Epoch() {
		return nil, false
	}
	return &s.value, true
}

// Remove deletes the value k refers to and returns it. The default
// in slot 0 cannot be removed. A slot whose epoch counter is
// exhausted is retired rather than reused.
func (m *SlotMap[K, T]) Remove(k K) (T, bool) {
	var zero T
	if k.Index() == 0 {
		return zero, false
	}
	v, ok := m.Get(k)
	if !ok {
		return zero, false
	}
	idx := k.Index()
	s := &m.slots[idx]
	out := *v
	s.value = zero
	s.free = true
	m.live--
	if s.epoch == ^uint32(0) {
		return out, true
	}
	s.epoch++
	s.nextFree = m.freeHead
	m.freeHead = idx
	return out, true
}

// Len reports the number of live values.
func (m *SlotMap[K, T]) Len() int {
	return m.live
}

// Cap reports the map capacity.
func (m *SlotMap[K, T]) Cap() int {
	return len(m.slots) - 1
}

// Range calls fn for every live value, in slot order starting with
// the default, until fn returns false.
func (m *SlotMap[K, T]) Range(fn func(K, *T) bool) {
	var zero K
	for i := 0; i < m.highWater; i++ {
		s := &m.slots[i]
		if s.free {
			continue
		}
		if !fn(zero.FromParts(uint32(i), s.epoch), &s.value) {
			return
		}
	}
}

// SPDX-License-Identifier: Unlicense OR MIT

/*
Package lru implements a fixed-capacity LRU cache.

The cache never allocates after construction: entries live in
parallel arrays linked into an intrusive recency list, and a full
insert rotates the least recently used slot to the front and
overwrites it, handing the displaced entry back to the caller.
*/
package lru

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Cache maps keys to values, evicting the least recently used entry
// once capacity is reached. The zero value is unusable; use New.
type Cache[K comparable, V any] struct {
	items []entry[K, V]
	prev  []uint16
	next  []uint16
	index map[K]uint16
	head  uint16
	size  int
}

// New returns a cache holding up to capacity entries. Capacity must
// be at least 2 and at most 65535.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 2 || capacity > 0xffff {
		panic("lru: capacity out of range")
	}
	return &Cache[K, V]{
		items: make([]entry[K, V], capacity),
		prev:  make([]uint16, capacity),
		next:  make([]uint16, capacity),
		index: make(map[K]uint16, capacity),
	}
}

// Len reports the number of cached entries.
func (c *Cache[K, V]) Len() int {
	return c.size
}

// Cap reports the cache capacity.
func (c *Cache[K, V]) Cap() int {
	return len(c.items)
}

// Get returns a pointer to the value cached under k, marking the
// entry as most recently used. The pointer is valid until the next
// insert.
func (c *Cache[K, V]) Get(k K) (*V, bool) {
	i, ok := c.index[k]
	if !ok {
		return nil, false
	}
	c.bringToFront(i)
	return &c.items[i].value, true
}

// Insert caches v under k. If k is already present its value is
// replaced. If the cache is full the least recently used entry is
// evicted and returned.
func (c *Cache[K, V]) Insert(k K, v V) (evictedK K, evictedV V, evicted bool) {
	if i, ok := c.index[k]; ok {
		c.items[i].value = v
		c.bringToFront(i)
		return
	}
	i, ek, ev, e := c.frontSlot(k)
	c.items[i] = entry[K, V]{key: k, value: v}
	return ek, ev, e
}

// GetOrInsert returns the value cached under k, calling mk to build
// it on a miss. On a miss that evicts, the displaced value is
// returned as well.
func (c *Cache[K, V]) GetOrInsert(k K, mk func() V) (v *V, evictedV V, evicted bool) {
	if i, ok := c.index[k]; ok {
		c.bringToFront(i)
		return &c.items[i].value, evictedV, false
	}
	i, _, ev, e := c.frontSlot(k)
	c.items[i] = entry[K, V]{key: k, value: mk()}
	return &c.items[i].value, ev, e
}

// frontSlot claims the slot for a new front entry keyed k, evicting
// the tail when full. The slot contents are not yet overwritten.
func (c *Cache[K, V]) frontSlot(k K) (i uint16, evictedK K, evictedV V, evicted bool) {
	if c.size < len(c.items) {
		i = uint16(c.size)
		c.size++
		c.linkFront(i)
	} else {
		// Rotate: the tail becomes the new head, displacing its
		// occupant without relinking.
		i = c.prev[c.head]
		c.head = i
		old := c.items[i]
		delete(c.index, old.key)
		evictedK, evictedV, evicted = old.key, old.value, true
	}
	c.index[k] = i
	return
}

// Range calls fn for every entry from most to least recently used,
// until fn returns false. fn must not mutate the cache.
func (c *Cache[K, V]) Range(fn func(K, *V) bool) {
	if c.size == 0 {
		return
	}
	i := c.head
	for n := 0; n < c.size; n++ {
		e := &c.items[i]
		if !fn(e.key, &e.value) {
			return
		}
		i = c.next[i]
	}
}

func (c *Cache[K, V]) linkFront(i uint16) {
	if c.size == 1 && i == 0 {
		c.head, c.prev[0], c.next[0] = 0, 0, 0
		return
	}
	tail := c.prev[c.head]
	c.prev[i], c.next[i] = tail, c.head
	c.next[tail], c.prev[c.head] = i, i
	c.head = i
}

func (c *Cache[K, V]) bringToFront(i uint16) {
	if i == c.head {
		return
	}
	if i == c.prev[c.head] {
		// Moving the tail forward is a rotation.
		c.head = i
		return
	}
	p, n := c.prev[i], c.next[i]
	c.next[p], c.prev[n] = n, p
	tail := c.prev[c.head]
	c.prev[i], c.next[i] = tail, c.head
	c.next[tail], c.prev[c.head] = i, i
	c.head = i
}

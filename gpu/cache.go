// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import "github.com/david7a68/plinth/internal/lru"

// TextureCache keeps a bounded working set of device textures, such
// as glyph atlas pages, keyed by a caller-chosen type. Displaced
// textures are destroyed on the device. Not safe for concurrent use.
type TextureCache[K comparable] struct {
	device *Device
	cache  *lru.Cache[K, TextureKey]
}

// NewTextureCache returns a cache holding up to capacity textures on
// d.
func NewTextureCache[K comparable](d *Device, capacity int) *TextureCache[K] {
	return &TextureCache[K]{
		device: d,
		cache:  lru.New[K, TextureKey](capacity),
	}
}

// Get returns the cached texture for k, refreshing its recency.
func (c *TextureCache[K]) Get(k K) (TextureKey, bool) {
	v, ok := c.cache.Get(k)
	if !ok {
		return TextureKey{}, false
	}
	return *v, true
}

// GetOrCreate returns the texture for k, calling create on a miss.
// The texture displaced by an evicting miss is destroyed.
func (c *TextureCache[K]) GetOrCreate(k K, create func() (TextureKey, error)) (TextureKey, error) {
	if key, ok := c.Get(k); ok {
		return key, nil
	}
	key, err := create()
	if err != nil {
		return TextureKey{}, err
	}
	if _, evicted, ok := c.cache.Insert(k, key); ok {
		c.device.DestroyTexture(evicted)
	}
	return key, nil
}

// Len reports the number of cached textures.
func (c *TextureCache[K]) Len() int {
	return c.cache.Len()
}

// Clear destroys every cached texture. The cache remains usable.
func (c *TextureCache[K]) Clear() {
	c.cache.Range(func(_ K, key *TextureKey) bool {
		c.device.DestroyTexture(*key)
		return true
	})
	c.cache = lru.New[K, TextureKey](c.cache.Cap())
}

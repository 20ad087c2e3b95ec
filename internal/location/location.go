// Package location caches per-location access tokens under a coarse
// geocell key so unrelated call sites can reuse them without resending
// full coordinates.
package location

import (
	"math"
	"sync"
)

// signBit marks a southern-hemisphere latitude in the geocell key.
const signBit = 65536

// Key quantizes a latitude/longitude pair (degrees) onto a coarse
// Web-Mercator-style grid. The conversion must stay bit-reproducible:
// truncation toward zero, 128-cell resolution, longitude packed below
// latitude with a 256 multiplier.
func Key(latitude, longitude float64) int64 {
	latitude *= math.Pi / 180
	longitude *= math.Pi / 180

	var key int64
	if latitude < 0 {
		latitude = -latitude
		key = signBit
	}

	f := math.Tan(math.Pi/4 - latitude/2)
	key += int64(f*math.Cos(longitude)*128) * 256
	key += int64(f * math.Sin(longitude) * 128)
	return key
}

// Cache maps geocell keys to opaque 64-bit access hashes. Entries are never
// evicted; the key space touched by one session is small.
type Cache struct {
	mu     sync.RWMutex
	hashes map[int64]int64
}

func NewCache() *Cache {
	return &Cache{hashes: make(map[int64]int64)}
}

// Get returns the cached access hash for the cell, or zero when absent.
func (c *Cache) Get(latitude, longitude float64) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hashes[Key(latitude, longitude)]
}

// Add stores an access hash for the cell. Zero is the "absent" sentinel and
// is never stored.
func (c *Cache) Add(latitude, longitude float64, accessHash int64) {
	if accessHash == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes[Key(latitude, longitude)] = accessHash
}

// Len returns the number of cached cells.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hashes)
}

package imaging

import "sync"

// DefaultCacheEntries bounds the normalization cache.
const DefaultCacheEntries = 64

// Cache is a bounded, mutex-guarded blob cache with oldest-first eviction.
// It is purely an optimization: a nil *Cache is valid and behaves as a
// permanent miss, so callers can run with caching disabled.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string][]byte
	order    []string
}

// NewCache returns a cache bounded to capacity entries. Non-positive
// capacity falls back to DefaultCacheEntries.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheEntries
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string][]byte),
	}
}

// Get returns the cached blob for key, if present.
func (c *Cache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	blob, ok := c.entries[key]
	return blob, ok
}

// Put stores blob under key, evicting the oldest entries once the cache
// exceeds its capacity.
func (c *Cache) Put(key string, blob []byte) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = blob
	for len(c.entries) > c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

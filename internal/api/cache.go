package api

import (
	"sync"
)

// ChartCache is a thread-safe LRU cache for rendered chart pages.
type ChartCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string][]byte
	order   []string // oldest first
}

// NewChartCache creates a cache with the given maximum number of entries.
// If maxSize <= 0, it defaults to 64.
func NewChartCache(maxSize int) *ChartCache {
	if maxSize <= 0 {
		maxSize = 64
	}
	return &ChartCache{
		maxSize: maxSize,
		entries: make(map[string][]byte),
	}
}

// Get retrieves a page from the cache, or nil if not found.
func (c *ChartCache) Get(key string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, ok := c.entries[key]
	if !ok {
		return nil
	}

	// Move to end (most recently used)
	c.moveToEnd(key)
	return page
}

// Put adds a page to the cache, evicting the oldest if full.
func (c *ChartCache) Put(key string, page []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = page
		c.moveToEnd(key)
		return
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = page
	c.order = append(c.order, key)
}

// Len returns the number of cached pages.
func (c *ChartCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops every entry. Called when the library changes.
func (c *ChartCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	c.order = nil
}

func (c *ChartCache) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}

package linkcheck

import (
	"maps"
	"sync"
)

// StatusCache maps a link URL to the HTTP status observed when it was
// probed. Status 0 means the link could not be reached. It is safe for
// concurrent use.
type StatusCache struct {
	mu       sync.RWMutex
	statuses map[string]int
}

// NewStatusCache creates an empty cache.
func NewStatusCache() *StatusCache {
	return &StatusCache{statuses: make(map[string]int)}
}

// Get returns the cached status of url.
func (c *StatusCache) Get(url string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	status, ok := c.statuses[url]
	return status, ok
}

// Set records the status of url. Later writes win.
func (c *StatusCache) Set(url string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[url] = status
}

// Len returns the number of cached URLs.
func (c *StatusCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.statuses)
}

// Snapshot returns a copy of the cache contents.
func (c *StatusCache) Snapshot() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.statuses)
}

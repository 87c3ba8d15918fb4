package service

import (
	"sync"
	"time"
)

// listingCache memoizes file listings per owner for a short window. Every
// write path for an owner invalidates all of that owner's entries, so a
// listing never shows a deleted or renamed file past the mutation.
type listingCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]map[string]cacheEntry
}

type cacheEntry struct {
	result  *FileListResult
	expires time.Time
}

func newListingCache(ttl time.Duration) *listingCache {
	return &listingCache{
		ttl:     ttl,
		entries: make(map[string]map[string]cacheEntry),
	}
}

func (c *listingCache) get(owner, key string) (*FileListResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[owner][key]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.result, true
}

func (c *listingCache) put(owner, key string, result *FileListResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	byKey, ok := c.entries[owner]
	if !ok {
		byKey = make(map[string]cacheEntry)
		c.entries[owner] = byKey
	}
	byKey[key] = cacheEntry{result: result, expires: time.Now().Add(c.ttl)}
}

func (c *listingCache) invalidate(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, owner)
}

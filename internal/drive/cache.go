package drive

import (
	"fmt"
	"sync"
	"time"
)

// ListCache is a best-effort, short-lived read-through cache for listing
// pages. Entries expire lazily on read; every write path clears the whole
// cache rather than invalidating per prefix. A nil *ListCache is valid and
// behaves as a disabled cache.
type ListCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result  PageResult
	expires time.Time
}

// NewListCache returns a cache whose entries live for ttl. A non-positive
// ttl returns nil, i.e. a disabled cache.
func NewListCache(ttl time.Duration) *ListCache {
	if ttl <= 0 {
		return nil
	}
	return &ListCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// CacheKey derives the cache key for one page request from the listing
// prefix the request resolves to, so the all-folders listing and the "root"
// folder never share an entry. Requests that differ in prefix, limit, cursor
// or URL eagerness never share an entry either.
func CacheKey(req PageRequest) string {
	return fmt.Sprintf("%s|%d|%s|%t", pagePrefix(req.Folder), req.Limit, req.Cursor, req.WithURLs)
}

// Get returns the cached page for key if present and not expired. Expired
// entries are removed on read.
func (c *ListCache) Get(key string) (PageResult, bool) {
	if c == nil {
		return PageResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return PageResult{}, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return PageResult{}, false
	}
	return entry.result, true
}

// Put stores one page under key.
func (c *ListCache) Put(key string, result PageResult) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: result, expires: c.now().Add(c.ttl)}
}

// Clear drops every entry. Called by every write operation.
func (c *ListCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

package kanbmine

import (
	"hash/fnv"
	"strings"
	"sync"
	"time"
)

// Cache key namespaces. All issue entries share the issue namespace so a
// single prefix invalidation covers every list or detail entry a write could
// have staled.
const (
	cacheNSIssues    = "issues:"
	cacheNSProjects  = "projects:"
	cacheKeyStatuses = "statuses"
)

// NoTTL marks an entry that never expires; it persists until explicit
// invalidation or process restart.
const NoTTL time.Duration = 0

// Cache stores decoded results keyed by endpoint + parameters. Entries with a
// positive TTL expire that long after insertion. Implementations must be safe
// for concurrent use; last-writer-wins is acceptable.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
	DeletePrefix(prefix string)
	Clear()
}

const cacheShardCount = 16

// MemoryCache is the default Cache: a sharded guarded map. Expired entries
// are dropped lazily on read.
type MemoryCache struct {
	shards [cacheShardCount]*cacheShard

	// now is replaceable in tests.
	now func() time.Time
}

type cacheShard struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
}

type cacheEntry struct {
	value     any
	expiresAt time.Time // zero = no expiry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{now: time.Now}
	for i := range c.shards {
		c.shards[i] = &cacheShard{store: make(map[string]cacheEntry)}
	}
	return c
}

func (c *MemoryCache) shard(key string) *cacheShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum32()%cacheShardCount]
}

// Get returns the live entry for key, dropping it if expired.
func (c *MemoryCache) Get(key string) (any, bool) {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.store[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		delete(s.store, key)
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key. ttl <= 0 (NoTTL) means the entry never expires.
func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	s := c.shard(key)
	s.mu.Lock()
	s.store[key] = entry
	s.mu.Unlock()
}

// Delete removes a single entry.
func (c *MemoryCache) Delete(key string) {
	s := c.shard(key)
	s.mu.Lock()
	delete(s.store, key)
	s.mu.Unlock()
}

// DeletePrefix removes every entry whose key starts with prefix. This is the
// coarse namespace invalidation issue writes rely on: extra cache misses are
// accepted over staleness.
func (c *MemoryCache) DeletePrefix(prefix string) {
	for _, s := range c.shards {
		s.mu.Lock()
		for key := range s.store {
			if strings.HasPrefix(key, prefix) {
				delete(s.store, key)
			}
		}
		s.mu.Unlock()
	}
}

// Clear removes all entries.
func (c *MemoryCache) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.store = make(map[string]cacheEntry)
		s.mu.Unlock()
	}
}

// Len returns the number of live-or-expired entries, for metrics.
func (c *MemoryCache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.store)
		s.mu.RUnlock()
	}
	return total
}

// Package cache provides the LRU cache used to keep decoded pages in memory.
//
// The database file is read-only for the lifetime of a handle, so entries
// never go stale and there is no invalidation protocol: a cache is only
// bounded by size.
package cache

import (
	"container/list"
	"sync"
)

// Cache is a generic LRU cache interface.
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache.
	Get(key K) (V, bool)

	// Put stores a value in the cache.
	Put(key K, value V)

	// Clear removes all entries from the cache.
	Clear()

	// Len returns the number of entries in the cache.
	Len() int

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

// HitRatio returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int
}

// DefaultPageCacheSize is the number of pages kept by a default page cache.
const DefaultPageCacheSize = 2000

// entry represents a cache entry.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.Mutex
	config    Config
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
}

// NewLRUCache creates a new LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config Config) Cache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}

	return &lruCache[K, V]{
		config:    config,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

// Get retrieves a value from the cache.
func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return ent.Value.(*entry[K, V]).value, true
}

// Put stores a value in the cache.
func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*entry[K, V]).value = value
		return
	}

	ent := c.evictList.PushFront(&entry[K, V]{key: key, value: value})
	c.entries[key] = ent

	if c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		c.removeOldest()
	}
}

// Clear removes all entries from the cache.
func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
}

// Len returns the number of entries in the cache.
func (c *lruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Stats returns cache statistics.
func (c *lruCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

func (c *lruCache[K, V]) removeOldest() {
	ent := c.evictList.Back()
	if ent == nil {
		return
	}
	c.evictList.Remove(ent)
	delete(c.entries, ent.Value.(*entry[K, V]).key)
	c.stats.Evictions++
}

// GetOrLoad returns the cached value for key, calling load and storing its
// result on a miss. Errors from load are returned and nothing is cached.
// A nil cache always calls load.
func GetOrLoad[K comparable, V any](c Cache[K, V], key K, load func(K) (V, error)) (V, error) {
	if c == nil {
		return load(key)
	}
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		return v, err
	}
	c.Put(key, v)
	return v, nil
}

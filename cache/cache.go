// Package cache provides the engine's in-process query-result cache: a
// bounded LRU with TTL expiry, atomic hit/miss/eviction counters, and
// singleflight suppression for concurrent fills of the same key.
package cache

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies a cached result set: the normalized query text plus a
// fingerprint of every option that can change results.
type Key struct {
	NormalizedQuery string
	OptionsHash     uint64
}

func (k Key) flightKey() string {
	return fmt.Sprintf("%s|%016x", k.NormalizedQuery, k.OptionsHash)
}

// Statistics is a point-in-time snapshot of cache counters.
type Statistics struct {
	HitCount      uint64  `json:"hit_count"`
	MissCount     uint64  `json:"miss_count"`
	EvictionCount uint64  `json:"eviction_count"`
	CurrentSize   int     `json:"current_size"`
	MaxSize       int     `json:"max_size"`
	HitRate       float64 `json:"hit_rate"`
}

type entry[V any] struct {
	key       Key
	value     V
	timestamp time.Time
}

// Cache is a bounded LRU with TTL. Lookups run under the read lock and
// upgrade only to expire or touch; counters are atomics so hits never take
// the write lock for bookkeeping alone.
type Cache[V any] struct {
	mu         sync.RWMutex
	entries    map[Key]*list.Element // of *entry[V]
	lru        *list.List
	maxEntries int
	ttl        time.Duration

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	group singleflight.Group
}

// New creates a Cache holding at most maxEntries values, each valid for
// ttl. A non-positive ttl disables expiry.
func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries:    make(map[Key]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get returns the cached value for key and whether it was present and
// fresh. Expired entries are erased and count as misses.
func (c *Cache[V]) Get(key Key) (V, bool) {
	var zero V
	now := time.Now()

	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	ent := elem.Value.(*entry[V])
	if c.expired(ent, now) {
		c.removeLocked(elem, true)
		c.misses.Add(1)
		return zero, false
	}
	c.lru.MoveToFront(elem)
	c.hits.Add(1)
	return ent.value, true
}

// Put stores value under key, overwriting and re-timestamping an existing
// entry, and evicts from the LRU tail while over capacity.
func (c *Cache[V]) Put(key Key, value V) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		ent := elem.Value.(*entry[V])
		ent.value = value
		ent.timestamp = now
		c.lru.MoveToFront(elem)
		return
	}
	elem := c.lru.PushFront(&entry[V]{key: key, value: value, timestamp: now})
	c.entries[key] = elem
	c.evictOverflowLocked()
}

// GetOrCompute returns the cached value or invokes compute to fill it,
// collapsing concurrent computations of the same key into one call. The
// second return reports whether the value came from cache.
func (c *Cache[V]) GetOrCompute(key Key, compute func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	val, err, _ := c.group.Do(key.flightKey(), func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.Put(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return val.(V), false, nil
}

// Clear drops every entry. Counters are preserved.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*list.Element)
	c.lru.Init()
}

// SetMaxEntries resizes the cache, evicting overflow immediately.
func (c *Cache[V]) SetMaxEntries(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxEntries = n
	c.evictOverflowLocked()
}

// SetTTL changes the expiry horizon for subsequent lookups.
func (c *Cache[V]) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// Len returns the current entry count.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Statistics {
	c.mu.RLock()
	size := len(c.entries)
	maxSize := c.maxEntries
	c.mu.RUnlock()

	stats := Statistics{
		HitCount:      c.hits.Load(),
		MissCount:     c.misses.Load(),
		EvictionCount: c.evictions.Load(),
		CurrentSize:   size,
		MaxSize:       maxSize,
	}
	if total := stats.HitCount + stats.MissCount; total > 0 {
		stats.HitRate = float64(stats.HitCount) / float64(total)
	}
	return stats
}

func (c *Cache[V]) expired(ent *entry[V], now time.Time) bool {
	if c.ttl <= 0 {
		return false
	}
	return now.Sub(ent.timestamp) > c.ttl
}

func (c *Cache[V]) evictOverflowLocked() {
	for len(c.entries) > c.maxEntries {
		tail := c.lru.Back()
		if tail == nil {
			return
		}
		c.removeLocked(tail, true)
	}
}

func (c *Cache[V]) removeLocked(elem *list.Element, countEviction bool) {
	ent := elem.Value.(*entry[V])
	c.lru.Remove(elem)
	delete(c.entries, ent.key)
	if countEviction {
		c.evictions.Add(1)
	}
}

package cache

import (
	"sync"
	"sync/atomic"
)

const (
	// ShardCount is the number of shards. Must be a power of 2.
	ShardCount = 16

	// DefaultCapacity is the default maximum entries per shard.
	DefaultCapacity = 64

	shardMask = ShardCount - 1
)

// Hasher computes the hash used for shard selection.
type Hasher[K any] func(K) uint64

// Uint64Hasher returns the key itself.
func Uint64Hasher(u uint64) uint64 {
	return u
}

// Mix folds words into a 64-bit hash (FNV-1a over 64-bit lanes).
// Composite keys use it to build their Hasher.
func Mix(words ...uint64) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for _, w := range words {
		h ^= w
		h *= prime64
	}
	return h
}

// Sharded is a thread-safe, sharded LRU cache.
type Sharded[K comparable, V any] struct {
	shards   [ShardCount]*shard[K, V]
	hasher   Hasher[K]
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*entry[K, V]
	lru     *lruList[K]
}

type entry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// NewSharded creates a cache holding up to capacity entries per shard.
// If capacity <= 0, DefaultCapacity is used.
func NewSharded[K comparable, V any](capacity int, hasher Hasher[K]) *Sharded[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Sharded[K, V]{hasher: hasher, capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{
			entries: make(map[K]*entry[K, V]),
			lru:     newLRUList[K](),
		}
	}
	return c
}

func (c *Sharded[K, V]) shardFor(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get returns the cached value for key.
func (c *Sharded[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		s.lru.Touch(e.node)
	}
	s.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Contains reports whether key is cached without touching recency or stats.
func (c *Sharded[K, V]) Contains(key K) bool {
	s := c.shardFor(key)
	s.mu.RLock()
	_, ok := s.entries[key]
	s.mu.RUnlock()
	return ok
}

// Set stores value under key, evicting the shard's oldest entries if full.
func (c *Sharded[K, V]) Set(key K, value V) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.value = value
		s.lru.Touch(e.node)
		return
	}
	c.insertLocked(s, key, value)
}

// GetOrCreate returns the cached value for key, or calls create and stores
// its result. The hit result reports whether the value came from the cache.
//
// create runs with the shard lock held, so concurrent callers for the same key
// block until the first one finishes and then share its value. A create error
// is returned as-is and nothing is stored.
func (c *Sharded[K, V]) GetOrCreate(key K, create func() (V, error)) (value V, hit bool, err error) {
	s := c.shardFor(key)

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		s.mu.Lock()
		if e, ok = s.entries[key]; ok {
			s.lru.Touch(e.node)
			value = e.value
		}
		s.mu.Unlock()
		if ok {
			c.hits.Add(1)
			return value, true, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check after acquiring the write lock.
	if e, ok := s.entries[key]; ok {
		s.lru.Touch(e.node)
		c.hits.Add(1)
		return e.value, true, nil
	}

	c.misses.Add(1)
	value, err = create()
	if err != nil {
		var zero V
		return zero, false, err
	}
	c.insertLocked(s, key, value)
	return value, false, nil
}

func (c *Sharded[K, V]) insertLocked(s *shard[K, V], key K, value V) {
	for s.lru.Len() >= c.capacity {
		oldest, ok := s.lru.PopBack()
		if !ok {
			break
		}
		delete(s.entries, oldest)
		c.evictions.Add(1)
	}
	s.entries[key] = &entry[K, V]{value: value, node: s.lru.PushFront(key)}
}

// Delete removes key. It reports whether the key was present.
func (c *Sharded[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.lru.Remove(e.node)
	delete(s.entries, key)
	return true
}

// Range calls fn for every entry until fn returns false.
// Shards are visited one at a time under their read lock.
func (c *Sharded[K, V]) Range(fn func(K, V) bool) {
	for _, s := range c.shards {
		s.mu.RLock()
		for k, e := range s.entries {
			if !fn(k, e.value) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Clear removes all entries. Statistics are kept.
func (c *Sharded[K, V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[K]*entry[K, V])
		s.lru.Reset()
		s.mu.Unlock()
	}
}

// Len returns the number of entries across all shards.
func (c *Sharded[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// Stats holds cache statistics.
type Stats struct {
	Len       int
	Capacity  int // per shard
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

// Stats returns a snapshot of the cache counters.
func (c *Sharded[K, V]) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   rate,
	}
}

// ResetStats zeroes the counters.
func (c *Sharded[K, V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

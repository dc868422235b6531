package lindt

import (
	"sync"
	"sync/atomic"
)

// DefaultCacheCapacity is the number of lexical forms each datatype keeps.
const DefaultCacheCapacity = 100000

// CacheStats is a snapshot of a ValueCache.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
	Capacity  int
}

// HitRatio returns hits / (hits + misses), or 0 before the first lookup.
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ValueCache maps lexical forms to TypedValues. It is bounded and evicts in
// insertion order: the oldest inserted key goes first no matter how often it
// was read.
type ValueCache struct {
	mu       sync.RWMutex
	capacity int
	items    map[string]*TypedValue
	// queue holds keys in insertion order. Once full it is used as a ring
	// whose oldest entry sits at head.
	queue []string
	head  int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	metrics   *Metrics
}

// NewValueCache creates a cache holding at most capacity values.
// A capacity <= 0 uses DefaultCacheCapacity.
func NewValueCache(capacity int) *ValueCache {
	return newValueCache(capacity, nil)
}

func newValueCache(capacity int, metrics *Metrics) *ValueCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &ValueCache{
		capacity: capacity,
		items:    make(map[string]*TypedValue),
		metrics:  metrics,
	}
}

// Get returns the value stored for lexical, if any.
func (c *ValueCache) Get(lexical string) (*TypedValue, bool) {
	c.mu.RLock()
	v, ok := c.items[lexical]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		c.metrics.cacheHit()
	}
	return v, ok
}

// GetOrCreate returns the stored value for lexical, or stores and returns
// the result of create. The same pointer is returned for a lexical form
// until it is evicted.
func (c *ValueCache) GetOrCreate(lexical string, create func() *TypedValue) *TypedValue {
	if v, ok := c.Get(lexical); ok {
		return v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.items[lexical]; ok {
		c.hits.Add(1)
		c.metrics.cacheHit()
		return v
	}
	c.misses.Add(1)
	c.metrics.cacheMiss()

	v := create()
	if len(c.queue) < c.capacity {
		c.queue = append(c.queue, lexical)
	} else {
		oldest := c.queue[c.head]
		delete(c.items, oldest)
		c.queue[c.head] = lexical
		c.head = (c.head + 1) % c.capacity
		c.evictions.Add(1)
		c.metrics.cacheEviction()
	}
	c.items[lexical] = v
	return v
}

// Contains reports whether lexical is cached, without counting a lookup.
func (c *ValueCache) Contains(lexical string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[lexical]
	return ok
}

// Keys returns the cached lexical forms, oldest first.
func (c *ValueCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.queue))
	out = append(out, c.queue[c.head:]...)
	out = append(out, c.queue[:c.head]...)
	return out
}

// Len returns the number of cached values.
func (c *ValueCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Capacity returns the maximum number of cached values.
func (c *ValueCache) Capacity() int { return c.capacity }

// Clear drops every cached value. Statistics are kept.
func (c *ValueCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*TypedValue)
	c.queue = nil
	c.head = 0
	c.mu.Unlock()
}

// Stats returns a snapshot of the cache counters.
func (c *ValueCache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Len(),
		Capacity:  c.capacity,
	}
}

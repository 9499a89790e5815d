package hierarchy

import (
	"sync"
	"sync/atomic"
)

// SubtreeCache shares one SubtreeCollection per root across all concurrent
// callers, so the expensive traversal for a root is never performed twice.
// Collections are fully lazy and cheap to construct, so the losing side of
// an install race throws away nothing of value.
type SubtreeCache struct {
	provider Provider
	entries  sync.Map // NodeHandle -> *SubtreeCollection

	// Atomic counters - simple interlocked operations
	hits      int64
	misses    int64
	raceJoins int64
}

// NewSubtreeCache creates an empty cache backed by the given provider.
func NewSubtreeCache(provider Provider) *SubtreeCache {
	return &SubtreeCache{provider: provider}
}

// GetOrCompute returns the shared collection for root, installing a fresh
// one if none exists. If two callers race to create it, exactly one install
// wins and both callers use the winning instance.
func (c *SubtreeCache) GetOrCompute(root NodeHandle) *SubtreeCollection {
	if v, ok := c.entries.Load(root); ok {
		atomic.AddInt64(&c.hits, 1)
		return v.(*SubtreeCollection)
	}

	coll := newSubtreeCollection(c.provider, root)
	actual, loaded := c.entries.LoadOrStore(root, coll)
	if loaded {
		atomic.AddInt64(&c.raceJoins, 1)
	} else {
		atomic.AddInt64(&c.misses, 1)
	}
	return actual.(*SubtreeCollection)
}

// Invalidate drops every cached collection. Called whenever the underlying
// graph mutates; in-flight traversals keep their collection and fall back
// on stale-handle tolerance.
func (c *SubtreeCache) Invalidate() {
	c.entries.Range(func(key, _ interface{}) bool {
		c.entries.Delete(key)
		return true
	})
}

// CacheStats holds cache counters.
type CacheStats struct {
	Hits      int64
	Misses    int64
	RaceJoins int64
	Entries   int
}

// Stats returns a snapshot of the cache counters.
func (c *SubtreeCache) Stats() CacheStats {
	entries := 0
	c.entries.Range(func(_, _ interface{}) bool {
		entries++
		return true
	})
	return CacheStats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		RaceJoins: atomic.LoadInt64(&c.raceJoins),
		Entries:   entries,
	}
}

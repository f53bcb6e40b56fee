// Package index provides the per-provider cache for retrieval state built
// in a specific embedding space. Entries from one provider are never served
// to another, and every provider activation clears the whole cache.
package index

import (
	"sync"
	"sync/atomic"
)

// Cache maps provider IDs to cached values. Reads are lock-free against an
// atomically swapped map; writers serialize and publish a fresh copy, so a
// reader never observes a partially updated map.
type Cache[V any] struct {
	mu         sync.Mutex
	entries    atomic.Pointer[map[string]V]
	generation atomic.Uint64
}

func NewCache[V any]() *Cache[V] {
	c := &Cache[V]{}
	empty := make(map[string]V)
	c.entries.Store(&empty)
	return c
}

// Get returns the cached value for the provider, if present.
func (c *Cache[V]) Get(providerID string) (V, bool) {
	entries := *c.entries.Load()
	v, ok := entries[providerID]
	return v, ok
}

// Put stores a value for the provider, replacing any previous one.
func (c *Cache[V]) Put(providerID string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.copyEntries()
	next[providerID] = value
	c.publish(next)
}

// Invalidate drops the entry for one provider. Unknown IDs are a no-op.
func (c *Cache[V]) Invalidate(providerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := *c.entries.Load()
	if _, ok := current[providerID]; !ok {
		return
	}
	next := c.copyEntries()
	delete(next, providerID)
	c.publish(next)
}

// Clear drops every entry. Runs on each provider activation so state built
// in the previous embedding space can never leak into the new one.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	empty := make(map[string]V)
	c.publish(empty)
}

// Generation increments on every mutation. Long-running operations snapshot
// it before building state and discard their result if it moved.
func (c *Cache[V]) Generation() uint64 {
	return c.generation.Load()
}

// PutIfGeneration stores the value only when the cache has not been mutated
// since the caller's snapshot. Returns false when the entry was discarded.
func (c *Cache[V]) PutIfGeneration(providerID string, value V, snapshot uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation.Load() != snapshot {
		return false
	}
	next := c.copyEntries()
	next[providerID] = value
	c.publish(next)
	return true
}

func (c *Cache[V]) Len() int {
	return len(*c.entries.Load())
}

func (c *Cache[V]) copyEntries() map[string]V {
	current := *c.entries.Load()
	next := make(map[string]V, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	return next
}

func (c *Cache[V]) publish(next map[string]V) {
	c.entries.Store(&next)
	c.generation.Add(1)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package statecache deduplicates immutable native state objects.
//
// Backends create one native object per distinct descriptor and share it
// between every resource that asks for an equal descriptor. Entries are
// reference counted: the native object is destroyed when the last holder
// releases it.
package statecache

import (
	"sync"
	"sync/atomic"
)

// Cache maps descriptor keys to shared native objects.
//
// Cache is safe for concurrent use. The create and destroy callbacks run
// with the cache lock held and must not call back into the cache.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	destroy func(V)

	hits   atomic.Uint64
	misses atomic.Uint64
}

type entry[V any] struct {
	value V
	refs  int32
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Len    int
	Hits   uint64
	Misses uint64
}

// New creates an empty cache. destroy is called once for every value whose
// last reference is released, and may be nil.
func New[K comparable, V any](destroy func(V)) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*entry[V]),
		destroy: destroy,
	}
}

// Acquire returns the value cached for key and takes a reference on it.
// On a miss the value is built by create; a failed create leaves the cache
// unchanged.
func (c *Cache[K, V]) Acquire(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.refs++
		c.hits.Add(1)
		return e.value, nil
	}
	c.misses.Add(1)
	v, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = &entry[V]{value: v, refs: 1}
	return v, nil
}

// Release drops one reference on key. It reports whether the value was
// destroyed. Releasing an unknown key is a no-op.
func (c *Cache[K, V]) Release(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	e.refs--
	if e.refs > 0 {
		return false
	}
	delete(c.entries, key)
	if c.destroy != nil {
		c.destroy(e.value)
	}
	return true
}

// Get returns the cached value without taking a reference.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.value, true
	}
	var zero V
	return zero, false
}

// Refs returns the reference count of key, 0 when absent.
func (c *Cache[K, V]) Refs(key K) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of distinct cached values.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear destroys every cached value regardless of outstanding references
// and returns how many were destroyed. Used when the device goes away.
func (c *Cache[K, V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	for k, e := range c.entries {
		if c.destroy != nil {
			c.destroy(e.value)
		}
		delete(c.entries, k)
	}
	return n
}

// Stats returns the current counters.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{Len: c.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Package cache provides the read-through caches that back the screening
// core's hot queries. Every mutating operation enumerates and evicts the keys
// whose content it could have changed, strictly after the store mutation
// returned, so a reader never observes a cache entry older than the latest
// committed mutation.
package cache

import (
	"strings"
	"sync"
)

// Cache is the explicit get/set/evict contract invoked directly inside each
// mutating operation.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Evict(keys ...string)
	// EvictPrefix removes every entry whose key starts with one of the
	// provided prefixes. Used where a mutation invalidates a whole keyspace,
	// such as all cached application lists after a status transition.
	EvictPrefix(prefixes ...string)
}

// Memory is an in-process Cache safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]any)}
}

func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[key]
	return value, ok
}

func (m *Memory) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

func (m *Memory) Evict(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
}

func (m *Memory) EvictPrefix(prefixes ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				delete(m.entries, key)
				break
			}
		}
	}
}

// Len reports the number of live entries. Intended for tests and debugging.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Lookup fetches a typed value from the cache, reporting a miss when the key
// is absent or holds a different type.
func Lookup[T any](c Cache, key string) (T, bool) {
	var zero T
	value, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

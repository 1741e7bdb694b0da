// Package cache memoizes loader results per key for the life of the process.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ShareAnalysis/internal/observability"
)

// LoadFunc produces the value for a key on a cache miss.
type LoadFunc[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Memo is a key to value store. Entries are written once per key and, with a
// zero TTL, never expire. Errors are not cached.
type Memo[K comparable, V any] struct {
	Name string
	TTL  time.Duration

	mu      sync.Mutex
	entries map[K]entry[V]
	group   singleflight.Group
	now     func() time.Time
}

// NewMemo creates a memo. name labels its metrics.
func NewMemo[K comparable, V any](name string, ttl time.Duration) *Memo[K, V] {
	return &Memo[K, V]{
		Name:    name,
		TTL:     ttl,
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// Get returns the cached value for key if present and fresh.
func (m *Memo[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if m.TTL > 0 && m.now().Sub(e.storedAt) > m.TTL {
		delete(m.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Concurrent misses on one key share a single load.
func (m *Memo[K, V]) GetOrLoad(ctx context.Context, key K, load LoadFunc[V]) (V, error) {
	if v, ok := m.Get(key); ok {
		observability.RecordCacheLookup(m.Name, true)
		return v, nil
	}
	observability.RecordCacheLookup(m.Name, false)

	res, err, _ := m.group.Do(fmt.Sprint(key), func() (interface{}, error) {
		if v, ok := m.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		if e, ok := m.entries[key]; ok {
			v = e.value
		} else {
			m.entries[key] = entry[V]{value: v, storedAt: m.now()}
		}
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Forget drops the entry for key.
func (m *Memo[K, V]) Forget(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Len returns the number of stored entries, fresh or not.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

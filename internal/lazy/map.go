package lazy

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Map is a concurrent get-or-add map. Entries are never removed.
type Map[K comparable, V any] struct {
	m sync.Map
}

// Load returns the value stored for key.
func (m *Map[K, V]) Load(key K) (V, bool) {
	v, ok := m.m.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// GetOrAdd returns the value stored for key, creating it with create when
// absent. When two callers race, the loser's value is discarded.
func (m *Map[K, V]) GetOrAdd(key K, create func(K) V) V {
	if v, ok := m.m.Load(key); ok {
		return v.(V)
	}
	actual, _ := m.m.LoadOrStore(key, create(key))
	return actual.(V)
}

// Add publishes value for key unless another value is already stored, and
// returns the value that ended up in the map.
func (m *Map[K, V]) Add(key K, value V) V {
	actual, _ := m.m.LoadOrStore(key, value)
	return actual.(V)
}

// Len counts entries. It is linear and meant for tests and reports.
func (m *Map[K, V]) Len() int {
	n := 0
	m.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

const stringShards = 32

// StringMap is a get-or-add map keyed by strings, sharded by xxhash so that
// unrelated keys do not contend on one lock.
type StringMap[V any] struct {
	shards [stringShards]stringShard[V]
}

type stringShard[V any] struct {
	mu sync.RWMutex
	m  map[string]V
}

func (s *StringMap[V]) shard(key string) *stringShard[V] {
	return &s.shards[xxhash.Sum64String(key)%stringShards]
}

// Load returns the value stored for key.
func (s *StringMap[V]) Load(key string) (V, bool) {
	sh := s.shard(key)
	sh.mu.RLock()
	v, ok := sh.m[key]
	sh.mu.RUnlock()
	return v, ok
}

// GetOrAdd returns the value stored for key, creating it with create when
// absent. create runs outside the shard lock and may run more than once.
func (s *StringMap[V]) GetOrAdd(key string, create func(string) V) V {
	if v, ok := s.Load(key); ok {
		return v
	}
	v := create(key)
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if existing, ok := sh.m[key]; ok {
		return existing
	}
	if sh.m == nil {
		sh.m = make(map[string]V)
	}
	sh.m[key] = v
	return v
}

// Len counts entries across all shards.
func (s *StringMap[V]) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}

package gateway

import (
	"sort"
	"sync"
)

// ActiveSet tracks the keys that currently own a job.
type ActiveSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewActiveSet returns an empty set.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{keys: make(map[string]struct{})}
}

// TryAcquire inserts key if absent and reports whether it did.
func (s *ActiveSet) TryAcquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.keys[key]; exists {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Release removes key. Releasing an absent key is a no-op.
func (s *ActiveSet) Release(key string) {
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
}

// Contains reports whether key is active.
func (s *ActiveSet) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

// Keys returns the active keys in lexical order.
func (s *ActiveSet) Keys() []string {
	s.mu.Lock()
	keys := make([]string, 0, len(s.keys))
	for key := range s.keys {
		keys = append(keys, key)
	}
	s.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Len returns the number of active keys.
func (s *ActiveSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

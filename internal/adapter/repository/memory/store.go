// Package memory provides a process-local ports.KeyValueStore.
// Nothing survives a restart; it backs ephemeral sessions and tests.
package memory

import (
	"maps"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Store keeps string values in a map.
//
// Thread-safe: All operations protected by sync.RWMutex.
type Store struct {
	values map[string]string
	writes int
	mu     sync.RWMutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// String returns the value stored under key, or "" when absent.
func (s *Store) String(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// SetString stores value under key.
func (s *Store) SetString(key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.writes++
}

// RemoveValue deletes key.
func (s *Store) RemoveValue(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	s.writes++
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Writes returns how many mutations were applied.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Verify interface implementation
var _ ports.KeyValueStore = (*Store)(nil)

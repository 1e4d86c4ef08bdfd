// Package locator issues transient "blob:" locators for local files.
// They stand in for file handles and are only valid for the life of the process.
package locator

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Registry maps transient locators to file paths.
type Registry struct {
	mu      sync.RWMutex
	entries map[domain.Locator]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[domain.Locator]string)}
}

// Register issues a fresh locator for path.
func (r *Registry) Register(path string) domain.Locator {
	loc := domain.Locator(domain.TransientScheme + uuid.NewString())

	r.mu.Lock()
	r.entries[loc] = path
	r.mu.Unlock()
	return loc
}

// Resolve returns the path behind loc.
func (r *Registry) Resolve(loc domain.Locator) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path, ok := r.entries[loc]
	return path, ok
}

// Revoke forgets loc. Durable and unknown locators are ignored.
func (r *Registry) Revoke(loc domain.Locator) {
	if !loc.IsTransient() {
		return
	}
	r.mu.Lock()
	delete(r.entries, loc)
	r.mu.Unlock()
}

// Len returns the number of live locators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

var _ ports.LocatorRegistry = (*Registry)(nil)

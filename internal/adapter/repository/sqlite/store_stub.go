//go:build !cgo

// Package sqlite provides a ports.KeyValueStore backed by a single SQLite table.
package sqlite

import (
	"errors"
	"log/slog"

	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// ErrUnavailable is returned by Open in builds without cgo.
var ErrUnavailable = errors.New("SQLite storage is not available in non-CGO builds, use --storage=preferences or rebuild with CGO_ENABLED=1")

// Store is a placeholder in non-cgo builds.
type Store struct{}

// Open always fails in non-cgo builds.
func Open(logger *slog.Logger, path string) (*Store, error) {
	return nil, ErrUnavailable
}

func (s *Store) String(key string) string { return "" }
func (s *Store) SetString(key string, value string) {}
func (s *Store) RemoveValue(key string) {}
func (s *Store) Keys() ([]string, error) { return nil, ErrUnavailable }
func (s *Store) Close() error { return nil }

var _ ports.KeyValueStore = (*Store)(nil)

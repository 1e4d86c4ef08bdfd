//go:build cgo

// Package sqlite provides a ports.KeyValueStore backed by a single SQLite table.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Store keeps string values in a key/value table.
//
// The KeyValueStore methods cannot return errors, so failures are logged and
// reads fall back to the empty string.
type Store struct {
	logger *slog.Logger
	db     *sql.DB
	mu     sync.Mutex
}

// Open opens (creating if needed) the database at path.
func Open(logger *slog.Logger, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS kv(
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &Store{
		logger: logger.With(slog.String("component", "sqlite"), slog.String("path", path)),
		db:     db,
	}, nil
}

// String returns the value stored under key, or "" when absent.
func (s *Store) String(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to read key", slog.String("key", key), slog.Any("error", err))
		}
		return ""
	}
	return value
}

// SetString stores value under key, replacing any previous value.
func (s *Store) SetString(key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", key, value); err != nil {
		s.logger.Warn("failed to write key", slog.String("key", key), slog.Any("error", err))
	}
}

// RemoveValue deletes key. Missing keys are ignored.
func (s *Store) RemoveValue(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		s.logger.Warn("failed to delete key", slog.String("key", key), slog.Any("error", err))
	}
}

// Keys returns all stored keys in lexical order.
func (s *Store) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ ports.KeyValueStore = (*Store)(nil)

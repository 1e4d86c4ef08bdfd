package kv

import (
	"encoding/json"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// SearchHistoryRepository implements ports.SearchHistoryRepository.
// At most MaxSearchHistory entries are stored.
type SearchHistoryRepository struct {
	store ports.KeyValueStore
	mu    sync.RWMutex
}

// NewSearchHistoryRepository creates a new search history repository.
func NewSearchHistoryRepository(store ports.KeyValueStore) *SearchHistoryRepository {
	return &SearchHistoryRepository{store: store}
}

// SaveHistory persists queries, most recent first.
func (r *SearchHistoryRepository) SaveHistory(queries []string) error {
	if len(queries) > MaxSearchHistory {
		queries = queries[:MaxSearchHistory]
	}
	if queries == nil {
		queries = []string{}
	}

	data, err := json.Marshal(queries)
	if err != nil {
		return domain.NewRepositoryError("save", "history", "failed to encode history", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.SetString(KeySearchHistory, string(data))
	return nil
}

// LoadHistory retrieves saved queries. Malformed data yields an empty history.
func (r *SearchHistoryRepository) LoadHistory() ([]string, error) {
	r.mu.RLock()
	raw := r.store.String(KeySearchHistory)
	r.mu.RUnlock()

	if raw == "" {
		return []string{}, nil
	}

	var queries []string
	if err := json.Unmarshal([]byte(raw), &queries); err != nil {
		return []string{}, domain.NewRepositoryError("load", "history", "failed to decode history", domain.ErrPersistenceCorrupt)
	}
	if len(queries) > MaxSearchHistory {
		queries = queries[:MaxSearchHistory]
	}
	return queries, nil
}

var _ ports.SearchHistoryRepository = (*SearchHistoryRepository)(nil)

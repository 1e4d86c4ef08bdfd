package kv

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// PlaylistRepository implements ports.PlaylistRepository.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PlaylistRepository struct {
	store ports.KeyValueStore
	mu    sync.RWMutex
}

// NewPlaylistRepository creates a new playlist repository.
func NewPlaylistRepository(store ports.KeyValueStore) *PlaylistRepository {
	return &PlaylistRepository{store: store}
}

// SavePlaylist persists the tracks as JSON and the cursor as a plain integer.
func (r *PlaylistRepository) SavePlaylist(snapshot domain.PlaylistSnapshot) error {
	data, err := EncodeTracks(snapshot.Tracks)
	if err != nil {
		return domain.NewRepositoryError("save", "playlist", "failed to encode tracks", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.SetString(KeyPlaylist, data)
	r.store.SetString(KeyCurrentSongIndex, strconv.Itoa(snapshot.CurrentIndex))
	return nil
}

// LoadPlaylist restores the saved snapshot.
//
// A malformed playlist yields an empty snapshot; a malformed cursor yields 0.
// Either case also returns an error wrapping domain.ErrPersistenceCorrupt.
func (r *PlaylistRepository) LoadPlaylist() (domain.PlaylistSnapshot, error) {
	r.mu.RLock()
	rawTracks := r.store.String(KeyPlaylist)
	rawIndex := r.store.String(KeyCurrentSongIndex)
	r.mu.RUnlock()

	var (
		snapshot domain.PlaylistSnapshot
		problems []string
	)

	if rawTracks != "" {
		tracks, err := DecodeTracks(rawTracks)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			snapshot.Tracks = tracks
		}
	}

	if rawIndex != "" {
		index, err := strconv.Atoi(strings.TrimSpace(rawIndex))
		if err != nil {
			problems = append(problems, fmt.Sprintf("current index %q is not an integer", rawIndex))
		} else {
			snapshot.CurrentIndex = index
		}
	}

	if len(problems) > 0 {
		return snapshot, domain.NewRepositoryError("load", "playlist", strings.Join(problems, "; "), domain.ErrPersistenceCorrupt)
	}
	return snapshot, nil
}

// Clear removes the saved playlist and cursor.
func (r *PlaylistRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.RemoveValue(KeyPlaylist)
	r.store.RemoveValue(KeyCurrentSongIndex)
	return nil
}

var _ ports.PlaylistRepository = (*PlaylistRepository)(nil)

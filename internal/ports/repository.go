// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// KeyValueStore is a string-valued key-value medium.
// fyne.Preferences satisfies this interface, so does the SQLite store.
//
// Missing keys read as the empty string.
type KeyValueStore interface {
	String(key string) string
	SetString(key string, value string)
	RemoveValue(key string)
}

// PlaylistRepository persists the playlist snapshot.
//
// Load methods always return a usable value. When stored data is malformed the
// returned error wraps domain.ErrPersistenceCorrupt and the value holds defaults
// for the unreadable part.
//
// Thread-safety: Implementations must be thread-safe.
type PlaylistRepository interface {
	// SavePlaylist persists the durable tracks and the cursor.
	SavePlaylist(snapshot domain.PlaylistSnapshot) error

	// LoadPlaylist returns the saved snapshot, or an empty one if nothing was saved.
	LoadPlaylist() (domain.PlaylistSnapshot, error)

	// Clear removes the saved playlist.
	Clear() error
}

// PreferencesRepository persists playback settings and the theme.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// SaveVolume persists the volume and the last non-zero volume.
	SaveVolume(volume, lastNonZero float64) error

	// LoadVolume returns the saved volumes, defaulting to domain.DefaultVolume.
	LoadVolume() (volume, lastNonZero float64, err error)

	// SavePlayMode persists the play mode.
	SavePlayMode(mode domain.PlayMode) error

	// LoadPlayMode returns the saved play mode, defaulting to domain.DefaultPlayMode.
	LoadPlayMode() (domain.PlayMode, error)

	// SaveTheme persists the theme.
	SaveTheme(theme domain.Theme) error

	// LoadTheme returns the saved theme, defaulting to domain.ThemeLight.
	LoadTheme() (domain.Theme, error)

	// Clear removes all saved preferences.
	Clear() error
}

// SearchHistoryRepository persists recent search queries, most recent first.
type SearchHistoryRepository interface {
	SaveHistory(queries []string) error
	LoadHistory() ([]string, error)
}

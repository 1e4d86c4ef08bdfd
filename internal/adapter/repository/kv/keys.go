// Package kv implements the persistence ports on top of any string-valued
// key-value store, such as fyne.Preferences or the SQLite store.
package kv

// Storage keys. The names are shared with earlier releases of the player, so
// existing saved sessions keep loading.
const (
	KeyPlaylist          = "playlist"
	KeyCurrentSongIndex  = "currentSongIndex"
	KeyPlayMode          = "playMode"
	KeyVolume            = "volume"
	KeyLastNonZeroVolume = "lastNonZeroVolume"
	KeySearchHistory     = "searchHistory"
	KeyTheme             = "theme"
)

// MaxSearchHistory is the number of queries kept in the search history.
const MaxSearchHistory = 10

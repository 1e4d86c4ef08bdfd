// Package domain contains the core business entities and types for tunedeck.
// These types are independent of any infrastructure or framework.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Placeholder values substituted for missing track metadata.
const (
	DefaultTitle  = "Untitled"
	DefaultArtist = "Unknown Artist"
	DefaultCover  = Locator("assets/pexels-photo-2264753.jpeg")

	// LocalFileCover is shown for tracks added from the user's disk.
	LocalFileCover = Locator("assets/pexels-photo-3100835.jpeg")

	// RemoteCover is shown for catalog results without artwork.
	RemoteCover = Locator("assets/pexels-photo-1717969.jpeg")
)

// TransientScheme prefixes locators that are only valid for the current process.
const TransientScheme = "blob:"

// Locator identifies a playable resource: a URL, a file path or a transient blob handle.
type Locator string

// IsTransient reports whether the locator becomes invalid when the process exits.
func (l Locator) IsTransient() bool {
	return strings.HasPrefix(string(l), TransientScheme)
}

// IsRemote reports whether the locator points at an http(s) resource.
func (l Locator) IsRemote() bool {
	s := strings.ToLower(string(l))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// String returns the locator as a plain string.
func (l Locator) String() string {
	return string(l)
}

// OriginKind tells where a track came from.
type OriginKind int

const (
	// OriginPreset marks one of the built-in songs.
	OriginPreset OriginKind = iota
	// OriginLocalFile marks a file picked or dropped by the user.
	OriginLocalFile
	// OriginRemote marks a track returned by the remote catalog.
	OriginRemote
)

// String returns the persisted name of the origin kind.
func (k OriginKind) String() string {
	switch k {
	case OriginPreset:
		return "preset"
	case OriginLocalFile:
		return "local"
	case OriginRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// ParseOriginKind converts a persisted origin name back into an OriginKind.
func ParseOriginKind(s string) (OriginKind, bool) {
	switch s {
	case "preset":
		return OriginPreset, true
	case "local":
		return OriginLocalFile, true
	case "remote":
		return OriginRemote, true
	default:
		return OriginPreset, false
	}
}

// Origin is a tagged variant. FileName, FileSize and FileType are only
// meaningful when Kind is OriginLocalFile.
type Origin struct {
	Kind     OriginKind
	FileName string
	FileSize int64
	FileType string
}

// PresetOrigin returns the origin of a built-in song.
func PresetOrigin() Origin {
	return Origin{Kind: OriginPreset}
}

// RemoteOrigin returns the origin of a catalog result.
func RemoteOrigin() Origin {
	return Origin{Kind: OriginRemote}
}

// LocalFileOrigin returns the origin of a user supplied file.
func LocalFileOrigin(name string, size int64, mimeType string) Origin {
	return Origin{Kind: OriginLocalFile, FileName: name, FileSize: size, FileType: mimeType}
}

// IsLocalFile reports whether the origin is a user supplied file.
func (o Origin) IsLocalFile() bool {
	return o.Kind == OriginLocalFile
}

// Track is one playlist entry.
type Track struct {
	ID     string
	Title  string
	Artist string
	Source Locator
	Cover  Locator

	// Duration is zero until resolved. Once set it is never overwritten.
	Duration time.Duration

	Origin Origin
}

// HasDuration reports whether the duration has been resolved.
func (t Track) HasDuration() bool {
	return t.Duration > 0
}

// DisplayName returns "Title - Artist".
func (t Track) DisplayName() string {
	return fmt.Sprintf("%s - %s", t.Title, t.Artist)
}

// SameFile reports whether both tracks are local files with identical name and size.
func (t Track) SameFile(other Track) bool {
	if !t.Origin.IsLocalFile() || !other.Origin.IsLocalFile() {
		return false
	}
	return t.Origin.FileName == other.Origin.FileName && t.Origin.FileSize == other.Origin.FileSize
}

// NormalizeTrack fills empty metadata with placeholders.
func NormalizeTrack(t Track) Track {
	t.Title = strings.TrimSpace(t.Title)
	t.Artist = strings.TrimSpace(t.Artist)
	if t.Title == "" {
		t.Title = DefaultTitle
	}
	if t.Artist == "" {
		t.Artist = DefaultArtist
	}
	if t.Cover == "" {
		t.Cover = DefaultCover
	}
	if t.Duration < 0 {
		t.Duration = 0
	}
	return t
}

// PlayMode decides what happens when a track ends.
// The string values are the persisted representation.
type PlayMode string

const (
	PlayModeSequential PlayMode = "sequence"
	PlayModeRandom     PlayMode = "random"
	PlayModeSingleLoop PlayMode = "loop"
)

// DefaultPlayMode is used when nothing was persisted.
const DefaultPlayMode = PlayModeSequential

// ParsePlayMode converts a persisted value into a PlayMode.
func ParsePlayMode(s string) (PlayMode, bool) {
	switch PlayMode(s) {
	case PlayModeSequential, PlayModeRandom, PlayModeSingleLoop:
		return PlayMode(s), true
	default:
		return DefaultPlayMode, false
	}
}

// Next cycles sequence -> random -> loop -> sequence.
func (m PlayMode) Next() PlayMode {
	switch m {
	case PlayModeSequential:
		return PlayModeRandom
	case PlayModeRandom:
		return PlayModeSingleLoop
	default:
		return PlayModeSequential
	}
}

// Label returns a human readable name.
func (m PlayMode) Label() string {
	switch m {
	case PlayModeRandom:
		return "Shuffle"
	case PlayModeSingleLoop:
		return "Repeat One"
	default:
		return "Sequential"
	}
}

// PlaybackState is the state of the playback controller.
type PlaybackState int

const (
	StateIdle PlaybackState = iota
	StateLoading
	StatePlaying
	StatePaused
	StateEnded
	StateErrored
)

// String returns the string representation of the playback state.
func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// IsActive reports whether audio is being produced.
func (s PlaybackState) IsActive() bool {
	return s == StatePlaying
}

// Theme is the UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme converts a persisted value into a Theme, defaulting to light.
func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), true
	default:
		return ThemeLight, false
	}
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Volume defaults.
const (
	DefaultVolume = 0.8
	MinVolume     = 0.0
	MaxVolume     = 1.0
)

// ClampVolume clamps v into [MinVolume, MaxVolume].
func ClampVolume(v float64) float64 {
	if v < MinVolume {
		return MinVolume
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}

// PlaybackSettings is the persisted part of the playback session.
type PlaybackSettings struct {
	PlayMode          PlayMode
	Volume            float64
	LastNonZeroVolume float64
}

// DefaultPlaybackSettings returns settings used on first launch.
func DefaultPlaybackSettings() PlaybackSettings {
	return PlaybackSettings{
		PlayMode:          DefaultPlayMode,
		Volume:            DefaultVolume,
		LastNonZeroVolume: DefaultVolume,
	}
}

// PlaylistSnapshot is the serialized playlist plus cursor.
type PlaylistSnapshot struct {
	Tracks       []Track
	CurrentIndex int
}

// Snapshot is everything needed to rebuild a session.
type Snapshot struct {
	Playlist PlaylistSnapshot
	Settings PlaybackSettings
	Theme    Theme
}

// PlayerStatus is a read-only view of the playback controller.
type PlayerStatus struct {
	State             PlaybackState
	CurrentIndex      int
	Track             *Track
	Position          time.Duration
	Duration          time.Duration
	Volume            float64
	LastNonZeroVolume float64
	Mode              PlayMode
	Seeking           bool
}

// IsMuted reports whether the volume is zero.
func (s PlayerStatus) IsMuted() bool {
	return s.Volume == 0
}

// MatchType tells which field produced a search hit.
type MatchType string

const (
	MatchTitle  MatchType = "title"
	MatchArtist MatchType = "artist"
	MatchRemote MatchType = "remote"
)

// SearchResult is one ranked search hit. Index is the playlist position.
type SearchResult struct {
	Track Track
	Index int
	Score int
	Match MatchType
}

// SearchSource tells where the results of a search came from.
type SearchSource string

const (
	SearchSourceNone   SearchSource = "none"
	SearchSourceLocal  SearchSource = "local"
	SearchSourceRemote SearchSource = "remote"
)

// SearchResponse is the outcome of one search request.
type SearchResponse struct {
	Query   string
	Results []SearchResult
	Source  SearchSource
	// Message is a user facing note, set when nothing was found or the remote lookup failed.
	Message string
	// Stale is true when a newer search superseded this one before it completed.
	Stale bool
}

// SuggestionKind tells whether a suggestion came from history or the playlist.
type SuggestionKind string

const (
	SuggestionHistory SuggestionKind = "history"
	SuggestionSong    SuggestionKind = "song"
)

// Suggestion is one entry of the search box dropdown.
// Index is the playlist position for song suggestions and -1 otherwise.
type Suggestion struct {
	Text  string
	Kind  SuggestionKind
	Index int
}

// RemoteTrack is a result returned by the remote catalog.
type RemoteTrack struct {
	Name       string
	ArtistName string
	AudioURL   string
	ImageURL   string
}

// ToTrack converts a catalog result into a playlist track.
func (r RemoteTrack) ToTrack() Track {
	cover := Locator(r.ImageURL)
	if cover == "" {
		cover = RemoteCover
	}
	return NormalizeTrack(Track{
		Title:  r.Name,
		Artist: r.ArtistName,
		Source: Locator(r.AudioURL),
		Cover:  cover,
		Origin: RemoteOrigin(),
	})
}

// FileHandle describes a user supplied file before ingestion.
type FileHandle struct {
	Name string
	Size int64
	// Type is the MIME type, empty when unknown.
	Type string
	// Path is the readable location on disk.
	Path string
}

// IngestResult summarizes one ingestion batch.
type IngestResult struct {
	Added      []Track
	Duplicates int
	Rejected   int
}

// ProbeReport summarizes one duration probing pass.
type ProbeReport struct {
	Resolved int
	Failed   int
}

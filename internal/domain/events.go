// Package domain defines events for the event-driven architecture.
// Services publish events on the bus and render adapters subscribe to them.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventTrackLoaded          EventType = "track.loaded"
	EventTrackProgress        EventType = "track.progress"
	EventTrackEnded           EventType = "track.ended"
	EventTrackError           EventType = "track.error"
	EventPlaybackStateChanged EventType = "playback.state_changed"

	// Volume and mode events
	EventVolumeChanged   EventType = "volume.changed"
	EventPlayModeChanged EventType = "playmode.changed"

	// Playlist events
	EventPlaylistChanged EventType = "playlist.changed"
	EventTracksAdded     EventType = "playlist.tracks_added"
	EventProbeCompleted  EventType = "playlist.probe_completed"

	// Search events
	EventSearchResults EventType = "search.results"

	// Preference events
	EventThemeChanged EventType = "theme.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// EventFilter decides whether a handler should receive an event.
type EventFilter func(event Event) bool

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackLoadedEvent is published when a track is handed to the media element.
type TrackLoadedEvent struct {
	baseEvent
	Track Track
	Index int
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track Track, index int) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
	}
}

// TrackProgressEvent is published periodically during playback and after seeks.
type TrackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration // zero when unknown
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType {
	return EventTrackProgress
}

// Fraction returns the position as a fraction of the duration, or 0 when the duration is unknown.
func (e TrackProgressEvent) Fraction() float64 {
	if e.Duration <= 0 {
		return 0
	}
	f := float64(e.Position) / float64(e.Duration)
	if f > 1 {
		return 1
	}
	return f
}

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(position, duration time.Duration) TrackProgressEvent {
	return TrackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// TrackEndedEvent is published when a track finishes naturally.
type TrackEndedEvent struct {
	baseEvent
	Track Track
	Index int
	Mode  PlayMode
}

// Type returns the event type.
func (e TrackEndedEvent) Type() EventType {
	return EventTrackEnded
}

// NewTrackEndedEvent creates a new TrackEndedEvent.
func NewTrackEndedEvent(track Track, index int, mode PlayMode) TrackEndedEvent {
	return TrackEndedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
		Mode:      mode,
	}
}

// TrackErrorEvent is published when loading or playing a track fails.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Error:     err,
	}
}

// PlaybackStateChangedEvent is published on every controller state transition.
type PlaybackStateChangedEvent struct {
	baseEvent
	State    PlaybackState
	Previous PlaybackState
}

// Type returns the event type.
func (e PlaybackStateChangedEvent) Type() EventType {
	return EventPlaybackStateChanged
}

// NewPlaybackStateChangedEvent creates a new PlaybackStateChangedEvent.
func NewPlaybackStateChangedEvent(state, previous PlaybackState) PlaybackStateChangedEvent {
	return PlaybackStateChangedEvent{
		baseEvent: newBaseEvent(),
		State:     state,
		Previous:  previous,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 // 0.0 to 1.0
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// Muted reports whether the new volume is zero.
func (e VolumeChangedEvent) Muted() bool {
	return e.Volume == 0
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// PlayModeChangedEvent is published when the play mode changes.
type PlayModeChangedEvent struct {
	baseEvent
	Mode PlayMode
}

// Type returns the event type.
func (e PlayModeChangedEvent) Type() EventType {
	return EventPlayModeChanged
}

// NewPlayModeChangedEvent creates a new PlayModeChangedEvent.
func NewPlayModeChangedEvent(mode PlayMode) PlayModeChangedEvent {
	return PlayModeChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
	}
}

// PlaylistChangedEvent is published after every structural playlist change
// and after cursor moves.
type PlaylistChangedEvent struct {
	baseEvent
	Tracks       []Track
	CurrentIndex int
}

// Type returns the event type.
func (e PlaylistChangedEvent) Type() EventType {
	return EventPlaylistChanged
}

// NewPlaylistChangedEvent creates a new PlaylistChangedEvent.
// The caller must hand over a slice it no longer mutates.
func NewPlaylistChangedEvent(tracks []Track, currentIndex int) PlaylistChangedEvent {
	return PlaylistChangedEvent{
		baseEvent:    newBaseEvent(),
		Tracks:       tracks,
		CurrentIndex: currentIndex,
	}
}

// TracksAddedEvent is published after a batch of local files was ingested.
type TracksAddedEvent struct {
	baseEvent
	Tracks     []Track
	Duplicates int
	Rejected   int
}

// Type returns the event type.
func (e TracksAddedEvent) Type() EventType {
	return EventTracksAdded
}

// NewTracksAddedEvent creates a new TracksAddedEvent.
func NewTracksAddedEvent(result IngestResult) TracksAddedEvent {
	return TracksAddedEvent{
		baseEvent:  newBaseEvent(),
		Tracks:     result.Added,
		Duplicates: result.Duplicates,
		Rejected:   result.Rejected,
	}
}

// ProbeCompletedEvent is published once a duration probing pass has joined.
type ProbeCompletedEvent struct {
	baseEvent
	Report ProbeReport
}

// Type returns the event type.
func (e ProbeCompletedEvent) Type() EventType {
	return EventProbeCompleted
}

// NewProbeCompletedEvent creates a new ProbeCompletedEvent.
func NewProbeCompletedEvent(report ProbeReport) ProbeCompletedEvent {
	return ProbeCompletedEvent{
		baseEvent: newBaseEvent(),
		Report:    report,
	}
}

// SearchResultsEvent is published when a search completes or results are cleared.
// An empty Query means the results were cleared.
type SearchResultsEvent struct {
	baseEvent
	Response SearchResponse
}

// Type returns the event type.
func (e SearchResultsEvent) Type() EventType {
	return EventSearchResults
}

// NewSearchResultsEvent creates a new SearchResultsEvent.
func NewSearchResultsEvent(response SearchResponse) SearchResultsEvent {
	return SearchResultsEvent{
		baseEvent: newBaseEvent(),
		Response:  response,
	}
}

// ThemeChangedEvent is published when the theme is switched.
type ThemeChangedEvent struct {
	baseEvent
	Theme Theme
}

// Type returns the event type.
func (e ThemeChangedEvent) Type() EventType {
	return EventThemeChanged
}

// NewThemeChangedEvent creates a new ThemeChangedEvent.
func NewThemeChangedEvent(theme Theme) ThemeChangedEvent {
	return ThemeChangedEvent{
		baseEvent: newBaseEvent(),
		Theme:     theme,
	}
}

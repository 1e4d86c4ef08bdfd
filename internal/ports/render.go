// Package ports define the render sink interface for view abstraction.
// The presenter forwards bus events to a sink so services never depend on a UI toolkit.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// RenderSink is the minimal contract every front end implements.
//
// Thread-safety: methods are called from whatever goroutine published the
// event. Sinks backed by a UI toolkit must marshal onto their UI thread.
type RenderSink interface {
	OnPlaylistChanged(tracks []domain.Track, currentIndex int)
	OnPlaybackStateChanged(state domain.PlaybackState)
	OnProgress(currentTime, duration time.Duration)
	OnVolumeChanged(volume float64)
	OnSearchResults(results []domain.SearchResult, query string)
}

// TrackSink is implemented by sinks that show the loaded track.
type TrackSink interface {
	OnTrackLoaded(track domain.Track, index int)
}

// PlayModeSink is implemented by sinks that show the play mode.
type PlayModeSink interface {
	OnPlayModeChanged(mode domain.PlayMode)
}

// ThemeSink is implemented by sinks that can switch color schemes.
type ThemeSink interface {
	OnThemeChanged(theme domain.Theme)
}

// NotificationSink is implemented by sinks that can show transient messages.
type NotificationSink interface {
	OnNotification(message string)
}

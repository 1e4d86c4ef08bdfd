package domain

import "time"

// MediaEventType identifies a notification raised by the media element.
type MediaEventType int

const (
	MediaLoadedMetadata MediaEventType = iota
	MediaTimeUpdate
	MediaEnded
	MediaPlay
	MediaPause
	MediaErrorEvent
	MediaVolumeChange
)

// String returns the string representation of the media event type.
func (t MediaEventType) String() string {
	switch t {
	case MediaLoadedMetadata:
		return "loadedmetadata"
	case MediaTimeUpdate:
		return "timeupdate"
	case MediaEnded:
		return "ended"
	case MediaPlay:
		return "play"
	case MediaPause:
		return "pause"
	case MediaErrorEvent:
		return "error"
	case MediaVolumeChange:
		return "volumechange"
	default:
		return "unknown"
	}
}

// MediaEvent is delivered by a media element on its event channel.
// Source is the locator the element held when the event was raised,
// so consumers can drop events that belong to a previous source.
type MediaEvent struct {
	Type     MediaEventType
	Source   Locator
	Position time.Duration
	Duration time.Duration
	Volume   float64
	Err      error
}

// Package ports define the media element interface that abstracts the native playback primitive.
// This allows swapping the audio backend (beep, mock) without changing the playback controller.
package ports

import (
	"context"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// MediaElement is a single-source playback primitive.
//
// The element owns at most one source at a time. State changes it makes on its
// own (reaching the end, failing to decode) are reported on the Events channel.
//
// Thread-safety: Implementations must be thread-safe.
type MediaElement interface {
	// SetSource replaces the current source without decoding it.
	// An empty locator detaches the element.
	SetSource(src domain.Locator) error

	// Load opens the current source. When metadata is available a
	// MediaLoadedMetadata event is raised; failures raise MediaErrorEvent.
	Load() error

	// Play starts or resumes output. It may be rejected, in which case the
	// returned error wraps domain.ErrPlaybackRejected.
	Play(ctx context.Context) error

	// Pause halts output, keeping the position.
	Pause() error

	// CurrentTime returns the playback offset.
	CurrentTime() time.Duration

	// SetCurrentTime seeks to an absolute offset.
	SetCurrentTime(position time.Duration) error

	// Duration returns the source length. ok is false until metadata is known.
	Duration() (duration time.Duration, ok bool)

	// Volume returns the output volume in [0,1].
	Volume() float64

	// SetVolume sets the output volume in [0,1].
	SetVolume(volume float64) error

	// Events returns the channel that carries element notifications.
	// The channel is closed by Close.
	Events() <-chan domain.MediaEvent

	// Close releases the element.
	Close() error
}

// DurationProber resolves the length of a source without playing it.
type DurationProber interface {
	// Probe returns the duration of src. It must honor ctx cancellation.
	Probe(ctx context.Context, src domain.Locator) (time.Duration, error)
}

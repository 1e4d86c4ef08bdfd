// Package mock provides an in-memory media element and duration prober.
// They simulate playback without producing audio and let tests drive media events.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// DefaultDuration is reported for sources without a configured duration.
const DefaultDuration = 3 * time.Minute

const eventBuffer = 256

// Element is a mock implementation of ports.MediaElement.
//
// Thread-safety: This implementation is thread-safe.
type Element struct {
	// Dependencies
	logger *slog.Logger

	// Media state
	source   domain.Locator
	loaded   bool
	playing  bool
	position time.Duration
	duration time.Duration
	known    bool
	volume   float64

	// Behavior configuration (for testing error scenarios)
	durations        map[domain.Locator]time.Duration
	failLoad         bool
	failPlay         bool
	withholdMetadata bool

	// Call counters
	loadCalls int
	playCalls int

	events  chan domain.MediaEvent
	dropped int
	closed  bool
	mu      sync.Mutex
}

// NewElement creates a new mock media element. logger may be nil.
func NewElement(logger *slog.Logger) *Element {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Element{
		logger:    logger.With(slog.String("engine", "mock")),
		volume:    1.0,
		durations: make(map[domain.Locator]time.Duration),
		events:    make(chan domain.MediaEvent, eventBuffer),
	}
}

// SetDuration configures the duration reported for src.
func (m *Element) SetDuration(src domain.Locator, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[src] = d
}

// SetFailLoad makes Load fail with a decode error.
func (m *Element) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay makes Play reject.
func (m *Element) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetWithholdMetadata keeps the duration unknown after Load until EmitMetadata is called.
func (m *Element) SetWithholdMetadata(withhold bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.withholdMetadata = withhold
}

// emit queues an event without blocking. Must be called with mu held.
func (m *Element) emit(ev domain.MediaEvent) {
	if m.closed {
		return
	}
	if ev.Source == "" {
		ev.Source = m.source
	}
	select {
	case m.events <- ev:
	default:
		m.dropped++
		m.logger.Warn("media event dropped", slog.String("type", ev.Type.String()))
	}
}

// SetSource replaces the current source.
func (m *Element) SetSource(src domain.Locator) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrClosed
	}

	m.source = src
	m.loaded = false
	m.playing = false
	m.position = 0
	m.duration = 0
	m.known = false
	return nil
}

// Load simulates opening the source.
func (m *Element) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loadCalls++

	if m.closed {
		return domain.ErrClosed
	}
	if m.source == "" {
		return domain.ErrNoSource
	}

	if m.failLoad {
		err := domain.NewMediaError("load", m.source, fmt.Errorf("%w: mock load failed", domain.ErrDecodeOrNetwork))
		m.emit(domain.MediaEvent{Type: domain.MediaErrorEvent, Err: err})
		return err
	}

	m.loaded = true
	m.position = 0
	m.duration = DefaultDuration
	if d, ok := m.durations[m.source]; ok {
		m.duration = d
	}

	if !m.withholdMetadata {
		m.known = true
		m.emit(domain.MediaEvent{Type: domain.MediaLoadedMetadata, Duration: m.duration})
	}
	return nil
}

// EmitMetadata reports the duration of the loaded source, used with SetWithholdMetadata.
func (m *Element) EmitMetadata() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return
	}
	m.known = true
	m.emit(domain.MediaEvent{Type: domain.MediaLoadedMetadata, Duration: m.duration})
}

// Play starts simulated playback.
func (m *Element) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.playCalls++

	if m.closed {
		return domain.ErrClosed
	}
	if !m.loaded {
		return domain.ErrNoSource
	}
	if m.failPlay {
		return domain.NewMediaError("play", m.source, domain.ErrPlaybackRejected)
	}

	if !m.playing {
		m.playing = true
		m.emit(domain.MediaEvent{Type: domain.MediaPlay, Position: m.position})
	}
	return nil
}

// Pause stops simulated playback.
func (m *Element) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.playing {
		m.playing = false
		m.emit(domain.MediaEvent{Type: domain.MediaPause, Position: m.position})
	}
	return nil
}

// CurrentTime returns the simulated position.
func (m *Element) CurrentTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// SetCurrentTime seeks within the loaded source.
func (m *Element) SetCurrentTime(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return domain.ErrNoSource
	}
	m.position = max(0, min(position, m.duration))
	m.emit(domain.MediaEvent{Type: domain.MediaTimeUpdate, Position: m.position, Duration: m.duration})
	return nil
}

// Duration returns the duration once metadata is known.
func (m *Element) Duration() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.known {
		return 0, false
	}
	return m.duration, true
}

// Volume returns the output volume.
func (m *Element) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// SetVolume sets the output volume.
func (m *Element) SetVolume(volume float64) error {
	if math.IsNaN(volume) || volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.volume != volume {
		m.volume = volume
		m.emit(domain.MediaEvent{Type: domain.MediaVolumeChange, Volume: volume})
	}
	return nil
}

// Advance moves a playing source forward by d, raising timeupdate or ended.
func (m *Element) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.playing {
		return
	}
	m.position += d
	if m.position >= m.duration {
		m.position = m.duration
		m.playing = false
		m.emit(domain.MediaEvent{Type: domain.MediaEnded, Position: m.position, Duration: m.duration})
		return
	}
	m.emit(domain.MediaEvent{Type: domain.MediaTimeUpdate, Position: m.position, Duration: m.duration})
}

// Finish jumps to the end of the source and raises ended.
func (m *Element) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return
	}
	m.position = m.duration
	m.playing = false
	m.emit(domain.MediaEvent{Type: domain.MediaEnded, Position: m.position, Duration: m.duration})
}

// Fail raises an error event as if the source stopped decoding.
func (m *Element) Fail(cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playing = false
	err := domain.NewMediaError("decode", m.source, fmt.Errorf("%w: %v", domain.ErrDecodeOrNetwork, cause))
	m.emit(domain.MediaEvent{Type: domain.MediaErrorEvent, Err: err})
}

// Events returns the event channel.
func (m *Element) Events() <-chan domain.MediaEvent {
	return m.events
}

// Close closes the event channel. Further calls are no-ops.
func (m *Element) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.playing = false
	close(m.events)
	return nil
}

// Source returns the current source.
func (m *Element) Source() domain.Locator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

// IsPlaying reports whether simulated output is running.
func (m *Element) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// LoadCalls returns how many times Load was called.
func (m *Element) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// PlayCalls returns how many times Play was called.
func (m *Element) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

var _ ports.MediaElement = (*Element)(nil)

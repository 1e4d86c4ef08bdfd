package beepaudio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Config holds element settings.
type Config struct {
	SampleRate  int
	BufferSize  time.Duration
	AssetsDir   string
	HTTPTimeout time.Duration
}

// DefaultConfig returns CD quality output with a 100ms buffer.
func DefaultConfig() Config {
	return Config{
		SampleRate:  44100,
		BufferSize:  100 * time.Millisecond,
		HTTPTimeout: 30 * time.Second,
	}
}

const eventBuffer = 64

// Element is a ports.MediaElement that plays through the system speaker.
//
// The beep speaker is process-wide, so only one Element should exist at a time.
//
// Lock order: mu, then the speaker lock. The end-of-stream callback runs under
// the speaker lock and therefore never touches mu.
type Element struct {
	// Dependencies
	logger *slog.Logger
	opener *opener

	// Configuration
	sampleRate beep.SampleRate
	bufferSize time.Duration

	// State
	source      domain.Locator
	current     *decoded
	ctrl        *beep.Ctrl
	volumeFx    *effects.Volume
	volume      float64
	speakerInit bool

	// generation invalidates end callbacks of replaced sources.
	generation atomic.Uint64
	// drained is set once the speaker has dropped the finished stream.
	drained atomic.Bool
	closed  atomic.Bool

	events chan domain.MediaEvent
	mu     sync.Mutex
}

// NewElement creates a speaker backed element. resolver maps transient locators to paths.
func NewElement(logger *slog.Logger, resolver ports.LocatorResolver, cfg Config) *Element {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultConfig().HTTPTimeout
	}

	return &Element{
		logger: logger.With(slog.String("engine", "beep")),
		opener: &opener{
			resolver:  resolver,
			client:    &http.Client{Timeout: cfg.HTTPTimeout},
			assetsDir: cfg.AssetsDir,
		},
		sampleRate: beep.SampleRate(cfg.SampleRate),
		bufferSize: cfg.BufferSize,
		volume:     domain.MaxVolume,
		events:     make(chan domain.MediaEvent, eventBuffer),
	}
}

// emit queues an event without blocking.
func (e *Element) emit(ev domain.MediaEvent) {
	if e.closed.Load() {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.logger.Warn("media event dropped", slog.String("type", ev.Type.String()))
	}
}

func (e *Element) initSpeaker() error {
	if e.speakerInit {
		return nil
	}
	if err := speaker.Init(e.sampleRate, e.sampleRate.N(e.bufferSize)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	e.speakerInit = true
	e.logger.Debug("speaker initialized", slog.Int("sample_rate", int(e.sampleRate)))
	return nil
}

// release stops output and closes the current stream. Must be called with mu held.
func (e *Element) release() {
	e.generation.Add(1)
	if e.speakerInit {
		speaker.Clear()
	}
	if e.current != nil {
		if err := e.current.Close(); err != nil {
			e.logger.Debug("failed to close stream", slog.Any("error", err))
		}
	}
	e.current = nil
	e.drained.Store(false)
	e.ctrl = nil
	e.volumeFx = nil
}

// SetSource replaces the current source and stops output.
func (e *Element) SetSource(src domain.Locator) error {
	if e.closed.Load() {
		return domain.ErrClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.release()
	e.source = src
	return nil
}

// Load decodes the current source and queues it paused on the speaker.
func (e *Element) Load() error {
	if e.closed.Load() {
		return domain.ErrClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	src := e.source
	if src == "" {
		return domain.ErrNoSource
	}
	e.release()

	fail := func(err error) error {
		e.logger.Warn("failed to load source", slog.String("source", src.String()), slog.Any("error", err))
		e.emit(domain.MediaEvent{Type: domain.MediaErrorEvent, Source: src, Err: err})
		return err
	}

	if err := e.initSpeaker(); err != nil {
		return fail(domain.NewMediaError("load", src, err))
	}

	d, err := e.opener.open(context.Background(), src)
	if err != nil {
		return fail(err)
	}

	e.current = d
	e.arm(src, e.resampled(d))

	if n := d.streamer.Len(); n > 0 {
		e.emit(domain.MediaEvent{Type: domain.MediaLoadedMetadata, Source: src, Duration: d.format.SampleRate.D(n)})
	}
	return nil
}

func (e *Element) resampled(d *decoded) beep.Streamer {
	if d.format.SampleRate == e.sampleRate {
		return d.streamer
	}
	return beep.Resample(4, d.format.SampleRate, e.sampleRate, d.streamer)
}

// arm queues stream paused on the speaker behind a fresh control and volume
// chain. Must be called with mu held.
func (e *Element) arm(src domain.Locator, stream beep.Streamer) {
	d := e.current
	gen := e.generation.Add(1)
	e.drained.Store(false)

	ctrl := &beep.Ctrl{Streamer: beep.Seq(stream, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker lock held.
		if e.generation.Load() != gen {
			return
		}
		e.drained.Store(true)
		if err := d.streamer.Err(); err != nil {
			streamErr := domain.NewMediaError("decode", src, fmt.Errorf("%w: %v", domain.ErrDecodeOrNetwork, err))
			e.emit(domain.MediaEvent{Type: domain.MediaErrorEvent, Source: src, Err: streamErr})
			return
		}
		e.emit(domain.MediaEvent{Type: domain.MediaEnded, Source: src})
	})), Paused: true}
	volumeFx := &effects.Volume{Streamer: ctrl, Base: 2}
	applyVolume(volumeFx, e.volume)

	e.ctrl = ctrl
	e.volumeFx = volumeFx
	speaker.Play(volumeFx)
}

// rearm puts a drained stream back on the speaker, rewound when it sits at
// the end. Must be called with mu held.
func (e *Element) rearm() error {
	if !e.drained.Load() {
		return nil
	}
	speaker.Lock()
	var err error
	if length := e.current.streamer.Len(); length <= 0 || e.current.streamer.Position() >= length {
		err = e.current.streamer.Seek(0)
	}
	speaker.Unlock()
	if err != nil {
		return domain.NewMediaError("rewind", e.source, err)
	}
	e.arm(e.source, e.resampled(e.current))
	return nil
}

// Play resumes output.
func (e *Element) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return domain.NewMediaError("play", e.source, fmt.Errorf("%w: %w", domain.ErrPlaybackRejected, domain.ErrNoSource))
	}
	if err := e.rearm(); err != nil {
		return err
	}

	speaker.Lock()
	e.ctrl.Paused = false
	pos := e.current.format.SampleRate.D(e.current.streamer.Position())
	speaker.Unlock()

	e.emit(domain.MediaEvent{Type: domain.MediaPlay, Source: e.source, Position: pos})
	return nil
}

// Pause halts output.
func (e *Element) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return nil
	}

	speaker.Lock()
	wasPlaying := !e.ctrl.Paused
	e.ctrl.Paused = true
	pos := e.current.format.SampleRate.D(e.current.streamer.Position())
	speaker.Unlock()

	if wasPlaying {
		e.emit(domain.MediaEvent{Type: domain.MediaPause, Source: e.source, Position: pos})
	}
	return nil
}

// CurrentTime returns the playback offset.
func (e *Element) CurrentTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return e.current.format.SampleRate.D(e.current.streamer.Position())
}

// SetCurrentTime seeks to position, clamped to the stream bounds.
func (e *Element) SetCurrentTime(position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return domain.ErrNoSource
	}

	speaker.Lock()
	n := e.current.format.SampleRate.N(position)
	if length := e.current.streamer.Len(); length > 0 && n >= length {
		n = length - 1
	}
	err := e.current.streamer.Seek(max(n, 0))
	speaker.Unlock()

	if err != nil {
		return domain.NewMediaError("seek", e.source, err)
	}
	if err := e.rearm(); err != nil {
		return err
	}
	e.emit(domain.MediaEvent{Type: domain.MediaTimeUpdate, Source: e.source, Position: position})
	return nil
}

// Duration returns the stream length once it is known.
func (e *Element) Duration() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return 0, false
	}
	n := e.current.streamer.Len()
	if n <= 0 {
		return 0, false
	}
	return e.current.format.SampleRate.D(n), true
}

// Volume returns the output volume.
func (e *Element) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// SetVolume maps v in [0,1] onto the logarithmic volume effect. 0 silences output.
func (e *Element) SetVolume(v float64) error {
	if math.IsNaN(v) || v < domain.MinVolume || v > domain.MaxVolume {
		return domain.ErrInvalidVolume
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.volume = v
	if e.volumeFx != nil {
		speaker.Lock()
		applyVolume(e.volumeFx, v)
		speaker.Unlock()
	}
	e.emit(domain.MediaEvent{Type: domain.MediaVolumeChange, Source: e.source, Volume: v})
	return nil
}

func applyVolume(fx *effects.Volume, v float64) {
	if v <= 0 {
		fx.Silent = true
		return
	}
	fx.Silent = false
	fx.Volume = math.Log2(v)
}

// Events returns the event channel.
func (e *Element) Events() <-chan domain.MediaEvent {
	return e.events
}

// Close stops output and closes the event channel.
func (e *Element) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return nil
	}
	e.release()
	e.closed.Store(true)
	close(e.events)
	return nil
}

var _ ports.MediaElement = (*Element)(nil)

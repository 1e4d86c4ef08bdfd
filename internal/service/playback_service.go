// Package service provides business logic for tunedeck.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// DefaultProgressInterval is how often progress is published while playing.
const DefaultProgressInterval = 250 * time.Millisecond

// PlaybackOptions tunes the playback service.
type PlaybackOptions struct {
	// ProgressInterval is the polling period while playing. Zero disables polling.
	ProgressInterval time.Duration
	// Rand drives random play mode. Nil uses a time seeded source.
	Rand *rand.Rand
}

// DefaultPlaybackOptions returns the options used by the application.
func DefaultPlaybackOptions() PlaybackOptions {
	return PlaybackOptions{ProgressInterval: DefaultProgressInterval}
}

// PlaybackService is the playback state machine. It drives one media element,
// advances the playlist cursor and owns volume and play mode.
//
// Lock order: PlaybackService.mu, then PlaylistService.mu. Events are queued
// while the lock is held and published after it is released.
type PlaybackService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	element  ports.MediaElement
	playlist *PlaylistService
	prefs    ports.PreferencesRepository
	bus      ports.EventBus

	// State
	state           domain.PlaybackState
	loaded          domain.Track
	hasLoaded       bool
	mode            domain.PlayMode
	volume          float64
	lastNonZero     float64
	seeking         bool
	resumeAfterSeek bool
	rng             *rand.Rand
	outbox          []domain.Event

	// Concurrency control
	mu               sync.Mutex
	progressInterval time.Duration
	pollStop         chan struct{}
	loopStop         chan struct{}
	wg               sync.WaitGroup
	closed           bool
}

// NewPlaybackService creates a new playback service and starts consuming
// element events. Call Shutdown to stop it.
func NewPlaybackService(
	logger *slog.Logger,
	element ports.MediaElement,
	playlist *PlaylistService,
	prefs ports.PreferencesRepository,
	bus ports.EventBus,
	opts PlaybackOptions,
) *PlaybackService {
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>3))
	}

	s := &PlaybackService{
		logger:           logger,
		element:          element,
		playlist:         playlist,
		prefs:            prefs,
		bus:              bus,
		state:            domain.StateIdle,
		mode:             domain.DefaultPlayMode,
		volume:           domain.DefaultVolume,
		lastNonZero:      domain.DefaultVolume,
		rng:              rng,
		progressInterval: opts.ProgressInterval,
		loopStop:         make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run(element.Events())

	logger.Debug("playback service initialized")
	return s
}

// run consumes element events until shutdown or until the channel closes.
func (s *PlaybackService) run(events <-chan domain.MediaEvent) {
	defer s.wg.Done()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.HandleMediaEvent(ev)
		case <-s.loopStop:
			return
		}
	}
}

// emit queues an event. Must be called with mu held.
func (s *PlaybackService) emit(ev domain.Event) {
	if ev != nil {
		s.outbox = append(s.outbox, ev)
	}
}

// unlockAndFlush releases mu and publishes queued events.
func (s *PlaybackService) unlockAndFlush() {
	events := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	for _, ev := range events {
		s.bus.Publish(ev)
	}
}

func (s *PlaybackService) setStateLocked(state domain.PlaybackState) {
	if s.state == state {
		return
	}
	previous := s.state
	s.state = state
	s.logger.Debug("playback state changed",
		slog.String("from", previous.String()),
		slog.String("to", state.String()))
	s.emit(domain.NewPlaybackStateChangedEvent(state, previous))
}

// failLocked moves to errored and reports err. Errors are never retried.
func (s *PlaybackService) failLocked(track domain.Track, err error) {
	if s.state == domain.StateErrored {
		return
	}
	s.stopPollingLocked()
	s.setStateLocked(domain.StateErrored)
	s.logger.Warn("track failed", slog.String("title", track.Title), slog.String("source", track.Source.String()), slog.Any("error", err))
	s.emit(domain.NewTrackErrorEvent(track, err))
}

// LoadSong hands the track at index to the element without starting playback.
// It is a no-op on an empty playlist.
func (s *PlaybackService) LoadSong(index int) error {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.playlist.Len() == 0 {
		return nil
	}
	return s.loadLocked(index)
}

func (s *PlaybackService) loadLocked(index int) error {
	track, err := s.playlist.Track(index)
	if err != nil {
		return err
	}
	ev, err := s.playlist.setCurrent(index)
	if err != nil {
		return err
	}
	s.emit(ev)

	s.stopPollingLocked()
	s.loaded = track
	s.hasLoaded = true
	s.seeking = false
	s.resumeAfterSeek = false
	s.state = domain.StateIdle
	s.setStateLocked(domain.StateLoading)
	s.emit(domain.NewTrackLoadedEvent(track, index))
	s.emit(domain.NewTrackProgressEvent(0, track.Duration))

	s.logger.Debug("loading track", slog.Int("index", index), slog.String("title", track.Title))

	if err := s.element.SetSource(track.Source); err != nil {
		s.failLocked(track, err)
		return err
	}
	if err := s.element.Load(); err != nil {
		s.failLocked(track, err)
		return err
	}
	return nil
}

// Play starts the current track, loading it first when the element holds
// something else. A rejected start leaves the controller paused and returns
// an error wrapping domain.ErrPlaybackRejected.
func (s *PlaybackService) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlockAndFlush()
	return s.playLocked(ctx)
}

func (s *PlaybackService) playLocked(ctx context.Context) error {
	track, index, ok := s.playlist.Current()
	if !ok {
		return nil
	}

	if !s.hasLoaded || s.loaded.ID != track.ID || s.state == domain.StateIdle || s.state == domain.StateErrored {
		if err := s.loadLocked(index); err != nil {
			return err
		}
	}

	if err := s.element.Play(ctx); err != nil {
		if !errors.Is(err, domain.ErrPlaybackRejected) {
			err = fmt.Errorf("%w: %w", domain.ErrPlaybackRejected, err)
		}
		s.stopPollingLocked()
		s.setStateLocked(domain.StatePaused)
		s.logger.Warn("playback rejected", slog.String("title", track.Title), slog.Any("error", err))
		s.emit(domain.NewTrackErrorEvent(track, err))
		return err
	}

	s.setStateLocked(domain.StatePlaying)
	s.startPollingLocked()
	return nil
}

// Pause halts playback, keeping the position.
func (s *PlaybackService) Pause() error {
	s.mu.Lock()
	defer s.unlockAndFlush()
	return s.pauseLocked()
}

func (s *PlaybackService) pauseLocked() error {
	s.stopPollingLocked()
	if !s.hasLoaded {
		return nil
	}
	if err := s.element.Pause(); err != nil {
		return err
	}
	if s.state == domain.StatePlaying || s.state == domain.StateLoading {
		s.setStateLocked(domain.StatePaused)
	}
	return nil
}

// TogglePlay pauses when playing and plays otherwise.
func (s *PlaybackService) TogglePlay(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.state == domain.StatePlaying {
		return s.pauseLocked()
	}
	return s.playLocked(ctx)
}

// Next plays the following track: a random one in random mode, otherwise the
// next one, wrapping around.
func (s *PlaybackService) Next(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlockAndFlush()

	n := s.playlist.Len()
	if n == 0 {
		return nil
	}
	current := s.playlist.CurrentIndex()

	target := (current + 1) % n
	if s.mode == domain.PlayModeRandom {
		target = s.randomIndexLocked(current, n)
	}
	return s.switchLocked(ctx, target)
}

// Previous plays the preceding track, wrapping around. The play mode is ignored.
func (s *PlaybackService) Previous(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlockAndFlush()

	n := s.playlist.Len()
	if n == 0 {
		return nil
	}
	current := s.playlist.CurrentIndex()
	return s.switchLocked(ctx, (current-1+n)%n)
}

// PlayIndex loads and plays the track at index.
func (s *PlaybackService) PlayIndex(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.unlockAndFlush()
	return s.switchLocked(ctx, index)
}

func (s *PlaybackService) switchLocked(ctx context.Context, index int) error {
	if err := s.loadLocked(index); err != nil {
		return err
	}
	return s.playLocked(ctx)
}

// randomIndexLocked picks uniformly among all indices except current.
// With a single track the current index is returned.
func (s *PlaybackService) randomIndexLocked(current, n int) int {
	if n <= 1 {
		return current
	}
	i := s.rng.IntN(n - 1)
	if i >= current {
		i++
	}
	return i
}

// handleEndedLocked applies the play mode when a track finishes.
func (s *PlaybackService) handleEndedLocked(ctx context.Context) {
	track := s.loaded
	current := s.playlist.CurrentIndex()

	s.stopPollingLocked()
	s.setStateLocked(domain.StateEnded)
	s.emit(domain.NewTrackEndedEvent(track, current, s.mode))

	n := s.playlist.Len()
	if n == 0 {
		return
	}

	var err error
	switch s.mode {
	case domain.PlayModeSingleLoop:
		if err = s.element.SetCurrentTime(0); err == nil {
			s.emit(domain.NewTrackProgressEvent(0, track.Duration))
			err = s.playLocked(ctx)
		}
	case domain.PlayModeRandom:
		err = s.switchLocked(ctx, s.randomIndexLocked(current, n))
	default:
		err = s.switchLocked(ctx, (current+1)%n)
	}
	if err != nil {
		s.logger.Warn("failed to continue after track end", slog.String("mode", string(s.mode)), slog.Any("error", err))
	}
}

// HandleMediaEvent applies one element notification. Events raised for a
// source other than the loaded one are ignored.
func (s *PlaybackService) HandleMediaEvent(ev domain.MediaEvent) {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.closed || !s.hasLoaded || ev.Source != s.loaded.Source {
		return
	}

	switch ev.Type {
	case domain.MediaLoadedMetadata:
		s.resolveDurationLocked(ev.Duration)
		if !s.seeking {
			s.emit(domain.NewTrackProgressEvent(s.element.CurrentTime(), s.loaded.Duration))
		}

	case domain.MediaTimeUpdate:
		s.resolveDurationLocked(ev.Duration)
		if !s.seeking && s.state == domain.StatePlaying {
			s.emit(domain.NewTrackProgressEvent(ev.Position, s.loaded.Duration))
		}

	case domain.MediaEnded:
		if s.state == domain.StatePlaying {
			s.handleEndedLocked(context.Background())
		}

	case domain.MediaErrorEvent:
		err := ev.Err
		if err == nil {
			err = domain.ErrDecodeOrNetwork
		}
		s.failLocked(s.loaded, err)

	case domain.MediaPlay, domain.MediaPause, domain.MediaVolumeChange:
		// Echoes of calls made by this service; state is already up to date.
		s.logger.Debug("media event", slog.String("type", ev.Type.String()))
	}
}

func (s *PlaybackService) resolveDurationLocked(d time.Duration) {
	if d <= 0 || s.loaded.HasDuration() {
		return
	}
	s.loaded.Duration = d
	s.emit(s.playlist.resolveDuration(s.loaded.ID, d))
}

func (s *PlaybackService) startPollingLocked() {
	if s.pollStop != nil || s.progressInterval <= 0 || s.closed {
		return
	}
	stop := make(chan struct{})
	s.pollStop = stop
	s.wg.Add(1)
	go s.pollProgress(stop)
}

func (s *PlaybackService) stopPollingLocked() {
	if s.pollStop != nil {
		close(s.pollStop)
		s.pollStop = nil
	}
}

func (s *PlaybackService) pollProgress(stop chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.publishProgress()
		}
	}
}

func (s *PlaybackService) publishProgress() {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.seeking || s.state != domain.StatePlaying {
		return
	}
	if d, ok := s.element.Duration(); ok {
		s.resolveDurationLocked(d)
	}
	s.emit(domain.NewTrackProgressEvent(s.element.CurrentTime(), s.loaded.Duration))
}

// SetProgress seeks to fraction of the track length. NaN and an unknown
// duration make it a no-op; other values are clamped into [0,1].
func (s *PlaybackService) SetProgress(fraction float64) error {
	s.mu.Lock()
	defer s.unlockAndFlush()
	return s.setProgressLocked(fraction)
}

func (s *PlaybackService) setProgressLocked(fraction float64) error {
	if math.IsNaN(fraction) || !s.hasLoaded {
		return nil
	}
	duration, ok := s.element.Duration()
	if !ok || duration <= 0 {
		return nil
	}

	fraction = max(0, min(fraction, 1))
	position := time.Duration(fraction * float64(duration))
	if err := s.element.SetCurrentTime(position); err != nil {
		return err
	}
	s.emit(domain.NewTrackProgressEvent(position, duration))
	return nil
}

// BeginSeek starts a drag on the progress bar. Polling is suspended and output
// paused until EndSeek.
func (s *PlaybackService) BeginSeek() {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.seeking {
		return
	}
	s.seeking = true
	s.resumeAfterSeek = s.state == domain.StatePlaying
	s.stopPollingLocked()
	if s.resumeAfterSeek {
		if err := s.element.Pause(); err != nil {
			s.logger.Warn("failed to pause for seek", slog.Any("error", err))
		}
		s.setStateLocked(domain.StatePaused)
	}
}

// UpdateSeek moves the position while dragging.
func (s *PlaybackService) UpdateSeek(fraction float64) error {
	return s.SetProgress(fraction)
}

// EndSeek finishes a drag, whether the pointer was released on the bar or left
// it. Playback resumes if it was running when the drag began.
func (s *PlaybackService) EndSeek(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if !s.seeking {
		return nil
	}
	s.seeking = false
	if !s.resumeAfterSeek {
		return nil
	}
	s.resumeAfterSeek = false
	return s.playLocked(ctx)
}

// SetVolume clamps v into [0,1], applies and persists it. A positive value is
// also remembered as the level to restore when unmuting.
func (s *PlaybackService) SetVolume(v float64) error {
	if math.IsNaN(v) {
		return domain.NewValidationError("volume", v, "must be a number")
	}

	s.mu.Lock()
	defer s.unlockAndFlush()

	s.setVolumeLocked(domain.ClampVolume(v))
	return nil
}

func (s *PlaybackService) setVolumeLocked(v float64) {
	s.volume = v
	if v > 0 {
		s.lastNonZero = v
	}
	if err := s.element.SetVolume(v); err != nil {
		s.logger.Warn("failed to apply volume", slog.Float64("volume", v), slog.Any("error", err))
	}
	if s.prefs != nil {
		if err := s.prefs.SaveVolume(s.volume, s.lastNonZero); err != nil {
			s.logger.Warn("failed to persist volume", slog.Any("error", err))
		}
	}
	s.emit(domain.NewVolumeChangedEvent(v))
}

// AdjustVolume changes the volume by delta.
func (s *PlaybackService) AdjustVolume(delta float64) error {
	if math.IsNaN(delta) {
		return domain.NewValidationError("volume", delta, "must be a number")
	}

	s.mu.Lock()
	defer s.unlockAndFlush()

	s.setVolumeLocked(domain.ClampVolume(s.volume + delta))
	return nil
}

// ToggleMute switches between silence and the last non-zero volume.
func (s *PlaybackService) ToggleMute() {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.volume > 0 {
		s.lastNonZero = s.volume
		s.setVolumeLocked(0)
		return
	}
	target := s.lastNonZero
	if target <= 0 {
		target = domain.DefaultVolume
	}
	s.setVolumeLocked(target)
}

// SetPlayMode changes and persists the play mode.
func (s *PlaybackService) SetPlayMode(mode domain.PlayMode) error {
	if _, ok := domain.ParsePlayMode(string(mode)); !ok {
		return domain.NewValidationError("playMode", mode, "unknown play mode")
	}

	s.mu.Lock()
	defer s.unlockAndFlush()

	s.setPlayModeLocked(mode)
	return nil
}

// CyclePlayMode advances sequence, random, loop and back, returning the new mode.
func (s *PlaybackService) CyclePlayMode() domain.PlayMode {
	s.mu.Lock()
	defer s.unlockAndFlush()

	mode := s.mode.Next()
	s.setPlayModeLocked(mode)
	return mode
}

func (s *PlaybackService) setPlayModeLocked(mode domain.PlayMode) {
	s.mode = mode
	if s.prefs != nil {
		if err := s.prefs.SavePlayMode(mode); err != nil {
			s.logger.Warn("failed to persist play mode", slog.Any("error", err))
		}
	}
	s.logger.Debug("play mode changed", slog.String("mode", string(mode)))
	s.emit(domain.NewPlayModeChangedEvent(mode))
}

// ApplySettings installs restored settings without persisting them again.
func (s *PlaybackService) ApplySettings(settings domain.PlaybackSettings) {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if mode, ok := domain.ParsePlayMode(string(settings.PlayMode)); ok {
		s.mode = mode
	}
	s.volume = domain.ClampVolume(settings.Volume)
	s.lastNonZero = domain.ClampVolume(settings.LastNonZeroVolume)
	if s.lastNonZero == 0 {
		s.lastNonZero = domain.DefaultVolume
	}
	if err := s.element.SetVolume(s.volume); err != nil {
		s.logger.Warn("failed to apply volume", slog.Any("error", err))
	}
	s.emit(domain.NewVolumeChangedEvent(s.volume))
	s.emit(domain.NewPlayModeChangedEvent(s.mode))
}

// Settings returns the persisted part of the session.
func (s *PlaybackService) Settings() domain.PlaybackSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.PlaybackSettings{
		PlayMode:          s.mode,
		Volume:            s.volume,
		LastNonZeroVolume: s.lastNonZero,
	}
}

// Unload detaches the element and returns to idle.
func (s *PlaybackService) Unload() {
	s.mu.Lock()
	defer s.unlockAndFlush()

	s.stopPollingLocked()
	if s.hasLoaded {
		if err := s.element.Pause(); err != nil {
			s.logger.Debug("failed to pause on unload", slog.Any("error", err))
		}
		if err := s.element.SetSource(""); err != nil {
			s.logger.Debug("failed to detach source", slog.Any("error", err))
		}
	}
	s.hasLoaded = false
	s.loaded = domain.Track{}
	s.seeking = false
	s.resumeAfterSeek = false
	s.setStateLocked(domain.StateIdle)
	s.emit(domain.NewTrackProgressEvent(0, 0))
}

// LoadedTrack returns the track held by the element.
func (s *PlaybackService) LoadedTrack() (domain.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded, s.hasLoaded
}

// State returns the controller state.
func (s *PlaybackService) State() domain.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsPlaying reports whether audio is being produced.
func (s *PlaybackService) IsPlaying() bool {
	return s.State() == domain.StatePlaying
}

// Status returns a snapshot of the controller.
func (s *PlaybackService) Status() domain.PlayerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := domain.PlayerStatus{
		State:             s.state,
		CurrentIndex:      s.playlist.CurrentIndex(),
		Volume:            s.volume,
		LastNonZeroVolume: s.lastNonZero,
		Mode:              s.mode,
		Seeking:           s.seeking,
	}
	if s.hasLoaded {
		track := s.loaded
		status.Track = &track
		status.Position = s.element.CurrentTime()
		status.Duration = track.Duration
		if d, ok := s.element.Duration(); ok {
			status.Duration = d
		}
	}
	return status
}

// Shutdown stops polling and the event loop. It does not close the element.
func (s *PlaybackService) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopPollingLocked()
	s.mu.Unlock()

	close(s.loopStop)
	s.wg.Wait()
	s.logger.Debug("playback service stopped")
}

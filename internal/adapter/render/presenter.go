// Package render bridges the event bus to front ends.
// The Presenter forwards domain events to a ports.RenderSink and turns UI
// commands into Session and service calls.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
	"github.com/tejashwikalptaru/tunedeck/internal/service"
)

// Presenter implements the Presenter pattern (MVP architecture).
//
// Responsibilities:
// - Subscribe to events from the event bus
// - Map domain events to sink updates
// - Translate UI commands to service method calls
//
// Sink methods run on the goroutine that published the event.
type Presenter struct {
	// Dependencies (injected)
	logger  *slog.Logger
	session *service.Session
	bus     ports.EventBus
	sink    ports.RenderSink

	// Optional sink capabilities
	tracks   ports.TrackSink
	modes    ports.PlayModeSink
	themes   ports.ThemeSink
	notifier ports.NotificationSink

	// State
	ctx           context.Context
	cancel        context.CancelFunc
	subscriptions []domain.SubscriptionID

	// Concurrency control
	shutdownOnce sync.Once
}

// NewPresenter subscribes sink to the bus and pushes the current state to it.
func NewPresenter(logger *slog.Logger, session *service.Session, bus ports.EventBus, sink ports.RenderSink) *Presenter {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Presenter{
		logger:  logger.With(slog.String("component", "presenter")),
		session: session,
		bus:     bus,
		sink:    sink,
		ctx:     ctx,
		cancel:  cancel,
	}
	p.tracks, _ = sink.(ports.TrackSink)
	p.modes, _ = sink.(ports.PlayModeSink)
	p.themes, _ = sink.(ports.ThemeSink)
	p.notifier, _ = sink.(ports.NotificationSink)

	p.subscribeToEvents()
	p.syncInitialState()
	return p
}

func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		// Playback events
		domain.EventTrackLoaded:          p.onTrackLoaded,
		domain.EventTrackProgress:        p.onTrackProgress,
		domain.EventTrackError:           p.onTrackError,
		domain.EventPlaybackStateChanged: p.onPlaybackStateChanged,

		// Volume and mode events
		domain.EventVolumeChanged:   p.onVolumeChanged,
		domain.EventPlayModeChanged: p.onPlayModeChanged,

		// Playlist events
		domain.EventPlaylistChanged: p.onPlaylistChanged,
		domain.EventTracksAdded:     p.onTracksAdded,

		// Search and preference events
		domain.EventSearchResults: p.onSearchResults,
		domain.EventThemeChanged:  p.onThemeChanged,
	}

	for eventType, handler := range subscriptions {
		p.subscriptions = append(p.subscriptions, p.bus.Subscribe(eventType, handler))
	}
}

// syncInitialState pushes the state that existed before the sink subscribed.
func (p *Presenter) syncInitialState() {
	playlist := p.session.Playlist()
	p.sink.OnPlaylistChanged(playlist.Tracks(), playlist.CurrentIndex())

	status := p.session.Playback().Status()
	p.sink.OnPlaybackStateChanged(status.State)
	p.sink.OnVolumeChanged(status.Volume)
	p.sink.OnProgress(status.Position, status.Duration)

	if p.tracks != nil && status.Track != nil {
		p.tracks.OnTrackLoaded(*status.Track, status.CurrentIndex)
	}
	if p.modes != nil {
		p.modes.OnPlayModeChanged(status.Mode)
	}
	if p.themes != nil {
		p.themes.OnThemeChanged(p.session.Preferences().Theme())
	}
}

func (p *Presenter) notify(message string) {
	if p.notifier == nil || message == "" {
		return
	}
	p.notifier.OnNotification(message)
}

// Event handlers

func (p *Presenter) onTrackLoaded(event domain.Event) {
	e, ok := event.(domain.TrackLoadedEvent)
	if !ok || p.tracks == nil {
		return
	}
	p.tracks.OnTrackLoaded(e.Track, e.Index)
}

func (p *Presenter) onTrackProgress(event domain.Event) {
	e, ok := event.(domain.TrackProgressEvent)
	if !ok {
		return
	}
	p.sink.OnProgress(e.Position, e.Duration)
}

func (p *Presenter) onTrackError(event domain.Event) {
	e, ok := event.(domain.TrackErrorEvent)
	if !ok {
		return
	}
	p.notify(fmt.Sprintf("Cannot play %s", e.Track.DisplayName()))
}

func (p *Presenter) onPlaybackStateChanged(event domain.Event) {
	e, ok := event.(domain.PlaybackStateChangedEvent)
	if !ok {
		return
	}
	p.sink.OnPlaybackStateChanged(e.State)
}

func (p *Presenter) onVolumeChanged(event domain.Event) {
	e, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}
	p.sink.OnVolumeChanged(e.Volume)
}

func (p *Presenter) onPlayModeChanged(event domain.Event) {
	e, ok := event.(domain.PlayModeChangedEvent)
	if !ok || p.modes == nil {
		return
	}
	p.modes.OnPlayModeChanged(e.Mode)
}

func (p *Presenter) onPlaylistChanged(event domain.Event) {
	e, ok := event.(domain.PlaylistChangedEvent)
	if !ok {
		return
	}
	p.sink.OnPlaylistChanged(e.Tracks, e.CurrentIndex)
}

func (p *Presenter) onTracksAdded(event domain.Event) {
	e, ok := event.(domain.TracksAddedEvent)
	if !ok {
		return
	}
	p.notify(AddedMessage(len(e.Tracks), e.Duplicates, e.Rejected))
}

func (p *Presenter) onSearchResults(event domain.Event) {
	e, ok := event.(domain.SearchResultsEvent)
	if !ok {
		return
	}
	p.sink.OnSearchResults(e.Response.Results, e.Response.Query)
	p.notify(e.Response.Message)
}

func (p *Presenter) onThemeChanged(event domain.Event) {
	e, ok := event.(domain.ThemeChangedEvent)
	if !ok || p.themes == nil {
		return
	}
	p.themes.OnThemeChanged(e.Theme)
}

// AddedMessage summarizes an ingest batch for the user.
func AddedMessage(added, duplicates, rejected int) string {
	var msg string
	switch added {
	case 0:
		msg = "No songs added"
	case 1:
		msg = "Added 1 song"
	default:
		msg = fmt.Sprintf("Added %d songs", added)
	}
	if duplicates > 0 {
		msg += fmt.Sprintf(", %d already in the playlist", duplicates)
	}
	if rejected > 0 {
		msg += fmt.Sprintf(", %d not audio", rejected)
	}
	return msg
}

// fail logs a command error and tells the user.
func (p *Presenter) fail(action string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	p.logger.Error(action+" failed", slog.Any("error", err))
	if errors.Is(err, domain.ErrPlaybackRejected) {
		// Already reported through the track error event.
		return
	}
	p.notify(fmt.Sprintf("%s failed: %v", action, err))
}

// UI command handlers (called by front ends)

// OnPlayClicked toggles between playing and paused.
func (p *Presenter) OnPlayClicked() {
	p.fail("Playback", p.session.Playback().TogglePlay(p.ctx))
}

// OnNextClicked moves to the next track according to the play mode.
func (p *Presenter) OnNextClicked() {
	p.fail("Next track", p.session.Playback().Next(p.ctx))
}

// OnPreviousClicked moves to the previous track.
func (p *Presenter) OnPreviousClicked() {
	p.fail("Previous track", p.session.Playback().Previous(p.ctx))
}

// OnTrackSelected plays the track at index.
func (p *Presenter) OnTrackSelected(index int) {
	p.fail("Playback", p.session.PlayIndex(p.ctx, index))
}

// OnRemoveTrack deletes the track at index.
func (p *Presenter) OnRemoveTrack(index int) {
	p.fail("Remove", p.session.RemoveTrack(p.ctx, index))
}

// OnMoveTrack reorders the playlist.
func (p *Presenter) OnMoveTrack(from, to int) {
	p.fail("Move", p.session.Playlist().Move(from, to))
}

// OnShuffleClicked shuffles the playlist.
func (p *Presenter) OnShuffleClicked() {
	p.session.Playlist().Shuffle()
}

// OnClearPlaylist stops playback and empties the playlist.
func (p *Presenter) OnClearPlaylist() {
	p.session.ClearPlaylist()
}

// OnFilesOpened ingests files picked by the user.
func (p *Presenter) OnFilesOpened(paths []string) domain.IngestResult {
	return p.session.AddFiles(paths)
}

// OnVolumeChanged handles volume slider changes in the 0-100 range.
func (p *Presenter) OnVolumeChanged(percent float64) {
	p.fail("Volume", p.session.Playback().SetVolume(percent/100))
}

// OnVolumeStep nudges the volume by delta in the 0-1 range.
func (p *Presenter) OnVolumeStep(delta float64) {
	p.fail("Volume", p.session.Playback().AdjustVolume(delta))
}

// OnMuteClicked mutes or restores the last audible volume.
func (p *Presenter) OnMuteClicked() {
	p.session.Playback().ToggleMute()
}

// OnPlayModeClicked cycles sequence, random and loop.
func (p *Presenter) OnPlayModeClicked() {
	p.session.Playback().CyclePlayMode()
}

// OnSeekStarted suspends progress updates while the user drags.
func (p *Presenter) OnSeekStarted() {
	p.session.Playback().BeginSeek()
}

// OnSeekChanged previews the drag position as a fraction of the track.
func (p *Presenter) OnSeekChanged(fraction float64) {
	p.fail("Seek", p.session.Playback().UpdateSeek(fraction))
}

// OnSeekEnded commits the drag position.
func (p *Presenter) OnSeekEnded() {
	p.fail("Seek", p.session.Playback().EndSeek(p.ctx))
}

// OnSeekRequested jumps to fraction of the track.
func (p *Presenter) OnSeekRequested(fraction float64) {
	p.fail("Seek", p.session.Playback().SetProgress(fraction))
}

// OnSearch runs a search. It may block on the remote catalog, so front ends
// call it off their UI thread.
func (p *Presenter) OnSearch(query string) domain.SearchResponse {
	return p.session.Search().Search(p.ctx, query)
}

// OnSearchResultSelected plays a search result and clears the results.
func (p *Presenter) OnSearchResultSelected(result domain.SearchResult) {
	p.fail("Playback", p.session.Search().Select(p.ctx, result))
}

// OnSearchCleared drops the current results.
func (p *Presenter) OnSearchCleared() {
	p.session.Search().ClearResults()
}

// Suggestions returns history and song suggestions for query.
func (p *Presenter) Suggestions(query string) []domain.Suggestion {
	return p.session.Search().Suggestions(query)
}

// OnThemeToggled switches between light and dark.
func (p *Presenter) OnThemeToggled() {
	_, err := p.session.Preferences().ToggleTheme()
	p.fail("Theme", err)
}

// Tracks returns the playlist.
func (p *Presenter) Tracks() []domain.Track {
	return p.session.Playlist().Tracks()
}

// Status returns the playback status.
func (p *Presenter) Status() domain.PlayerStatus {
	return p.session.Playback().Status()
}

// Shutdown unsubscribes the sink and cancels running commands.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.cancel()
		for _, id := range p.subscriptions {
			p.bus.Unsubscribe(id)
		}
	})
}

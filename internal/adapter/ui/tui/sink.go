// Package tui is the terminal front end built on Bubble Tea.
//
// Sink collects render updates from the presenter into one snapshot and wakes
// the Bubble Tea program; Model draws the snapshot and sends key presses to
// the presenter.
package tui

import (
	"slices"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

const maxNotifications = 3

// state is everything the view draws.
type state struct {
	tracks        []domain.Track
	current       int
	playback      domain.PlaybackState
	position      time.Duration
	duration      time.Duration
	volume        float64
	results       []domain.SearchResult
	query         string
	loaded        *domain.Track
	mode          domain.PlayMode
	theme         domain.Theme
	notifications []string
}

// stateMsg carries a fresh snapshot into the program.
type stateMsg state

// Sink is a ports.RenderSink that never blocks the publisher. Updates are
// merged into the latest snapshot and the program is woken at most once per
// pending change.
type Sink struct {
	mu      sync.Mutex
	state   state
	changed chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{
		state:   state{mode: domain.DefaultPlayMode, theme: domain.ThemeLight},
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (s *Sink) update(fn func(st *state)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// snapshot copies the current state.
func (s *Sink) snapshot() state {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.notifications = slices.Clone(s.state.notifications)
	return st
}

// wait is a tea.Cmd that delivers the next snapshot, or nil once closed.
func (s *Sink) wait() tea.Msg {
	select {
	case <-s.changed:
		return stateMsg(s.snapshot())
	case <-s.done:
		return nil
	}
}

// Close releases a pending wait.
func (s *Sink) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Sink) OnPlaylistChanged(tracks []domain.Track, currentIndex int) {
	s.update(func(st *state) {
		st.tracks, st.current = tracks, currentIndex
		if len(tracks) == 0 {
			st.loaded = nil
		}
	})
}

func (s *Sink) OnPlaybackStateChanged(playback domain.PlaybackState) {
	s.update(func(st *state) { st.playback = playback })
}

func (s *Sink) OnProgress(currentTime, duration time.Duration) {
	s.update(func(st *state) { st.position, st.duration = currentTime, duration })
}

func (s *Sink) OnVolumeChanged(volume float64) {
	s.update(func(st *state) { st.volume = volume })
}

func (s *Sink) OnSearchResults(results []domain.SearchResult, query string) {
	s.update(func(st *state) { st.results, st.query = results, query })
}

func (s *Sink) OnTrackLoaded(track domain.Track, _ int) {
	s.update(func(st *state) { st.loaded = &track })
}

func (s *Sink) OnPlayModeChanged(mode domain.PlayMode) {
	s.update(func(st *state) { st.mode = mode })
}

func (s *Sink) OnThemeChanged(theme domain.Theme) {
	s.update(func(st *state) { st.theme = theme })
}

func (s *Sink) OnNotification(message string) {
	s.update(func(st *state) {
		st.notifications = append(st.notifications, message)
		if n := len(st.notifications); n > maxNotifications {
			st.notifications = st.notifications[n-maxNotifications:]
		}
	})
}

var (
	_ ports.RenderSink       = (*Sink)(nil)
	_ ports.TrackSink        = (*Sink)(nil)
	_ ports.PlayModeSink     = (*Sink)(nil)
	_ ports.ThemeSink        = (*Sink)(nil)
	_ ports.NotificationSink = (*Sink)(nil)
)

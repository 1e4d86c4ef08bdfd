package render

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/locator"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/media/mock"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/repository/kv"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
	"github.com/tejashwikalptaru/tunedeck/internal/service"
)

// recordingSink remembers the latest value of everything it was told.
type recordingSink struct {
	mu            sync.Mutex
	tracks        []domain.Track
	current       int
	state         domain.PlaybackState
	volume        float64
	query         string
	results       []domain.SearchResult
	loaded        domain.Track
	mode          domain.PlayMode
	theme         domain.Theme
	notifications []string
	progressCalls int
}

func (s *recordingSink) OnPlaylistChanged(tracks []domain.Track, currentIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks, s.current = tracks, currentIndex
}

func (s *recordingSink) OnPlaybackStateChanged(state domain.PlaybackState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *recordingSink) OnProgress(time.Duration, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressCalls++
}

func (s *recordingSink) OnVolumeChanged(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
}

func (s *recordingSink) OnSearchResults(results []domain.SearchResult, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results, s.query = results, query
}

func (s *recordingSink) OnTrackLoaded(track domain.Track, _ int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = track
}

func (s *recordingSink) OnPlayModeChanged(mode domain.PlayMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

func (s *recordingSink) OnThemeChanged(theme domain.Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
}

func (s *recordingSink) OnNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, message)
}

func (s *recordingSink) snapshot() recordingSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recordingSink{
		tracks:        s.tracks,
		current:       s.current,
		state:         s.state,
		volume:        s.volume,
		query:         s.query,
		results:       s.results,
		loaded:        s.loaded,
		mode:          s.mode,
		theme:         s.theme,
		notifications: append([]string(nil), s.notifications...),
		progressCalls: s.progressCalls,
	}
}

type fixture struct {
	bus       *eventbus.SyncEventBus
	element   *mock.Element
	session   *service.Session
	sink      *recordingSink
	presenter *Presenter
}

func newFixture(t *testing.T, seed ...domain.Track) *fixture {
	t.Helper()

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	store := memory.NewStore()
	playlists := kv.NewPlaylistRepository(store)
	prefs := kv.NewPreferencesRepository(store)
	locators := locator.NewRegistry()
	element := mock.NewElement(log)

	playlist := service.NewPlaylistService(log, playlists, locators, bus, rand.New(rand.NewPCG(1, 2)))
	playback := service.NewPlaybackService(log, element, playlist, prefs, bus, service.PlaybackOptions{})
	preferences := service.NewPreferenceService(log, prefs, bus)
	library := service.NewLibraryService(log, playlist, locators, nil, bus, service.LibraryOptions{})
	search := service.NewSearchService(log, playlist, playback, nil, kv.NewSearchHistoryRepository(store), bus, service.SearchOptions{})

	session := service.NewSession(log, service.SessionDeps{
		Playlist:              playlist,
		Playback:              playback,
		Search:                search,
		Library:               library,
		Preferences:           preferences,
		PlaylistRepository:    playlists,
		PreferencesRepository: prefs,
	})
	if len(seed) > 0 {
		added, _ := playlist.AddTracks(seed)
		require.Len(t, added, len(seed))
	}

	sink := &recordingSink{}
	f := &fixture{
		bus:       bus,
		element:   element,
		session:   session,
		sink:      sink,
		presenter: NewPresenter(log, session, bus, sink),
	}
	t.Cleanup(func() {
		f.presenter.Shutdown()
		_ = session.Shutdown()
		_ = element.Close()
		_ = bus.Close()
	})
	return f
}

func songs() []domain.Track {
	return []domain.Track{
		{Title: "Night Owl", Artist: "Broke For Free", Source: "https://cdn.example.com/a.mp3", Origin: domain.RemoteOrigin()},
		{Title: "Enthusiast", Artist: "Tours", Source: "https://cdn.example.com/b.mp3", Origin: domain.RemoteOrigin()},
	}
}

func TestPresenter_SyncsInitialState(t *testing.T) {
	f := newFixture(t, songs()...)

	got := f.sink.snapshot()
	assert.Len(t, got.tracks, 2)
	assert.Equal(t, 0, got.current)
	assert.Equal(t, domain.StateIdle, got.state)
	assert.Equal(t, domain.DefaultVolume, got.volume)
	assert.Equal(t, domain.DefaultPlayMode, got.mode)
	assert.Equal(t, domain.ThemeLight, got.theme)
	assert.Equal(t, 1, got.progressCalls)
}

func TestPresenter_ForwardsPlayback(t *testing.T) {
	f := newFixture(t, songs()...)

	f.presenter.OnPlayClicked()

	got := f.sink.snapshot()
	assert.Equal(t, domain.StatePlaying, got.state)
	assert.Equal(t, "Night Owl", got.loaded.Title)

	f.presenter.OnNextClicked()
	got = f.sink.snapshot()
	assert.Equal(t, "Enthusiast", got.loaded.Title)
	assert.Equal(t, 1, got.current)

	f.presenter.OnPlayClicked()
	assert.Equal(t, domain.StatePaused, f.sink.snapshot().state)
}

func TestPresenter_ForwardsVolumeModeAndTheme(t *testing.T) {
	f := newFixture(t, songs()...)

	f.presenter.OnVolumeChanged(40)
	assert.InDelta(t, 0.4, f.sink.snapshot().volume, 1e-9)

	f.presenter.OnMuteClicked()
	assert.Zero(t, f.sink.snapshot().volume)

	f.presenter.OnPlayModeClicked()
	assert.Equal(t, domain.DefaultPlayMode.Next(), f.sink.snapshot().mode)

	f.presenter.OnThemeToggled()
	assert.Equal(t, domain.ThemeDark, f.sink.snapshot().theme)
}

func TestPresenter_NotifiesAddedFiles(t *testing.T) {
	f := newFixture(t)

	result := f.session.AddHandles([]domain.FileHandle{
		{Name: "Tours - Enthusiast.mp3", Size: 10, Type: "audio/mpeg", Path: "/music/a.mp3"},
		{Name: "notes.txt", Size: 1, Type: "text/plain", Path: "/music/notes.txt"},
	})
	require.Len(t, result.Added, 1)

	got := f.sink.snapshot()
	assert.Contains(t, got.notifications, "Added 1 song, 1 not audio")
	assert.Equal(t, "Enthusiast", got.loaded.Title)
}

func TestPresenter_SearchWithoutMatches(t *testing.T) {
	f := newFixture(t, songs()...)

	response := f.presenter.OnSearch("zzzzzzzzzz")

	assert.Empty(t, response.Results)
	got := f.sink.snapshot()
	assert.Equal(t, "zzzzzzzzzz", got.query)
	assert.Contains(t, got.notifications, service.MessageNoMatches)

	f.presenter.OnSearch("night owl")
	got = f.sink.snapshot()
	require.NotEmpty(t, got.results)
	assert.Equal(t, "Night Owl", got.results[0].Track.Title)

	f.presenter.OnSearchCleared()
	assert.Empty(t, f.sink.snapshot().query)
}

func TestPresenter_RejectedPlayNotifiesOnce(t *testing.T) {
	f := newFixture(t, songs()...)
	f.element.SetFailPlay(true)

	f.presenter.OnPlayClicked()

	got := f.sink.snapshot()
	assert.Equal(t, []string{"Cannot play Night Owl - Broke For Free"}, got.notifications)
}

func TestPresenter_Shutdown(t *testing.T) {
	f := newFixture(t, songs()...)
	before := f.bus.SubscriberCount()

	f.presenter.Shutdown()
	f.presenter.Shutdown()

	assert.Equal(t, before-10, f.bus.SubscriberCount())
	require.NoError(t, f.session.Playback().SetVolume(0.1))
	assert.Equal(t, domain.DefaultVolume, f.sink.snapshot().volume)
}

func TestAddedMessage(t *testing.T) {
	tests := []struct {
		added, duplicates, rejected int
		want                        string
	}{
		{0, 0, 0, "No songs added"},
		{1, 0, 0, "Added 1 song"},
		{3, 2, 0, "Added 3 songs, 2 already in the playlist"},
		{0, 1, 4, "No songs added, 1 already in the playlist, 4 not audio"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, AddedMessage(tt.added, tt.duplicates, tt.rejected))
		})
	}
}

func TestLogSink_ImplementsSinks(t *testing.T) {
	var sink ports.RenderSink = NewLogSink(logger.NewTestLogger())
	_, ok := sink.(ports.NotificationSink)
	assert.True(t, ok)

	sink.OnProgress(time.Second, time.Minute)
	sink.OnPlaybackStateChanged(domain.StatePlaying)
}

package service

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/locator"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/media/mock"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/repository/kv"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// recorder captures every published event.
type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func newRecorder(bus *eventbus.SyncEventBus) *recorder {
	r := &recorder{}
	bus.SubscribeAll(func(e domain.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	})
	return r
}

func (r *recorder) of(eventType domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Event
	for _, e := range r.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) count(eventType domain.EventType) int {
	return len(r.of(eventType))
}

func (r *recorder) last(eventType domain.EventType) domain.Event {
	events := r.of(eventType)
	if len(events) == 0 {
		return nil
	}
	return events[len(events)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// testEnv wires the services to in-memory adapters.
type testEnv struct {
	bus         *eventbus.SyncEventBus
	store       *memory.Store
	playlists   *kv.PlaylistRepository
	prefs       *kv.PreferencesRepository
	history     *kv.SearchHistoryRepository
	locators    *locator.Registry
	element     *mock.Element
	prober      *mock.Prober
	playlist    *PlaylistService
	playback    *PlaybackService
	preferences *PreferenceService
	library     *LibraryService
	events      *recorder
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithInterval(t, 0)
}

func newTestEnvWithInterval(t *testing.T, progressInterval time.Duration) *testEnv {
	t.Helper()

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	store := memory.NewStore()

	env := &testEnv{
		bus:       bus,
		store:     store,
		playlists: kv.NewPlaylistRepository(store),
		prefs:     kv.NewPreferencesRepository(store),
		history:   kv.NewSearchHistoryRepository(store),
		locators:  locator.NewRegistry(),
		element:   mock.NewElement(log),
		prober:    mock.NewProber(),
		events:    newRecorder(bus),
	}

	env.playlist = NewPlaylistService(log, env.playlists, env.locators, bus, rand.New(rand.NewPCG(1, 2)))
	env.playback = NewPlaybackService(log, env.element, env.playlist, env.prefs, bus, PlaybackOptions{
		ProgressInterval: progressInterval,
		Rand:             rand.New(rand.NewPCG(3, 4)),
	})
	env.preferences = NewPreferenceService(log, env.prefs, bus)
	env.library = NewLibraryService(log, env.playlist, env.locators, env.prober, bus, LibraryOptions{
		ProbeConcurrency: 2,
		ProbeTimeout:     200 * time.Millisecond,
	})

	t.Cleanup(func() {
		env.playback.Shutdown()
		_ = env.element.Close()
		_ = bus.Close()
	})
	return env
}

// remoteTrack builds a durable track with a deterministic source.
func remoteTrack(title, artist string) domain.Track {
	return domain.Track{
		Title:  title,
		Artist: artist,
		Source: domain.Locator(fmt.Sprintf("https://cdn.example.com/%s.mp3", title)),
		Origin: domain.RemoteOrigin(),
	}
}

// localTrack builds a local-file track behind a transient locator.
func localTrack(env *testEnv, name string, size int64) domain.Track {
	return domain.Track{
		Title:  name,
		Artist: "Me",
		Source: env.locators.Register("/music/" + name),
		Origin: domain.LocalFileOrigin(name, size, "audio/mpeg"),
	}
}

// seed fills the playlist with n remote tracks named Song 0..n-1.
func (env *testEnv) seed(t *testing.T, n int) []domain.Track {
	t.Helper()
	tracks := make([]domain.Track, 0, n)
	for i := range n {
		tracks = append(tracks, remoteTrack(fmt.Sprintf("Song %d", i), fmt.Sprintf("Artist %d", i)))
	}
	added, duplicates := env.playlist.AddTracks(tracks)
	if len(added) != n || duplicates != 0 {
		t.Fatalf("seed: added %d, duplicates %d", len(added), duplicates)
	}
	return added
}

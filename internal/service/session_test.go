package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/repository/kv"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
	"github.com/tejashwikalptaru/tunedeck/internal/testutil"
)

func newTestSession(env *testEnv) *Session {
	search := newTestSearch(env, nil, SearchOptions{Presets: domain.PresetTracks()})
	return NewSession(logger.NewTestLogger(), SessionDeps{
		Playlist:              env.playlist,
		Playback:              env.playback,
		Search:                search,
		Library:               env.library,
		Preferences:           env.preferences,
		PlaylistRepository:    env.playlists,
		PreferencesRepository: env.prefs,
		Presets:               domain.PresetTracks(),
	})
}

func TestSession_Restore_FirstLaunchLoadsPresets(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	env := newTestEnv(t)
	session := newTestSession(env)

	require.NoError(t, session.Restore())

	assert.Equal(t, 3, env.playlist.Len())
	assert.Equal(t, domain.StateLoading, env.playback.State())
	assert.False(t, env.element.IsPlaying())

	// Presets are probed in the background
	require.Eventually(t, func() bool {
		return env.events.count(domain.EventProbeCompleted) == 1
	}, waitFor, tick)
	assert.Empty(t, env.playlist.MissingDurations())

	require.NoError(t, session.Shutdown())
}

func TestSession_Restore_SavedState(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.playlists.SavePlaylist(domain.PlaylistSnapshot{
		Tracks: []domain.Track{
			remoteTrack("One", "A"),
			remoteTrack("Two", "B"),
		},
		CurrentIndex: 1,
	}))
	require.NoError(t, env.prefs.SaveVolume(0.4, 0.4))
	require.NoError(t, env.prefs.SavePlayMode(domain.PlayModeSingleLoop))

	session := newTestSession(env)
	require.NoError(t, session.Restore())
	t.Cleanup(func() { _ = session.Shutdown() })

	assert.Equal(t, 2, env.playlist.Len())
	assert.Equal(t, 1, env.playlist.CurrentIndex())
	assert.Equal(t, domain.Locator("https://cdn.example.com/Two.mp3"), env.element.Source())

	settings := env.playback.Settings()
	assert.Equal(t, domain.PlayModeSingleLoop, settings.PlayMode)
	assert.Equal(t, 0.4, settings.Volume)
	assert.Equal(t, 0.4, env.element.Volume())
}

func TestSession_Restore_CorruptPlaylist(t *testing.T) {
	env := newTestEnv(t)
	env.store.SetString(kv.KeyPlaylist, "{not json")

	session := newTestSession(env)
	require.NoError(t, session.Restore())
	t.Cleanup(func() { _ = session.Shutdown() })

	assert.Equal(t, 3, env.playlist.Len())
}

func TestSession_AddFiles_LoadsLastAddedWhenIdle(t *testing.T) {
	env := newTestEnv(t)
	session := newTestSession(env)
	t.Cleanup(func() { _ = session.Shutdown() })
	paths := createTestMusicFolder(t, "A - One.mp3", "B - Two.mp3")

	result := session.AddFiles(paths)

	require.Len(t, result.Added, 2)
	loaded, ok := env.playback.LoadedTrack()
	require.True(t, ok)
	assert.Equal(t, result.Added[1].ID, loaded.ID)
	assert.Equal(t, 1, env.playlist.CurrentIndex())
	assert.False(t, env.playback.IsPlaying())
}

func TestSession_AddFiles_KeepsPlayingTrack(t *testing.T) {
	env := newTestEnv(t)
	tracks := env.seed(t, 1)
	session := newTestSession(env)
	t.Cleanup(func() { _ = session.Shutdown() })
	require.NoError(t, env.playback.Play(context.Background()))

	result := session.AddFiles(createTestMusicFolder(t, "A - One.mp3"))

	require.Len(t, result.Added, 1)
	loaded, ok := env.playback.LoadedTrack()
	require.True(t, ok)
	assert.Equal(t, tracks[0].ID, loaded.ID)
	assert.True(t, env.playback.IsPlaying())
}

func TestSession_RemoveTrack(t *testing.T) {
	env := newTestEnv(t)
	tracks := env.seed(t, 3)
	session := newTestSession(env)
	t.Cleanup(func() { _ = session.Shutdown() })
	ctx := context.Background()

	require.NoError(t, env.playback.PlayIndex(ctx, 1))

	// Removing another track leaves playback alone
	require.NoError(t, session.RemoveTrack(ctx, 0))
	loaded, _ := env.playback.LoadedTrack()
	assert.Equal(t, tracks[1].ID, loaded.ID)
	assert.Equal(t, 0, env.playlist.CurrentIndex())

	// Removing the playing track moves on and keeps playing
	require.NoError(t, session.RemoveTrack(ctx, 0))
	loaded, _ = env.playback.LoadedTrack()
	assert.Equal(t, tracks[2].ID, loaded.ID)
	assert.True(t, env.playback.IsPlaying())

	// Removing the last track unloads
	require.NoError(t, session.RemoveTrack(ctx, 0))
	assert.Equal(t, domain.StateIdle, env.playback.State())
	assert.Empty(t, env.element.Source())

	assert.ErrorIs(t, session.RemoveTrack(ctx, 0), domain.ErrOutOfRange)
}

func TestSession_ClearPlaylist(t *testing.T) {
	env := newTestEnv(t)
	session := newTestSession(env)
	t.Cleanup(func() { _ = session.Shutdown() })
	session.AddFiles(createTestMusicFolder(t, "A - One.mp3"))
	env.seed(t, 2)
	require.NoError(t, env.playback.Play(context.Background()))

	session.ClearPlaylist()

	assert.Zero(t, env.playlist.Len())
	assert.Zero(t, env.locators.Len())
	assert.Equal(t, domain.StateIdle, env.playback.State())
}

func TestSession_SnapshotAndSave(t *testing.T) {
	env := newTestEnv(t)
	session := newTestSession(env)
	env.seed(t, 2)
	session.AddFiles(createTestMusicFolder(t, "A - One.mp3"))
	require.NoError(t, env.playback.SetVolume(0.5))
	env.playback.ToggleMute()

	snapshot := session.Snapshot()
	assert.Len(t, snapshot.Playlist.Tracks, 2)
	assert.Equal(t, 1, snapshot.Playlist.CurrentIndex)
	assert.Zero(t, snapshot.Settings.Volume)
	assert.Equal(t, 0.5, snapshot.Settings.LastNonZeroVolume)
	assert.Equal(t, domain.ThemeLight, snapshot.Theme)

	env.store.RemoveValue(kv.KeyPlaylist)
	require.NoError(t, session.Shutdown())

	saved, err := env.playlists.LoadPlaylist()
	require.NoError(t, err)
	assert.Len(t, saved.Tracks, 2)

	volume, last, err := env.prefs.LoadVolume()
	require.NoError(t, err)
	assert.Zero(t, volume)
	assert.Equal(t, 0.5, last)

	// Shutdown is idempotent
	assert.NoError(t, session.Shutdown())
}

func TestSession_ShutdownCancelsProbing(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	env := newTestEnv(t)
	tracks := env.seed(t, 2)
	for _, tr := range tracks {
		env.prober.SetHanging(tr.Source)
	}
	session := newTestSession(env)
	require.NoError(t, session.Restore())

	start := time.Now()
	require.NoError(t, session.Shutdown())
	assert.Less(t, time.Since(start), time.Second)
}

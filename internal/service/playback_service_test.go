package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/media/mock"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/testutil"
)

func TestPlaybackService_LoadSong(t *testing.T) {
	env := newTestEnv(t)
	tracks := env.seed(t, 3)

	require.NoError(t, env.playback.LoadSong(1))

	assert.Equal(t, domain.StateLoading, env.playback.State())
	assert.Equal(t, 1, env.playlist.CurrentIndex())
	assert.Equal(t, tracks[1].Source, env.element.Source())
	assert.False(t, env.element.IsPlaying())

	loaded, ok := env.events.last(domain.EventTrackLoaded).(domain.TrackLoadedEvent)
	require.True(t, ok)
	assert.Equal(t, tracks[1].ID, loaded.Track.ID)

	progress, ok := env.events.last(domain.EventTrackProgress).(domain.TrackProgressEvent)
	require.True(t, ok)
	assert.Zero(t, progress.Position)
}

func TestPlaybackService_LoadSong_EmptyPlaylistIsNoop(t *testing.T) {
	env := newTestEnv(t)

	assert.NoError(t, env.playback.LoadSong(0))
	assert.Equal(t, domain.StateIdle, env.playback.State())
	assert.Zero(t, env.element.LoadCalls())
}

func TestPlaybackService_LoadSong_OutOfRange(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 2)

	assert.ErrorIs(t, env.playback.LoadSong(2), domain.ErrOutOfRange)
}

func TestPlaybackService_LoadSong_Failure(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1)
	env.element.SetFailLoad(true)

	err := env.playback.LoadSong(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDecodeOrNetwork)
	assert.Equal(t, domain.StateErrored, env.playback.State())

	ev, ok := env.events.last(domain.EventTrackError).(domain.TrackErrorEvent)
	require.True(t, ok)
	var mediaErr *domain.MediaError
	assert.True(t, errors.As(ev.Error, &mediaErr))
}

func TestPlaybackService_Play(t *testing.T) {
	env := newTestEnv(t)
	tracks := env.seed(t, 2)

	require.NoError(t, env.playback.Play(context.Background()))

	assert.Equal(t, domain.StatePlaying, env.playback.State())
	assert.True(t, env.element.IsPlaying())
	assert.Equal(t, tracks[0].Source, env.element.Source())

	// Playing again does not reload
	require.NoError(t, env.playback.Play(context.Background()))
	assert.Equal(t, 1, env.element.LoadCalls())
}

func TestPlaybackService_Play_EmptyPlaylist(t *testing.T) {
	env := newTestEnv(t)

	assert.NoError(t, env.playback.Play(context.Background()))
	assert.Equal(t, domain.StateIdle, env.playback.State())
}

func TestPlaybackService_Play_Rejected(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1)
	env.element.SetFailPlay(true)

	err := env.playback.Play(context.Background())
	assert.ErrorIs(t, err, domain.ErrPlaybackRejected)
	assert.Equal(t, domain.StatePaused, env.playback.State())
	assert.Equal(t, 1, env.events.count(domain.EventTrackError))

	// Recovers once the element accepts
	env.element.SetFailPlay(false)
	require.NoError(t, env.playback.Play(context.Background()))
	assert.Equal(t, domain.StatePlaying, env.playback.State())
}

func TestPlaybackService_PauseAndToggle(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1)
	ctx := context.Background()

	require.NoError(t, env.playback.TogglePlay(ctx))
	assert.True(t, env.playback.IsPlaying())

	require.NoError(t, env.playback.TogglePlay(ctx))
	assert.Equal(t, domain.StatePaused, env.playback.State())
	assert.False(t, env.element.IsPlaying())

	require.NoError(t, env.playback.Pause())
	assert.Equal(t, domain.StatePaused, env.playback.State())

	require.NoError(t, env.playback.TogglePlay(ctx))
	assert.True(t, env.playback.IsPlaying())
	assert.Equal(t, 1, env.element.LoadCalls())
}

func TestPlaybackService_NextPrevious_Sequential(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 3)
	ctx := context.Background()

	require.NoError(t, env.playback.Next(ctx))
	assert.Equal(t, 1, env.playlist.CurrentIndex())
	assert.True(t, env.playback.IsPlaying())

	require.NoError(t, env.playback.Next(ctx))
	require.NoError(t, env.playback.Next(ctx))
	assert.Equal(t, 0, env.playlist.CurrentIndex())

	require.NoError(t, env.playback.Previous(ctx))
	assert.Equal(t, 2, env.playlist.CurrentIndex())
}

func TestPlaybackService_Previous_IgnoresRandomMode(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 5)
	require.NoError(t, env.playback.SetPlayMode(domain.PlayModeRandom))
	require.NoError(t, env.playlist.SetCurrent(3))

	require.NoError(t, env.playback.Previous(context.Background()))
	assert.Equal(t, 2, env.playlist.CurrentIndex())
}

func TestPlaybackService_Next_RandomNeverRepeats(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 4)
	require.NoError(t, env.playback.SetPlayMode(domain.PlayModeRandom))
	ctx := context.Background()

	seen := make(map[int]bool)
	for range 50 {
		before := env.playlist.CurrentIndex()
		require.NoError(t, env.playback.Next(ctx))
		after := env.playlist.CurrentIndex()
		assert.NotEqual(t, before, after)
		seen[after] = true
	}
	assert.Len(t, seen, 4)
}

func TestPlaybackService_Next_RandomSingleTrack(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1)
	require.NoError(t, env.playback.SetPlayMode(domain.PlayModeRandom))

	require.NoError(t, env.playback.Next(context.Background()))
	assert.Equal(t, 0, env.playlist.CurrentIndex())
	assert.True(t, env.playback.IsPlaying())
}

func TestPlaybackService_Ended_Sequential(t *testing.T) {
	env := newTestEnv(t)
	tracks := env.seed(t, 2)
	require.NoError(t, env.playlist.SetCurrent(1))
	require.NoError(t, env.playback.Play(context.Background()))

	env.element.Finish()

	require.Eventually(t, func() bool {
		return env.playlist.CurrentIndex() == 0 && env.element.Source() == tracks[0].Source
	}, waitFor, tick)
	require.Eventually(t, env.playback.IsPlaying, waitFor, tick)

	ended, ok := env.events.last(domain.EventTrackEnded).(domain.TrackEndedEvent)
	require.True(t, ok)
	assert.Equal(t, tracks[1].ID, ended.Track.ID)
	assert.Equal(t, domain.PlayModeSequential, ended.Mode)
}

func TestPlaybackService_Ended_Loop(t *testing.T) {
	env := newTestEnv(t)
	tracks := env.seed(t, 3)
	require.NoError(t, env.playback.SetPlayMode(domain.PlayModeSingleLoop))
	require.NoError(t, env.playback.Play(context.Background()))
	env.element.Advance(time.Minute)

	env.element.Finish()

	require.Eventually(t, func() bool {
		return env.events.count(domain.EventTrackEnded) == 1 && env.playback.IsPlaying()
	}, waitFor, tick)
	assert.Equal(t, 0, env.playlist.CurrentIndex())
	assert.Equal(t, tracks[0].Source, env.element.Source())
	assert.Zero(t, env.element.CurrentTime())
	assert.Equal(t, 1, env.element.LoadCalls())
}

func TestPlaybackService_Ended_Random(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 3)
	require.NoError(t, env.playback.SetPlayMode(domain.PlayModeRandom))
	require.NoError(t, env.playback.Play(context.Background()))

	env.element.Finish()

	require.Eventually(t, func() bool {
		return env.playlist.CurrentIndex() != 0 && env.playback.IsPlaying()
	}, waitFor, tick)
}

func TestPlaybackService_Ended_RandomSingleTrack(t *testing.T) {
	env := newTestEnv(t)
	tracks := env.seed(t, 1)
	require.NoError(t, env.playback.SetPlayMode(domain.PlayModeRandom))
	require.NoError(t, env.playback.Play(context.Background()))
	require.Equal(t, 1, env.element.LoadCalls())

	env.element.Finish()

	require.Eventually(t, func() bool {
		return env.element.LoadCalls() == 2 && env.playback.IsPlaying()
	}, waitFor, tick)
	assert.Equal(t, 0, env.playlist.CurrentIndex())
	assert.Equal(t, tracks[0].Source, env.element.Source())

	ended, ok := env.events.last(domain.EventTrackEnded).(domain.TrackEndedEvent)
	require.True(t, ok)
	assert.Equal(t, domain.PlayModeRandom, ended.Mode)
}

func TestPlaybackService_MediaError(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 2)
	require.NoError(t, env.playback.Play(context.Background()))

	env.element.Fail(errors.New("connection reset"))

	require.Eventually(t, func() bool {
		return env.playback.State() == domain.StateErrored
	}, waitFor, tick)

	ev, ok := env.events.last(domain.EventTrackError).(domain.TrackErrorEvent)
	require.True(t, ok)
	assert.ErrorIs(t, ev.Error, domain.ErrDecodeOrNetwork)

	// No retry and no advance
	assert.Equal(t, 0, env.playlist.CurrentIndex())
	assert.Equal(t, 1, env.element.LoadCalls())

	// Play reloads an errored track
	require.NoError(t, env.playback.Play(context.Background()))
	assert.Equal(t, 2, env.element.LoadCalls())
	assert.True(t, env.playback.IsPlaying())
}

func TestPlaybackService_MetadataResolvesDuration(t *testing.T) {
	env := newTestEnv(t)
	tracks := env.seed(t, 1)
	env.element.SetDuration(tracks[0].Source, 95*time.Second)

	require.NoError(t, env.playback.LoadSong(0))

	require.Eventually(t, func() bool {
		track, err := env.playlist.Track(0)
		return err == nil && track.Duration == 95*time.Second
	}, waitFor, tick)
}

func TestPlaybackService_IgnoresEventsForOtherSources(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 2)
	require.NoError(t, env.playback.Play(context.Background()))

	env.playback.HandleMediaEvent(domain.MediaEvent{
		Type:   domain.MediaErrorEvent,
		Source: "https://cdn.example.com/elsewhere.mp3",
		Err:    domain.ErrDecodeOrNetwork,
	})

	assert.Equal(t, domain.StatePlaying, env.playback.State())
}

func TestPlaybackService_SetProgress(t *testing.T) {
	env := newTestEnv(t)
	tracks := env.seed(t, 1)
	env.element.SetDuration(tracks[0].Source, 100*time.Second)
	require.NoError(t, env.playback.LoadSong(0))

	require.NoError(t, env.playback.SetProgress(0.25))
	assert.Equal(t, 25*time.Second, env.element.CurrentTime())

	require.NoError(t, env.playback.SetProgress(1.7))
	assert.Equal(t, 100*time.Second, env.element.CurrentTime())

	require.NoError(t, env.playback.SetProgress(-3))
	assert.Zero(t, env.element.CurrentTime())

	require.NoError(t, env.playback.SetProgress(0.5))
	require.NoError(t, env.playback.SetProgress(math.NaN()))
	assert.Equal(t, 50*time.Second, env.element.CurrentTime())
}

func TestPlaybackService_SetProgress_UnknownDuration(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1)
	env.element.SetWithholdMetadata(true)
	require.NoError(t, env.playback.LoadSong(0))

	require.NoError(t, env.playback.SetProgress(0.5))
	assert.Zero(t, env.element.CurrentTime())
}

func TestPlaybackService_Seek_PausesAndResumes(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1)
	ctx := context.Background()
	require.NoError(t, env.playback.Play(ctx))

	env.playback.BeginSeek()
	assert.Equal(t, domain.StatePaused, env.playback.State())
	assert.True(t, env.playback.Status().Seeking)

	require.NoError(t, env.playback.UpdateSeek(0.5))
	assert.Equal(t, mock.DefaultDuration/2, env.element.CurrentTime())

	require.NoError(t, env.playback.EndSeek(ctx))
	assert.Equal(t, domain.StatePlaying, env.playback.State())
	assert.False(t, env.playback.Status().Seeking)
}

func TestPlaybackService_Seek_WhilePausedStaysPaused(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1)
	ctx := context.Background()
	require.NoError(t, env.playback.Play(ctx))
	require.NoError(t, env.playback.Pause())

	env.playback.BeginSeek()
	require.NoError(t, env.playback.EndSeek(ctx))
	assert.Equal(t, domain.StatePaused, env.playback.State())

	// Ending a drag that never started is harmless
	require.NoError(t, env.playback.EndSeek(ctx))
}

func TestPlaybackService_Volume(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.playback.SetVolume(0.5))
	assert.Equal(t, 0.5, env.element.Volume())

	volume, last, err := env.prefs.LoadVolume()
	require.NoError(t, err)
	assert.Equal(t, 0.5, volume)
	assert.Equal(t, 0.5, last)

	require.NoError(t, env.playback.SetVolume(3))
	assert.Equal(t, 1.0, env.playback.Settings().Volume)

	require.NoError(t, env.playback.SetVolume(-1))
	settings := env.playback.Settings()
	assert.Zero(t, settings.Volume)
	assert.Equal(t, 1.0, settings.LastNonZeroVolume)

	var validationErr *domain.ValidationError
	assert.True(t, errors.As(env.playback.SetVolume(math.NaN()), &validationErr))

	ev, ok := env.events.last(domain.EventVolumeChanged).(domain.VolumeChangedEvent)
	require.True(t, ok)
	assert.True(t, ev.Muted())

	env.playback.ToggleMute()
	assert.Equal(t, 1.0, env.playback.Settings().Volume)
	assert.Equal(t, 1.0, env.element.Volume())
}

func TestPlaybackService_AdjustVolume(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.playback.AdjustVolume(0.1))
	assert.InDelta(t, 0.9, env.playback.Settings().Volume, 1e-9)

	require.NoError(t, env.playback.AdjustVolume(0.5))
	assert.Equal(t, 1.0, env.playback.Settings().Volume)
}

func TestPlaybackService_ToggleMute(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.playback.SetVolume(0.6))

	env.playback.ToggleMute()
	assert.Zero(t, env.playback.Settings().Volume)
	assert.True(t, env.playback.Status().IsMuted())

	env.playback.ToggleMute()
	assert.Equal(t, 0.6, env.playback.Settings().Volume)
}

func TestPlaybackService_ToggleMute_DefaultRestore(t *testing.T) {
	env := newTestEnv(t)
	env.playback.ApplySettings(domain.PlaybackSettings{
		PlayMode:          domain.PlayModeSequential,
		Volume:            0,
		LastNonZeroVolume: 0,
	})

	env.playback.ToggleMute()
	assert.Equal(t, domain.DefaultVolume, env.playback.Settings().Volume)
}

func TestPlaybackService_PlayMode(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, domain.PlayModeRandom, env.playback.CyclePlayMode())
	assert.Equal(t, domain.PlayModeSingleLoop, env.playback.CyclePlayMode())
	assert.Equal(t, domain.PlayModeSequential, env.playback.CyclePlayMode())

	require.NoError(t, env.playback.SetPlayMode(domain.PlayModeSingleLoop))
	mode, err := env.prefs.LoadPlayMode()
	require.NoError(t, err)
	assert.Equal(t, domain.PlayModeSingleLoop, mode)

	assert.Error(t, env.playback.SetPlayMode("shuffle-all"))
	assert.Equal(t, 4, env.events.count(domain.EventPlayModeChanged))
}

func TestPlaybackService_ApplySettings_DoesNotPersist(t *testing.T) {
	env := newTestEnv(t)

	env.playback.ApplySettings(domain.PlaybackSettings{
		PlayMode:          domain.PlayModeRandom,
		Volume:            0.3,
		LastNonZeroVolume: 0.3,
	})

	assert.Equal(t, domain.PlayModeRandom, env.playback.Settings().PlayMode)
	assert.Equal(t, 0.3, env.element.Volume())
	assert.Empty(t, env.store.Keys())
}

func TestPlaybackService_Unload(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1)
	require.NoError(t, env.playback.Play(context.Background()))

	env.playback.Unload()

	assert.Equal(t, domain.StateIdle, env.playback.State())
	assert.False(t, env.element.IsPlaying())
	assert.Empty(t, env.element.Source())
	_, ok := env.playback.LoadedTrack()
	assert.False(t, ok)
}

func TestPlaybackService_ProgressPolling(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	env := newTestEnvWithInterval(t, 5*time.Millisecond)
	env.seed(t, 1)
	require.NoError(t, env.playback.Play(context.Background()))
	env.element.Advance(10 * time.Second)

	require.Eventually(t, func() bool {
		ev, ok := env.events.last(domain.EventTrackProgress).(domain.TrackProgressEvent)
		return ok && ev.Position == 10*time.Second
	}, waitFor, tick)

	// Paused playback stops publishing
	require.NoError(t, env.playback.Pause())
	time.Sleep(20 * time.Millisecond)
	before := env.events.count(domain.EventTrackProgress)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, env.events.count(domain.EventTrackProgress))
}

func TestPlaybackService_HandlersMayCallBack(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 2)

	var status domain.PlayerStatus
	env.bus.Subscribe(domain.EventTrackLoaded, func(domain.Event) {
		status = env.playback.Status()
	})

	require.NoError(t, env.playback.LoadSong(1))
	assert.Equal(t, 1, status.CurrentIndex)
}

func TestPlaybackService_ConcurrentCommands(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 5)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				switch i % 4 {
				case 0:
					_ = env.playback.Next(ctx)
				case 1:
					_ = env.playback.TogglePlay(ctx)
				case 2:
					_ = env.playback.AdjustVolume(0.01)
				default:
					_ = env.playback.Status()
				}
			}
		}()
	}
	wg.Wait()

	status := env.playback.Status()
	assert.GreaterOrEqual(t, status.CurrentIndex, 0)
	assert.Less(t, status.CurrentIndex, 5)
}

func TestPlaybackService_Shutdown(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	env := newTestEnvWithInterval(t, time.Millisecond)
	env.seed(t, 1)
	require.NoError(t, env.playback.Play(context.Background()))

	env.playback.Shutdown()
	env.playback.Shutdown()

	// Events after shutdown are ignored
	env.playback.HandleMediaEvent(domain.MediaEvent{Type: domain.MediaEnded, Source: env.element.Source()})
	assert.Zero(t, env.events.count(domain.EventTrackEnded))
}

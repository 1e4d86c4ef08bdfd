package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// SessionDeps are the collaborators of a Session.
type SessionDeps struct {
	Playlist    *PlaylistService
	Playback    *PlaybackService
	Search      *SearchService
	Library     *LibraryService
	Preferences *PreferenceService

	PlaylistRepository    ports.PlaylistRepository
	PreferencesRepository ports.PreferencesRepository

	// Presets seed an empty playlist.
	Presets []domain.Track
}

// Session ties the services together for one running player. It restores the
// saved state on startup, runs background work and saves on shutdown.
type Session struct {
	// Dependencies (injected)
	logger      *slog.Logger
	playlist    *PlaylistService
	playback    *PlaybackService
	search      *SearchService
	library     *LibraryService
	preferences *PreferenceService
	playlists   ports.PlaylistRepository
	prefs       ports.PreferencesRepository
	presets     []domain.Track

	// Background work
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Concurrency control
	mu     sync.Mutex
	closed bool
}

// NewSession creates a session. Call Restore before use and Shutdown at exit.
func NewSession(logger *slog.Logger, deps SessionDeps) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		logger:      logger,
		playlist:    deps.Playlist,
		playback:    deps.Playback,
		search:      deps.Search,
		library:     deps.Library,
		preferences: deps.Preferences,
		playlists:   deps.PlaylistRepository,
		prefs:       deps.PreferencesRepository,
		presets:     deps.Presets,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Playlist returns the playlist service.
func (s *Session) Playlist() *PlaylistService { return s.playlist }

// Playback returns the playback service.
func (s *Session) Playback() *PlaybackService { return s.playback }

// Search returns the search service.
func (s *Session) Search() *SearchService { return s.search }

// Library returns the library service.
func (s *Session) Library() *LibraryService { return s.library }

// Preferences returns the preference service.
func (s *Session) Preferences() *PreferenceService { return s.preferences }

// Restore loads the saved playlist, or the presets when there is none, applies
// the saved settings and loads the current song without playing it.
// Missing durations are probed in the background.
func (s *Session) Restore() error {
	snapshot, err := s.playlists.LoadPlaylist()
	if err != nil {
		s.logger.Warn("saved playlist is unreadable, starting fresh", slog.Any("error", err))
	}
	s.playlist.Restore(snapshot)
	if s.playlist.Len() == 0 {
		s.playlist.LoadPresets(s.presets)
	}

	s.playback.ApplySettings(s.preferences.PlaybackSettings())

	var loadErr error
	if s.playlist.Len() > 0 {
		loadErr = s.playback.LoadSong(s.playlist.CurrentIndex())
		if loadErr != nil {
			s.logger.Warn("failed to load current song", slog.Any("error", loadErr))
		}
	}

	s.probeInBackground()
	s.logger.Info("session restored", slog.Int("tracks", s.playlist.Len()))
	return loadErr
}

// probeInBackground resolves missing durations until done or shutdown.
func (s *Session) probeInBackground() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.library.ProbeDurations(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("duration probing stopped", slog.Any("error", err))
		}
	}()
}

// Snapshot returns the state that Save writes.
func (s *Session) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Playlist: s.playlist.Serialize(),
		Settings: s.playback.Settings(),
		Theme:    s.preferences.Theme(),
	}
}

// Save writes the playlist and playback settings.
func (s *Session) Save() error {
	snapshot := s.Snapshot()
	return errors.Join(
		s.playlists.SavePlaylist(snapshot.Playlist),
		s.prefs.SaveVolume(snapshot.Settings.Volume, snapshot.Settings.LastNonZeroVolume),
		s.prefs.SavePlayMode(snapshot.Settings.PlayMode),
	)
}

// AddFiles ingests files from disk. When nothing is playing the last added
// track is loaded. Durations of new tracks are probed in the background.
func (s *Session) AddFiles(paths []string) domain.IngestResult {
	return s.afterIngest(s.library.IngestPaths(paths))
}

// AddHandles ingests already described files, see AddFiles.
func (s *Session) AddHandles(handles []domain.FileHandle) domain.IngestResult {
	return s.afterIngest(s.library.Ingest(handles))
}

func (s *Session) afterIngest(result domain.IngestResult) domain.IngestResult {
	if len(result.Added) == 0 {
		return result
	}
	if !s.playback.IsPlaying() {
		last := result.Added[len(result.Added)-1]
		if err := s.playback.LoadSong(s.playlist.IndexOf(last.ID)); err != nil {
			s.logger.Warn("failed to load added track", slog.Any("error", err))
		}
	}
	s.probeInBackground()
	return result
}

// RemoveTrack deletes the track at index. Removing the loaded track moves on
// to the new current track, playing it if playback was running.
func (s *Session) RemoveTrack(ctx context.Context, index int) error {
	loaded, hasLoaded := s.playback.LoadedTrack()
	wasPlaying := s.playback.IsPlaying()

	removed, err := s.playlist.Remove(index)
	if err != nil {
		return err
	}
	if !hasLoaded || loaded.ID != removed.ID {
		return nil
	}

	if s.playlist.Len() == 0 {
		s.playback.Unload()
		return nil
	}
	if wasPlaying {
		return s.playback.PlayIndex(ctx, s.playlist.CurrentIndex())
	}
	return s.playback.LoadSong(s.playlist.CurrentIndex())
}

// ClearPlaylist stops playback and empties the playlist.
func (s *Session) ClearPlaylist() {
	s.playback.Unload()
	s.playlist.RemoveAll()
}

// PlayIndex plays the track at index, usually picked from the playlist view.
func (s *Session) PlayIndex(ctx context.Context, index int) error {
	return s.playback.PlayIndex(ctx, index)
}

// Shutdown cancels background work, saves the session and stops playback.
func (s *Session) Shutdown() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	err := s.Save()
	if err != nil {
		s.logger.Error("failed to save session", slog.Any("error", err))
	}
	s.playback.Shutdown()
	s.logger.Info("session closed")
	return err
}

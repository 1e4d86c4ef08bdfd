package render

import (
	"log/slog"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// LogSink renders to a structured logger. It backs the headless commands.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that logs at info level, progress at debug.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With(slog.String("component", "render"))}
}

func (s *LogSink) OnPlaylistChanged(tracks []domain.Track, currentIndex int) {
	s.logger.Info("playlist", slog.Int("tracks", len(tracks)), slog.Int("current", currentIndex))
}

func (s *LogSink) OnPlaybackStateChanged(state domain.PlaybackState) {
	s.logger.Info("state", slog.String("state", state.String()))
}

func (s *LogSink) OnProgress(currentTime, duration time.Duration) {
	s.logger.Debug("progress", slog.Duration("position", currentTime), slog.Duration("duration", duration))
}

func (s *LogSink) OnVolumeChanged(volume float64) {
	s.logger.Info("volume", slog.Float64("volume", volume))
}

func (s *LogSink) OnSearchResults(results []domain.SearchResult, query string) {
	s.logger.Info("search results", slog.String("query", query), slog.Int("results", len(results)))
}

func (s *LogSink) OnTrackLoaded(track domain.Track, index int) {
	s.logger.Info("now loaded",
		slog.Int("index", index),
		slog.String("title", track.Title),
		slog.String("artist", track.Artist))
}

func (s *LogSink) OnPlayModeChanged(mode domain.PlayMode) {
	s.logger.Info("play mode", slog.String("mode", string(mode)))
}

func (s *LogSink) OnNotification(message string) {
	s.logger.Info(message)
}

var (
	_ ports.RenderSink       = (*LogSink)(nil)
	_ ports.TrackSink        = (*LogSink)(nil)
	_ ports.PlayModeSink     = (*LogSink)(nil)
	_ ports.NotificationSink = (*LogSink)(nil)
)

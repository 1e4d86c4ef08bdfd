package service

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// PreferenceService manages the theme and loads persisted playback settings.
// All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PreferencesRepository
	bus        ports.EventBus

	// Cached preferences
	theme domain.Theme

	// Concurrency control
	mu sync.RWMutex
}

// NewPreferenceService creates a new preference service and loads the saved theme.
func NewPreferenceService(
	logger *slog.Logger,
	repository ports.PreferencesRepository,
	bus ports.EventBus,
) *PreferenceService {
	service := &PreferenceService{
		logger:     logger,
		repository: repository,
		bus:        bus,
		theme:      domain.ThemeLight,
	}

	theme, err := repository.LoadTheme()
	if err != nil {
		logger.Warn("failed to load theme, using default", slog.Any("error", err))
	}
	service.theme = theme

	logger.Debug("preference service initialized", slog.String("theme", string(theme)))
	return service
}

// Theme returns the current theme.
func (s *PreferenceService) Theme() domain.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme switches and persists the theme.
func (s *PreferenceService) SetTheme(theme domain.Theme) error {
	if _, ok := domain.ParseTheme(string(theme)); !ok {
		return domain.NewValidationError("theme", theme, "must be 'light' or 'dark'")
	}

	s.mu.Lock()
	changed := s.theme != theme
	s.theme = theme
	s.mu.Unlock()

	if err := s.repository.SaveTheme(theme); err != nil {
		return err
	}
	if changed {
		s.bus.Publish(domain.NewThemeChangedEvent(theme))
	}
	return nil
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *PreferenceService) ToggleTheme() (domain.Theme, error) {
	next := s.Theme().Toggle()
	return next, s.SetTheme(next)
}

// PlaybackSettings loads the saved volume and play mode. Unreadable values fall
// back to defaults and are logged.
func (s *PreferenceService) PlaybackSettings() domain.PlaybackSettings {
	settings := domain.DefaultPlaybackSettings()

	volume, lastNonZero, err := s.repository.LoadVolume()
	if err != nil {
		s.logger.Warn("failed to load volume", slog.Any("error", err))
	}
	settings.Volume = volume
	settings.LastNonZeroVolume = lastNonZero

	mode, err := s.repository.LoadPlayMode()
	if err != nil {
		s.logger.Warn("failed to load play mode", slog.Any("error", err))
	}
	settings.PlayMode = mode

	return settings
}

// ResetToDefaults clears saved preferences and restores the light theme.
func (s *PreferenceService) ResetToDefaults() error {
	if err := s.repository.Clear(); err != nil {
		return err
	}
	return s.SetTheme(domain.ThemeLight)
}

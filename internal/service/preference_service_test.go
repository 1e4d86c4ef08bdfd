package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/repository/kv"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
)

func TestPreferenceService_DefaultTheme(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, domain.ThemeLight, env.preferences.Theme())
}

func TestPreferenceService_ToggleTheme(t *testing.T) {
	env := newTestEnv(t)

	theme, err := env.preferences.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, theme)
	assert.Equal(t, "dark", env.store.String(kv.KeyTheme))

	ev, ok := env.events.last(domain.EventThemeChanged).(domain.ThemeChangedEvent)
	require.True(t, ok)
	assert.Equal(t, domain.ThemeDark, ev.Theme)

	theme, err = env.preferences.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, theme)
}

func TestPreferenceService_SetTheme_Invalid(t *testing.T) {
	env := newTestEnv(t)

	err := env.preferences.SetTheme("solarized")
	var validationErr *domain.ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, domain.ThemeLight, env.preferences.Theme())
}

func TestPreferenceService_SetTheme_SameThemeIsQuiet(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.preferences.SetTheme(domain.ThemeLight))
	assert.Zero(t, env.events.count(domain.EventThemeChanged))
}

func TestPreferenceService_LoadsSavedTheme(t *testing.T) {
	env := newTestEnv(t)
	env.store.SetString(kv.KeyTheme, "dark")

	reloaded := NewPreferenceService(logger.NewTestLogger(), env.prefs, env.bus)
	assert.Equal(t, domain.ThemeDark, reloaded.Theme())
}

func TestPreferenceService_PlaybackSettings(t *testing.T) {
	env := newTestEnv(t)

	settings := env.preferences.PlaybackSettings()
	assert.Equal(t, domain.DefaultPlaybackSettings(), settings)

	env.store.SetString(kv.KeyPlayMode, "random")
	env.store.SetString(kv.KeyVolume, "0.25")
	settings = env.preferences.PlaybackSettings()
	assert.Equal(t, domain.PlayModeRandom, settings.PlayMode)
	assert.Equal(t, 0.25, settings.Volume)
	assert.Equal(t, 0.25, settings.LastNonZeroVolume)
}

func TestPreferenceService_PlaybackSettings_Corrupt(t *testing.T) {
	env := newTestEnv(t)
	env.store.SetString(kv.KeyPlayMode, "sideways")
	env.store.SetString(kv.KeyVolume, "loud")

	settings := env.preferences.PlaybackSettings()
	assert.Equal(t, domain.DefaultPlaybackSettings(), settings)
}

func TestPreferenceService_ResetToDefaults(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.preferences.ToggleTheme()
	require.NoError(t, err)
	require.NoError(t, env.playback.SetVolume(0.2))

	require.NoError(t, env.preferences.ResetToDefaults())

	assert.Equal(t, domain.ThemeLight, env.preferences.Theme())
	assert.Empty(t, env.store.String(kv.KeyVolume))
}

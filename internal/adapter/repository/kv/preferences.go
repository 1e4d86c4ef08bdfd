package kv

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// PreferencesRepository implements ports.PreferencesRepository.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	store ports.KeyValueStore
	mu    sync.RWMutex
}

// NewPreferencesRepository creates a new preferences repository.
func NewPreferencesRepository(store ports.KeyValueStore) *PreferencesRepository {
	return &PreferencesRepository{store: store}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseVolume returns fallback for empty input and an error for garbage.
func parseVolume(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback, fmt.Errorf("volume %q is not a number", raw)
	}
	return domain.ClampVolume(v), nil
}

// SaveVolume persists the volume and the last non-zero volume.
func (r *PreferencesRepository) SaveVolume(volume, lastNonZero float64) error {
	if math.IsNaN(volume) || math.IsNaN(lastNonZero) {
		return domain.NewValidationError("volume", volume, "must be a number")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.SetString(KeyVolume, formatFloat(domain.ClampVolume(volume)))
	r.store.SetString(KeyLastNonZeroVolume, formatFloat(domain.ClampVolume(lastNonZero)))
	return nil
}

// LoadVolume retrieves the saved volumes. Out of range values are clamped.
func (r *PreferencesRepository) LoadVolume() (float64, float64, error) {
	r.mu.RLock()
	rawVolume := r.store.String(KeyVolume)
	rawLast := r.store.String(KeyLastNonZeroVolume)
	r.mu.RUnlock()

	volume, errVolume := parseVolume(rawVolume, domain.DefaultVolume)

	// Sessions saved before lastNonZeroVolume existed only carry the volume.
	lastFallback := volume
	if lastFallback == 0 {
		lastFallback = domain.DefaultVolume
	}
	last, errLast := parseVolume(rawLast, lastFallback)
	if last == 0 {
		last = lastFallback
	}

	if errVolume != nil || errLast != nil {
		msg := "malformed volume"
		if errVolume != nil {
			msg = errVolume.Error()
		} else if errLast != nil {
			msg = errLast.Error()
		}
		return volume, last, domain.NewRepositoryError("load", "preferences", msg, domain.ErrPersistenceCorrupt)
	}
	return volume, last, nil
}

// SavePlayMode persists the play mode.
func (r *PreferencesRepository) SavePlayMode(mode domain.PlayMode) error {
	if _, ok := domain.ParsePlayMode(string(mode)); !ok {
		return domain.NewValidationError("playMode", mode, "unknown play mode")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.SetString(KeyPlayMode, string(mode))
	return nil
}

// LoadPlayMode retrieves the saved play mode.
func (r *PreferencesRepository) LoadPlayMode() (domain.PlayMode, error) {
	r.mu.RLock()
	raw := r.store.String(KeyPlayMode)
	r.mu.RUnlock()

	if raw == "" {
		return domain.DefaultPlayMode, nil
	}
	mode, ok := domain.ParsePlayMode(raw)
	if !ok {
		return mode, domain.NewRepositoryError("load", "preferences",
			fmt.Sprintf("unknown play mode %q", raw), domain.ErrPersistenceCorrupt)
	}
	return mode, nil
}

// SaveTheme persists the theme preference.
func (r *PreferencesRepository) SaveTheme(theme domain.Theme) error {
	if _, ok := domain.ParseTheme(string(theme)); !ok {
		return domain.NewValidationError("theme", theme, "unknown theme")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.SetString(KeyTheme, string(theme))
	return nil
}

// LoadTheme retrieves the saved theme preference.
func (r *PreferencesRepository) LoadTheme() (domain.Theme, error) {
	r.mu.RLock()
	raw := r.store.String(KeyTheme)
	r.mu.RUnlock()

	if raw == "" {
		return domain.ThemeLight, nil
	}
	theme, ok := domain.ParseTheme(raw)
	if !ok {
		return theme, domain.NewRepositoryError("load", "preferences",
			fmt.Sprintf("unknown theme %q", raw), domain.ErrPersistenceCorrupt)
	}
	return theme, nil
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range []string{KeyVolume, KeyLastNonZeroVolume, KeyPlayMode, KeyTheme} {
		r.store.RemoveValue(key)
	}
	return nil
}

var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)

package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "com.tunedeck.app", config.AppID)
	assert.Equal(t, "TuneDeck", config.AppName)
	assert.Equal(t, StoragePreferences, config.Storage)
	assert.Equal(t, 44100, config.SampleRate)
	assert.Equal(t, 250*time.Millisecond, config.ProgressInterval)
	assert.False(t, config.UseMockAudio)
	assert.False(t, config.Offline)
	assert.NoError(t, config.Validate())
}

func TestConfig_ApplyEnv(t *testing.T) {
	config := DefaultConfig()

	err := config.ApplyEnv(lookupFrom(map[string]string{
		EnvStorage:        " SQLite ",
		EnvDataDir:        "/tmp/tunedeck",
		EnvCatalogURL:     "http://localhost:8080",
		EnvCatalogTimeout: "2s",
		EnvOffline:        "true",
		EnvMockAudio:      "1",
		EnvLogFormat:      "JSON",
	}))
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, config.Storage)
	assert.Equal(t, filepath.Join("/tmp/tunedeck", "tunedeck.db"), config.DatabasePath())
	assert.Equal(t, "http://localhost:8080", config.CatalogBaseURL)
	assert.Equal(t, 2*time.Second, config.CatalogTimeout)
	assert.True(t, config.Offline)
	assert.True(t, config.UseMockAudio)
	assert.Equal(t, "json", config.LogFormat)
}

func TestConfig_ApplyEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown storage", map[string]string{EnvStorage: "floppy"}},
		{"bad timeout", map[string]string{EnvCatalogTimeout: "soon"}},
		{"bad offline flag", map[string]string{EnvOffline: "maybe"}},
		{"bad mock flag", map[string]string{EnvMockAudio: "perhaps"}},
		{"bad log format", map[string]string{EnvLogFormat: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			assert.Error(t, config.ApplyEnv(lookupFrom(tt.env)))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	config := DefaultConfig()
	config.Storage = StorageSQLite
	config.DataDir = ""
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.ProbeTimeout = -time.Second
	assert.Error(t, config.Validate())
}

func TestVersionInfo(t *testing.T) {
	info := VersionInfo{Version: "dev", GitCommit: "abc123", GitTag: "v1.2.0", BuildTime: "today"}
	assert.Equal(t, "TuneDeck v1.2.0 (commit: abc123, built: today)", info.FullString())

	info.GitTag = ""
	assert.Contains(t, info.FullString(), "TuneDeck dev")
}

func TestShortRevision(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortRevision("0123456789abcdef0123"))
	assert.Equal(t, "abc", shortRevision("abc"))
}

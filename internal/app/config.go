package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"github.com/adrg/xdg"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/catalog/jamendo"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
	"github.com/tejashwikalptaru/tunedeck/internal/service"
)

// Storage selects where the session is persisted.
type Storage string

const (
	// StoragePreferences keeps state in the Fyne application preferences.
	StoragePreferences Storage = "preferences"
	// StorageSQLite keeps state in a SQLite database in the data directory.
	StorageSQLite Storage = "sqlite"
	// StorageMemory keeps nothing across restarts.
	StorageMemory Storage = "memory"
)

// Environment overrides.
const (
	EnvStorage         = "TUNEDECK_STORAGE"
	EnvDataDir         = "TUNEDECK_DATA_DIR"
	EnvAssetsDir       = "TUNEDECK_ASSETS_DIR"
	EnvCatalogURL      = "TUNEDECK_CATALOG_URL"
	EnvCatalogClientID = "TUNEDECK_CATALOG_CLIENT_ID"
	EnvCatalogTimeout  = "TUNEDECK_CATALOG_TIMEOUT"
	EnvOffline         = "TUNEDECK_OFFLINE"
	EnvMockAudio       = "TUNEDECK_MOCK_AUDIO"
	EnvLogFormat       = "TUNEDECK_LOG_FORMAT"
)

const databaseName = "tunedeck.db"

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the display name
	AppName string

	// Storage is the persistence backend
	Storage Storage

	// DataDir holds the SQLite database
	DataDir string

	// AssetsDir resolves relative preset locators such as "assets/..."
	AssetsDir string

	// Catalog settings. Offline disables the remote fallback.
	CatalogBaseURL  string
	CatalogClientID string
	CatalogTimeout  time.Duration
	Offline         bool

	// Duration probing
	ProbeConcurrency int
	ProbeTimeout     time.Duration

	// ProgressInterval is the progress polling period while playing
	ProgressInterval time.Duration

	// SampleRate is the audio output sample rate
	SampleRate int

	// UseMockAudio replaces the speaker with a silent element (for testing)
	UseMockAudio bool

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// LogFormat is "text" or "json"
	LogFormat string

	// LogOutput receives log lines (nil for stderr)
	LogOutput io.Writer

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:            "com.tunedeck.app",
		AppName:          "TuneDeck",
		Storage:          StoragePreferences,
		DataDir:          filepath.Join(xdg.DataHome, "tunedeck"),
		AssetsDir:        ".",
		CatalogBaseURL:   jamendo.DefaultBaseURL,
		CatalogClientID:  jamendo.DefaultClientID,
		CatalogTimeout:   jamendo.DefaultTimeout,
		ProbeConcurrency: service.DefaultProbeConcurrency,
		ProbeTimeout:     service.DefaultProbeTimeout,
		ProgressInterval: service.DefaultProgressInterval,
		SampleRate:       44100,
		LogLevel:         loggerCfg.Level,
		LogFormat:        loggerCfg.Format,
	}
}

// ApplyEnv overrides fields from TUNEDECK_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvStorage); ok {
		c.Storage = Storage(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		c.DataDir = v
	}
	if v, ok := lookup(EnvAssetsDir); ok && v != "" {
		c.AssetsDir = v
	}
	if v, ok := lookup(EnvCatalogURL); ok && v != "" {
		c.CatalogBaseURL = v
	}
	if v, ok := lookup(EnvCatalogClientID); ok && v != "" {
		c.CatalogClientID = v
	}
	if v, ok := lookup(EnvCatalogTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCatalogTimeout, err)
		}
		c.CatalogTimeout = d
	}
	if v, ok := lookup(EnvOffline); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOffline, err)
		}
		c.Offline = b
	}
	if v, ok := lookup(EnvMockAudio); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMockAudio, err)
		}
		c.UseMockAudio = b
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.LogFormat = strings.ToLower(v)
	}
	return c.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Storage {
	case StoragePreferences, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q, want preferences, sqlite or memory", c.Storage)
	}
	if c.Storage == StorageSQLite && c.DataDir == "" {
		return fmt.Errorf("sqlite storage needs a data directory")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q, want text or json", c.LogFormat)
	}
	if c.CatalogTimeout < 0 || c.ProbeTimeout < 0 || c.ProgressInterval < 0 {
		return fmt.Errorf("timeouts and intervals must not be negative")
	}
	return nil
}

// DatabasePath is the SQLite file used by StorageSQLite.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, databaseName)
}

// LoadConfig returns DefaultConfig with environment overrides applied.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

package logger

import (
	"log/slog"
	"os"
)

// NewTestLogger returns a quiet logger for tests: warnings and errors only, as
// text on stdout. Setting TEST_DEBUG turns on debug records with sources.
func NewTestLogger() *slog.Logger {
	cfg := Config{Level: slog.LevelWarn, Format: "text", Output: os.Stdout}
	if os.Getenv("TEST_DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return NewLogger(cfg)
}

// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/catalog/jamendo"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/locator"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/media/beepaudio"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/media/mock"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/render"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/repository/kv"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/repository/sqlite"
	fyneui "github.com/tejashwikalptaru/tunedeck/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/ui/tui"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
	"github.com/tejashwikalptaru/tunedeck/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Restoring the saved session
// - Running one front end (desktop or terminal)
// - Saving and releasing everything on shutdown
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	config  Config
	fyneApp fyne.App

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	locators *locator.Registry
	element  ports.MediaElement
	store    ports.KeyValueStore
	closers  []io.Closer

	// Services
	playlistService   *service.PlaylistService
	playbackService   *service.PlaybackService
	searchService     *service.SearchService
	libraryService    *service.LibraryService
	preferenceService *service.PreferenceService
	session           *service.Session

	// Front end
	presenter *render.Presenter

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewApplication creates a new application with all dependencies wired and the
// saved session restored.
func NewApplication(config Config) (*Application, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	app := &Application{config: config}

	// Step 1: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  config.LogLevel,
		Format: config.LogFormat,
		Output: config.LogOutput,
	})
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("version", GetVersionInfo().FullString()),
		slog.String("storage", string(config.Storage)))

	// Step 2: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger)
	app.traceEvents()
	app.locators = locator.NewRegistry()

	// Step 3: Open storage
	store, err := app.openStore()
	if err != nil {
		return nil, err
	}
	app.store = store

	// Step 4: Create the media element and prober
	var prober ports.DurationProber
	if config.UseMockAudio {
		app.element = mock.NewElement(app.logger.With(slog.String("engine", "mock")))
		prober = mock.NewProber()
	} else {
		mediaCfg := beepaudio.DefaultConfig()
		mediaCfg.SampleRate = config.SampleRate
		mediaCfg.AssetsDir = config.AssetsDir
		app.element = beepaudio.NewElement(app.logger.With(slog.String("engine", "beep")), app.locators, mediaCfg)
		prober = beepaudio.NewProber(app.locators, mediaCfg)
	}

	var catalog ports.CatalogClient
	if !config.Offline {
		catalog = jamendo.NewClient(app.logger, jamendo.Config{
			BaseURL:  config.CatalogBaseURL,
			ClientID: config.CatalogClientID,
			Timeout:  config.CatalogTimeout,
		})
	}

	// Step 5: Create repositories
	playlistRepo := kv.NewPlaylistRepository(store)
	preferencesRepo := kv.NewPreferencesRepository(store)
	historyRepo := kv.NewSearchHistoryRepository(store)

	// Step 6: Create services (with dependency injection)
	app.playlistService = service.NewPlaylistService(
		app.logger.With(slog.String("service", "playlist")),
		playlistRepo,
		app.locators,
		app.eventBus,
		nil,
	)

	app.playbackService = service.NewPlaybackService(
		app.logger.With(slog.String("service", "playback")),
		app.element,
		app.playlistService,
		preferencesRepo,
		app.eventBus,
		service.PlaybackOptions{ProgressInterval: config.ProgressInterval},
	)

	presets := domain.PresetTracks()
	app.searchService = service.NewSearchService(
		app.logger.With(slog.String("service", "search")),
		app.playlistService,
		app.playbackService,
		catalog,
		historyRepo,
		app.eventBus,
		service.SearchOptions{Presets: presets},
	)

	app.libraryService = service.NewLibraryService(
		app.logger.With(slog.String("service", "library")),
		app.playlistService,
		app.locators,
		prober,
		app.eventBus,
		service.LibraryOptions{
			ProbeConcurrency: config.ProbeConcurrency,
			ProbeTimeout:     config.ProbeTimeout,
		},
	)

	app.preferenceService = service.NewPreferenceService(
		app.logger.With(slog.String("service", "preference")),
		preferencesRepo,
		app.eventBus,
	)

	app.session = service.NewSession(app.logger.With(slog.String("service", "session")), service.SessionDeps{
		Playlist:              app.playlistService,
		Playback:              app.playbackService,
		Search:                app.searchService,
		Library:               app.libraryService,
		Preferences:           app.preferenceService,
		PlaylistRepository:    playlistRepo,
		PreferencesRepository: preferencesRepo,
		Presets:               presets,
	})

	// Step 7: Load saved state
	if err := app.session.Restore(); err != nil {
		// Non-fatal - just log and continue
		app.logger.Warn("failed to load saved state", slog.Any("error", err))
	}

	return app, nil
}

// traceEvents logs every event except progress ticks at debug level.
func (a *Application) traceEvents() {
	if !a.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	trace := a.logger.With(slog.String("component", "trace"))
	a.eventBus.SubscribeAll(func(event domain.Event) {
		if event.Type() == domain.EventTrackProgress {
			return
		}
		trace.Debug("event", slog.String("type", string(event.Type())))
	})
}

// openStore opens the configured key-value backend.
func (a *Application) openStore() (ports.KeyValueStore, error) {
	switch a.config.Storage {
	case StorageMemory:
		return memory.NewStore(), nil

	case StorageSQLite:
		if err := os.MkdirAll(a.config.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := sqlite.Open(a.logger.With(slog.String("component", "sqlite")), a.config.DatabasePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, store)
		return store, nil

	default:
		return a.FyneApp().Preferences(), nil
	}
}

// FyneApp returns the Fyne application, creating it on first use.
func (a *Application) FyneApp() fyne.App {
	if a.fyneApp == nil {
		if a.config.TestFyneApp != nil {
			a.fyneApp = a.config.TestFyneApp
		} else {
			a.fyneApp = fyneapp.NewWithID(a.config.AppID)
		}
	}
	return a.fyneApp
}

// Session returns the running session.
func (a *Application) Session() *service.Session {
	return a.session
}

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// addFiles queues files given on the command line. Folders are scanned recursively.
func (a *Application) addFiles(args []string) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := service.ScanFolder(context.Background(), arg)
		if err != nil {
			a.logger.Warn("failed to scan folder", slog.String("path", arg), slog.Any("error", err))
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return
	}

	result := a.session.AddFiles(paths)
	a.logger.Info("files added",
		slog.Int("added", len(result.Added)),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("rejected", result.Rejected))
}

// RunGUI shows the desktop window and blocks until it is closed.
// paths are added to the playlist first.
func (a *Application) RunGUI(paths []string) error {
	a.addFiles(paths)

	mainWindow := fyneui.NewMainWindow(a.FyneApp(), a.logger, fyneui.Options{AssetsDir: a.config.AssetsDir})
	a.presenter = render.NewPresenter(
		a.logger.With(slog.String("component", "presenter")),
		a.session,
		a.eventBus,
		mainWindow,
	)
	mainWindow.SetPresenter(a.presenter)

	a.logger.Info("TuneDeck started", slog.String("frontend", "fyne"))
	mainWindow.ShowAndRun()
	return nil
}

// RunTUI runs the terminal interface and blocks until the user quits.
// paths are added to the playlist first.
func (a *Application) RunTUI(paths []string) error {
	sink := tui.NewSink()
	a.presenter = render.NewPresenter(
		a.logger.With(slog.String("component", "presenter")),
		a.session,
		a.eventBus,
		sink,
	)
	// Added after the presenter exists so the notification reaches the screen
	a.addFiles(paths)

	a.logger.Info("TuneDeck started", slog.String("frontend", "tui"))
	return tui.Run(a.presenter, sink)
}

// RunHeadless plays the playlist without a window, logging what happens, until
// ctx is done. paths are added to the playlist first.
func (a *Application) RunHeadless(ctx context.Context, paths []string) error {
	a.presenter = render.NewPresenter(
		a.logger.With(slog.String("component", "presenter")),
		a.session,
		a.eventBus,
		render.NewLogSink(a.logger),
	)
	a.addFiles(paths)

	if a.session.Playlist().Len() == 0 {
		return fmt.Errorf("nothing to play")
	}

	a.logger.Info("TuneDeck started", slog.String("frontend", "headless"))
	a.presenter.OnPlayClicked()
	<-ctx.Done()
	return nil
}

// Shutdown saves the session and releases every resource.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		// Shutdown presenter first so no view receives late events
		if a.presenter != nil {
			a.presenter.Shutdown()
		}

		errs := []error{a.session.Shutdown()}

		if err := a.element.Close(); err != nil {
			a.logger.Warn("failed to close media element", slog.Any("error", err))
			errs = append(errs, err)
		}

		for _, c := range a.closers {
			if err := c.Close(); err != nil {
				a.logger.Warn("failed to close storage", slog.Any("error", err))
				errs = append(errs, err)
			}
		}

		if err := a.eventBus.Close(); err != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", err))
			errs = append(errs, err)
		}

		a.shutdownErr = errors.Join(errs...)
		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}

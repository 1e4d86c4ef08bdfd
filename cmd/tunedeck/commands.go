package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/render"
	"github.com/tejashwikalptaru/tunedeck/internal/app"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
	"github.com/tejashwikalptaru/tunedeck/internal/service"
)

// options are the persistent flags shared by every command.
type options struct {
	storage   string
	dataDir   string
	assetsDir string
	offline   bool
	mockAudio bool
	logLevel  string
	logFormat string
}

// config builds the application config: defaults, then environment, then flags.
func (o *options) config(cmd *cobra.Command) (app.Config, error) {
	config, err := app.LoadConfig()
	if err != nil {
		return app.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("storage") {
		config.Storage = app.Storage(strings.ToLower(o.storage))
	}
	if flags.Changed("data-dir") {
		config.DataDir = o.dataDir
	}
	if flags.Changed("assets") {
		config.AssetsDir = o.assetsDir
	}
	if flags.Changed("offline") {
		config.Offline = o.offline
	}
	if flags.Changed("mock-audio") {
		config.UseMockAudio = o.mockAudio
	}
	if flags.Changed("log-format") {
		config.LogFormat = strings.ToLower(o.logFormat)
	}
	if flags.Changed("log-level") {
		level, ok := logger.ParseLevel(o.logLevel)
		if !ok {
			return app.Config{}, fmt.Errorf("unknown log level %q", o.logLevel)
		}
		config.LogLevel = level
	}
	return config, config.Validate()
}

// headless adjusts a config for commands that only read the saved session.
func headless(config app.Config, cmd *cobra.Command) app.Config {
	config.UseMockAudio = true
	config.Offline = true
	if !cmd.Flags().Changed("log-level") {
		config.LogLevel = slog.LevelWarn
	}
	return config
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "tunedeck [files...]",
		Short:         "A playlist music player with fuzzy search",
		Long:          "TuneDeck plays local files and online catalog tracks from one playlist.\nWithout a subcommand it opens the desktop window.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       app.GetVersionInfo().FullString(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrontend(cmd, opts, args, (*app.Application).RunGUI)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.storage, "storage", string(app.StoragePreferences), "Persistence backend: preferences, sqlite or memory")
	flags.StringVar(&opts.dataDir, "data-dir", app.DefaultConfig().DataDir, "Directory of the SQLite database")
	flags.StringVar(&opts.assetsDir, "assets", ".", "Directory holding the bundled assets")
	flags.BoolVar(&opts.offline, "offline", false, "Disable the online catalog fallback")
	flags.BoolVar(&opts.mockAudio, "mock-audio", false, "Play silently without an audio device")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(
		cmdGUI(opts),
		cmdTUI(opts),
		cmdPlay(opts),
		cmdList(opts),
		cmdSearch(opts),
		cmdHistory(opts),
	)
	return cmd
}

func cmdGUI(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "gui [files...]",
		Short: "Open the desktop window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrontend(cmd, opts, args, (*app.Application).RunGUI)
		},
	}
}

func cmdTUI(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [files...]",
		Short: "Run the terminal interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.config(cmd)
			if err != nil {
				return err
			}
			// Logs would tear the alt screen apart
			if !cmd.Flags().Changed("log-level") {
				config.LogLevel = slog.LevelError
			}
			return runApplication(config, func(a *app.Application) error {
				return a.RunTUI(args)
			})
		},
	}
}

func cmdPlay(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "play [files...]",
		Short: "Play the playlist without a window until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.config(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runApplication(config, func(a *app.Application) error {
				return a.RunHeadless(ctx, args)
			})
		},
	}
}

func cmdList(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the saved playlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := opts.config(cmd)
			if err != nil {
				return err
			}
			return runApplication(headless(config, cmd), func(a *app.Application) error {
				return printPlaylist(cmd.OutOrStdout(), a.Session())
			})
		},
	}
}

func cmdSearch(opts *options) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the saved playlist by title or artist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.config(cmd)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			return runApplication(headless(config, cmd), func(a *app.Application) error {
				search := a.Session().Search()
				if plain {
					search.SetMode(service.SearchPlain)
				}
				return printResults(cmd.OutOrStdout(), search, query)
			})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Substring matching only, in playlist order")
	return cmd
}

func cmdHistory(opts *options) *cobra.Command {
	var clearHistory bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print or clear the search history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := opts.config(cmd)
			if err != nil {
				return err
			}
			return runApplication(headless(config, cmd), func(a *app.Application) error {
				search := a.Session().Search()
				if clearHistory {
					return search.ClearHistory()
				}
				for _, q := range search.History() {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), q); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearHistory, "clear", false, "Forget every saved query")
	return cmd
}

func runFrontend(cmd *cobra.Command, opts *options, args []string, run func(*app.Application, []string) error) error {
	config, err := opts.config(cmd)
	if err != nil {
		return err
	}
	return runApplication(config, func(a *app.Application) error {
		return run(a, args)
	})
}

// runApplication creates the application, runs fn and always shuts down.
func runApplication(config app.Config, fn func(*app.Application) error) (err error) {
	application, err := app.NewApplication(config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		if shutdownErr := application.Shutdown(); shutdownErr != nil && err == nil {
			err = fmt.Errorf("shutdown: %w", shutdownErr)
		}
	}()

	return fn(application)
}

func printPlaylist(w io.Writer, session *service.Session) error {
	playlist := session.Playlist()
	current := playlist.CurrentIndex()
	for i, t := range playlist.Tracks() {
		marker := " "
		if i == current {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %2d. %s  %s\n", marker, i+1, t.DisplayName(), render.FormatDuration(t.Duration)); err != nil {
			return err
		}
	}
	return nil
}

func printResults(w io.Writer, search *service.SearchService, query string) error {
	results := search.Rank(query)
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, service.MessageNoMatches)
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%3d  %2d. %s\n", r.Score, r.Index+1, r.Track.DisplayName()); err != nil {
			return err
		}
	}
	return nil
}

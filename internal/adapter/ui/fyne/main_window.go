// Package fyne is the desktop front end. MainWindow is a render sink driven
// by the render.Presenter and forwards user input back to it.
package fyne

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/render"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

const (
	// AppName is the window title.
	AppName = "TuneDeck"

	windowWidth  = 420
	windowHeight = 600
	marqueeWidth = 36
	marqueeStep  = 300 * time.Millisecond
	volumeStep   = 0.05
)

// Options configure the window.
type Options struct {
	// AssetsDir is where relative cover and preset locators live.
	AssetsDir string
}

// MainWindow is the player window.
//
// Sink methods may be called from any goroutine; they marshal onto the Fyne
// goroutine with fyne.Do. Fields below State are only touched there.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger
	opts   Options

	// UI components
	prevButton     *widget.Button
	playButton     *widget.Button
	nextButton     *widget.Button
	muteButton     *widget.Button
	modeButton     *widget.Button
	songInfo       *widget.Label
	currentTime    *widget.Label
	endTime        *widget.Label
	progressSlider *widget.Slider
	volumeSlider   *widget.Slider
	albumArt       *canvas.Image
	searchEntry    *widget.SelectEntry
	resultsList    *widget.List

	// State
	tracks   []domain.Track
	current  int
	results  []domain.SearchResult
	seeking  bool
	rotator  *widgets.Rotator
	playlist *PlaylistWindow

	// Lifecycle management
	stopScroll chan struct{}
	closeOnce  sync.Once

	// Presenter (set after construction)
	presenter *render.Presenter
}

// NewMainWindow creates the window. Call SetPresenter before showing it.
func NewMainWindow(app fyneapp.App, logger *slog.Logger, opts Options) *MainWindow {
	w := &MainWindow{
		app:        app,
		logger:     logger.With(slog.String("component", "fyne")),
		opts:       opts,
		rotator:    widgets.NewRotator(AppName, marqueeWidth),
		stopScroll: make(chan struct{}),
	}

	w.window = app.NewWindow(AppName)
	w.buildUI()
	w.window.Resize(fyneapp.NewSize(windowWidth, windowHeight))
	return w
}

// SetPresenter connects the presenter to this view.
func (w *MainWindow) SetPresenter(presenter *render.Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

func (w *MainWindow) buildUI() {
	w.albumArt = canvas.NewImageFromResource(theme.MediaMusicIcon())
	w.albumArt.FillMode = canvas.ImageFillContain
	w.albumArt.SetMinSize(fyneapp.NewSize(240, 240))
	art := widgets.NewTappableStack(w.albumArt, w.onArtTapped, w.showContextMenu)

	w.prevButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), nil)
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), nil)
	w.muteButton = widget.NewButtonWithIcon("", theme.VolumeUpIcon(), nil)
	w.modeButton = widget.NewButtonWithIcon(domain.DefaultPlayMode.Label(), theme.MediaReplayIcon(), nil)

	w.songInfo = widget.NewLabel(w.rotator.Text())
	w.songInfo.Truncation = fyneapp.TextTruncateClip
	w.songInfo.TextStyle = fyneapp.TextStyle{Bold: true, Italic: true}

	w.volumeSlider = widget.NewSlider(0, 100)
	volumeHolder := container.NewBorder(nil, nil, w.muteButton, nil, w.volumeSlider)

	buttons := container.NewHBox(w.prevButton, w.playButton, w.nextButton, w.modeButton)

	w.progressSlider = widget.NewSlider(0, 1)
	w.progressSlider.Step = 0.001
	w.currentTime = widget.NewLabel(render.FormatTime(0))
	w.endTime = widget.NewLabel(render.UnknownTime)
	sliderHolder := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	w.searchEntry = widget.NewSelectEntry(nil)
	w.searchEntry.SetPlaceHolder("Search songs or artists...")
	w.resultsList = widget.NewList(
		func() int { return len(w.results) },
		func() fyneapp.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, obj fyneapp.CanvasObject) {
			if i < 0 || i >= len(w.results) {
				return
			}
			obj.(*widget.Label).SetText(w.results[i].Track.DisplayName())
		},
	)
	w.resultsList.Hide()

	controls := container.NewVBox(w.songInfo, sliderHolder, container.NewBorder(nil, nil, buttons, nil, volumeHolder))
	center := container.NewStack(art, w.resultsList)
	w.window.SetContent(container.NewPadded(container.NewBorder(w.searchEntry, controls, nil, nil, center)))

	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	// Commands may touch the network or the audio device, so they run off the UI goroutine.
	w.playButton.OnTapped = func() { go w.presenter.OnPlayClicked() }
	w.nextButton.OnTapped = func() { go w.presenter.OnNextClicked() }
	w.prevButton.OnTapped = func() { go w.presenter.OnPreviousClicked() }
	w.muteButton.OnTapped = w.presenter.OnMuteClicked
	w.modeButton.OnTapped = w.presenter.OnPlayModeClicked

	w.volumeSlider.OnChanged = w.presenter.OnVolumeChanged

	w.progressSlider.OnChanged = func(value float64) {
		if !w.seeking {
			w.seeking = true
			w.presenter.OnSeekStarted()
		}
		w.currentTime.SetText(render.FormatTime(time.Duration(value * float64(w.loadedDuration()))))
		w.presenter.OnSeekChanged(value)
	}
	w.progressSlider.OnChangeEnded = func(float64) {
		w.seeking = false
		go w.presenter.OnSeekEnded()
	}

	w.searchEntry.OnChanged = func(query string) {
		if query == "" {
			go w.presenter.OnSearchCleared()
			w.searchEntry.SetOptions(nil)
			return
		}
		options := make([]string, 0)
		for _, s := range w.presenter.Suggestions(query) {
			options = append(options, s.Text)
		}
		w.searchEntry.SetOptions(options)
	}
	w.searchEntry.OnSubmitted = func(query string) {
		go w.presenter.OnSearch(query)
	}
	w.resultsList.OnSelected = func(id widget.ListItemID) {
		if id < 0 || id >= len(w.results) {
			return
		}
		result := w.results[id]
		w.resultsList.UnselectAll()
		w.searchEntry.SetText("")
		go w.presenter.OnSearchResultSelected(result)
	}
}

func (w *MainWindow) loadedDuration() time.Duration {
	return w.presenter.Status().Duration
}

func (w *MainWindow) createMenu() []*fyneapp.Menu {
	separator := fyneapp.NewMenuItemSeparator()

	openFile := fyneapp.NewMenuItem("Add Files...", w.handleOpenFile)
	openFolder := fyneapp.NewMenuItem("Add Folder...", w.handleOpenFolder)
	viewPlaylist := fyneapp.NewMenuItem("View Playlist", w.showPlaylistWindow)
	clearPlaylist := fyneapp.NewMenuItem("Clear Playlist", func() {
		if w.presenter != nil {
			w.presenter.OnClearPlaylist()
		}
	})
	exitMenu := fyneapp.NewMenuItem("Exit", func() { w.window.Close() })

	shuffle := fyneapp.NewMenuItem("Shuffle Playlist", func() {
		if w.presenter != nil {
			w.presenter.OnShuffleClicked()
		}
	})
	toggleTheme := fyneapp.NewMenuItem("Toggle Theme", func() {
		if w.presenter != nil {
			w.presenter.OnThemeToggled()
		}
	})
	about := fyneapp.NewMenuItem("About", func() { showAbout(w.window) })

	return []*fyneapp.Menu{
		fyneapp.NewMenu("File", openFile, openFolder, separator, viewPlaylist, clearPlaylist, separator, exitMenu),
		fyneapp.NewMenu("View", shuffle, toggleTheme),
		fyneapp.NewMenu("Help", about),
	}
}

func (w *MainWindow) handleOpenFile() {
	if w.presenter == nil {
		return
	}
	NewFileDialog(w.window, w.logger, func(path string) {
		go w.presenter.OnFilesOpened([]string{path})
	}).Show()
}

func (w *MainWindow) handleOpenFolder() {
	if w.presenter == nil {
		return
	}
	NewFolderDialog(w.window, w.logger, func(paths []string) {
		go w.presenter.OnFilesOpened(paths)
	}).Show()
}

func (w *MainWindow) showPlaylistWindow() {
	if w.presenter == nil {
		return
	}
	if w.playlist == nil {
		w.playlist = NewPlaylistWindow(w.app, w.presenter)
		w.playlist.SetOnWindowClosed(func() { w.playlist = nil })
		w.playlist.SetTracks(w.tracks, w.current)
	}
	w.playlist.Show()
}

func (w *MainWindow) onArtTapped() {
	if w.presenter != nil {
		go w.presenter.OnPlayClicked()
	}
}

func (w *MainWindow) showContextMenu(pe *fyneapp.PointEvent) {
	if w.presenter == nil {
		return
	}
	menu := fyneapp.NewMenu("",
		fyneapp.NewMenuItem("Next Play Mode", w.presenter.OnPlayModeClicked),
		fyneapp.NewMenuItem("Shuffle Playlist", w.presenter.OnShuffleClicked),
		fyneapp.NewMenuItem("View Playlist", w.showPlaylistWindow),
		fyneapp.NewMenuItem("Toggle Theme", w.presenter.OnThemeToggled),
	)
	widget.ShowPopUpMenuAtPosition(menu, w.window.Canvas(), pe.AbsolutePosition)
}

func (w *MainWindow) addShortcuts() {
	shortcuts := map[fyneapp.KeyName]func(){
		fyneapp.KeyUp:    func() { w.presenter.OnVolumeStep(volumeStep) },
		fyneapp.KeyDown:  func() { w.presenter.OnVolumeStep(-volumeStep) },
		fyneapp.KeyRight: func() { go w.presenter.OnNextClicked() },
		fyneapp.KeyLeft:  func() { go w.presenter.OnPreviousClicked() },
		fyneapp.KeyM:     w.presenter.OnMuteClicked,
		fyneapp.KeySpace: func() { go w.presenter.OnPlayClicked() },
	}
	for key, action := range shortcuts {
		w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
			KeyName:  key,
			Modifier: fyneapp.KeyModifierAlt,
		}, func(fyneapp.Shortcut) { action() })
	}
}

// startScrollInfoRoutine scrolls long track names until the window closes.
func (w *MainWindow) startScrollInfoRoutine() {
	go func() {
		ticker := time.NewTicker(marqueeStep)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fyneapp.Do(func() {
					if w.rotator.Scrolls() {
						w.songInfo.SetText(w.rotator.Rotate())
					}
				})
			case <-w.stopScroll:
				return
			}
		}
	}()
}

// ShowAndRun shows the window and runs the application until it quits.
func (w *MainWindow) ShowAndRun() {
	w.window.SetOnClosed(w.stop)
	w.startScrollInfoRoutine()
	w.window.ShowAndRun()
	w.stop()
}

func (w *MainWindow) stop() {
	w.closeOnce.Do(func() { close(w.stopScroll) })
}

// Close closes the window.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.stop()
	w.window.Close()
}

// Window returns the underlying Fyne window.
func (w *MainWindow) Window() fyneapp.Window {
	return w.window
}

// Render sink implementation

// OnPlaylistChanged refreshes the playlist window.
func (w *MainWindow) OnPlaylistChanged(tracks []domain.Track, currentIndex int) {
	fyneapp.Do(func() {
		w.tracks, w.current = tracks, currentIndex
		if len(tracks) == 0 {
			w.showTrack(nil)
		}
		if w.playlist != nil {
			w.playlist.SetTracks(tracks, currentIndex)
		}
	})
}

// OnPlaybackStateChanged swaps the play and pause icons.
func (w *MainWindow) OnPlaybackStateChanged(state domain.PlaybackState) {
	fyneapp.Do(func() {
		if state.IsActive() {
			w.playButton.SetIcon(theme.MediaPauseIcon())
		} else {
			w.playButton.SetIcon(theme.MediaPlayIcon())
		}
	})
}

// OnProgress moves the progress slider unless the user is dragging it.
func (w *MainWindow) OnProgress(currentTime, duration time.Duration) {
	fyneapp.Do(func() {
		w.endTime.SetText(render.FormatDuration(duration))
		if w.seeking {
			return
		}
		w.currentTime.SetText(render.FormatTime(currentTime))
		w.progressSlider.Value = render.Fraction(currentTime, duration)
		w.progressSlider.Refresh()
	})
}

// OnVolumeChanged moves the volume slider and updates the mute icon.
func (w *MainWindow) OnVolumeChanged(volume float64) {
	fyneapp.Do(func() {
		w.volumeSlider.Value = volume * 100
		w.volumeSlider.Refresh()
		if volume == 0 {
			w.muteButton.SetIcon(theme.VolumeMuteIcon())
		} else {
			w.muteButton.SetIcon(theme.VolumeUpIcon())
		}
	})
}

// OnSearchResults shows results over the cover, or the cover when cleared.
func (w *MainWindow) OnSearchResults(results []domain.SearchResult, query string) {
	fyneapp.Do(func() {
		w.results = results
		if query == "" || len(results) == 0 {
			w.resultsList.Hide()
		} else {
			w.resultsList.Show()
		}
		w.resultsList.Refresh()
	})
}

// OnTrackLoaded shows the title and cover of the loaded track.
func (w *MainWindow) OnTrackLoaded(track domain.Track, _ int) {
	fyneapp.Do(func() { w.showTrack(&track) })
}

func (w *MainWindow) showTrack(track *domain.Track) {
	if track == nil {
		w.rotator.Reset(AppName)
		w.songInfo.SetText(w.rotator.Text())
		w.setCover(nil)
		return
	}
	w.rotator.Reset(track.DisplayName())
	w.songInfo.SetText(w.rotator.Text())
	w.window.SetTitle(track.Title + " - " + AppName)
	w.setCover(track)
}

// setCover loads the cover in the background. Remote covers may be slow.
func (w *MainWindow) setCover(track *domain.Track) {
	if track == nil || track.Cover == "" {
		w.albumArt.Resource = theme.MediaMusicIcon()
		w.albumArt.File = ""
		w.albumArt.Refresh()
		return
	}

	cover := track.Cover
	go func() {
		var (
			res fyneapp.Resource
			err error
		)
		if cover.IsRemote() {
			res, err = fyneapp.LoadResourceFromURLString(cover.String())
		} else {
			path := cover.String()
			if !filepath.IsAbs(path) {
				path = filepath.Join(w.opts.AssetsDir, path)
			}
			res, err = fyneapp.LoadResourceFromPath(path)
		}
		if err != nil {
			w.logger.Debug("cover unavailable", slog.String("cover", cover.String()), slog.Any("error", err))
			res = theme.MediaMusicIcon()
		}
		fyneapp.Do(func() {
			w.albumArt.Resource = res
			w.albumArt.File = ""
			w.albumArt.Refresh()
		})
	}()
}

// OnPlayModeChanged shows the mode on its button.
func (w *MainWindow) OnPlayModeChanged(mode domain.PlayMode) {
	fyneapp.Do(func() {
		w.modeButton.SetText(mode.Label())
		switch mode {
		case domain.PlayModeRandom:
			w.modeButton.SetIcon(theme.MediaFastForwardIcon())
		case domain.PlayModeSingleLoop:
			w.modeButton.SetIcon(theme.MediaReplayIcon())
		default:
			w.modeButton.SetIcon(theme.ListIcon())
		}
	})
}

// OnThemeChanged switches the Fyne theme variant.
func (w *MainWindow) OnThemeChanged(t domain.Theme) {
	fyneapp.Do(func() { w.app.Settings().SetTheme(newVariantTheme(t)) })
}

// OnNotification shows a system notification.
func (w *MainWindow) OnNotification(message string) {
	w.app.SendNotification(fyneapp.NewNotification(AppName, message))
}

var (
	_ ports.RenderSink       = (*MainWindow)(nil)
	_ ports.TrackSink        = (*MainWindow)(nil)
	_ ports.PlayModeSink     = (*MainWindow)(nil)
	_ ports.ThemeSink        = (*MainWindow)(nil)
	_ ports.NotificationSink = (*MainWindow)(nil)
)

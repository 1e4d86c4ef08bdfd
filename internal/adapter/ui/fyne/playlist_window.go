package fyne

import (
	"fmt"
	"strings"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/render"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/fuzzy"
)

// row is a visible playlist entry and its position in the full playlist.
type row struct {
	track domain.Track
	index int
}

// PlaylistWindow lists the playlist with a quick filter. Double tap plays a
// track; right click offers remove and reorder.
//
// All methods run on the Fyne goroutine. MainWindow forwards playlist changes.
type PlaylistWindow struct {
	window      fyneapp.Window
	app         fyneapp.App
	list        *widget.List
	filterEntry *widget.Entry

	// Data state
	data         []row          // Filtered view (shown in the list)
	tracks       []domain.Track // Full playlist
	currentIndex int

	// Dependencies
	presenter *render.Presenter

	// Lifecycle
	onWindowClosed func()
}

// NewPlaylistWindow creates a new playlist window.
func NewPlaylistWindow(app fyneapp.App, presenter *render.Presenter) *PlaylistWindow {
	w := &PlaylistWindow{
		app:          app,
		presenter:    presenter,
		currentIndex: -1,
	}

	w.window = app.NewWindow("Playlist")
	w.window.Resize(fyneapp.NewSize(500, 600))
	w.buildUI()

	w.window.SetOnClosed(func() {
		if w.onWindowClosed != nil {
			w.onWindowClosed()
		}
	})
	return w
}

func (w *PlaylistWindow) buildUI() {
	w.filterEntry = widget.NewEntry()
	w.filterEntry.SetPlaceHolder("Filter...")
	w.filterEntry.OnChanged = func(string) { w.applyFilter() }

	w.list = widget.NewList(
		func() int {
			return len(w.data)
		},
		func() fyneapp.CanvasObject {
			label := widgets.NewTrackLabel(w.onRowDoubleTapped)
			label.SetSecondaryTapped(w.onRowSecondaryTapped)
			return label
		},
		w.updateCell,
	)

	shuffle := widget.NewButton("Shuffle", w.presenter.OnShuffleClicked)
	clearButton := widget.NewButton("Clear", w.presenter.OnClearPlaylist)
	buttons := container.NewHBox(shuffle, clearButton)

	w.window.SetContent(container.NewBorder(w.filterEntry, buttons, nil, nil, w.list))
}

func (w *PlaylistWindow) updateCell(i widget.ListItemID, obj fyneapp.CanvasObject) {
	label, ok := obj.(*widgets.TrackLabel)
	if !ok || i < 0 || i >= len(w.data) {
		return
	}

	r := w.data[i]
	label.SetIndex(i)
	text := fmt.Sprintf("%d. %s  %s", r.index+1, r.track.DisplayName(), render.FormatDuration(r.track.Duration))
	label.SetTrack(text, r.index == w.currentIndex)
}

func (w *PlaylistWindow) onRowDoubleTapped(i int) {
	if i < 0 || i >= len(w.data) {
		return
	}
	go w.presenter.OnTrackSelected(w.data[i].index)
}

func (w *PlaylistWindow) onRowSecondaryTapped(i int, pos fyneapp.Position) {
	if i < 0 || i >= len(w.data) {
		return
	}
	index := w.data[i].index
	menu := fyneapp.NewMenu("",
		fyneapp.NewMenuItem("Play", func() { go w.presenter.OnTrackSelected(index) }),
		fyneapp.NewMenuItem("Move Up", func() { w.presenter.OnMoveTrack(index, index-1) }),
		fyneapp.NewMenuItem("Move Down", func() { w.presenter.OnMoveTrack(index, index+1) }),
		fyneapp.NewMenuItemSeparator(),
		fyneapp.NewMenuItem("Remove", func() { go w.presenter.OnRemoveTrack(index) }),
	)
	widget.ShowPopUpMenuAtPosition(menu, w.window.Canvas(), pos)
}

// SetTracks replaces the listed playlist and highlights the current track.
func (w *PlaylistWindow) SetTracks(tracks []domain.Track, currentIndex int) {
	w.tracks = tracks
	w.currentIndex = currentIndex
	w.applyFilter()
}

// applyFilter rebuilds the visible rows from the filter text.
func (w *PlaylistWindow) applyFilter() {
	query := strings.TrimSpace(w.filterEntry.Text)

	w.data = w.data[:0]
	for i, t := range w.tracks {
		if query == "" || fuzzy.Contains(t.Title, query) || fuzzy.Contains(t.Artist, query) {
			w.data = append(w.data, row{track: t, index: i})
		}
	}

	w.window.SetTitle(fmt.Sprintf("Playlist (%d of %d)", len(w.data), len(w.tracks)))
	w.list.Refresh()
	w.scrollToCurrent()
}

func (w *PlaylistWindow) scrollToCurrent() {
	for i, r := range w.data {
		if r.index == w.currentIndex {
			w.list.ScrollTo(i)
			return
		}
	}
}

// Show displays the playlist window.
func (w *PlaylistWindow) Show() {
	w.window.Show()
}

// Close closes the playlist window.
func (w *PlaylistWindow) Close() {
	w.window.Close()
}

// SetOnWindowClosed sets a callback to be invoked when the window is closed.
func (w *PlaylistWindow) SetOnWindowClosed(callback func()) {
	w.onWindowClosed = callback
}

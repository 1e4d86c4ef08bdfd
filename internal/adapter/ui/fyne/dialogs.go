package fyne

import (
	"context"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/tunedeck/internal/service"
)

const aboutContent = `A lightweight music player built with Go and Fyne.

**Features:**
- Playlist with sequential, shuffle and repeat-one modes
- Fuzzy search over titles and artists, with an online catalog fallback
- Local MP3, WAV, FLAC and Ogg files
- Playlist, volume, play mode and theme survive restarts
`

// FileDialog asks for one audio file.
type FileDialog struct {
	window   fyne.Window
	callback func(string)
	logger   *slog.Logger
}

// NewFileDialog creates a new file dialog.
func NewFileDialog(window fyne.Window, logger *slog.Logger, callback func(string)) *FileDialog {
	return &FileDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the file dialog, filtered to supported audio files.
func (d *FileDialog) Show() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			d.logger.Error("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // User cancelled
		}
		defer reader.Close()

		if d.callback != nil {
			d.callback(reader.URI().Path())
		}
	}, d.window)
	fd.SetFilter(storage.NewExtensionFileFilter(service.SupportedExtensions()))
	fd.Show()
}

// FolderDialog asks for a folder and reports the audio files below it.
type FolderDialog struct {
	window   fyne.Window
	callback func([]string)
	logger   *slog.Logger
}

// NewFolderDialog creates a new folder dialog.
func NewFolderDialog(window fyne.Window, logger *slog.Logger, callback func([]string)) *FolderDialog {
	return &FolderDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the folder dialog.
func (d *FolderDialog) Show() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			d.logger.Error("folder dialog error", slog.Any("error", err))
			return
		}
		if uri == nil {
			return // User cancelled
		}

		paths, err := service.ScanFolder(context.Background(), uri.Path())
		if err != nil {
			d.logger.Error("failed to list folder", slog.String("path", uri.Path()), slog.Any("error", err))
			dialog.ShowError(err, d.window)
			return
		}
		if d.callback != nil {
			d.callback(paths)
		}
	}, d.window)
}

func showAbout(window fyne.Window) {
	content := widget.NewRichTextFromMarkdown(aboutContent)
	content.Wrapping = fyne.TextWrapWord
	dialog.ShowCustom("About "+AppName, "Close", content, window)
}

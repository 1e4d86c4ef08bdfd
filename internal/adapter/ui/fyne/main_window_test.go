package fyne

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func newTestWindow(t *testing.T) *MainWindow {
	t.Helper()
	app := test.NewApp()
	w := NewMainWindow(app, logger.NewTestLogger(), Options{})
	t.Cleanup(func() {
		w.Close()
		app.Quit()
	})
	return w
}

func TestMainWindow_Progress(t *testing.T) {
	w := newTestWindow(t)

	w.OnProgress(30*time.Second, 2*time.Minute)

	assert.Eventually(t, func() bool {
		return w.currentTime.Text == "00:30" && w.endTime.Text == "02:00"
	}, waitFor, tick)
	assert.InDelta(t, 0.25, w.progressSlider.Value, 1e-9)
}

func TestMainWindow_ProgressIgnoredWhileSeeking(t *testing.T) {
	w := newTestWindow(t)
	w.seeking = true

	w.OnProgress(30*time.Second, 2*time.Minute)

	assert.Eventually(t, func() bool { return w.endTime.Text == "02:00" }, waitFor, tick)
	assert.Equal(t, "00:00", w.currentTime.Text)
	assert.Zero(t, w.progressSlider.Value)
}

func TestMainWindow_VolumeAndMode(t *testing.T) {
	w := newTestWindow(t)

	w.OnVolumeChanged(0.4)
	assert.Eventually(t, func() bool { return w.volumeSlider.Value == 40 }, waitFor, tick)

	w.OnPlayModeChanged(domain.PlayModeSingleLoop)
	assert.Eventually(t, func() bool { return w.modeButton.Text == "Repeat One" }, waitFor, tick)
}

func TestMainWindow_TrackLoaded(t *testing.T) {
	w := newTestWindow(t)

	w.OnTrackLoaded(domain.Track{Title: "Night Owl", Artist: "Broke For Free"}, 0)

	assert.Eventually(t, func() bool {
		return w.songInfo.Text == "Night Owl - Broke For Free"
	}, waitFor, tick)

	// An empty playlist resets the display
	w.OnPlaylistChanged(nil, 0)
	assert.Eventually(t, func() bool { return w.songInfo.Text == AppName }, waitFor, tick)
}

func TestMainWindow_SearchResultsToggleList(t *testing.T) {
	w := newTestWindow(t)

	w.OnSearchResults([]domain.SearchResult{{Track: domain.Track{Title: "A", Artist: "B"}}}, "a")
	assert.Eventually(t, func() bool { return w.resultsList.Visible() }, waitFor, tick)

	w.OnSearchResults(nil, "")
	assert.Eventually(t, func() bool { return !w.resultsList.Visible() }, waitFor, tick)
}

// Package widgets provides custom Fyne widgets for the tunedeck window.
package widgets

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// TappableStack wraps the cover art. A primary tap toggles playback and a
// secondary tap opens the player context menu.
type TappableStack struct {
	widget.BaseWidget

	content        fyne.CanvasObject
	onTap          func()
	onSecondaryTap func(*fyne.PointEvent)
}

// NewTappableStack creates a new tappable stack with the given content.
func NewTappableStack(content fyne.CanvasObject, onTap func(), onSecondaryTap func(*fyne.PointEvent)) *TappableStack {
	t := &TappableStack{
		content:        content,
		onTap:          onTap,
		onSecondaryTap: onSecondaryTap,
	}
	t.ExtendBaseWidget(t)
	return t
}

// CreateRenderer implements fyne.Widget.
func (t *TappableStack) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.content)
}

// Tapped implements fyne.Tappable.
func (t *TappableStack) Tapped(*fyne.PointEvent) {
	if t.onTap != nil {
		t.onTap()
	}
}

// TappedSecondary implements fyne.SecondaryTappable.
func (t *TappableStack) TappedSecondary(pe *fyne.PointEvent) {
	if t.onSecondaryTap != nil {
		t.onSecondaryTap(pe)
	}
}

// Cursor shows a pointer over the cover.
func (t *TappableStack) Cursor() desktop.Cursor {
	return desktop.PointerCursor
}

var (
	_ fyne.Tappable          = (*TappableStack)(nil)
	_ fyne.SecondaryTappable = (*TappableStack)(nil)
	_ desktop.Cursorable     = (*TappableStack)(nil)
)

package widgets

import (
	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

var (
	_ fyneapp.DoubleTappable    = (*TrackLabel)(nil)
	_ fyneapp.SecondaryTappable = (*TrackLabel)(nil)
)

// TrackLabel is a playlist row. Double tap plays the track, a secondary tap
// opens the row's context menu. The current track is drawn bold.
type TrackLabel struct {
	widget.Label
	doubleTapped    func(index int)
	secondaryTapped func(index int, pos fyneapp.Position)
	index           int
}

// NewTrackLabel creates a row that calls doubleTapped with its index.
func NewTrackLabel(doubleTapped func(index int)) *TrackLabel {
	label := &TrackLabel{
		doubleTapped: doubleTapped,
	}
	label.Truncation = fyneapp.TextTruncateEllipsis
	label.ExtendBaseWidget(label)
	return label
}

// DoubleTapped implements fyne.DoubleTappable.
func (l *TrackLabel) DoubleTapped(_ *fyneapp.PointEvent) {
	if l.doubleTapped != nil {
		l.doubleTapped(l.index)
	}
}

// SetIndex sets the list position reported to the callbacks.
func (l *TrackLabel) SetIndex(index int) {
	l.index = index
}

// SetTrack shows text and marks the row as current or not.
func (l *TrackLabel) SetTrack(text string, current bool) {
	l.TextStyle = fyneapp.TextStyle{Bold: current}
	l.Label.SetText(text)
}

// SetSecondaryTapped sets the right-click callback.
func (l *TrackLabel) SetSecondaryTapped(callback func(index int, pos fyneapp.Position)) {
	l.secondaryTapped = callback
}

// TappedSecondary implements fyne.SecondaryTappable.
func (l *TrackLabel) TappedSecondary(pe *fyneapp.PointEvent) {
	if l.secondaryTapped != nil {
		l.secondaryTapped(l.index, pe.AbsolutePosition)
	}
}

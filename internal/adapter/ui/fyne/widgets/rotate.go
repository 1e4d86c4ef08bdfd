package widgets

import "strings"

// Rotator scrolls text that is wider than a fixed number of characters.
// It works on runes so titles with accents or CJK characters stay intact.
type Rotator struct {
	runes []rune
	width int
}

const rotatorGap = "    "

// NewRotator creates a rotator for text shown width characters wide.
func NewRotator(text string, width int) *Rotator {
	r := &Rotator{width: width}
	r.Reset(text)
	return r
}

// Reset replaces the text and restarts scrolling from its beginning.
func (r *Rotator) Reset(text string) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) > r.width {
		text += rotatorGap
	}
	r.runes = []rune(text)
}

// Scrolls reports whether the text is too wide to show at once.
func (r *Rotator) Scrolls() bool {
	return len(r.runes) > r.width
}

// Text returns the current text without advancing.
func (r *Rotator) Text() string {
	return string(r.runes)
}

// Rotate moves the first character to the end and returns the new text.
// Text that fits is returned unchanged.
func (r *Rotator) Rotate() string {
	if !r.Scrolls() {
		return string(r.runes)
	}
	first := r.runes[0]
	copy(r.runes, r.runes[1:])
	r.runes[len(r.runes)-1] = first
	return string(r.runes)
}

package widgets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRotator_ShortTextStays(t *testing.T) {
	r := NewRotator("Night Owl", 15)

	assert.False(t, r.Scrolls())
	assert.Equal(t, "Night Owl", r.Rotate())
	assert.Equal(t, "Night Owl", r.Rotate())
}

func TestRotator_LongTextWraps(t *testing.T) {
	r := NewRotator("abcdef", 3)

	assert.True(t, r.Scrolls())
	assert.Equal(t, "bcdef    a", r.Rotate())
	assert.Equal(t, "cdef    ab", r.Rotate())

	// A full cycle returns to the start
	for range 8 {
		r.Rotate()
	}
	assert.Equal(t, "abcdef    ", r.Text())
}

func TestRotator_Runes(t *testing.T) {
	r := NewRotator("Čajkovskij", 4)
	assert.Equal(t, "ajkovskij    Č", r.Rotate())
}

func TestRotator_Reset(t *testing.T) {
	r := NewRotator("abcdef", 3)
	r.Rotate()

	r.Reset("  ok ")
	assert.Equal(t, "ok", r.Text())
	assert.False(t, r.Scrolls())
}

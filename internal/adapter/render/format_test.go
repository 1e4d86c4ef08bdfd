package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{59*time.Second + 900*time.Millisecond, "00:59"},
		{3*time.Minute + 7*time.Second, "03:07"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTime(tt.in))
		})
	}
}

func TestFormatDuration_Unknown(t *testing.T) {
	assert.Equal(t, UnknownTime, FormatDuration(0))
	assert.Equal(t, "02:00", FormatDuration(2*time.Minute))
}

func TestFraction(t *testing.T) {
	assert.Zero(t, Fraction(time.Second, 0))
	assert.InDelta(t, 0.25, Fraction(time.Minute, 4*time.Minute), 1e-9)
	assert.Equal(t, 1.0, Fraction(5*time.Minute, 4*time.Minute))
}

package render

import (
	"fmt"
	"time"
)

// UnknownTime is shown for durations that have not been resolved.
const UnknownTime = "--:--"

// FormatTime renders d as mm:ss, or h:mm:ss from one hour on.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatDuration is FormatTime with UnknownTime for unresolved durations.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return UnknownTime
	}
	return FormatTime(d)
}

// Fraction returns position/duration clamped to [0,1], 0 when the duration is unknown.
func Fraction(position, duration time.Duration) float64 {
	if duration <= 0 || position <= 0 {
		return 0
	}
	return min(float64(position)/float64(duration), 1)
}

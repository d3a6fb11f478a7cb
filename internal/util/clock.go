// Package util holds small shared helpers.
package util

import (
	"fmt"
	"math"
)

// FormatClock renders a position in seconds as a playback clock label.
// Values of an hour or more use h:mm:ss, shorter values use m:ss. Invalid
// input (NaN, infinite, negative) renders as "0:00" so a player UI never
// shows garbage while the media clock is still settling.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

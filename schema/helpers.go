package schema

import (
	"fmt"
	"math"
)

// SplitHours decomposes a duration in fractional hours into whole hours and rounded minutes.
// A minute count that rounds up to 60 carries into the hours.
func SplitHours(d float64) (int, int) {
	h := math.Floor(d)
	m := int(math.Round((d - h) * 60))
	if m == 60 {
		return int(h) + 1, 0
	}
	return int(h), m
}

// FormatClock renders fractional hours as a 24h "HH:MM" clock string.
func FormatClock(hours float64) string {
	total := int(math.Round(hours * 60))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatSpan renders a start/end pair as "HH:MM-HH:MM".
func FormatSpan(start, end float64) string {
	return FormatClock(start) + "-" + FormatClock(end)
}

package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GarnettJZ/makan-apa/schema"
)

// isoLayouts are tried in order for timestamp fields.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// dateLayouts are tried in order for date-only fields.
var dateLayouts = []string{
	"2006-01-02",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"Jan 2, 2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02/01/2006",
}

// dayToken finds the canonical weekday whose abbreviation appears earliest in s.
func dayToken(s string) (schema.Weekday, bool) {
	lower := strings.ToLower(s)
	best, bestPos := schema.Weekday(""), -1
	for _, w := range schema.AllWeekdays {
		pos := strings.Index(lower, strings.ToLower(string(w)))
		if pos >= 0 && (bestPos < 0 || pos < bestPos) {
			best, bestPos = w, pos
		}
	}
	return best, bestPos >= 0
}

// parseClock parses "HH:MM" into fractional hours.
func parseClock(s string) (float64, error) {
	s = strings.TrimSpace(s)
	hs, ms, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("clock %q has no minutes", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil {
		return 0, fmt.Errorf("clock %q: bad hour: %w", s, err)
	}
	m, err := strconv.Atoi(strings.TrimSpace(ms))
	if err != nil {
		return 0, fmt.Errorf("clock %q: bad minute: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return float64(h) + float64(m)/60, nil
}

// parseTimeRange parses "HH:MM - HH:MM" into start and end hours.
func parseTimeRange(s string) (float64, float64, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time range %q must have exactly one hyphen", s)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseISO parses a timestamp, keeping the wall clock of its own offset.
func parseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseDate parses a date-only string, also accepting full timestamps.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return parseISO(s)
}

// hourOf returns the wall-clock hour of t as a fraction.
func hourOf(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}

// calendarDay strips time and zone so dates from different offsets compare by calendar.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

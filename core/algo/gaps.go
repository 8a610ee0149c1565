// Package algo has the interval algorithms behind gap finding.
package algo

import (
	"cmp"
	"slices"

	"github.com/GarnettJZ/makan-apa/schema"
)

// epsilon absorbs float noise from minute/60 conversions at the threshold boundaries.
const epsilon = 1e-9

// Default thresholds in hours.
const (
	DefaultMinPersonalGap = 0.25
	DefaultMinMutualGap   = 0.5
)

// GapPolicy controls how free intervals are derived from a schedule.
type GapPolicy struct {
	Window      schema.DayWindow
	MinDuration float64

	// IncludeTrailing also reports the stretch from the last class to the window end,
	// and the whole window on days without classes.
	IncludeTrailing bool

	// Days is the canonical day set. Empty means Monday to Friday.
	Days []schema.Weekday
}

// DefaultGapPolicy returns the 08:00-20:00, 15 minute, inter-class-only policy.
func DefaultGapPolicy() GapPolicy {
	return GapPolicy{
		Window:      schema.DefaultDayWindow,
		MinDuration: DefaultMinPersonalGap,
		Days:        schema.DefaultDays,
	}
}

// meetsMinimum reports whether a duration reaches the inclusive threshold.
func meetsMinimum(duration, minDuration float64) bool {
	return duration+epsilon >= minDuration
}

// CanonicalDays returns the day set de-duplicated and in ISO week order.
func CanonicalDays(days []schema.Weekday) []schema.Weekday {
	if len(days) == 0 {
		return schema.DefaultDays
	}
	out := make([]schema.Weekday, 0, len(days))
	for _, d := range days {
		if d.Valid() && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b schema.Weekday) int { return cmp.Compare(a.Rank(), b.Rank()) })
	return out
}

// ComputeGaps sweeps each day of a schedule and returns the free intervals between classes.
// The sweep starts at the window start, so the stretch before the first class counts.
// Overlapping and back-to-back classes are merged by advancing the cursor to the furthest end seen.
func ComputeGaps(schedule []schema.BusyInterval, policy GapPolicy) []schema.FreeInterval {
	byDay := make(map[schema.Weekday][]schema.BusyInterval)
	for _, iv := range schedule {
		byDay[iv.Day] = append(byDay[iv.Day], iv)
	}

	window := policy.Window
	gaps := []schema.FreeInterval{}
	emit := func(day schema.Weekday, start, end float64) {
		if end > start && meetsMinimum(end-start, policy.MinDuration) {
			gaps = append(gaps, schema.FreeInterval{Day: day, Start: start, End: end})
		}
	}

	for _, day := range CanonicalDays(policy.Days) {
		classes := slices.Clone(byDay[day])
		if len(classes) == 0 {
			if policy.IncludeTrailing {
				emit(day, window.Start, window.End)
			}
			continue
		}
		slices.SortStableFunc(classes, func(a, b schema.BusyInterval) int {
			return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End))
		})

		cursor := window.Start
		for _, c := range classes {
			if cursor >= window.End {
				break
			}
			if c.Start > cursor {
				emit(day, cursor, min(c.Start, window.End))
			}
			cursor = max(cursor, c.End)
		}
		if policy.IncludeTrailing && cursor < window.End {
			emit(day, cursor, window.End)
		}
	}
	return gaps
}

package algo

import (
	"cmp"
	"errors"
	"slices"

	"github.com/GarnettJZ/makan-apa/schema"
)

// ErrNoSchedules is returned when there is nothing to intersect.
var ErrNoSchedules = errors.New("at least one gap list is required")

// Intersect folds pairwise intersection across every gap list and keeps windows of at least minDuration.
// A single list is returned as-is (filtered) with a participant count of 1.
// The result is ordered by weekday, start and end, with exact duplicates removed.
func Intersect(gapLists [][]schema.FreeInterval, minDuration float64) ([]schema.MutualInterval, error) {
	if len(gapLists) == 0 {
		return nil, ErrNoSchedules
	}

	running := make([]schema.FreeInterval, 0, len(gapLists[0]))
	for _, g := range gapLists[0] {
		if g.End > g.Start && meetsMinimum(g.End-g.Start, minDuration) {
			running = append(running, g)
		}
	}
	for _, next := range gapLists[1:] {
		if len(running) == 0 {
			break
		}
		running = intersectPair(running, next, minDuration)
	}

	count := len(gapLists)
	out := make([]schema.MutualInterval, 0, len(running))
	for _, g := range running {
		out = append(out, schema.MutualInterval{Day: g.Day, Start: g.Start, End: g.End, ParticipantCount: count})
	}
	SortMutual(out)
	return slices.Compact(out), nil
}

// intersectPair compares every same-day pair of intervals from a and b.
func intersectPair(a, b []schema.FreeInterval, minDuration float64) []schema.FreeInterval {
	var out []schema.FreeInterval
	for _, x := range a {
		for _, y := range b {
			if x.Day != y.Day {
				continue
			}
			start, end := max(x.Start, y.Start), min(x.End, y.End)
			if end > start && meetsMinimum(end-start, minDuration) {
				out = append(out, schema.FreeInterval{Day: x.Day, Start: start, End: end})
			}
		}
	}
	return out
}

// SortMutual orders mutual intervals by weekday, start and end.
func SortMutual(list []schema.MutualInterval) {
	slices.SortFunc(list, func(a, b schema.MutualInterval) int {
		return cmp.Or(
			cmp.Compare(a.Day.Rank(), b.Day.Rank()),
			cmp.Compare(a.Start, b.Start),
			cmp.Compare(a.End, b.End),
		)
	})
}

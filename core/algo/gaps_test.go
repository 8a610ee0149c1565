package algo

import (
	"testing"

	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/stretchr/testify/assert"
)

func busy(day schema.Weekday, start, end float64) schema.BusyInterval {
	return schema.BusyInterval{PersonID: "p", Day: day, Start: start, End: end}
}

func free(day schema.Weekday, start, end float64) schema.FreeInterval {
	return schema.FreeInterval{Day: day, Start: start, End: end}
}

func TestComputeGaps(t *testing.T) {
	policy := DefaultGapPolicy()

	tests := []struct {
		name     string
		schedule []schema.BusyInterval
		want     []schema.FreeInterval
	}{
		{
			name:     "back to back classes",
			schedule: []schema.BusyInterval{busy(schema.Monday, 9, 10), busy(schema.Monday, 10, 11.5)},
			want:     []schema.FreeInterval{free(schema.Monday, 8, 9)},
		},
		{
			name:     "unsorted input",
			schedule: []schema.BusyInterval{busy(schema.Monday, 13, 14), busy(schema.Monday, 9, 10.5)},
			want:     []schema.FreeInterval{free(schema.Monday, 8, 9), free(schema.Monday, 10.5, 13)},
		},
		{
			name:     "overlapping classes merge",
			schedule: []schema.BusyInterval{busy(schema.Tuesday, 9, 12), busy(schema.Tuesday, 10, 11), busy(schema.Tuesday, 14, 15)},
			want:     []schema.FreeInterval{free(schema.Tuesday, 8, 9), free(schema.Tuesday, 12, 14)},
		},
		{
			name:     "class at window start",
			schedule: []schema.BusyInterval{busy(schema.Wednesday, 8, 10), busy(schema.Wednesday, 11, 12)},
			want:     []schema.FreeInterval{free(schema.Wednesday, 10, 11)},
		},
		{
			name:     "class before window",
			schedule: []schema.BusyInterval{busy(schema.Wednesday, 7, 9), busy(schema.Wednesday, 10, 12)},
			want:     []schema.FreeInterval{free(schema.Wednesday, 9, 10)},
		},
		{
			name:     "fully booked day",
			schedule: []schema.BusyInterval{busy(schema.Thursday, 8, 14), busy(schema.Thursday, 14, 20)},
			want:     []schema.FreeInterval{},
		},
		{
			name:     "days in canonical order",
			schedule: []schema.BusyInterval{busy(schema.Friday, 10, 11), busy(schema.Monday, 9, 10)},
			want:     []schema.FreeInterval{free(schema.Monday, 8, 9), free(schema.Friday, 8, 10)},
		},
		{
			name:     "weekend ignored",
			schedule: []schema.BusyInterval{busy(schema.Saturday, 10, 11)},
			want:     []schema.FreeInterval{},
		},
		{
			name:     "empty schedule",
			schedule: nil,
			want:     []schema.FreeInterval{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeGaps(tt.schedule, policy))
		})
	}
}

func TestComputeGapsThreshold(t *testing.T) {
	policy := DefaultGapPolicy()

	// 0.24h gap before the second class is dropped.
	got := ComputeGaps([]schema.BusyInterval{busy(schema.Monday, 8, 9), busy(schema.Monday, 9.24, 10)}, policy)
	assert.Empty(t, got)

	// 0.25h gap is kept: the boundary is inclusive.
	got = ComputeGaps([]schema.BusyInterval{busy(schema.Monday, 8, 9), busy(schema.Monday, 9.25, 10)}, policy)
	assert.Equal(t, []schema.FreeInterval{free(schema.Monday, 9, 9.25)}, got)

	// 15 minutes expressed as minute/60 still qualifies.
	got = ComputeGaps([]schema.BusyInterval{busy(schema.Monday, 8, 9+20.0/60), busy(schema.Monday, 9+35.0/60, 10)}, policy)
	assert.Len(t, got, 1)
}

func TestComputeGapsTrailing(t *testing.T) {
	policy := DefaultGapPolicy()
	schedule := []schema.BusyInterval{busy(schema.Monday, 9, 10), busy(schema.Monday, 10, 11.5)}

	assert.Equal(t, []schema.FreeInterval{free(schema.Monday, 8, 9)}, ComputeGaps(schedule, policy))

	policy.IncludeTrailing = true
	policy.Days = []schema.Weekday{schema.Monday, schema.Tuesday}
	assert.Equal(t, []schema.FreeInterval{
		free(schema.Monday, 8, 9),
		free(schema.Monday, 11.5, 20),
		free(schema.Tuesday, 8, 20),
	}, ComputeGaps(schedule, policy))
}

func TestComputeGapsCustomWindow(t *testing.T) {
	policy := GapPolicy{Window: schema.DayWindow{Start: 9, End: 12}, MinDuration: 0.5, Days: []schema.Weekday{schema.Monday}}

	// The class after the window end closes the sweep at the window end.
	got := ComputeGaps([]schema.BusyInterval{busy(schema.Monday, 10, 11), busy(schema.Monday, 13, 14)}, policy)
	assert.Equal(t, []schema.FreeInterval{free(schema.Monday, 9, 10), free(schema.Monday, 11, 12)}, got)
}

func TestCanonicalDays(t *testing.T) {
	assert.Equal(t, schema.DefaultDays, CanonicalDays(nil))
	assert.Equal(t,
		[]schema.Weekday{schema.Monday, schema.Wednesday, schema.Sunday},
		CanonicalDays([]schema.Weekday{schema.Sunday, schema.Wednesday, schema.Monday, schema.Wednesday, "Xyz"}),
	)
}

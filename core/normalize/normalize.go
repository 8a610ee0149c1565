// Package normalize turns heterogeneous timetable records into per-person busy intervals.
package normalize

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/GarnettJZ/makan-apa/schema"
)

// Skip reasons reported in Result.SkipReasons.
const (
	ReasonBadDay      = "bad_day"
	ReasonOffDay      = "day_not_in_set"
	ReasonBadTime     = "bad_time"
	ReasonNotOrdered  = "start_not_before_end"
	ReasonMissingDate = "missing_date"
	ReasonOutsideWeek = "outside_week"
)

// Normalizer converts raw events into sorted busy intervals.
// The zero value keeps Monday to Friday and does not filter by week.
type Normalizer struct {
	// Days is the canonical day set; records on other days are dropped.
	Days []schema.Weekday

	// TargetWeek, when non-zero, keeps only records dated within that Monday-based week.
	TargetWeek time.Time
}

// Result holds normalized schedules and the skip accounting.
type Result struct {
	Schedules   map[string][]schema.BusyInterval
	Skipped     int
	SkipReasons map[string]int
}

// For returns the schedule of a person, empty when the person has none.
func (r Result) For(person string) []schema.BusyInterval {
	return r.Schedules[person]
}

// Normalize converts every event it can and counts the rest.
// Malformed records never abort the batch.
func (n Normalizer) Normalize(events []schema.RawEvent) Result {
	res := Result{
		Schedules:   make(map[string][]schema.BusyInterval),
		SkipReasons: make(map[string]int),
	}

	days := n.Days
	if len(days) == 0 {
		days = schema.DefaultDays
	}

	var weekStart, weekEnd time.Time
	filterWeek := !n.TargetWeek.IsZero()
	if filterWeek {
		weekStart = calendarDay(schema.MondayOf(n.TargetWeek))
		weekEnd = weekStart.AddDate(0, 0, 6)
	}

	for _, e := range events {
		person := strings.TrimSpace(e.PersonID)
		if _, ok := res.Schedules[person]; !ok {
			res.Schedules[person] = []schema.BusyInterval{}
		}

		iv, reason := n.convert(e, days, filterWeek, weekStart, weekEnd)
		if reason != "" {
			res.Skipped++
			res.SkipReasons[reason]++
			continue
		}
		iv.PersonID = person
		res.Schedules[person] = append(res.Schedules[person], iv)
	}

	for person, list := range res.Schedules {
		SortIntervals(list)
		res.Schedules[person] = list
	}
	return res
}

// convert resolves one record, returning a skip reason when it cannot.
func (n Normalizer) convert(e schema.RawEvent, days []schema.Weekday, filterWeek bool, weekStart, weekEnd time.Time) (schema.BusyInterval, string) {
	startTS, startErr := parseISO(e.StartISO)
	date, hasDate := resolveDate(e, startTS, startErr == nil)

	day, ok := resolveDay(e, startTS, startErr == nil, date, hasDate)
	if !ok {
		return schema.BusyInterval{}, ReasonBadDay
	}
	if !slices.Contains(days, day) {
		return schema.BusyInterval{}, ReasonOffDay
	}

	start, end, ok := resolveHours(e, startTS, startErr == nil)
	if !ok {
		return schema.BusyInterval{}, ReasonBadTime
	}
	if start >= end {
		return schema.BusyInterval{}, ReasonNotOrdered
	}

	if filterWeek {
		if !hasDate {
			return schema.BusyInterval{}, ReasonMissingDate
		}
		d := calendarDay(date)
		if d.Before(weekStart) || d.After(weekEnd) {
			return schema.BusyInterval{}, ReasonOutsideWeek
		}
	}

	return schema.BusyInterval{
		Day:      day,
		Start:    start,
		End:      end,
		Subject:  strings.TrimSpace(e.Subject()),
		ModuleID: strings.TrimSpace(e.ModuleID),
		Location: strings.TrimSpace(e.Place()),
	}, ""
}

// resolveDay tries the day token, then the start timestamp, then the record date.
func resolveDay(e schema.RawEvent, startTS time.Time, hasStart bool, date time.Time, hasDate bool) (schema.Weekday, bool) {
	if strings.TrimSpace(e.Day) != "" {
		if day, ok := dayToken(e.Day); ok {
			return day, true
		}
	}
	if hasStart {
		return schema.WeekdayOf(startTS), true
	}
	if hasDate {
		return schema.WeekdayOf(date), true
	}
	return "", false
}

// resolveHours tries the free-text range, then the ISO timestamp pair.
func resolveHours(e schema.RawEvent, startTS time.Time, hasStart bool) (float64, float64, bool) {
	if strings.TrimSpace(e.TimeRange) != "" {
		if start, end, err := parseTimeRange(e.TimeRange); err == nil {
			return start, end, true
		}
	}
	if !hasStart {
		return 0, 0, false
	}
	endTS, err := parseISO(e.EndISO)
	if err != nil {
		return 0, 0, false
	}
	return hourOf(startTS), hourOf(endTS), true
}

// resolveDate tries the start timestamp, then the date field, then the text after a comma in the day token.
func resolveDate(e schema.RawEvent, startTS time.Time, hasStart bool) (time.Time, bool) {
	if hasStart {
		return startTS, true
	}
	if strings.TrimSpace(e.Date) != "" {
		if d, err := parseDate(e.Date); err == nil {
			return d, true
		}
	}
	if _, rest, ok := strings.Cut(e.Day, ","); ok {
		if d, err := parseDate(rest); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// SortIntervals orders busy intervals by weekday, start and end.
func SortIntervals(list []schema.BusyInterval) {
	slices.SortStableFunc(list, func(a, b schema.BusyInterval) int {
		return cmp.Or(
			cmp.Compare(a.Day.Rank(), b.Day.Rank()),
			cmp.Compare(a.Start, b.Start),
			cmp.Compare(a.End, b.End),
		)
	})
}

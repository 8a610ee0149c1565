package schema

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is a canonical three-letter day name such as "Mon".
type Weekday string

// Canonical weekdays in ISO week order.
const (
	Monday    Weekday = "Mon"
	Tuesday   Weekday = "Tue"
	Wednesday Weekday = "Wed"
	Thursday  Weekday = "Thu"
	Friday    Weekday = "Fri"
	Saturday  Weekday = "Sat"
	Sunday    Weekday = "Sun"
)

// AllWeekdays lists every weekday in ISO week order.
var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// DefaultDays is the default canonical day set.
var DefaultDays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// Rank returns the position of the day in the ISO week, or -1 for unknown days.
func (d Weekday) Rank() int {
	for i, w := range AllWeekdays {
		if w == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is one of the seven canonical days.
func (d Weekday) Valid() bool {
	return d.Rank() >= 0
}

// ParseWeekday maps a case-insensitive day name ("mon", "Monday") to its canonical form.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) >= 3 {
		for _, w := range AllWeekdays {
			if strings.HasPrefix(s, strings.ToLower(string(w))) {
				return w, nil
			}
		}
	}
	return "", fmt.Errorf("unknown weekday %q", s)
}

// WeekdayOf returns the canonical weekday of t.
func WeekdayOf(t time.Time) Weekday {
	// time.Weekday starts at Sunday
	return AllWeekdays[(int(t.Weekday())+6)%7]
}

// MondayOf returns midnight of the Monday that starts the week containing t.
func MondayOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -WeekdayOf(day).Rank())
}

// Package schema has the data types shared across the timetable pipeline.
package schema

// DayWindow is the daily time-of-day range, in fractional hours, within which gaps are considered.
type DayWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// DefaultDayWindow spans 08:00 to 20:00.
var DefaultDayWindow = DayWindow{Start: 8.0, End: 20.0}

// BusyInterval is a time range in which a person has a scheduled class.
type BusyInterval struct {
	PersonID string  `json:"person_id"`
	Day      Weekday `json:"day"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Subject  string  `json:"subject,omitempty"`
	ModuleID string  `json:"module_id,omitempty"`
	Location string  `json:"location,omitempty"`
}

// FreeInterval is a free time range for one person on one day.
type FreeInterval struct {
	Day   Weekday `json:"day"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// MutualInterval is a free time range shared by every participant on one day.
type MutualInterval struct {
	Day              Weekday `json:"day"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	ParticipantCount int     `json:"participant_count"`
}

// PersonRef identifies whose timetable to fetch.
type PersonRef struct {
	Name   string `json:"name,omitempty"`
	Intake string `json:"intake"`
	Group  string `json:"group,omitempty"`
}

// ID returns the display name when set, otherwise INTAKE:GROUP.
func (p PersonRef) ID() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Group == "" {
		return p.Intake
	}
	return p.Intake + ":" + p.Group
}

// RawEvent is one timetable record as delivered by a provider, before normalization.
// Every field is optional; the normalizer resolves them through fixed fallback chains.
type RawEvent struct {
	PersonID   string `json:"person_id" csv:"person_id"`
	Day        string `json:"day,omitempty" csv:"day"`
	Date       string `json:"date,omitempty" csv:"date"`
	TimeRange  string `json:"time_range,omitempty" csv:"time_range"`
	StartISO   string `json:"start_iso,omitempty" csv:"start_iso"`
	EndISO     string `json:"end_iso,omitempty" csv:"end_iso"`
	ModuleName string `json:"module_name,omitempty" csv:"module_name"`
	ModuleID   string `json:"module_id,omitempty" csv:"module_id"`
	Location   string `json:"location,omitempty" csv:"location"`
	Room       string `json:"room,omitempty" csv:"room"`
	Lecturer   string `json:"lecturer,omitempty" csv:"lecturer"`
}

// Subject returns the module name, falling back to the module id.
func (e RawEvent) Subject() string {
	if e.ModuleName != "" {
		return e.ModuleName
	}
	return e.ModuleID
}

// Place returns the room, falling back to the location.
func (e RawEvent) Place() string {
	if e.Room != "" {
		return e.Room
	}
	return e.Location
}

// DisplayRecord carries what a renderer needs for one class, gap or mutual window.
type DisplayRecord struct {
	Person   string  `json:"person,omitempty"`
	Kind     Kind    `json:"kind"`
	Day      Weekday `json:"day"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	Label    string  `json:"label"`
	Category string  `json:"category"`
}

// PersonReport holds the formatted records for one person.
type PersonReport struct {
	ID      string          `json:"id"`
	Intake  string          `json:"intake,omitempty"`
	Group   string          `json:"group,omitempty"`
	Empty   bool            `json:"empty"`
	Classes []DisplayRecord `json:"classes"`
	Gaps    []DisplayRecord `json:"gaps"`
}

// GapReport is the full result of one mutual-gap query.
type GapReport struct {
	Week        string          `json:"week,omitempty"`
	Window      DayWindow       `json:"window"`
	People      []PersonReport  `json:"people"`
	Mutual      []DisplayRecord `json:"mutual"`
	Skipped     int             `json:"skipped"`
	SkipReasons map[string]int  `json:"skip_reasons,omitempty"`
}

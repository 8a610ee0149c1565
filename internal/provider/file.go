package provider

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/schema"
)

// FileProvider reads raw events from a local JSON or CSV export.
type FileProvider struct {
	path string
}

var _ contract.ScheduleProvider = &FileProvider{} // Compile-time check

// NewFile returns a provider backed by the file at path.
func NewFile(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Name implements contract.ScheduleProvider.
func (p *FileProvider) Name() string { return string(schema.FileSource) }

// FetchEvents implements contract.ScheduleProvider.
// Records are matched to person by PersonID; week filtering is left to the normalizer.
func (p *FileProvider) FetchEvents(_ context.Context, person schema.PersonRef, _ time.Time) ([]schema.RawEvent, error) {
	all, err := p.load()
	if err != nil {
		return nil, err
	}

	events := []schema.RawEvent{}
	for _, e := range all {
		if matchesPerson(e.PersonID, person) {
			e.PersonID = person.ID()
			events = append(events, e)
		}
	}
	return events, nil
}

// matchesPerson accepts the person id, their name, their intake or intake:group.
func matchesPerson(id string, person schema.PersonRef) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	candidates := []string{person.ID(), person.Name, person.Intake}
	if person.Group != "" {
		candidates = append(candidates, person.Intake+":"+person.Group)
	}
	for _, c := range candidates {
		if c != "" && strings.EqualFold(id, c) {
			return true
		}
	}
	return false
}

func (p *FileProvider) load() ([]schema.RawEvent, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("opening timetable file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(p.path)) {
	case ".json":
		var events []schema.RawEvent
		if err := json.NewDecoder(f).Decode(&events); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", p.path, err)
		}
		return events, nil
	case ".csv":
		events, err := readEventsCSV(f)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", p.path, err)
		}
		return events, nil
	default:
		return nil, fmt.Errorf("unsupported timetable file '%s': want .json or .csv", p.path)
	}
}

// csvFields maps header names onto RawEvent fields.
var csvFields = map[string]func(*schema.RawEvent, string){
	"person_id":   func(e *schema.RawEvent, v string) { e.PersonID = v },
	"day":         func(e *schema.RawEvent, v string) { e.Day = v },
	"date":        func(e *schema.RawEvent, v string) { e.Date = v },
	"time_range":  func(e *schema.RawEvent, v string) { e.TimeRange = v },
	"start_iso":   func(e *schema.RawEvent, v string) { e.StartISO = v },
	"end_iso":     func(e *schema.RawEvent, v string) { e.EndISO = v },
	"module_name": func(e *schema.RawEvent, v string) { e.ModuleName = v },
	"module_id":   func(e *schema.RawEvent, v string) { e.ModuleID = v },
	"location":    func(e *schema.RawEvent, v string) { e.Location = v },
	"room":        func(e *schema.RawEvent, v string) { e.Room = v },
	"lecturer":    func(e *schema.RawEvent, v string) { e.Lecturer = v },
}

// readEventsCSV reads a headed CSV; unknown columns are ignored.
func readEventsCSV(r io.Reader) ([]schema.RawEvent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	setters := make([]func(*schema.RawEvent, string), len(header))
	for i, h := range header {
		setters[i] = csvFields[strings.ToLower(strings.TrimSpace(h))]
	}

	var events []schema.RawEvent
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		var e schema.RawEvent
		for i, v := range rec {
			if i < len(setters) && setters[i] != nil {
				setters[i](&e, strings.TrimSpace(v))
			}
		}
		events = append(events, e)
	}
}

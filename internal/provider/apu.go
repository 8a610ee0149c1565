package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/schema"
	"go.uber.org/zap"
)

// blockedMarker appears in the page the timetable server returns for rejected requests.
const blockedMarker = "manupulate"

// apuHeaders mimic a desktop browser; the server's firewall rejects bare clients.
var apuHeaders = map[string]string{
	"accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"accept-language":           "en-GB,en-US;q=0.9,en;q=0.8",
	"sec-ch-ua":                 `"Not(A:Brand";v="8", "Chromium";v="144", "Google Chrome";v="144"`,
	"sec-fetch-site":            "none",
	"upgrade-insecure-requests": "1",
	"user-agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36",
}

// APUProvider scrapes the printable weekly timetable page.
type APUProvider struct {
	baseURL string
	fetch   *fetcher
}

var _ contract.ScheduleProvider = &APUProvider{} // Compile-time check

// NewAPU returns a provider for the printable timetable at baseURL.
func NewAPU(baseURL string, f *fetcher) *APUProvider {
	return &APUProvider{baseURL: baseURL, fetch: f}
}

// Name implements contract.ScheduleProvider.
func (p *APUProvider) Name() string { return string(schema.APUSource) }

// requestURL builds the print request for one intake group and week.
func (p *APUProvider) requestURL(person schema.PersonRef, week time.Time) (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid source url '%s': %w", p.baseURL, err)
	}
	q := u.Query()
	q.Set("Week", week.Format(contract.WeekLayout))
	q.Set("Intake", person.Intake)
	q.Set("Intake_Group", person.Group)
	q.Set("print_request", "print_tt")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchEvents implements contract.ScheduleProvider.
func (p *APUProvider) FetchEvents(ctx context.Context, person schema.PersonRef, week time.Time) ([]schema.RawEvent, error) {
	target, err := p.requestURL(person, week)
	if err != nil {
		return nil, err
	}

	body, err := p.fetch.get(ctx, target, apuHeaders)
	if err != nil {
		return nil, fmt.Errorf("fetching timetable for %s: %w", person.ID(), err)
	}
	if bytes.Contains(body, []byte(blockedMarker)) {
		return nil, fmt.Errorf("fetching timetable for %s: %w", person.ID(), ErrBlocked)
	}

	tables, err := parseTables(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing timetable for %s: %w", person.ID(), err)
	}
	events, ok := eventsFromTables(person.ID(), tables)
	if !ok {
		return nil, fmt.Errorf("parsing timetable for %s: %w", person.ID(), ErrNoTimetable)
	}

	zap.L().Debug("fetched timetable page",
		zap.String("person", person.ID()),
		zap.Int("tables", len(tables)),
		zap.Int("events", len(events)))
	return events, nil
}

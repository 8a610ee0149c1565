package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/schema"
	"go.uber.org/zap"
)

// feedReuse is how long one download of the shared weekly feed serves other people.
const feedReuse = time.Minute

// apspaceEntry is one record of the weekly JSON feed.
type apspaceEntry struct {
	Intake      string `json:"INTAKE"`
	Grouping    string `json:"GROUPING"`
	Day         string `json:"DAY"`
	DateISO     string `json:"DATESTAMP_ISO"`
	TimeFromISO string `json:"TIME_FROM_ISO"`
	TimeToISO   string `json:"TIME_TO_ISO"`
	ModuleID    string `json:"MODID"`
	ModuleName  string `json:"MODULE_NAME"`
	Room        string `json:"ROOM"`
	Location    string `json:"LOCATION"`
	Lecturer    string `json:"NAME"`
}

// APSpaceProvider reads the campus-wide weekly JSON feed and filters it per intake group.
type APSpaceProvider struct {
	feedURL string
	fetch   *fetcher

	mu        sync.Mutex
	feed      []apspaceEntry
	fetchedAt time.Time
	now       func() time.Time
}

var _ contract.ScheduleProvider = &APSpaceProvider{} // Compile-time check

// NewAPSpace returns a provider for the weekly feed at feedURL.
func NewAPSpace(feedURL string, f *fetcher) *APSpaceProvider {
	return &APSpaceProvider{feedURL: feedURL, fetch: f, now: time.Now}
}

// Name implements contract.ScheduleProvider.
func (p *APSpaceProvider) Name() string { return string(schema.APSpaceSource) }

// loadFeed downloads the feed unless a recent copy is held.
func (p *APSpaceProvider) loadFeed(ctx context.Context) ([]apspaceEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.feed != nil && p.now().Sub(p.fetchedAt) < feedReuse {
		return p.feed, nil
	}

	body, err := p.fetch.get(ctx, p.feedURL, map[string]string{"accept": "application/json"})
	if err != nil {
		return nil, err
	}
	var feed []apspaceEntry
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTimetable, err)
	}

	p.feed = feed
	p.fetchedAt = p.now()
	zap.L().Debug("downloaded weekly feed", zap.Int("entries", len(feed)))
	return feed, nil
}

// FetchEvents implements contract.ScheduleProvider.
// The feed only covers the current week, so week is left to the normalizer's filter.
func (p *APSpaceProvider) FetchEvents(ctx context.Context, person schema.PersonRef, _ time.Time) ([]schema.RawEvent, error) {
	feed, err := p.loadFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching weekly feed for %s: %w", person.ID(), err)
	}

	events := []schema.RawEvent{}
	for _, e := range feed {
		if !strings.EqualFold(strings.TrimSpace(e.Intake), person.Intake) {
			continue
		}
		if person.Group != "" && !strings.EqualFold(strings.TrimSpace(e.Grouping), person.Group) {
			continue
		}
		events = append(events, schema.RawEvent{
			PersonID:   person.ID(),
			Day:        e.Day,
			Date:       e.DateISO,
			StartISO:   e.TimeFromISO,
			EndISO:     e.TimeToISO,
			ModuleName: e.ModuleName,
			ModuleID:   e.ModuleID,
			Location:   e.Location,
			Room:       e.Room,
			Lecturer:   e.Lecturer,
		})
	}
	return events, nil
}

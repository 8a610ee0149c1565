// Package contract provides interfaces and shared utilities for the makan CLI's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/GarnettJZ/makan-apa/schema"
)

// ScheduleProvider fetches raw timetable records for one person.
// This allows the pipeline to be tested without a network.
type ScheduleProvider interface {
	// Name identifies the provider in cache keys and logs.
	Name() string

	// FetchEvents returns the raw records of one intake group for the week starting at the given Monday.
	// Every returned record carries PersonID = person.ID().
	FetchEvents(ctx context.Context, person schema.PersonRef, week time.Time) ([]schema.RawEvent, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetTimetableStore() CacheStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

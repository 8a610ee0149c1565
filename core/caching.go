package core

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/schema"
	"go.uber.org/zap"
)

// currentCacheVersion defines the version of the cached RawEvent layout
const currentCacheVersion = 1

// nowFunc is the clock used for cache freshness
var nowFunc = time.Now

// CachedFetch returns the raw events of person for week, served from store while fresh.
// A nil store, or a miss, goes to the provider; store failures never fail the fetch.
func CachedFetch(ctx context.Context, p contract.ScheduleProvider, source string, store contract.CacheStore, ttl time.Duration, person schema.PersonRef, week time.Time) ([]schema.RawEvent, error) {
	if store == nil {
		// Fallback to direct fetch
		return p.FetchEvents(ctx, person, week)
	}

	logger := runLogger(ctx)
	key := generateCacheKey(p.Name(), source, person, week)

	// Check for cache hit
	if events, ok := checkCacheHit(logger, store, key, ttl); ok {
		logger.Debug("timetable cache hit", zap.String("person", person.ID()), zap.Int("events", len(events)))
		return events, nil
	}

	// Cache miss: fetch and store
	logger.Debug("timetable cache miss", zap.String("person", person.ID()))
	return fetchAndStore(ctx, logger, p, store, key, person, week)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(logger *zap.Logger, store contract.CacheStore, key string, ttl time.Duration) ([]schema.RawEvent, bool) {
	data, version, ts, err := store.Get(key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Warn("timetable cache read failed", zap.Error(err))
		}
		return nil, false // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion {
		return nil, false
	}
	if nowFunc().Sub(time.Unix(ts, 0)) > ttl {
		return nil, false
	}

	var events []schema.RawEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, false
	}
	return events, true
}

// fetchAndStore fetches from the provider and stores the result in cache
func fetchAndStore(ctx context.Context, logger *zap.Logger, p contract.ScheduleProvider, store contract.CacheStore, key string, person schema.PersonRef, week time.Time) ([]schema.RawEvent, error) {
	events, err := p.FetchEvents(ctx, person, week)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(events)
	if err == nil {
		err = store.Set(key, data, currentCacheVersion, nowFunc().Unix())
	}
	if err != nil {
		logger.Warn("timetable cache write failed", zap.String("person", person.ID()), zap.Error(err))
	}
	return events, nil
}

// generateCacheKey creates a unique key from the provider, its location, the intake group and week.
// The display name is left out so people in the same group share an entry.
func generateCacheKey(provider, source string, person schema.PersonRef, week time.Time) string {
	key := fmt.Sprintf("%s:%s:%s:%s:%s",
		provider,
		source,
		person.Intake,
		person.Group,
		week.Format(contract.WeekLayout),
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

// sourceLocation identifies where a configured provider reads from.
func sourceLocation(cfg *contract.Config) string {
	if cfg.Source == schema.FileSource {
		return cfg.SourceFile
	}
	return cfg.SourceURL
}

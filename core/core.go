// Package core has the query pipeline behind mutual gap finding.
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GarnettJZ/makan-apa/core/algo"
	"github.com/GarnettJZ/makan-apa/core/display"
	"github.com/GarnettJZ/makan-apa/core/normalize"
	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/internal/outwriter"
	"github.com/GarnettJZ/makan-apa/internal/provider"
	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ExecutorFunc defines the function signature for executing different query modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteMutualGaps finds the shared free time of two or more people and prints it.
// It serves as the main entry point for the 'gaps' command.
func ExecuteMutualGaps(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	report, duration, err := GetMutualGapsResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteGapReport(report, cfg, duration)
}

// ExecuteSchedule prints the classes and personal gaps of each person.
// It serves as the main entry point for the 'schedule' command.
func ExecuteSchedule(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	report, duration, err := GetScheduleResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteSchedules(report, cfg, duration)
}

// GetMutualGapsResults runs a mutual gap query against the configured source.
func GetMutualGapsResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.GapReport, time.Duration, error) {
	start := time.Now()
	if err := contract.RequirePeople(cfg, 2); err != nil {
		return schema.GapReport{}, 0, err
	}
	p, err := provider.New(cfg)
	if err != nil {
		return schema.GapReport{}, 0, err
	}
	report, err := FindMutualGaps(ctx, cfg, mgr, p)
	return report, time.Since(start), err
}

// GetScheduleResults builds per-person schedules against the configured source.
func GetScheduleResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.GapReport, time.Duration, error) {
	start := time.Now()
	if err := contract.RequirePeople(cfg, 1); err != nil {
		return schema.GapReport{}, 0, err
	}
	p, err := provider.New(cfg)
	if err != nil {
		return schema.GapReport{}, 0, err
	}
	report, err := BuildSchedules(ctx, cfg, mgr, p)
	return report, time.Since(start), err
}

// FindMutualGaps runs the full pipeline: fetch, normalize, per-person gaps, intersect, format.
// People keep their request order and every record list is in canonical order.
func FindMutualGaps(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, p contract.ScheduleProvider) (schema.GapReport, error) {
	return runQuery(ctx, cfg, mgr, p, true)
}

// BuildSchedules runs the pipeline without the intersection step.
func BuildSchedules(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, p contract.ScheduleProvider) (schema.GapReport, error) {
	return runQuery(ctx, cfg, mgr, p, false)
}

// GapPolicy derives the gap calculator policy from cfg.
func GapPolicy(cfg *contract.Config) algo.GapPolicy {
	return algo.GapPolicy{
		Window:          cfg.Window,
		MinDuration:     cfg.MinPersonalGap,
		IncludeTrailing: cfg.IncludeTrailingGap,
		Days:            algo.CanonicalDays(cfg.Days),
	}
}

// runQuery performs the shared pipeline steps.
func runQuery(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, p contract.ScheduleProvider, withMutual bool) (schema.GapReport, error) {
	logger := zap.L().With(zap.String("run_id", uuid.NewString()))
	ctx = withRunLogger(ctx, logger)

	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		outwriter.LogQueryHeader(cfg)
	}

	// --- 1. Fetch Phase (with caching) ---
	events, err := fetchAll(ctx, cfg, mgr, p)
	if err != nil {
		return schema.GapReport{}, err
	}

	// --- 2. Normalization ---
	norm := normalize.Normalizer{Days: cfg.Days}
	if cfg.FilterWeek {
		norm.TargetWeek = cfg.Week
	}
	var all []schema.RawEvent
	for _, evs := range events {
		all = append(all, evs...)
	}
	result := norm.Normalize(all)
	if result.Skipped > 0 {
		logger.Warn("skipped malformed timetable records",
			zap.Int("skipped", result.Skipped),
			zap.Any("reasons", result.SkipReasons))
	}

	schedules := make([][]schema.BusyInterval, len(cfg.People))
	for i, person := range cfg.People {
		schedules[i] = result.For(person.ID())
	}

	// --- 3. Per-person Gaps ---
	policy := GapPolicy(cfg)
	gapLists := computeAllGaps(cfg.Workers, schedules, policy)

	// --- 4. Formatting ---
	var formatter display.Formatter
	report := schema.GapReport{
		Window:      cfg.Window,
		People:      make([]schema.PersonReport, len(cfg.People)),
		Mutual:      []schema.DisplayRecord{},
		Skipped:     result.Skipped,
		SkipReasons: result.SkipReasons,
	}
	if !cfg.Week.IsZero() {
		report.Week = cfg.Week.Format(contract.WeekLayout)
	}
	for i, person := range cfg.People {
		report.People[i] = buildPersonReport(formatter, person, schedules[i], gapLists[i])
		logger.Debug("computed personal gaps",
			zap.String("person", person.ID()),
			zap.Int("classes", len(schedules[i])),
			zap.Int("gaps", len(gapLists[i])))
	}

	// --- 5. Intersection ---
	if withMutual {
		mutual, err := algo.Intersect(gapLists, cfg.MinMutualGap)
		if err != nil {
			return schema.GapReport{}, err
		}
		for _, m := range mutual {
			report.Mutual = append(report.Mutual, formatter.Mutual(m))
		}
		logger.Info("mutual gaps found", zap.Int("people", len(cfg.People)), zap.Int("mutual", len(mutual)))
	}

	return report, nil
}

// fetchAll fetches every person's raw events concurrently, bounded by cfg.Workers.
// The first failure cancels the remaining fetches.
func fetchAll(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, p contract.ScheduleProvider) ([][]schema.RawEvent, error) {
	var store contract.CacheStore
	if mgr != nil && cfg.Source != schema.FileSource {
		store = mgr.GetTimetableStore()
	}
	source := sourceLocation(cfg)

	events := make([][]schema.RawEvent, len(cfg.People))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.Workers))
	for i, person := range cfg.People {
		g.Go(func() error {
			evs, err := CachedFetch(gctx, p, source, store, cfg.CacheTTL, person, cfg.Week)
			if err != nil {
				return fmt.Errorf("fetching schedule for %s: %w", person.ID(), err)
			}
			// Cached entries are shared by group, so stamp the requester
			for j := range evs {
				evs[j].PersonID = person.ID()
			}
			events[i] = evs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return events, nil
}

// computeAllGaps runs the gap calculator over every schedule using a worker pool.
// Results keep the order of schedules.
func computeAllGaps(workers int, schedules [][]schema.BusyInterval, policy algo.GapPolicy) [][]schema.FreeInterval {
	jobCh := make(chan int, len(schedules))
	results := make([][]schema.FreeInterval, len(schedules))
	var wg sync.WaitGroup

	// Start worker pool
	for range max(1, min(workers, len(schedules))) {
		wg.Go(func() {
			for i := range jobCh {
				// Each worker writes a unique index
				results[i] = algo.ComputeGaps(schedules[i], policy)
			}
		})
	}

	for i := range schedules {
		jobCh <- i
	}
	close(jobCh)
	wg.Wait()

	return results
}

// buildPersonReport formats one person's classes and gaps.
func buildPersonReport(f display.Formatter, person schema.PersonRef, schedule []schema.BusyInterval, gaps []schema.FreeInterval) schema.PersonReport {
	pr := schema.PersonReport{
		ID:      person.ID(),
		Intake:  person.Intake,
		Group:   person.Group,
		Empty:   len(schedule) == 0,
		Classes: make([]schema.DisplayRecord, 0, len(schedule)),
		Gaps:    make([]schema.DisplayRecord, 0, len(gaps)),
	}
	for _, iv := range schedule {
		pr.Classes = append(pr.Classes, f.Class(iv))
	}
	for _, g := range gaps {
		pr.Gaps = append(pr.Gaps, f.Gap(person.ID(), g))
	}
	return pr
}

// Package provider fetches raw timetable records from upstream sources.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrBlocked means the upstream rejected the request as tampered.
	ErrBlocked = errors.New("request blocked by timetable server")

	// ErrNoTimetable means the response held no recognizable timetable.
	ErrNoTimetable = errors.New("no timetable found in response")
)

// maxRetries bounds retries of transient HTTP failures.
const maxRetries = 3

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 8 << 20

// New returns the provider selected by cfg.Source.
func New(cfg *contract.Config) (contract.ScheduleProvider, error) {
	switch cfg.Source {
	case schema.APUSource:
		return NewAPU(cfg.SourceURL, newFetcher(cfg.Timeout, cfg.RateLimit)), nil
	case schema.APSpaceSource:
		return NewAPSpace(cfg.SourceURL, newFetcher(cfg.Timeout, cfg.RateLimit)), nil
	case schema.FileSource:
		return NewFile(cfg.SourceFile), nil
	default:
		return nil, fmt.Errorf("%w: unknown source '%s'", contract.ErrInvalidConfiguration, cfg.Source)
	}
}

// fetcher performs paced, retried GET requests.
type fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// newFetcher builds a fetcher allowing perSecond requests with a burst of one.
func newFetcher(timeout time.Duration, perSecond float64) *fetcher {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// get fetches url with the given headers and returns the body.
// Network errors and 5xx responses are retried with exponential backoff.
func (f *fetcher) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var body []byte

	op := func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("upstream returned %s", resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("upstream returned %s", resp.Status))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		return err
	}

	notify := func(err error, wait time.Duration) {
		zap.L().Debug("retrying timetable request", zap.String("url", url), zap.Duration("wait", wait), zap.Error(err))
	}

	b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), maxRetries), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return body, nil
}

// newBackOff is swapped in tests to avoid real sleeps.
var newBackOff = func() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 500 * time.Millisecond
	eb.MaxInterval = 5 * time.Second
	return eb
}

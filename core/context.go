package core

import (
	"context"

	"go.uber.org/zap"
)

// Context keys for query options
type contextKey string

const (
	suppressHeaderKey contextKey = "suppressHeader"
	runLoggerKey      contextKey = "runLogger"
)

// WithSuppressHeader marks the context so the query header is not printed.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// withRunLogger attaches the logger of one query run
func withRunLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, runLoggerKey, logger)
}

// runLogger returns the query logger, or the global logger outside a run
func runLogger(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(runLoggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.L()
}

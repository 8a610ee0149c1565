package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	logger := zap.NewNop()
	ctx := withRunLogger(WithSuppressHeader(context.Background()), logger)

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			assert.True(t, shouldSuppressHeader(ctx))
			assert.Same(t, logger, runLogger(ctx))
		})
	}
	wg.Wait()
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	assert.False(t, shouldSuppressHeader(ctx))
	assert.Same(t, zap.L(), runLogger(ctx))

	// Derived contexts keep parent values without touching the parent
	child := WithSuppressHeader(ctx)
	assert.True(t, shouldSuppressHeader(child))
	assert.False(t, shouldSuppressHeader(ctx))
}

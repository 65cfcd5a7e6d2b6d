package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-search/tessera/internal/core/domain"
)

func TestCallBudgetExhaustion(t *testing.T) {
	b := NewCallBudget(2, 0)
	ctx := context.Background()

	require.NoError(t, b.Acquire(ctx))
	require.NoError(t, b.Acquire(ctx))
	assert.Equal(t, int64(0), b.Remaining())

	err := b.Acquire(ctx)
	require.ErrorIs(t, err, domain.ErrBudgetExhausted)

	// Stays exhausted.
	err = b.Acquire(ctx)
	require.ErrorIs(t, err, domain.ErrBudgetExhausted)
	assert.Equal(t, int64(0), b.Remaining())
}

func TestCallBudgetUnlimited(t *testing.T) {
	b := NewCallBudget(0, 0)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, b.Acquire(ctx))
	}
	assert.Equal(t, int64(-1), b.Remaining())
}

func TestCallBudgetConcurrent(t *testing.T) {
	const callers = 50
	b := NewCallBudget(20, 0)
	ctx := context.Background()

	granted := make(chan struct{}, callers)
	done := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		go func() {
			if b.Acquire(ctx) == nil {
				granted <- struct{}{}
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < callers; i++ {
		<-done
	}
	assert.Equal(t, 20, len(granted))
}

func TestCallBudgetRateLimitCancellation(t *testing.T) {
	// One call per 100 seconds: the second acquire must block until
	// the context is cancelled.
	b := NewCallBudget(0, 0.01)

	require.NoError(t, b.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Acquire(ctx)
	require.Error(t, err)
}

package services

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// CallBudget bounds and throttles external caption/embedding calls.
// It is shared mutable state across concurrent unit workers; the
// counter is updated atomically and the limiter is safe for concurrent
// use.
type CallBudget struct {
	limiter   *rate.Limiter
	remaining atomic.Int64
	unlimited bool
}

// NewCallBudget creates a budget. maxCalls <= 0 means unlimited calls;
// callsPerSecond <= 0 disables proactive throttling.
func NewCallBudget(maxCalls int, callsPerSecond float64) *CallBudget {
	b := &CallBudget{}
	if maxCalls > 0 {
		b.remaining.Store(int64(maxCalls))
	} else {
		b.unlimited = true
	}
	if callsPerSecond > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(callsPerSecond), 1)
	}
	return b
}

// Acquire reserves one call, blocking for the rate limiter if
// configured. Returns domain.ErrBudgetExhausted once the budget is
// spent.
func (b *CallBudget) Acquire(ctx context.Context) error {
	if !b.unlimited {
		if b.remaining.Add(-1) < 0 {
			return domain.ErrBudgetExhausted
		}
	}
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Remaining returns the calls left, or -1 for an unlimited budget.
func (b *CallBudget) Remaining() int64 {
	if b.unlimited {
		return -1
	}
	r := b.remaining.Load()
	if r < 0 {
		return 0
	}
	return r
}

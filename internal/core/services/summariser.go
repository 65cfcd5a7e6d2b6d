package services

import (
	"context"
	"errors"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
	"github.com/tessera-search/tessera/internal/retry"
)

// transientOnly is the shared retry predicate for external calls.
func transientOnly(err error) bool {
	return errors.Is(err, domain.ErrCallTransient)
}

// Summariser populates image unit summaries via the captioning
// capability. It owns the retry policy around that call and the
// deterministic fallback when retries exhaust.
type Summariser struct {
	captioner driven.Captioner
	policy    retry.Policy
	budget    *CallBudget
}

// NewSummariser creates a summariser. budget may be nil for unbounded
// calls. The policy's Retryable predicate is fixed to transient
// failures.
func NewSummariser(captioner driven.Captioner, policy retry.Policy, budget *CallBudget) *Summariser {
	policy.Retryable = transientOnly
	return &Summariser{
		captioner: captioner,
		policy:    policy,
		budget:    budget,
	}
}

// Summarise populates unit.Summary with a caption of its visual
// content. docContext optionally grounds the caption in surrounding
// document text. The image payload is never mutated.
//
// On permanent failure or exhausted retries the unit receives the
// placeholder summary and is tagged Unsummarized, so downstream stages
// still index it; the error is returned for reporting. Cancellation
// leaves the unit untouched so partial work is discarded, not indexed.
func (s *Summariser) Summarise(ctx context.Context, unit *domain.ImageUnit, docContext string) error {
	if unit.Summarized() {
		return nil
	}

	var caption string
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		if s.budget != nil {
			if err := s.budget.Acquire(ctx); err != nil {
				return err
			}
		}
		c, err := s.captioner.Caption(ctx, unit.Data, docContext)
		if err != nil {
			return err
		}
		caption = c
		return nil
	})

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		placeholder := domain.PlaceholderSummary
		unit.Summary = &placeholder
		unit.Unsummarized = true
		return err
	}

	unit.Summary = &caption
	return nil
}

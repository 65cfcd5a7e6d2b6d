package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
	"github.com/tessera-search/tessera/internal/retry"
)

// Embedder produces one embedding per unit: from the raw text of a
// text unit, from the summary of an image unit — never from raw
// pixels. It owns retry policy and the run-wide dimension check.
type Embedder struct {
	svc    driven.EmbeddingService
	policy retry.Policy
	budget *CallBudget

	// dim is fixed by the first successful call; later vectors of a
	// different length are a permanent unit failure.
	mu  sync.Mutex
	dim int
}

// NewEmbedder creates an embedder. budget may be nil for unbounded
// calls. The policy's Retryable predicate is fixed to transient
// failures.
func NewEmbedder(svc driven.EmbeddingService, policy retry.Policy, budget *CallBudget) *Embedder {
	policy.Retryable = transientOnly
	return &Embedder{
		svc:    svc,
		policy: policy,
		budget: budget,
	}
}

// EmbedText embeds the unit's raw text.
func (e *Embedder) EmbedText(ctx context.Context, unit *domain.TextUnit) (domain.Embedding, error) {
	return e.embed(ctx, unit.ID, domain.ModalityText, unit.Text)
}

// EmbedImage embeds the unit's summary. Calling this on a unit the
// summariser has not processed is an ordering violation, reported
// as a contract error and never silently worked around.
func (e *Embedder) EmbedImage(ctx context.Context, unit *domain.ImageUnit) (domain.Embedding, error) {
	if !unit.Summarized() {
		return domain.Embedding{}, fmt.Errorf("unit %s: %w", unit.ID, domain.ErrOrderingViolation)
	}
	return e.embed(ctx, unit.ID, domain.ModalityImageSummary, *unit.Summary)
}

func (e *Embedder) embed(ctx context.Context, unitID string, modality domain.Modality, text string) (domain.Embedding, error) {
	var vector []float32
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		if e.budget != nil {
			if err := e.budget.Acquire(ctx); err != nil {
				return err
			}
		}
		v, err := e.svc.Embed(ctx, text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	})
	if err != nil {
		return domain.Embedding{}, fmt.Errorf("embed %s: %w", unitID, err)
	}

	if err := e.checkDimension(len(vector)); err != nil {
		return domain.Embedding{}, fmt.Errorf("embed %s: %w", unitID, err)
	}

	return domain.Embedding{
		UnitID:   unitID,
		Modality: modality,
		Vector:   vector,
	}, nil
}

// checkDimension fixes the run's vector dimension on first success and
// rejects later mismatches.
func (e *Embedder) checkDimension(n int) error {
	if n == 0 {
		return fmt.Errorf("empty vector: %w", domain.ErrCallPermanent)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dim == 0 {
		e.dim = n
		return nil
	}
	if n != e.dim {
		return fmt.Errorf("vector dimension changed from %d to %d: %w", e.dim, n, domain.ErrCallPermanent)
	}
	return nil
}

// Dimensions returns the dimension fixed by the first successful call,
// or 0 before any call.
func (e *Embedder) Dimensions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim
}

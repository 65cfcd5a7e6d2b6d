// Package apierr maps HTTP and transport failures from external model
// APIs onto the pipeline's error taxonomy, so retry policies can tell
// retryable failures from permanent ones regardless of provider.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// Transport wraps a network-level failure. Connection faults and
// timeouts are transient; context cancellation passes through
// unwrapped so callers can detect it.
func Transport(prefix string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s: %v: %w", prefix, err, domain.ErrCallTransient)
}

// Status maps an HTTP status code onto the taxonomy: 429 and 5xx are
// transient, every other non-success is permanent.
func Status(prefix string, status int, body []byte) error {
	if status == http.StatusTooManyRequests || status >= 500 {
		return fmt.Errorf("%s: status %d: %s: %w", prefix, status, string(body), domain.ErrCallTransient)
	}
	return fmt.Errorf("%s: status %d: %s: %w", prefix, status, string(body), domain.ErrCallPermanent)
}

// Permanent wraps a provider-reported error that retrying cannot fix.
func Permanent(prefix, message string) error {
	return fmt.Errorf("%s: %s: %w", prefix, message, domain.ErrCallPermanent)
}

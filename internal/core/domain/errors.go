package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrFormat indicates the document could not be normalised
	// (unsupported format or corrupt bytes). Fatal for the document.
	ErrFormat = errors.New("document format error")

	// ErrZeroPages indicates normalisation produced an empty page
	// sequence. Fatal for the document.
	ErrZeroPages = errors.New("document has zero pages")

	// ErrCallTransient indicates an external call failed in a way that
	// may succeed on retry (timeout, rate limit, server error).
	ErrCallTransient = errors.New("transient external call failure")

	// ErrCallPermanent indicates an external call failed in a way
	// retrying cannot fix (invalid payload, authentication).
	// The unit is marked failed; the document continues.
	ErrCallPermanent = errors.New("permanent external call failure")

	// ErrOrderingViolation indicates the embedder was invoked on an
	// image unit before the summariser ran. This is a programming
	// error and is never silently recovered.
	ErrOrderingViolation = errors.New("summariser must run before embedder")

	// ErrBudgetExhausted indicates the external-call budget ran out.
	ErrBudgetExhausted = errors.New("external call budget exhausted")

	// ErrInvalidTransition indicates a backward pipeline stage change.
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrUnsupportedType indicates an unknown MIME type.
	ErrUnsupportedType = errors.New("unsupported type")
)

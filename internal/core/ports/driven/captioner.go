package driven

import "context"

// Captioner describes an image's visual content as text.
// Backed by a vision-capable model behind an OpenAI-compatible API.
//
// Failure taxonomy: implementations wrap retryable failures (timeouts,
// rate limits, server errors) in domain.ErrCallTransient and
// unretryable ones (invalid payload, auth) in domain.ErrCallPermanent,
// so the summariser's retry policy can tell them apart.
type Captioner interface {
	// Caption returns a textual summary of the image bytes.
	// docContext optionally carries surrounding document text to ground
	// the caption; empty means no context is available.
	Caption(ctx context.Context, image []byte, docContext string) (string, error)

	// ModelName returns the name of the vision model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

package services

import (
	"context"
	"sync"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// mockCaptioner counts calls and returns a scripted caption or error.
type mockCaptioner struct {
	mu      sync.Mutex
	calls   int
	caption string
	err     error

	// errUntil fails the first N calls, then succeeds.
	errUntil int
}

func (m *mockCaptioner) Caption(_ context.Context, _ []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil && (m.errUntil == 0 || m.calls <= m.errUntil) {
		return "", m.err
	}
	return m.caption, nil
}

func (m *mockCaptioner) ModelName() string { return "mock-vision" }

func (m *mockCaptioner) Ping(_ context.Context) error { return nil }

func (m *mockCaptioner) Close() error { return nil }

func (m *mockCaptioner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockEmbedding returns a fixed-size vector, or errors for texts listed
// in failFor.
type mockEmbedding struct {
	mu      sync.Mutex
	calls   int
	dim     int
	err     error
	failFor map[string]error
}

func newMockEmbedding(dim int) *mockEmbedding {
	return &mockEmbedding{dim: dim}
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if err, ok := m.failFor[text]; ok {
		return nil, err
	}
	return make([]float32, m.dim), nil
}

func (m *mockEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int { return m.dim }

func (m *mockEmbedding) ModelName() string { return "mock-embed" }

func (m *mockEmbedding) Ping(_ context.Context) error { return nil }

func (m *mockEmbedding) Close() error { return nil }

func (m *mockEmbedding) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockWriter records written entries.
type mockWriter struct {
	mu     sync.Mutex
	texts  []domain.TextIndexEntry
	images []domain.ImageIndexEntry
	err    error
}

func (m *mockWriter) WriteText(_ context.Context, entries []domain.TextIndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.texts = append(m.texts, entries...)
	return nil
}

func (m *mockWriter) WriteImage(_ context.Context, entries []domain.ImageIndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.images = append(m.images, entries...)
	return nil
}

func (m *mockWriter) Close() error { return nil }

// mockNormaliser serves scripted pages for a single MIME type.
type mockNormaliser struct {
	mime  string
	pages []domain.Page
	err   error
}

func (m *mockNormaliser) SupportedMIMETypes() []string { return []string{m.mime} }

func (m *mockNormaliser) Normalise(_ context.Context, _ *domain.RawDocument) ([]domain.Page, error) {
	if m.err != nil {
		return nil, m.err
	}
	pages := make([]domain.Page, len(m.pages))
	copy(pages, m.pages)
	return pages, nil
}

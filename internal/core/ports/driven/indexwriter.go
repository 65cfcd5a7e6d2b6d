package driven

import (
	"context"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// IndexWriter persists assembled index entries.
// The pipeline emits complete, internally consistent batches per
// document; transactional semantics and upserts are the backend's
// concern.
type IndexWriter interface {
	// WriteText persists a batch of text index entries.
	WriteText(ctx context.Context, entries []domain.TextIndexEntry) error

	// WriteImage persists a batch of image index entries.
	WriteImage(ctx context.Context, entries []domain.ImageIndexEntry) error

	// Close releases resources.
	Close() error
}

package driven

import (
	"context"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// PageNormaliser turns one input document into an ordered sequence of
// per-page artifacts: text, embedded images and a full-page raster.
// Document-format conversion itself happens outside this repository;
// implementations decode the converter's normalised page stream.
type PageNormaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Normalise decodes raw bytes into pages.
	// Unsupported or corrupt input fails with domain.ErrFormat.
	Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.Page, error)
}

// Package plaintext normalises plain text input directly, without the
// external converter. Useful for text-only corpora and for exercising
// the pipeline end to end.
package plaintext

import (
	"context"
	"strings"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.PageNormaliser = (*Normaliser)(nil)

// Normaliser turns plain text into pages. Form feeds mark page
// boundaries, matching print-oriented text output; text without form
// feeds becomes a single page.
type Normaliser struct{}

// New creates a plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
		"text/x-markdown",
	}
}

// Normalise decodes raw bytes into pages.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := string(raw.Content)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var pages []domain.Page
	for i, part := range strings.Split(text, "\f") {
		pages = append(pages, domain.Page{
			Number: i,
			Text:   strings.TrimSpace(part),
		})
	}
	return pages, nil
}

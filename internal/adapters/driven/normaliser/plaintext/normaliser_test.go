package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-search/tessera/internal/core/domain"
)

func TestNormaliseSinglePage(t *testing.T) {
	raw := &domain.RawDocument{Content: []byte("Just one page of text.")}

	pages, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 0, pages[0].Number)
	assert.Equal(t, "Just one page of text.", pages[0].Text)
	assert.Empty(t, pages[0].Images)
}

func TestNormaliseFormFeedPages(t *testing.T) {
	raw := &domain.RawDocument{Content: []byte("Page one.\f Page two.\fPage three.")}

	pages, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "Page one.", pages[0].Text)
	assert.Equal(t, "Page two.", pages[1].Text)
	assert.Equal(t, 2, pages[2].Number)
}

func TestNormaliseEmptyInput(t *testing.T) {
	pages, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte("   \n ")})
	require.NoError(t, err)
	assert.Empty(t, pages)
}

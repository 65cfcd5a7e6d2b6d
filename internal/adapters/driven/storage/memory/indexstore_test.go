package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-search/tessera/internal/core/domain"
)

func TestIndexStoreAccumulates(t *testing.T) {
	store := NewIndexStore()
	ctx := context.Background()

	require.NoError(t, store.WriteText(ctx, []domain.TextIndexEntry{
		{DocumentID: "doc-1", UnitID: "text:0:0"},
	}))
	require.NoError(t, store.WriteImage(ctx, []domain.ImageIndexEntry{
		{DocumentID: "doc-1", UnitID: "page:1"},
	}))
	require.NoError(t, store.WriteText(ctx, []domain.TextIndexEntry{
		{DocumentID: "doc-2", UnitID: "text:0:0"},
	}))

	assert.Len(t, store.TextEntries(), 2)
	assert.Len(t, store.ImageEntries(), 1)
}

func TestIndexStoreReturnsCopies(t *testing.T) {
	store := NewIndexStore()
	require.NoError(t, store.WriteText(context.Background(), []domain.TextIndexEntry{
		{UnitID: "text:0:0"},
	}))

	got := store.TextEntries()
	got[0].UnitID = "mutated"

	assert.Equal(t, "text:0:0", store.TextEntries()[0].UnitID)
}

func TestIndexStoreConcurrentWrites(t *testing.T) {
	store := NewIndexStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WriteText(ctx, []domain.TextIndexEntry{{UnitID: "text:0:0"}})
		}()
	}
	wg.Wait()

	assert.Len(t, store.TextEntries(), 20)
}

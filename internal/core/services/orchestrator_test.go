package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

const testMIME = "application/x-test-pages"

// newTestOrchestrator wires an orchestrator from mocks with fast
// retries and no call budget.
func newTestOrchestrator(n *mockNormaliser, c *mockCaptioner, e *mockEmbedding, w *mockWriter) *Orchestrator {
	return NewOrchestrator(
		[]driven.PageNormaliser{n},
		NewClassifier(ClassifierConfig{}),
		NewExtractor(ExtractorConfig{}),
		NewSummariser(c, fastPolicy(2), nil),
		NewEmbedder(e, fastPolicy(2), nil),
		w,
		OrchestratorConfig{Concurrency: 2},
	)
}

func rawDoc() *domain.RawDocument {
	return &domain.RawDocument{
		FileName: "report.bin",
		MIMEType: testMIME,
		Content:  []byte("raw document bytes"),
	}
}

func TestIngestTwoPageDocument(t *testing.T) {
	normaliser := &mockNormaliser{
		mime: testMIME,
		pages: []domain.Page{
			{Number: 0, Text: "The first page carries plain readable prose for the index."},
			{Number: 1, Raster: []byte("page-1-raster"), Width: 612, Height: 792,
				Images: []domain.PageImage{{Width: 600, Height: 700, Data: []byte("img")}}},
		},
	}
	captioner := &mockCaptioner{caption: "a full-page scan"}
	embedding := newMockEmbedding(4)
	writer := &mockWriter{}

	o := newTestOrchestrator(normaliser, captioner, embedding, writer)
	outcome, err := o.Ingest(context.Background(), rawDoc())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, outcome.Status)
	assert.Equal(t, 2, outcome.Pages)
	assert.Equal(t, 1, outcome.TextEntries)
	assert.Equal(t, 1, outcome.ImageEntries)
	assert.Empty(t, outcome.FailedUnits)
	assert.NotEmpty(t, outcome.DocumentID)
	assert.Positive(t, outcome.Elapsed)

	// Page stats: one text-only, one images-only.
	assert.Equal(t, 1, outcome.Stats.TextOnly)
	assert.Equal(t, 1, outcome.Stats.ImagesOnly)

	require.Len(t, writer.texts, 1)
	assert.Equal(t, "text:0:0", writer.texts[0].UnitID)
	require.Len(t, writer.images, 1)
	assert.Equal(t, "page:1", writer.images[0].UnitID)
	assert.Equal(t, domain.ImageWholePage, writer.images[0].Kind)
	assert.Equal(t, "a full-page scan", writer.images[0].Summary)
	assert.Equal(t, []byte("page-1-raster"), writer.images[0].Image)
}

func TestIngestUnsupportedMIME(t *testing.T) {
	o := newTestOrchestrator(&mockNormaliser{mime: testMIME}, &mockCaptioner{}, newMockEmbedding(4), &mockWriter{})

	raw := rawDoc()
	raw.MIMEType = "application/unknown"
	outcome, err := o.Ingest(context.Background(), raw)

	require.ErrorIs(t, err, domain.ErrFormat)
	require.NotNil(t, outcome)
	assert.Equal(t, domain.StatusFailed, outcome.Status)
	assert.NotEmpty(t, outcome.Reason)
}

func TestIngestNormaliserFailure(t *testing.T) {
	normaliser := &mockNormaliser{
		mime: testMIME,
		err:  fmt.Errorf("truncated stream: %w", domain.ErrFormat),
	}
	o := newTestOrchestrator(normaliser, &mockCaptioner{}, newMockEmbedding(4), &mockWriter{})

	outcome, err := o.Ingest(context.Background(), rawDoc())

	require.ErrorIs(t, err, domain.ErrFormat)
	assert.Equal(t, domain.StatusFailed, outcome.Status)
}

func TestIngestZeroPages(t *testing.T) {
	o := newTestOrchestrator(&mockNormaliser{mime: testMIME}, &mockCaptioner{}, newMockEmbedding(4), &mockWriter{})

	outcome, err := o.Ingest(context.Background(), rawDoc())

	require.ErrorIs(t, err, domain.ErrZeroPages)
	assert.Equal(t, domain.StatusFailed, outcome.Status)
	assert.Zero(t, outcome.Pages)
}

func TestIngestPartialCompletion(t *testing.T) {
	normaliser := &mockNormaliser{
		mime: testMIME,
		pages: []domain.Page{
			{Number: 0, Text: "The first chunkable page holds regular prose sentences."},
			{Number: 1, Text: "POISON"},
		},
	}
	embedding := newMockEmbedding(4)
	embedding.failFor = map[string]error{
		"POISON": fmt.Errorf("rejected input: %w", domain.ErrCallPermanent),
	}
	writer := &mockWriter{}

	o := newTestOrchestrator(normaliser, &mockCaptioner{}, embedding, writer)
	outcome, err := o.Ingest(context.Background(), rawDoc())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPartiallyCompleted, outcome.Status)
	assert.Equal(t, 1, outcome.TextEntries)
	require.Len(t, outcome.FailedUnits, 1)
	assert.Equal(t, "text:1:0", outcome.FailedUnits[0].UnitID)
	assert.Equal(t, domain.StageEmbedding, outcome.FailedUnits[0].Stage)

	// The failed unit reaches neither index.
	require.Len(t, writer.texts, 1)
	assert.Equal(t, "text:0:0", writer.texts[0].UnitID)
}

func TestIngestCaptionFailureStillIndexesImage(t *testing.T) {
	normaliser := &mockNormaliser{
		mime: testMIME,
		pages: []domain.Page{
			{Number: 0, Raster: []byte("raster"), Width: 612, Height: 792,
				Images: []domain.PageImage{{Width: 600, Height: 700, Data: []byte("img")}}},
		},
	}
	captioner := &mockCaptioner{err: fmt.Errorf("model refused: %w", domain.ErrCallPermanent)}
	writer := &mockWriter{}

	o := newTestOrchestrator(normaliser, captioner, newMockEmbedding(4), writer)
	outcome, err := o.Ingest(context.Background(), rawDoc())

	require.NoError(t, err)
	// Degraded, not failed: the unit is present with the placeholder.
	assert.Equal(t, domain.StatusCompleted, outcome.Status)
	assert.Equal(t, 1, outcome.ImageEntries)
	assert.Empty(t, outcome.FailedUnits)

	require.Len(t, writer.images, 1)
	assert.Equal(t, domain.PlaceholderSummary, writer.images[0].Summary)
	assert.True(t, writer.images[0].Unsummarized)
	assert.Equal(t, []string{writer.images[0].UnitID}, outcome.UnsummarizedUnits)
}

func TestIngestCancellationPersistsNothing(t *testing.T) {
	normaliser := &mockNormaliser{
		mime:  testMIME,
		pages: []domain.Page{{Number: 0, Text: "Some regular prose on the only page."}},
	}
	writer := &mockWriter{}
	o := newTestOrchestrator(normaliser, &mockCaptioner{}, newMockEmbedding(4), writer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome, err := o.Ingest(ctx, rawDoc())

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.StatusFailed, outcome.Status)
	assert.Empty(t, writer.texts)
	assert.Empty(t, writer.images)
}

func TestIngestWriterFailure(t *testing.T) {
	normaliser := &mockNormaliser{
		mime:  testMIME,
		pages: []domain.Page{{Number: 0, Text: "Some regular prose on the only page."}},
	}
	writer := &mockWriter{err: errors.New("disk full")}
	o := newTestOrchestrator(normaliser, &mockCaptioner{}, newMockEmbedding(4), writer)

	outcome, err := o.Ingest(context.Background(), rawDoc())

	require.Error(t, err)
	assert.Equal(t, domain.StatusFailed, outcome.Status)
}

func TestIngestDeterministicIdentifiers(t *testing.T) {
	normaliser := &mockNormaliser{
		mime: testMIME,
		pages: []domain.Page{
			{Number: 0, Text: "Deterministic prose that chunks the same way every run."},
			{Number: 1, Raster: []byte("raster"), Width: 612, Height: 792,
				Images: []domain.PageImage{{Width: 600, Height: 700, Data: []byte("img")}}},
		},
	}
	captioner := &mockCaptioner{caption: "scan"}

	run := func() (string, []string) {
		writer := &mockWriter{}
		o := newTestOrchestrator(normaliser, captioner, newMockEmbedding(4), writer)
		outcome, err := o.Ingest(context.Background(), rawDoc())
		require.NoError(t, err)

		var ids []string
		for _, e := range writer.texts {
			ids = append(ids, e.UnitID)
		}
		for _, e := range writer.images {
			ids = append(ids, e.UnitID)
		}
		return outcome.DocumentID, ids
	}

	docID1, ids1 := run()
	docID2, ids2 := run()

	assert.Equal(t, docID1, docID2)
	assert.Equal(t, ids1, ids2)
}

func TestIngestNoUnits(t *testing.T) {
	normaliser := &mockNormaliser{
		mime:  testMIME,
		pages: []domain.Page{{Number: 0}},
	}
	embedding := newMockEmbedding(4)
	o := newTestOrchestrator(normaliser, &mockCaptioner{}, embedding, &mockWriter{})

	outcome, err := o.Ingest(context.Background(), rawDoc())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, outcome.Status)
	assert.Zero(t, outcome.TextEntries)
	assert.Zero(t, outcome.ImageEntries)
	assert.Equal(t, 0, embedding.callCount())
	assert.Equal(t, 1, outcome.Stats.Empty)
}

func TestStatusUnknownJob(t *testing.T) {
	o := newTestOrchestrator(&mockNormaliser{mime: testMIME}, &mockCaptioner{}, newMockEmbedding(4), &mockWriter{})

	_, ok := o.Status("no-such-job")
	assert.False(t, ok)
	assert.Empty(t, o.Jobs())
}

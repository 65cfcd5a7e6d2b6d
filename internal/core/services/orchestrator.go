package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
	"github.com/tessera-search/tessera/internal/core/ports/driving"
	"github.com/tessera-search/tessera/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.IngestService = (*Orchestrator)(nil)

// Default orchestration values.
const (
	// DefaultConcurrency bounds parallel unit workers.
	DefaultConcurrency = 4

	// DefaultContextBytes bounds the document text passed to the
	// captioner as context.
	DefaultContextBytes = 600
)

// OrchestratorConfig holds orchestration tunables.
type OrchestratorConfig struct {
	// Concurrency is the maximum number of units processed in
	// parallel, sized to external API rate limits.
	Concurrency int

	// ContextBytes bounds the caption context text.
	ContextBytes int
}

// Orchestrator drives the pipeline per document:
// normalise, classify, extract, summarise, embed, assemble, emit.
// Unit-level failures are contained at the unit; only document-level
// precondition failures abort a document.
type Orchestrator struct {
	normalisers map[string]driven.PageNormaliser
	classifier  *Classifier
	extractor   *Extractor
	summariser  *Summariser
	embedder    *Embedder
	writer      driven.IndexWriter
	builder     IndexBuilder
	cfg         OrchestratorConfig

	// Status tracking
	mu     sync.RWMutex
	active map[string]*driving.JobStatus
}

// NewOrchestrator creates an orchestrator. The writer may be nil, in
// which case entries are assembled and reported but not persisted.
func NewOrchestrator(
	normalisers []driven.PageNormaliser,
	classifier *Classifier,
	extractor *Extractor,
	summariser *Summariser,
	embedder *Embedder,
	writer driven.IndexWriter,
	cfg OrchestratorConfig,
) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.ContextBytes <= 0 {
		cfg.ContextBytes = DefaultContextBytes
	}

	byMIME := make(map[string]driven.PageNormaliser)
	for _, n := range normalisers {
		for _, mime := range n.SupportedMIMETypes() {
			byMIME[mime] = n
		}
	}

	return &Orchestrator{
		normalisers: byMIME,
		classifier:  classifier,
		extractor:   extractor,
		summariser:  summariser,
		embedder:    embedder,
		writer:      writer,
		cfg:         cfg,
		active:      make(map[string]*driving.JobStatus),
	}
}

// Status returns a copy of the live status for a job.
func (o *Orchestrator) Status(jobID string) (*driving.JobStatus, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	status, ok := o.active[jobID]
	if !ok {
		return nil, false
	}
	copied := *status
	return &copied, true
}

// Jobs returns copies of all active job statuses.
func (o *Orchestrator) Jobs() []driving.JobStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()

	jobs := make([]driving.JobStatus, 0, len(o.active))
	for _, status := range o.active {
		jobs = append(jobs, *status)
	}
	return jobs
}

// Ingest processes one document end to end.
//
//nolint:gocyclo // Pipeline orchestration with necessary sequential stages
func (o *Orchestrator) Ingest(ctx context.Context, raw *domain.RawDocument) (*domain.Outcome, error) {
	start := time.Now()

	docID := raw.DocumentID
	if docID == "" {
		docID = raw.ContentID()
	}

	outcome := &domain.Outcome{
		DocumentID: docID,
		FileName:   raw.FileName,
	}
	progress := domain.NewProgress()

	jobID := uuid.New().String()
	o.setStatus(jobID, &driving.JobStatus{
		JobID:      jobID,
		DocumentID: docID,
		FileName:   raw.FileName,
		Stage:      progress.Stage(),
	})
	defer o.clearStatus(jobID)

	logger.Section("ingest " + raw.FileName)
	logger.Debug("job %s: document %s (%s, %d bytes)", jobID, docID, raw.MIMEType, len(raw.Content))

	// 1. NORMALISE (raw bytes -> pages)
	pages, err := o.normalise(ctx, raw)
	if err != nil {
		return o.fail(outcome, start, err), err
	}
	outcome.Pages = len(pages)

	doc := &domain.Document{
		ID:        docID,
		FileName:  raw.FileName,
		MIMEType:  raw.MIMEType,
		Pages:     pages,
		CreatedAt: start,
	}

	// 2. CLASSIFY (exactly once per page, then fixed)
	o.advance(jobID, progress, domain.StageClassifying)
	for i := range doc.Pages {
		page := &doc.Pages[i]
		page.DocumentID = docID
		page.Complexity, page.ComplexityReason = o.classifier.Classify(page)
		outcome.Stats.Record(page.HasText(), len(page.Images) > 0)
		logger.Debug("page %d: %s %s", page.Number, page.Complexity, page.ComplexityReason)
	}

	// 3. EXTRACT (pages -> units)
	o.advance(jobID, progress, domain.StageExtracting)
	var textUnits []domain.TextUnit
	var imageUnits []domain.ImageUnit
	for i := range doc.Pages {
		texts, images := o.extractor.Extract(&doc.Pages[i])
		textUnits = append(textUnits, texts...)
		imageUnits = append(imageUnits, images...)
	}

	total := len(textUnits) + len(imageUnits)
	o.updateStatus(jobID, func(s *driving.JobStatus) { s.UnitsTotal = total })
	logger.Info("extracted %d text units, %d image units from %d pages",
		len(textUnits), len(imageUnits), len(doc.Pages))

	// 4+5. SUMMARISE AND EMBED (bounded parallel unit workers; per
	// unit, summarise always precedes embed)
	o.advance(jobID, progress, domain.StageSummarizing)
	results := o.processUnits(ctx, jobID, doc, textUnits, imageUnits)
	o.advance(jobID, progress, domain.StageEmbedding)

	// Partial work at cancellation is discarded, never indexed.
	if ctx.Err() != nil {
		return o.fail(outcome, start, ctx.Err()), ctx.Err()
	}

	// 6. ASSEMBLE AND EMIT
	o.advance(jobID, progress, domain.StageIndexing)
	textEntries, imageEntries, failures := o.builder.Build(doc, results)

	if o.writer != nil {
		if err := o.writer.WriteText(ctx, textEntries); err != nil {
			err = fmt.Errorf("write text entries: %w", err)
			return o.fail(outcome, start, err), err
		}
		if err := o.writer.WriteImage(ctx, imageEntries); err != nil {
			err = fmt.Errorf("write image entries: %w", err)
			return o.fail(outcome, start, err), err
		}
	}

	o.advance(jobID, progress, domain.StageDone)

	outcome.TextEntries = len(textEntries)
	outcome.ImageEntries = len(imageEntries)
	outcome.FailedUnits = failures
	for _, entry := range imageEntries {
		if entry.Unsummarized {
			outcome.UnsummarizedUnits = append(outcome.UnsummarizedUnits, entry.UnitID)
		}
	}
	outcome.Elapsed = time.Since(start)
	if len(failures) > 0 {
		outcome.Status = domain.StatusPartiallyCompleted
	} else {
		outcome.Status = domain.StatusCompleted
	}

	logPageStats(outcome.Stats)
	logger.Info("document %s %s: %d text entries, %d image entries, %d failed units in %s",
		docID, outcome.Status, outcome.TextEntries, outcome.ImageEntries,
		len(failures), outcome.Elapsed.Round(time.Millisecond))

	return outcome, nil
}

// normalise resolves the normaliser by MIME type and checks
// document-level preconditions.
func (o *Orchestrator) normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.Page, error) {
	normaliser, ok := o.normalisers[raw.MIMEType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported MIME type %q", domain.ErrFormat, raw.MIMEType)
	}

	pages, err := normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}
	if len(pages) == 0 {
		return nil, domain.ErrZeroPages
	}
	return pages, nil
}

// processUnits runs the per-unit summarise+embed pipeline with bounded
// concurrency. Units are independent; they may complete out of order.
func (o *Orchestrator) processUnits(
	ctx context.Context,
	jobID string,
	doc *domain.Document,
	textUnits []domain.TextUnit,
	imageUnits []domain.ImageUnit,
) []UnitResult {
	docContext := doc.ContextText(o.cfg.ContextBytes)

	var mu sync.Mutex
	results := make([]UnitResult, 0, len(textUnits)+len(imageUnits))
	collect := func(res UnitResult) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
		o.updateStatus(jobID, func(s *driving.JobStatus) {
			s.UnitsDone++
			if res.Err != nil {
				s.UnitsFailed++
			}
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)

	for i := range textUnits {
		unit := &textUnits[i]
		g.Go(func() error {
			collect(o.processTextUnit(gctx, unit))
			return nil
		})
	}
	for i := range imageUnits {
		unit := &imageUnits[i]
		g.Go(func() error {
			collect(o.processImageUnit(gctx, unit, docContext))
			return nil
		})
	}

	// Workers never return errors; failures are contained per unit.
	_ = g.Wait()
	return results
}

func (o *Orchestrator) processTextUnit(ctx context.Context, unit *domain.TextUnit) UnitResult {
	if err := ctx.Err(); err != nil {
		return UnitResult{Text: unit, Stage: domain.StageEmbedding, Err: err}
	}

	embedding, err := o.embedder.EmbedText(ctx, unit)
	if err != nil {
		logger.Warn("text unit %s failed: %v", unit.ID, err)
		return UnitResult{Text: unit, Stage: domain.StageEmbedding, Err: err}
	}
	return UnitResult{Text: unit, Embedding: embedding}
}

func (o *Orchestrator) processImageUnit(ctx context.Context, unit *domain.ImageUnit, docContext string) UnitResult {
	if err := ctx.Err(); err != nil {
		return UnitResult{Image: unit, Stage: domain.StageSummarizing, Err: err}
	}

	// Summarise first; the embedder rejects unsummarised units.
	if err := o.summariser.Summarise(ctx, unit, docContext); err != nil {
		if ctx.Err() != nil {
			return UnitResult{Image: unit, Stage: domain.StageSummarizing, Err: ctx.Err()}
		}
		// Unit carries the placeholder summary and continues; degraded
		// output beats dropped content.
		logger.Warn("image unit %s unsummarised: %v", unit.ID, err)
	}

	embedding, err := o.embedder.EmbedImage(ctx, unit)
	if err != nil {
		logger.Warn("image unit %s failed: %v", unit.ID, err)
		return UnitResult{Image: unit, Stage: domain.StageEmbedding, Err: err}
	}
	return UnitResult{Image: unit, Embedding: embedding}
}

// fail finalises a document-level failure.
func (o *Orchestrator) fail(outcome *domain.Outcome, start time.Time, err error) *domain.Outcome {
	outcome.Status = domain.StatusFailed
	outcome.Reason = err.Error()
	outcome.Elapsed = time.Since(start)
	logger.Warn("document %s failed: %v", outcome.DocumentID, err)
	return outcome
}

// advance moves document progress forward and mirrors it in the job
// status. Transitions are validated as strictly forward.
func (o *Orchestrator) advance(jobID string, progress *domain.Progress, to domain.Stage) {
	if err := progress.Advance(to); err != nil {
		// Backward transitions are a programming error.
		panic(err)
	}
	o.updateStatus(jobID, func(s *driving.JobStatus) { s.Stage = to })
}

func (o *Orchestrator) setStatus(jobID string, status *driving.JobStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active[jobID] = status
}

func (o *Orchestrator) updateStatus(jobID string, fn func(*driving.JobStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if status, ok := o.active[jobID]; ok {
		fn(status)
	}
}

func (o *Orchestrator) clearStatus(jobID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, jobID)
}

// logPageStats logs the 2x2 page matrix: text/no-text by
// images/no-images.
func logPageStats(s domain.PageStats) {
	logger.Info("pages: text+images=%d text-only=%d images-only=%d empty=%d",
		s.TextAndImages, s.TextOnly, s.ImagesOnly, s.Empty)
}

package driving

import (
	"context"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// IngestService drives the full pipeline for one document.
type IngestService interface {
	// Ingest processes raw document bytes end to end and reports the
	// per-document outcome. The returned outcome is always non-nil;
	// a non-nil error accompanies document-level failures
	// (domain.ErrFormat, domain.ErrZeroPages) and cancellation.
	Ingest(ctx context.Context, raw *domain.RawDocument) (*domain.Outcome, error)

	// Status returns the live status of an active job, or false if the
	// job is unknown or finished.
	Status(jobID string) (*JobStatus, bool)
}

// JobStatus is a point-in-time snapshot of an active ingestion.
type JobStatus struct {
	// JobID identifies this ingestion run.
	JobID string

	// DocumentID and FileName identify the document.
	DocumentID string
	FileName   string

	// Stage is the furthest pipeline stage entered.
	Stage domain.Stage

	// UnitsTotal, UnitsDone and UnitsFailed track unit progress.
	UnitsTotal  int
	UnitsDone   int
	UnitsFailed int
}

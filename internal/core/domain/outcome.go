package domain

import (
	"fmt"
	"time"
)

// Stage is a phase of the per-document pipeline.
type Stage int

const (
	// StageNormalizing converts raw bytes into pages.
	StageNormalizing Stage = iota

	// StageClassifying decides per-page complexity.
	StageClassifying

	// StageExtracting splits pages into text and image units.
	StageExtracting

	// StageSummarizing captions image units.
	StageSummarizing

	// StageEmbedding generates vectors for all units.
	StageEmbedding

	// StageIndexing assembles and emits index entries.
	StageIndexing

	// StageDone is the terminal stage.
	StageDone
)

// String returns a human-readable label.
func (s Stage) String() string {
	switch s {
	case StageNormalizing:
		return "normalizing"
	case StageClassifying:
		return "classifying"
	case StageExtracting:
		return "extracting"
	case StageSummarizing:
		return "summarizing"
	case StageEmbedding:
		return "embedding"
	case StageIndexing:
		return "indexing"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Progress tracks a document's position in the pipeline and enforces
// strictly forward transitions. No stage ever re-enters an earlier one.
type Progress struct {
	stage Stage
}

// NewProgress starts at StageNormalizing.
func NewProgress() *Progress {
	return &Progress{stage: StageNormalizing}
}

// Stage returns the current stage.
func (p *Progress) Stage() Stage {
	return p.stage
}

// Advance moves to a later stage. Moving to the current or an earlier
// stage is a contract violation.
func (p *Progress) Advance(to Stage) error {
	if to <= p.stage {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.stage, to)
	}
	p.stage = to
	return nil
}

// Status is the final per-document result.
type Status int

const (
	// StatusCompleted means every unit was embedded and indexed.
	StatusCompleted Status = iota

	// StatusPartiallyCompleted means at least one unit failed
	// irrecoverably but index entries for the rest were emitted.
	StatusPartiallyCompleted

	// StatusFailed means a document-level precondition failed and no
	// entries were emitted.
	StatusFailed
)

// String returns a human-readable label.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusPartiallyCompleted:
		return "partially-completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome reports the result of processing one document.
type Outcome struct {
	// DocumentID is the processed document.
	DocumentID string

	// FileName is the original file name.
	FileName string

	// Status is Completed, PartiallyCompleted or Failed.
	Status Status

	// Reason describes a Failed status. Empty otherwise.
	Reason string

	// Pages is the normalised page count.
	Pages int

	// Stats is the page text/image presence matrix.
	Stats PageStats

	// TextEntries and ImageEntries count emitted index entries.
	TextEntries  int
	ImageEntries int

	// FailedUnits lists units excluded from both indexes.
	FailedUnits []UnitFailure

	// UnsummarizedUnits lists image units indexed under the fallback
	// placeholder summary. Degraded but present.
	UnsummarizedUnits []string

	// Elapsed is the wall-clock processing duration.
	Elapsed time.Duration
}

package domain

import "time"

// TextIndexEntry is the persisted record for one embedded text chunk.
// Entries are never mutated after creation; corrections require a new
// document version with a new document ID.
type TextIndexEntry struct {
	DocumentID string
	PageNumber int
	UnitID     string

	// Embedding is the text vector.
	Embedding []float32

	// Text is the chunk content (provenance).
	Text string

	// StartOffset and EndOffset are byte offsets into the page text.
	StartOffset int
	EndOffset   int

	// FileName and MIMEType identify the source document.
	FileName string
	MIMEType string

	CreatedAt time.Time
}

// ImageIndexEntry is the persisted record for one embedded image unit.
type ImageIndexEntry struct {
	DocumentID string
	PageNumber int
	UnitID     string

	// Embedding is the image-summary vector.
	Embedding []float32

	// Summary is the caption the vector was derived from (provenance).
	Summary string

	// Kind is discrete or whole-page.
	Kind ImageKind

	// Ordinal is the image position within the page.
	Ordinal int

	// Unsummarized is true when Summary is the fallback placeholder.
	Unsummarized bool

	// Image is the raw image payload, persisted so retrieval can serve
	// the evidence image alongside the caption.
	Image []byte

	// FileName and MIMEType identify the source document.
	FileName string
	MIMEType string

	CreatedAt time.Time
}

// UnitFailure records a unit excluded from both indexes.
type UnitFailure struct {
	// UnitID is the failed unit.
	UnitID string

	// Stage is the pipeline stage where the failure occurred.
	Stage Stage

	// Reason is the failure description.
	Reason string
}

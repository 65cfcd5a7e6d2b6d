package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// RawDocument represents opaque document bytes handed to the pipeline
// by the serving layer, before page normalisation.
type RawDocument struct {
	// DocumentID identifies the document. If empty, a content-derived
	// ID is assigned at ingestion start so reprocessing the same bytes
	// yields the same identifier.
	DocumentID string

	// FileName is the original file name (for provenance metadata).
	FileName string

	// MIMEType is the content type of the page stream
	// (e.g., "application/x-tessera-pages").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains caller-specific key-value pairs.
	Metadata map[string]any
}

// ContentID returns the hex-encoded SHA-256 of the document bytes.
// Used as the default DocumentID so identical inputs map to identical
// document identifiers across runs.
func (r *RawDocument) ContentID() string {
	sum := sha256.Sum256(r.Content)
	return hex.EncodeToString(sum[:])
}

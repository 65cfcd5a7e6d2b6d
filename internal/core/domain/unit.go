package domain

import "fmt"

// TextUnit is a chunk of text belonging to a page.
type TextUnit struct {
	// ID is the unit identifier, unique within the document.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// PageNumber is the zero-based page the unit came from.
	PageNumber int

	// Text is the chunk content.
	Text string

	// StartOffset and EndOffset are byte offsets [start, end) into the
	// page's text, recording chunk provenance.
	StartOffset int
	EndOffset   int

	// Position is the ordinal position of the chunk within the page.
	Position int
}

// ImageKind distinguishes discrete page images from whole-page rasters.
type ImageKind int

const (
	// ImageDiscrete is a raster image embedded on a simple page.
	ImageDiscrete ImageKind = iota

	// ImageWholePage is the full-page rasterisation of a complex page.
	ImageWholePage
)

// String returns a human-readable label.
func (k ImageKind) String() string {
	if k == ImageWholePage {
		return "whole-page"
	}
	return "discrete"
}

// PlaceholderSummary is the deterministic fallback summary applied when
// captioning fails permanently. The unit is still embedded and indexed,
// tagged as unsummarised, rather than dropped.
const PlaceholderSummary = "[unsummarized image]"

// ImageUnit is a discrete image region or a whole-page rasterisation.
type ImageUnit struct {
	// ID is the unit identifier, unique within the document.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// PageNumber is the zero-based page the unit came from.
	PageNumber int

	// Kind is discrete or whole-page.
	Kind ImageKind

	// Ordinal is the zero-based image position within the page.
	// Always 0 for whole-page units.
	Ordinal int

	// Data is the raw image payload. Never mutated after extraction.
	Data []byte

	// Summary is the textual caption of the image's visual content.
	// Nil until the summariser runs.
	Summary *string

	// Unsummarized is true when Summary holds the fallback placeholder
	// because captioning failed permanently.
	Unsummarized bool
}

// Summarized reports whether the unit has a summary.
func (u *ImageUnit) Summarized() bool {
	return u.Summary != nil
}

// TextUnitID builds the deterministic identifier for a text chunk.
func TextUnitID(page, position int) string {
	return fmt.Sprintf("text:%d:%d", page, position)
}

// ImageUnitID builds the deterministic identifier for a discrete image.
func ImageUnitID(page, ordinal int) string {
	return fmt.Sprintf("image:%d:%d", page, ordinal)
}

// PageUnitID builds the deterministic identifier for a whole-page image.
func PageUnitID(page int) string {
	return fmt.Sprintf("page:%d", page)
}

// Modality identifies what an embedding was derived from.
type Modality string

const (
	// ModalityText marks embeddings of a text chunk's raw text.
	ModalityText Modality = "text"

	// ModalityImageSummary marks embeddings of an image unit's caption.
	// Image embeddings are always derived from the summary text, never
	// from raw pixels.
	ModalityImageSummary Modality = "image-summary"
)

// Embedding is a fixed-length vector derived from one unit.
type Embedding struct {
	// UnitID references the unit the vector was derived from.
	UnitID string

	// Modality is text or image-summary.
	Modality Modality

	// Vector is the embedding. Dimensionality is constant within a run.
	Vector []float32
}

package domain

import (
	"strings"
	"time"
)

// Document represents a document being indexed, as produced by page
// normalisation. It is immutable once normalised.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// FileName is the original file name.
	FileName string

	// MIMEType is the source content type.
	MIMEType string

	// Title is the human-readable title, when the normaliser provides one.
	Title string

	// Pages is the ordered page sequence.
	Pages []Page

	// CreatedAt is when ingestion started.
	CreatedAt time.Time
}

// ContextText returns up to max bytes of the document's leading text,
// used as context when captioning images. Returns "" for documents
// with no extractable text.
func (d *Document) ContextText(max int) string {
	var b strings.Builder
	for i := range d.Pages {
		text := d.Pages[i].Text
		if text == "" {
			continue
		}
		b.WriteString(text)
		if b.Len() >= max {
			break
		}
	}
	return truncateAtRune(b.String(), max)
}

// truncateAtRune cuts s to at most max bytes without splitting a rune.
func truncateAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && s[max]&0xC0 == 0x80 {
		max--
	}
	return s[:max]
}

// Page is one normalised page of a document.
type Page struct {
	// DocumentID links to the owning Document.
	DocumentID string

	// Number is the zero-based page number within the document.
	Number int

	// Text is the extracted text content of the page.
	Text string

	// Images are the embedded raster images located on the page.
	Images []PageImage

	// Raster is the full-page rasterisation (PNG bytes).
	Raster []byte

	// Width and Height are the page dimensions in page units.
	Width  float64
	Height float64

	// Complexity is the classification for this page.
	// Set exactly once by the classifier; never revised.
	Complexity Complexity

	// ComplexityReason records why a page was defaulted to complex,
	// for observability. Empty for normal classifications.
	ComplexityReason string
}

// HasText reports whether the page has any non-empty text.
func (p *Page) HasText() bool {
	return p.Text != ""
}

// PageImage is a discrete raster image embedded on a page.
type PageImage struct {
	// Data is the raw image payload (PNG or JPEG bytes).
	Data []byte

	// Width and Height are the placed dimensions in page units.
	Width  float64
	Height float64
}

// PageStats counts pages by text/image presence. Logged per document
// as a 2x2 matrix to spot scan-heavy or empty inputs.
type PageStats struct {
	TextAndImages int
	TextOnly      int
	ImagesOnly    int
	Empty         int
}

// Record updates the matrix for one page.
func (s *PageStats) Record(hasText, hasImages bool) {
	switch {
	case hasText && hasImages:
		s.TextAndImages++
	case hasText:
		s.TextOnly++
	case hasImages:
		s.ImagesOnly++
	default:
		s.Empty++
	}
}

// Total returns the number of recorded pages.
func (s PageStats) Total() int {
	return s.TextAndImages + s.TextOnly + s.ImagesOnly + s.Empty
}

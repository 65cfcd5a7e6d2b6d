package services

import (
	"bytes"
	"image"
	"strings"
	"unicode/utf8"

	// Decoders for the unicolor filter.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// Default chunking values.
const (
	// DefaultChunkSize is the maximum chunk length in bytes.
	DefaultChunkSize = 1000

	// DefaultMinChunk is the smallest window searched for a preferred
	// boundary; prevents degenerate slivers when a paragraph break sits
	// right after a chunk start.
	DefaultMinChunk = 200
)

// ExtractorConfig holds the tunable chunking policy.
type ExtractorConfig struct {
	// ChunkSize is the maximum chunk length in bytes.
	ChunkSize int

	// MinChunk is the minimum offset within a chunk at which a
	// preferred boundary is accepted.
	MinChunk int
}

// Extractor splits pages into text and image units. Extraction is a
// pure function of (page, configuration): re-invoking with the same
// page yields the same units, for idempotent reprocessing.
type Extractor struct {
	cfg ExtractorConfig
}

// NewExtractor creates an extractor, filling zero config fields with
// defaults.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.MinChunk <= 0 || cfg.MinChunk >= cfg.ChunkSize {
		cfg.MinChunk = cfg.ChunkSize / 5
	}
	return &Extractor{cfg: cfg}
}

// Extract produces the page's units. For complex pages: exactly one
// whole-page image unit and no text units. For simple pages: text
// chunks partitioning the page text plus one unit per multicolour
// discrete image. An empty simple page yields no units.
func (e *Extractor) Extract(page *domain.Page) ([]domain.TextUnit, []domain.ImageUnit) {
	if page.Complexity == domain.ComplexityComplex {
		return nil, []domain.ImageUnit{{
			ID:         domain.PageUnitID(page.Number),
			DocumentID: page.DocumentID,
			PageNumber: page.Number,
			Kind:       domain.ImageWholePage,
			Ordinal:    0,
			Data:       page.Raster,
		}}
	}

	var textUnits []domain.TextUnit
	for i, span := range chunkSpans(page.Text, e.cfg.ChunkSize, e.cfg.MinChunk) {
		textUnits = append(textUnits, domain.TextUnit{
			ID:          domain.TextUnitID(page.Number, i),
			DocumentID:  page.DocumentID,
			PageNumber:  page.Number,
			Text:        page.Text[span.start:span.end],
			StartOffset: span.start,
			EndOffset:   span.end,
			Position:    i,
		})
	}

	var imageUnits []domain.ImageUnit
	for _, img := range page.Images {
		// Single-colour images (separators, rules, fills) carry no
		// indexable content. Undecodable payloads are kept.
		if isUnicolor(img.Data) {
			continue
		}
		ordinal := len(imageUnits)
		imageUnits = append(imageUnits, domain.ImageUnit{
			ID:         domain.ImageUnitID(page.Number, ordinal),
			DocumentID: page.DocumentID,
			PageNumber: page.Number,
			Kind:       domain.ImageDiscrete,
			Ordinal:    ordinal,
			Data:       img.Data,
		})
	}

	return textUnits, imageUnits
}

// span is a byte range [start, end) into the page text.
type span struct {
	start int
	end   int
}

// chunkSpans partitions text into spans of at most size bytes,
// preferring to cut at a paragraph break, then a sentence end, then
// whitespace. The spans cover the text with no overlap.
func chunkSpans(text string, size, minChunk int) []span {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var spans []span
	start := 0
	for start < len(text) {
		if len(text)-start <= size {
			spans = append(spans, span{start, len(text)})
			break
		}

		window := text[start : start+size]
		cut := boundaryIn(window, minChunk)
		spans = append(spans, span{start, start + cut})
		start += cut
	}
	return spans
}

// boundaryIn returns the preferred cut position within window, at least
// minChunk bytes in. Falls back to a hard cut at a rune boundary.
func boundaryIn(window string, minChunk int) int {
	if minChunk >= len(window) {
		minChunk = 0
	}

	// Paragraph break.
	if i := strings.LastIndex(window, "\n\n"); i >= minChunk {
		return i + 2
	}

	// Sentence end.
	for _, sep := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if i := strings.LastIndex(window, sep); i >= minChunk {
			return i + len(sep)
		}
	}

	// Whitespace.
	if i := strings.LastIndexAny(window, " \t\n"); i >= minChunk {
		return i + 1
	}

	// Hard cut; back up so the cut does not split a rune.
	cut := len(window)
	for cut > 1 {
		if r, _ := utf8.DecodeLastRuneInString(window[:cut]); r != utf8.RuneError {
			break
		}
		cut--
	}
	return cut
}

// unicolorSampleStride bounds the number of pixels inspected per axis.
const unicolorSampleStride = 64

// isUnicolor reports whether the image decodes to a single colour.
// Undecodable data returns false so the image is kept rather than
// silently dropped.
func isUnicolor(data []byte) bool {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return false
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return false
	}

	strideX := bounds.Dx()/unicolorSampleStride + 1
	strideY := bounds.Dy()/unicolorSampleStride + 1

	first := img.At(bounds.Min.X, bounds.Min.Y)
	fr, fg, fb, fa := first.RGBA()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += strideY {
		for x := bounds.Min.X; x < bounds.Max.X; x += strideX {
			r, g, b, a := img.At(x, y).RGBA()
			if r != fr || g != fg || b != fb || a != fa {
				return false
			}
		}
	}
	return true
}

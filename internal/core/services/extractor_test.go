package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-search/tessera/internal/core/domain"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	return encodePNG(t, img)
}

func twoColorPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x < 4 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return encodePNG(t, img)
}

func TestExtractComplexPage(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})
	page := domain.Page{
		DocumentID: "doc-1",
		Number:     3,
		Text:       "some text that is ignored on complex pages",
		Complexity: domain.ComplexityComplex,
		Raster:     []byte("raster-bytes"),
		Images:     []domain.PageImage{{Data: []byte("ignored")}},
	}

	texts, images := e.Extract(&page)

	assert.Empty(t, texts)
	require.Len(t, images, 1)
	assert.Equal(t, "page:3", images[0].ID)
	assert.Equal(t, domain.ImageWholePage, images[0].Kind)
	assert.Equal(t, 0, images[0].Ordinal)
	assert.Equal(t, []byte("raster-bytes"), images[0].Data)
	assert.Equal(t, "doc-1", images[0].DocumentID)
}

func TestExtractSimplePage(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})
	page := domain.Page{
		DocumentID: "doc-1",
		Number:     0,
		Text:       "A short page.",
		Complexity: domain.ComplexitySimple,
		Images: []domain.PageImage{
			{Data: twoColorPNG(t)},
			{Data: twoColorPNG(t)},
		},
	}

	texts, images := e.Extract(&page)

	require.Len(t, texts, 1)
	assert.Equal(t, "text:0:0", texts[0].ID)
	assert.Equal(t, "A short page.", texts[0].Text)
	assert.Equal(t, 0, texts[0].StartOffset)
	assert.Equal(t, len(page.Text), texts[0].EndOffset)

	require.Len(t, images, 2)
	assert.Equal(t, "image:0:0", images[0].ID)
	assert.Equal(t, "image:0:1", images[1].ID)
	assert.Equal(t, domain.ImageDiscrete, images[0].Kind)
}

func TestExtractEmptyPage(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})
	page := domain.Page{Number: 0, Complexity: domain.ComplexitySimple}

	texts, images := e.Extract(&page)

	assert.Empty(t, texts)
	assert.Empty(t, images)
}

func TestExtractSkipsUnicolorImages(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})
	page := domain.Page{
		Number:     0,
		Complexity: domain.ComplexitySimple,
		Images: []domain.PageImage{
			{Data: solidPNG(t, color.White)},
			{Data: twoColorPNG(t)},
			{Data: solidPNG(t, color.Black)},
		},
	}

	_, images := e.Extract(&page)

	// Only the multicolour image survives, and ordinals stay dense.
	require.Len(t, images, 1)
	assert.Equal(t, "image:0:0", images[0].ID)
	assert.Equal(t, 0, images[0].Ordinal)
}

func TestExtractKeepsUndecodableImages(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})
	page := domain.Page{
		Number:     0,
		Complexity: domain.ComplexitySimple,
		Images:     []domain.PageImage{{Data: []byte("not an image")}},
	}

	_, images := e.Extract(&page)
	require.Len(t, images, 1)
}

func TestExtractIdempotent(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})
	page := domain.Page{
		DocumentID: "doc-1",
		Number:     2,
		Text:       strings.Repeat("Sentence one. Sentence two. ", 100),
		Complexity: domain.ComplexitySimple,
	}

	texts1, _ := e.Extract(&page)
	texts2, _ := e.Extract(&page)

	require.Equal(t, len(texts1), len(texts2))
	for i := range texts1 {
		assert.Equal(t, texts1[i], texts2[i])
	}
}

func TestChunkSpans(t *testing.T) {
	t.Run("empty text yields no spans", func(t *testing.T) {
		assert.Nil(t, chunkSpans("", 1000, 200))
		assert.Nil(t, chunkSpans("   \n\t ", 1000, 200))
	})

	t.Run("short text is one span", func(t *testing.T) {
		spans := chunkSpans("hello world", 1000, 200)
		require.Len(t, spans, 1)
		assert.Equal(t, span{0, 11}, spans[0])
	})

	t.Run("spans partition the text", func(t *testing.T) {
		text := strings.Repeat("One sentence here. ", 200)
		spans := chunkSpans(text, 300, 60)
		require.Greater(t, len(spans), 1)

		offset := 0
		for _, s := range spans {
			assert.Equal(t, offset, s.start)
			assert.LessOrEqual(t, s.end-s.start, 300)
			offset = s.end
		}
		assert.Equal(t, len(text), offset)
	})

	t.Run("prefers paragraph break", func(t *testing.T) {
		text := strings.Repeat("a", 100) + "\n\n" + strings.Repeat("b", 200)
		spans := chunkSpans(text, 150, 30)
		assert.Equal(t, 102, spans[0].end)
	})

	t.Run("prefers sentence end over whitespace", func(t *testing.T) {
		text := "First sentence ends here. Then more words follow without stopping " + strings.Repeat("on and on ", 30)
		spans := chunkSpans(text, 60, 12)
		assert.Equal(t, 26, spans[0].end)
	})

	t.Run("hard cut never splits a rune", func(t *testing.T) {
		text := strings.Repeat("é", 400) // 2 bytes each, no whitespace
		spans := chunkSpans(text, 101, 20)
		for _, s := range spans {
			assert.True(t, utf8ValidString(text[s.start:s.end]), "span %v not valid UTF-8", s)
		}
	})
}

func utf8ValidString(s string) bool {
	for _, r := range s {
		if r == '�' {
			return false
		}
	}
	return true
}

func TestIsUnicolor(t *testing.T) {
	assert.True(t, isUnicolor(solidPNG(t, color.White)))
	assert.False(t, isUnicolor(twoColorPNG(t)))
	assert.False(t, isUnicolor([]byte("garbage")))
}

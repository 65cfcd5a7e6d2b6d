package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tessera-search/tessera/internal/core/domain"
)

func TestClassifierDefaults(t *testing.T) {
	c := NewClassifier(ClassifierConfig{})

	assert.Equal(t, DefaultMaxImageAreaRatio, c.cfg.MaxImageAreaRatio)
	assert.Equal(t, DefaultMinCharsPerPage, c.cfg.MinCharsPerPage)
	assert.Equal(t, DefaultMinPrintableRatio, c.cfg.MinPrintableRatio)
	assert.Equal(t, DefaultMinWordlikeRatio, c.cfg.MinWordlikeRatio)
}

func TestClassify(t *testing.T) {
	prose := strings.Repeat("The quarterly report covers revenue and operating costs. ", 5)

	tests := []struct {
		name       string
		page       domain.Page
		want       domain.Complexity
		wantReason string
	}{
		{
			name: "empty page is simple",
			page: domain.Page{Number: 0},
			want: domain.ComplexitySimple,
		},
		{
			name: "plain prose is simple",
			page: domain.Page{Number: 1, Text: prose},
			want: domain.ComplexitySimple,
		},
		{
			name: "prose with small image is simple",
			page: domain.Page{
				Number: 2,
				Text:   prose,
				Width:  612, Height: 792,
				Images: []domain.PageImage{{Width: 100, Height: 100}},
			},
			want: domain.ComplexitySimple,
		},
		{
			name: "images without text is complex",
			page: domain.Page{
				Number: 3,
				Width:  612, Height: 792,
				Images: []domain.PageImage{{Width: 300, Height: 200}},
			},
			want:       domain.ComplexityComplex,
			wantReason: "no extractable text",
		},
		{
			name: "missing page dimensions defaults to complex",
			page: domain.Page{
				Number: 4,
				Text:   prose,
				Images: []domain.PageImage{{Width: 300, Height: 200}},
			},
			want:       domain.ComplexityComplex,
			wantReason: "missing page dimensions",
		},
		{
			name: "missing image dimensions defaults to complex",
			page: domain.Page{
				Number: 5,
				Text:   prose,
				Width:  612, Height: 792,
				Images: []domain.PageImage{{}},
			},
			want:       domain.ComplexityComplex,
			wantReason: "missing image dimensions",
		},
		{
			name: "garbled text is complex",
			page: domain.Page{
				Number: 6,
				Text:   strings.Repeat("�", 100),
			},
			want:       domain.ComplexityComplex,
			wantReason: "garbled text",
		},
		{
			name: "non word-like text is complex",
			page: domain.Page{
				Number: 7,
				Text:   strings.Repeat("x ", 50),
			},
			want:       domain.ComplexityComplex,
			wantReason: "text not word-like",
		},
		{
			name: "sparse text with images is complex",
			page: domain.Page{
				Number: 8,
				Text:   "Figure 3",
				Width:  612, Height: 792,
				Images: []domain.PageImage{{Width: 400, Height: 300}},
			},
			want:       domain.ComplexityComplex,
			wantReason: "sparse text with images",
		},
		{
			name: "image-dominant layout is complex",
			page: domain.Page{
				Number: 9,
				Text:   prose,
				Width:  612, Height: 792,
				Images: []domain.PageImage{{Width: 600, Height: 700}},
			},
			want:       domain.ComplexityComplex,
			wantReason: "image-dominant layout",
		},
	}

	c := NewClassifier(ClassifierConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := c.Classify(&tt.page)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(ClassifierConfig{})
	page := domain.Page{
		Number: 0,
		Text:   "Short.",
		Width:  612, Height: 792,
		Images: []domain.PageImage{{Width: 400, Height: 300}},
	}

	first, firstReason := c.Classify(&page)
	for i := 0; i < 5; i++ {
		got, reason := c.Classify(&page)
		assert.Equal(t, first, got)
		assert.Equal(t, firstReason, reason)
	}
}

func TestPrintableRatio(t *testing.T) {
	assert.Equal(t, 1.0, printableRatio(""))
	assert.Equal(t, 1.0, printableRatio("plain text\nwith lines\tand tabs"))
	assert.Less(t, printableRatio("ab"), 0.5)
}

func TestWordlikeRatio(t *testing.T) {
	assert.Equal(t, 1.0, wordlikeRatio([]string{"two", "word", "tokens"}))
	assert.Equal(t, 0.0, wordlikeRatio([]string{"x", "y", "z"}))
	assert.Equal(t, 0.0, wordlikeRatio(nil))
	// 16-rune token is not word-like.
	assert.Equal(t, 0.0, wordlikeRatio([]string{strings.Repeat("a", 16)}))
}

package services

import (
	"strings"
	"unicode"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/logger"
)

// Default classifier thresholds. All tunable via ClassifierConfig.
const (
	DefaultMaxImageAreaRatio = 0.45
	DefaultMinCharsPerPage   = 50
	DefaultMinPrintableRatio = 0.85
	DefaultMinWordlikeRatio  = 0.40
)

// minTokensForWordlike is the minimum token count before the word-like
// ratio is meaningful; short captions and headings are exempt.
const minTokensForWordlike = 10

// ClassifierConfig holds the tunable complexity thresholds.
type ClassifierConfig struct {
	// MaxImageAreaRatio is the total discrete-image area over page area
	// above which a page is complex.
	MaxImageAreaRatio float64

	// MinCharsPerPage is the text length below which a page carrying
	// images is treated as a scanned page.
	MinCharsPerPage int

	// MinPrintableRatio is the printable-rune ratio below which text is
	// considered garbled.
	MinPrintableRatio float64

	// MinWordlikeRatio is the ratio of word-like tokens below which
	// text is considered unreliable.
	MinWordlikeRatio float64
}

// Classifier decides per-page complexity. The decision is deterministic
// given the same page and configuration, never depends on other pages,
// and is made exactly once.
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier creates a classifier, filling zero config fields with
// defaults.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.MaxImageAreaRatio <= 0 {
		cfg.MaxImageAreaRatio = DefaultMaxImageAreaRatio
	}
	if cfg.MinCharsPerPage <= 0 {
		cfg.MinCharsPerPage = DefaultMinCharsPerPage
	}
	if cfg.MinPrintableRatio <= 0 {
		cfg.MinPrintableRatio = DefaultMinPrintableRatio
	}
	if cfg.MinWordlikeRatio <= 0 {
		cfg.MinWordlikeRatio = DefaultMinWordlikeRatio
	}
	return &Classifier{cfg: cfg}
}

// Classify returns the page's complexity and, for complex pages, the
// reason. Pages whose classification metadata is missing default to
// complex rather than risking dropped content.
func (c *Classifier) Classify(page *domain.Page) (domain.Complexity, string) {
	hasText := page.HasText()
	hasImages := len(page.Images) > 0

	// An empty page is simple; extraction yields no units.
	if !hasText && !hasImages {
		return domain.ComplexitySimple, ""
	}

	if hasImages {
		if page.Width <= 0 || page.Height <= 0 {
			logger.Warn("page %d: missing page dimensions, defaulting to complex", page.Number)
			return domain.ComplexityComplex, "missing page dimensions"
		}
		for _, img := range page.Images {
			if img.Width <= 0 || img.Height <= 0 {
				logger.Warn("page %d: missing image dimensions, defaulting to complex", page.Number)
				return domain.ComplexityComplex, "missing image dimensions"
			}
		}
	}

	// A page with images but no extractable text is a scanned page.
	if !hasText {
		return domain.ComplexityComplex, "no extractable text"
	}

	if printableRatio(page.Text) < c.cfg.MinPrintableRatio {
		return domain.ComplexityComplex, "garbled text"
	}

	tokens := strings.Fields(page.Text)
	if len(tokens) >= minTokensForWordlike && wordlikeRatio(tokens) < c.cfg.MinWordlikeRatio {
		return domain.ComplexityComplex, "text not word-like"
	}

	if hasImages {
		if len(page.Text) < c.cfg.MinCharsPerPage {
			return domain.ComplexityComplex, "sparse text with images"
		}
		if imageAreaRatio(page) > c.cfg.MaxImageAreaRatio {
			return domain.ComplexityComplex, "image-dominant layout"
		}
	}

	return domain.ComplexitySimple, ""
}

// imageAreaRatio returns total discrete-image area over page area.
func imageAreaRatio(page *domain.Page) float64 {
	pageArea := page.Width * page.Height
	if pageArea <= 0 {
		return 0
	}
	var imageArea float64
	for _, img := range page.Images {
		imageArea += img.Width * img.Height
	}
	return imageArea / pageArea
}

// printableRatio returns the ratio of printable runes in text.
// Private Use Area runes, the replacement character and control runes
// other than whitespace count as garbage.
func printableRatio(text string) float64 {
	if text == "" {
		return 1.0
	}
	total := 0
	printable := 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// wordlikeRatio returns the ratio of tokens 2-15 runes long. Extraction
// artifacts tend to produce single characters or very long runs.
func wordlikeRatio(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	wordlike := 0
	for _, tok := range tokens {
		n := len([]rune(tok))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(tokens))
}

// Package pagestream decodes the page-stream format produced by the
// external document converter: newline-delimited JSON, one page per
// line, carrying extracted text, embedded images and the full-page
// raster. Document-format conversion itself happens upstream; this
// adapter only decodes the converter's output into pages.
package pagestream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.PageNormaliser = (*Normaliser)(nil)

// MIMEType identifies the converter's page-stream format.
const MIMEType = "application/x-tessera-pages"

// maxLineBytes bounds one encoded page. Full-page rasters dominate;
// 64 MiB leaves generous headroom over typical scans.
const maxLineBytes = 64 << 20

// pageRecord is the wire format of one page line.
type pageRecord struct {
	Number int     `json:"number"`
	Text   string  `json:"text"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Raster is the base64 full-page PNG.
	Raster string `json:"raster,omitempty"`

	Images []imageRecord `json:"images,omitempty"`
}

// imageRecord is the wire format of one embedded image.
type imageRecord struct {
	// Data is the base64 image payload.
	Data string `json:"data"`

	// Width and Height are the placed dimensions in page units.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Normaliser decodes page streams.
type Normaliser struct{}

// New creates a page-stream normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Normalise decodes raw bytes into pages. Corrupt lines fail the whole
// document with a domain.ErrFormat wrap; a partially decoded document
// would silently lose pages.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.Page, error) {
	scanner := bufio.NewScanner(bytes.NewReader(raw.Content))
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var pages []domain.Page
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++

		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		var record pageRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrFormat, line, err)
		}

		page, err := decodePage(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrFormat, line, err)
		}
		pages = append(pages, page)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFormat, err)
	}

	return pages, nil
}

func decodePage(record pageRecord) (domain.Page, error) {
	if record.Number < 0 {
		return domain.Page{}, fmt.Errorf("negative page number %d", record.Number)
	}

	page := domain.Page{
		Number: record.Number,
		Text:   record.Text,
		Width:  record.Width,
		Height: record.Height,
	}

	if record.Raster != "" {
		raster, err := base64.StdEncoding.DecodeString(record.Raster)
		if err != nil {
			return domain.Page{}, fmt.Errorf("page %d raster: %w", record.Number, err)
		}
		page.Raster = raster
	}

	for i, img := range record.Images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return domain.Page{}, fmt.Errorf("page %d image %d: %w", record.Number, i, err)
		}
		page.Images = append(page.Images, domain.PageImage{
			Data:   data,
			Width:  img.Width,
			Height: img.Height,
		})
	}

	return page, nil
}

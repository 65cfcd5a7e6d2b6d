package services

import (
	"sort"
	"time"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// UnitResult is the processed state of one unit handed to the index
// builder: exactly one of Text or Image is set, plus either the
// embedding or the failure that excluded the unit.
type UnitResult struct {
	Text      *domain.TextUnit
	Image     *domain.ImageUnit
	Embedding domain.Embedding

	// Stage and Err record where processing failed, if it did.
	Stage domain.Stage
	Err   error
}

// UnitID returns the identifier of the underlying unit.
func (r UnitResult) UnitID() string {
	if r.Text != nil {
		return r.Text.ID
	}
	if r.Image != nil {
		return r.Image.ID
	}
	return ""
}

// IndexBuilder assembles the two aligned index collections. Pure
// assembly: no external calls, no mutation of inputs.
type IndexBuilder struct{}

// Build turns unit results into text and image index entries. Units
// that failed upstream are excluded from both collections and reported
// separately, never emitted as partial entries. Entries are ordered by
// (page, position) for stable output across runs.
func (IndexBuilder) Build(doc *domain.Document, results []UnitResult) ([]domain.TextIndexEntry, []domain.ImageIndexEntry, []domain.UnitFailure) {
	now := time.Now()

	var textEntries []domain.TextIndexEntry
	var imageEntries []domain.ImageIndexEntry
	var failures []domain.UnitFailure

	for _, res := range results {
		if res.Err != nil {
			failures = append(failures, domain.UnitFailure{
				UnitID: res.UnitID(),
				Stage:  res.Stage,
				Reason: res.Err.Error(),
			})
			continue
		}

		switch {
		case res.Text != nil:
			textEntries = append(textEntries, domain.TextIndexEntry{
				DocumentID:  doc.ID,
				PageNumber:  res.Text.PageNumber,
				UnitID:      res.Text.ID,
				Embedding:   res.Embedding.Vector,
				Text:        res.Text.Text,
				StartOffset: res.Text.StartOffset,
				EndOffset:   res.Text.EndOffset,
				FileName:    doc.FileName,
				MIMEType:    doc.MIMEType,
				CreatedAt:   now,
			})

		case res.Image != nil:
			imageEntries = append(imageEntries, domain.ImageIndexEntry{
				DocumentID:   doc.ID,
				PageNumber:   res.Image.PageNumber,
				UnitID:       res.Image.ID,
				Embedding:    res.Embedding.Vector,
				Summary:      *res.Image.Summary,
				Kind:         res.Image.Kind,
				Ordinal:      res.Image.Ordinal,
				Unsummarized: res.Image.Unsummarized,
				Image:        res.Image.Data,
				FileName:     doc.FileName,
				MIMEType:     doc.MIMEType,
				CreatedAt:    now,
			})
		}
	}

	sort.Slice(textEntries, func(i, j int) bool {
		if textEntries[i].PageNumber != textEntries[j].PageNumber {
			return textEntries[i].PageNumber < textEntries[j].PageNumber
		}
		return textEntries[i].StartOffset < textEntries[j].StartOffset
	})
	sort.Slice(imageEntries, func(i, j int) bool {
		if imageEntries[i].PageNumber != imageEntries[j].PageNumber {
			return imageEntries[i].PageNumber < imageEntries[j].PageNumber
		}
		return imageEntries[i].Ordinal < imageEntries[j].Ordinal
	})
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].UnitID < failures[j].UnitID
	})

	return textEntries, imageEntries, failures
}

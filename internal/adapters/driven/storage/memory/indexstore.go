// Package memory provides an in-memory index sink for tests and
// dry-run ingestion.
package memory

import (
	"context"
	"sync"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexWriter = (*IndexStore)(nil)

// IndexStore accumulates index entries in memory. Safe for concurrent
// use.
type IndexStore struct {
	mu     sync.RWMutex
	texts  []domain.TextIndexEntry
	images []domain.ImageIndexEntry
}

// NewIndexStore creates an empty in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// WriteText persists a batch of text index entries.
func (s *IndexStore) WriteText(_ context.Context, entries []domain.TextIndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, entries...)
	return nil
}

// WriteImage persists a batch of image index entries.
func (s *IndexStore) WriteImage(_ context.Context, entries []domain.ImageIndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, entries...)
	return nil
}

// TextEntries returns a copy of the stored text entries.
func (s *IndexStore) TextEntries() []domain.TextIndexEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TextIndexEntry, len(s.texts))
	copy(out, s.texts)
	return out
}

// ImageEntries returns a copy of the stored image entries.
func (s *IndexStore) ImageEntries() []domain.ImageIndexEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ImageIndexEntry, len(s.images))
	copy(out, s.images)
	return out
}

// Close releases resources.
func (s *IndexStore) Close() error {
	return nil
}

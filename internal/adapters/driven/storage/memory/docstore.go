package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps documents and their chunks in maps. Service tests
// use it in place of the SQLite store.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
	// owned maps document ID to its chunks keyed by chunk ID.
	owned map[string]map[string]domain.Chunk
	seq   int64
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs:  map[string]domain.Document{},
		owned: map[string]map[string]domain.Chunk{},
	}
}

// SaveDocument upserts doc. A re-save keeps the original CreatedAt.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	d := *doc
	if d.Collection == "" {
		d.Collection = domain.DefaultCollection
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.docs[d.ID]; ok && !prev.CreatedAt.IsZero() {
		d.CreatedAt = prev.CreatedAt
	}
	s.docs[d.ID] = d
	return nil
}

// SaveChunks upserts by chunk ID. Every owning document must exist. An
// updated chunk keeps its Seq.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if _, ok := s.docs[c.DocumentID]; !ok {
			return domain.ErrNotFound
		}
	}
	for i := range chunks {
		c := &chunks[i]
		set := s.owned[c.DocumentID]
		if set == nil {
			set = map[string]domain.Chunk{}
			s.owned[c.DocumentID] = set
		}
		if old, ok := set[c.ID]; ok {
			c.Seq = old.Seq
		} else {
			s.seq++
			c.Seq = s.seq
		}
		set[c.ID] = *c
	}
	return nil
}

func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	d, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

// GetChunks returns the document's chunks in position order.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	out := slices.Collect(maps.Values(s.owned[documentID]))
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Chunk) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.ID, b.ID))
	})
	if out == nil {
		out = []domain.Chunk{}
	}
	return out, nil
}

func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, set := range s.owned {
		if c, ok := set[id]; ok {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteDocument drops the document together with its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.docs, id)
	delete(s.owned, id)
	return nil
}

// ListDocuments returns documents by ID. An empty collection matches all.
func (s *DocumentStore) ListDocuments(_ context.Context, collection string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Document
	for _, id := range slices.Sorted(maps.Keys(s.docs)) {
		if d := s.docs[id]; collection == "" || d.Collection == collection {
			out = append(out, d)
		}
	}
	return out, nil
}

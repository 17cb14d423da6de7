package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

const backendMemory = "memory"

// MemoryStore keeps documents in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
	now  Clock
}

// NewMemoryStore creates an empty MemoryStore. A nil clock uses time.Now in UTC.
func NewMemoryStore(clock Clock) *MemoryStore {
	if clock == nil {
		clock = systemClock
	}
	return &MemoryStore{
		docs: make(map[string]Document),
		now:  clock,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (Document, error) {
	Operations.WithLabelValues(backendMemory, "get").Inc()

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneDocument(doc), nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]Document, error) {
	Operations.WithLabelValues(backendMemory, "list").Inc()

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, cloneDocument(doc))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, doc Document) (Document, error) {
	Operations.WithLabelValues(backendMemory, "put").Inc()

	if err := doc.Validate(); err != nil {
		Errors.WithLabelValues(backendMemory, "put").Inc()
		return Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc = cloneDocument(doc)
	doc.Revision = s.docs[doc.ID].Revision + 1
	doc.UpdatedAt = s.now()
	s.docs[doc.ID] = doc

	return cloneDocument(doc), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	Operations.WithLabelValues(backendMemory, "delete").Inc()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.docs, id)
	return nil
}

func cloneDocument(doc Document) Document {
	if doc.Tags != nil {
		doc.Tags = append([]string(nil), doc.Tags...)
	}
	return doc
}

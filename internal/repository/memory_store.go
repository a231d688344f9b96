package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore implements DocumentStore in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]string       // collection -> ids in insertion order
	documents   map[string]map[string]any // doc path -> fields
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]string),
		documents:   make(map[string]map[string]any),
	}
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.collections[collection]
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, Document{ID: id, Fields: copyFields(s.documents[DocPath(collection, id)])})
	}
	return docs, nil
}

func (s *MemoryStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if collection == "" {
		return "", fmt.Errorf("%w: empty collection", ErrInvalidPath)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.collections[collection] = append(s.collections[collection], id)
	s.documents[DocPath(collection, id)] = copyFields(fields)
	return id, nil
}

func (s *MemoryStore) Update(ctx context.Context, docPath string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := SplitDocPath(docPath); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[docPath]
	if !ok {
		return ErrDocumentNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, docPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	collection, id, err := SplitDocPath(docPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[docPath]; !ok {
		return ErrDocumentNotFound
	}
	delete(s.documents, docPath)
	ids := s.collections[collection]
	for i, existing := range ids {
		if existing == id {
			s.collections[collection] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

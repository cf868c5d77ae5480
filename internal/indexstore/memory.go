package indexstore

import (
	"context"
	"sync"

	"github.com/dgallion1/docqa/internal/document"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store, used by tests and one-shot CLI runs.
type MemoryStore struct {
	mu      sync.RWMutex
	indexes map[string]document.Index
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{indexes: make(map[string]document.Index)}
}

func (s *MemoryStore) Save(_ context.Context, idx document.Index) error {
	if err := ValidateID(idx.DocumentID); err != nil {
		return err
	}
	idx.Pages = append([]document.Page(nil), idx.Pages...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[idx.DocumentID] = idx
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (document.Index, error) {
	if err := ValidateID(id); err != nil {
		return document.Index{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[id]
	if !ok {
		return document.Index{DocumentID: id}, nil
	}
	idx.Pages = append([]document.Page(nil), idx.Pages...)
	return idx, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

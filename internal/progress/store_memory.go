package progress

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store. Documents are copied on the way in and
// out so callers never share state with the store.
type MemoryStore struct {
	docs     map[string]*Document
	defaults Defaults
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(defaults Defaults) *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]*Document),
		defaults: defaults.orDefault(),
	}
}

func (s *MemoryStore) Load(_ context.Context, userID string) (*Document, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if doc, ok := s.docs[userID]; ok {
		return doc.Clone(), nil
	}
	return s.defaults(userID), nil
}

func (s *MemoryStore) Save(_ context.Context, userID string, doc *Document) error {
	if err := validUserID(userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[userID] = doc.Clone()
	return nil
}

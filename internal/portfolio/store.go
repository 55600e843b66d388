package portfolio

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("portfolio not found")

// Store persists one ledger row per user id. Get is the shared read path and
// must never block behind writers; Put replaces the whole row.
type Store interface {
	Get(ctx context.Context, userID string) (Portfolio, error)
	Put(ctx context.Context, p Portfolio) error
}

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Portfolio
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Portfolio)}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[userID]
	if !ok {
		return Portfolio{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Put(ctx context.Context, p Portfolio) error {
	s.mu.Lock()
	s.items[p.UserID] = p
	s.mu.Unlock()
	return nil
}

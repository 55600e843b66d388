package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"antigravity-engine/internal/types"
)

// AuditRecord captures one oversight evaluation. Every inbound pipeline event
// produces exactly one record, including unparseable ones.
type AuditRecord struct {
	ID              string            `json:"id"`
	AgentName       string            `json:"agentName"`
	ActionType      types.AuditAction `json:"actionType"`
	ReasoningBody   string            `json:"reasoningBody"`
	ConfidenceScore float64           `json:"confidenceScore"`
	CreatedAt       time.Time         `json:"createdAt"`
}

type Store interface {
	Insert(ctx context.Context, a AuditRecord) (string, error)
	ListByAgent(ctx context.Context, agentName string) ([]AuditRecord, error)
	CountByAction(ctx context.Context) (map[types.AuditAction]int64, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	items []AuditRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(ctx context.Context, a AuditRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = ulid.Make().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.items = append(s.items, a)
	return a.ID, nil
}

func (s *MemoryStore) ListByAgent(ctx context.Context, agentName string) ([]AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []AuditRecord
	for _, a := range s.items {
		if a.AgentName == agentName {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CountByAction(ctx context.Context) (map[types.AuditAction]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[types.AuditAction]int64)
	for _, a := range s.items {
		out[a.ActionType]++
	}
	return out, nil
}

// All returns every record in insertion order. Test and ops helper.
func (s *MemoryStore) All() []AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AuditRecord, len(s.items))
	copy(out, s.items)
	return out
}

package trades

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"antigravity-engine/internal/types"
)

// TradeRecord is append-only: produced once by the decision stage on an
// approved trade and never updated afterwards.
type TradeRecord struct {
	ID              string            `json:"id"`
	UserID          string            `json:"userId"`
	AssetID         string            `json:"assetId"`
	Action          types.TradeAction `json:"action"`
	AmountAllocated decimal.Decimal   `json:"amountAllocated"`
	ExecutionPrice  decimal.Decimal   `json:"executionPrice"`
	StrategyUsed    string            `json:"strategyUsed"`
	CvarExposure    decimal.Decimal   `json:"cvarExposure"`
	CreatedAt       time.Time         `json:"createdAt"`
}

type Store interface {
	Insert(ctx context.Context, t TradeRecord) (string, error)
	ListByUser(ctx context.Context, userID string) ([]TradeRecord, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	items []TradeRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(ctx context.Context, t TradeRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = ulid.Make().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.items = append(s.items, t)
	return t.ID, nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []TradeRecord
	for _, t := range s.items {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

package trades

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"antigravity-engine/internal/types"
)

type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Insert(ctx context.Context, t TradeRecord) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, "insert into trades (user_id, asset_id, action, amount_allocated, execution_price, strategy_used, cvar_exposure, created_at) values ($1,$2,$3,$4,$5,$6,$7,$8) returning id",
		t.UserID, t.AssetID, string(t.Action), t.AmountAllocated, t.ExecutionPrice, t.StrategyUsed, t.CvarExposure, time.Now().UTC()).Scan(&id)
	return id, err
}

func (s *PGStore) ListByUser(ctx context.Context, userID string) ([]TradeRecord, error) {
	rows, err := s.pool.Query(ctx, "select id, user_id, asset_id, action, amount_allocated, execution_price, strategy_used, cvar_exposure, created_at from trades where user_id = $1 order by created_at desc", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		var action string
		if err := rows.Scan(&t.ID, &t.UserID, &t.AssetID, &action, &t.AmountAllocated, &t.ExecutionPrice, &t.StrategyUsed, &t.CvarExposure, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Action = types.TradeAction(action)
		out = append(out, t)
	}
	return out, rows.Err()
}

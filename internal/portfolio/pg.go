package portfolio

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps one row per user in the portfolios table. The Keeper already
// serializes writes per user key, so Put only needs an atomic upsert.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, userID string) (Portfolio, error) {
	var p Portfolio
	err := s.pool.QueryRow(ctx, "select user_id, protected_capital_base, accumulated_profit, total_withdrawals, created_at, updated_at from portfolios where user_id = $1", userID).
		Scan(&p.UserID, &p.ProtectedCapitalBase, &p.AccumulatedProfit, &p.TotalWithdrawals, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Portfolio{}, ErrNotFound
	}
	return p, err
}

func (s *PGStore) Put(ctx context.Context, p Portfolio) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, `
		insert into portfolios (user_id, protected_capital_base, accumulated_profit, total_withdrawals, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6)
		on conflict (user_id) do update set
			protected_capital_base = excluded.protected_capital_base,
			accumulated_profit = excluded.accumulated_profit,
			total_withdrawals = excluded.total_withdrawals,
			updated_at = excluded.updated_at`,
		p.UserID, p.ProtectedCapitalBase, p.AccumulatedProfit, p.TotalWithdrawals, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
create table if not exists portfolios (
	user_id text primary key,
	protected_capital_base numeric(19,4) not null default 0,
	accumulated_profit numeric(19,4) not null default 0,
	total_withdrawals numeric(19,4) not null default 0,
	created_at timestamptz not null default now(),
	updated_at timestamptz not null default now()
);

create table if not exists trades (
	id uuid primary key default gen_random_uuid(),
	user_id text not null,
	asset_id text not null,
	action text not null,
	amount_allocated numeric(19,4) not null,
	execution_price numeric(19,4) not null,
	strategy_used text not null,
	cvar_exposure numeric(19,4) not null,
	created_at timestamptz not null default now()
);
create index if not exists trades_user_created_idx on trades (user_id, created_at desc);

create table if not exists agent_audit_logs (
	id uuid primary key default gen_random_uuid(),
	agent_name text not null,
	action_type text not null,
	reasoning_body text not null,
	confidence_score double precision not null,
	created_at timestamptz not null default now()
);
create index if not exists audit_agent_created_idx on agent_audit_logs (agent_name, created_at desc);
`

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

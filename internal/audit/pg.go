package audit

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

func (s *PGStore) Insert(ctx context.Context, a AuditRecord) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, "insert into agent_audit_logs (agent_name, action_type, reasoning_body, confidence_score, created_at) values ($1,$2,$3,$4,$5) returning id",
		a.AgentName, string(a.ActionType), a.ReasoningBody, a.ConfidenceScore, time.Now().UTC()).Scan(&id)
	return id, err
}

func (s *PGStore) ListByAgent(ctx context.Context, agentName string) ([]AuditRecord, error) {
	rows, err := s.pool.Query(ctx, "select id, agent_name, action_type, reasoning_body, confidence_score, created_at from agent_audit_logs where agent_name = $1 order by created_at desc", agentName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditRecord
	for rows.Next() {
		var a AuditRecord
		var action string
		if err := rows.Scan(&a.ID, &a.AgentName, &action, &a.ReasoningBody, &a.ConfidenceScore, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ActionType = types.AuditAction(action)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PGStore) CountByAction(ctx context.Context) (map[types.AuditAction]int64, error) {
	rows, err := s.pool.Query(ctx, "select action_type, count(*) from agent_audit_logs group by action_type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[types.AuditAction]int64)
	for rows.Next() {
		var action string
		var n int64
		if err := rows.Scan(&action, &n); err != nil {
			return nil, err
		}
		out[types.AuditAction(action)] = n
	}
	return out, rows.Err()
}

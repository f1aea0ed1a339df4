package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatekeeperhq/gatekeeper/core/secevent"
)

// Events is the pgx-backed security event repository. Rows are append
// only; nothing in this package updates or deletes them.
type Events struct {
	pool *pgxpool.Pool
}

// NewEvents creates the event repository. It panics on a nil pool.
func NewEvents(pool *pgxpool.Pool) *Events {
	if pool == nil {
		panic("pg: pool is required")
	}
	return &Events{pool: pool}
}

func (r *Events) q(ctx context.Context) querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return r.pool
}

func (r *Events) Append(ctx context.Context, e *secevent.Event) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO security_events (id, event_type, details, ip_address, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Type, e.Details, e.IPAddress, e.UserID, e.CreatedAt,
	)
	return err
}

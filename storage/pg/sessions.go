package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatekeeperhq/gatekeeper/core/reaper"
	"github.com/gatekeeperhq/gatekeeper/core/session"
)

// querier is the subset of pgx execution methods shared by pools and
// transactions, letting repositories run inside a caller's transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Sessions is the pgx-backed session repository. It implements
// session.Store, reaper.Store, and anomaly.History. All mutations are
// single conditional statements, so instances sharing one database need
// no application-level locking.
type Sessions struct {
	pool *pgxpool.Pool
}

// NewSessions creates the session repository. It panics on a nil pool.
func NewSessions(pool *pgxpool.Pool) *Sessions {
	if pool == nil {
		panic("pg: pool is required")
	}
	return &Sessions{pool: pool}
}

func (r *Sessions) q(ctx context.Context) querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return r.pool
}

func (r *Sessions) Insert(ctx context.Context, sess *session.Session) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO sessions (token, user_id, ip_address, user_agent, created_at, expires_at, last_activity_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.Token, sess.UserID, sess.IPAddress, sess.UserAgent,
		sess.CreatedAt, sess.ExpiresAt, sess.LastActivityAt, sess.IsActive,
	)
	return err
}

func (r *Sessions) FindByToken(ctx context.Context, token string) (*session.View, error) {
	var view session.View
	err := r.q(ctx).QueryRow(ctx, `
		SELECT s.token, s.user_id, s.ip_address, s.user_agent,
		       s.created_at, s.expires_at, s.last_activity_at, s.is_active,
		       u.username, u.status, u.is_admin
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1`,
		token,
	).Scan(
		&view.Token, &view.UserID, &view.IPAddress, &view.UserAgent,
		&view.CreatedAt, &view.ExpiresAt, &view.LastActivityAt, &view.IsActive,
		&view.Username, &view.UserStatus, &view.IsAdmin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}
	return &view, nil
}

func (r *Sessions) Touch(ctx context.Context, token string, at time.Time) error {
	_, err := r.q(ctx).Exec(ctx,
		`UPDATE sessions SET last_activity_at = $2 WHERE token = $1 AND is_active`,
		token, at,
	)
	return err
}

func (r *Sessions) SetExpiry(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := r.q(ctx).Exec(ctx,
		`UPDATE sessions SET expires_at = $2 WHERE token = $1 AND is_active`,
		token, expiresAt,
	)
	return err
}

func (r *Sessions) Deactivate(ctx context.Context, token string) (bool, error) {
	tag, err := r.q(ctx).Exec(ctx,
		`UPDATE sessions SET is_active = false WHERE token = $1 AND is_active`,
		token,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Sessions) DeactivateAllForUser(ctx context.Context, userID uuid.UUID, exceptToken string) (int64, error) {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE sessions SET is_active = false
		WHERE user_id = $1 AND is_active AND ($2 = '' OR token <> $2)`,
		userID, exceptToken,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeactivateExpired flips every active session past its expiry and
// returns the flipped rows. RETURNING guarantees a session shows up in
// exactly one sweep's result set even under concurrent sweeps.
func (r *Sessions) DeactivateExpired(ctx context.Context, now time.Time) ([]reaper.ExpiredSession, error) {
	rows, err := r.q(ctx).Query(ctx, `
		UPDATE sessions SET is_active = false
		WHERE is_active AND expires_at <= $1
		RETURNING token, user_id, ip_address`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reaped []reaper.ExpiredSession
	for rows.Next() {
		var s reaper.ExpiredSession
		if err := rows.Scan(&s.Token, &s.UserID, &s.IPAddress); err != nil {
			return nil, err
		}
		reaped = append(reaped, s)
	}
	return reaped, rows.Err()
}

// DistinctIPs counts the distinct source addresses the user has created
// sessions from since the given time.
func (r *Sessions) DistinctIPs(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.q(ctx).QueryRow(ctx,
		`SELECT COUNT(DISTINCT ip_address) FROM sessions WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	).Scan(&n)
	return n, err
}

// SessionsCreated counts sessions the user has created since the given
// time, active or not.
func (r *Sessions) SessionsCreated(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM sessions WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	).Scan(&n)
	return n, err
}

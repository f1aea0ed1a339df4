package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatekeeperhq/gatekeeper/core/secevent"
)

// Manager handles the session lifecycle and writes every transition to
// the security audit trail.
type Manager struct {
	store  Store
	events *secevent.Recorder
	cfg    Config
	logger *slog.Logger
}

// NewManager creates a session manager with the given store and event
// recorder. Panics if either is nil: both are mandatory collaborators.
func NewManager(store Store, events *secevent.Recorder, opts ...Option) *Manager {
	if store == nil {
		panic("session: store is required")
	}
	if events == nil {
		panic("session: event recorder is required")
	}

	m := &Manager{
		store:  store,
		events: events,
		cfg:    defaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// TTL returns the configured session time-to-live.
func (m *Manager) TTL() time.Duration {
	return m.cfg.TTL
}

// Create issues a new session for userID after a successful credential
// check. A storage failure is propagated: callers must treat it as
// "no session" rather than proceeding unauthenticated.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID, ip, userAgent string) (Session, error) {
	sess, err := New(userID, ip, userAgent, m.cfg.TTL)
	if err != nil {
		return Session{}, err
	}

	if err := m.store.Insert(ctx, &sess); err != nil {
		return Session{}, errors.Join(ErrSaveSession, err)
	}

	m.events.Record(ctx, secevent.TypeSessionCreated, "session created",
		secevent.WithIP(ip),
		secevent.WithUser(userID),
	)

	return sess, nil
}

// Validate resolves a token to a session view. It returns ErrNotFound,
// ErrInactive, or ErrExpired when the token does not map to a valid
// session; any other error is a storage failure and must also be treated
// as "no session".
//
// On success it touches the session's last activity (throttled by
// TouchInterval) and, when the observed ip or userAgent differs from the
// values captured at creation, records an advisory
// session_context_changed event. Context drift never invalidates the
// session.
func (m *Manager) Validate(ctx context.Context, token, ip, userAgent string) (*View, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	view, err := m.store.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if !view.IsActive {
		return nil, ErrInactive
	}
	if view.IsExpired() {
		return nil, ErrExpired
	}

	m.noteContextDrift(ctx, view, ip, userAgent)

	now := time.Now().UTC()
	if now.Sub(view.LastActivityAt) >= m.cfg.TouchInterval {
		// Best effort: a failed touch must not fail the request.
		if err := m.store.Touch(ctx, token, now); err != nil {
			m.logger.WarnContext(ctx, "session touch failed",
				slog.String("user_id", view.UserID.String()),
				slog.Any("error", err))
		} else {
			view.LastActivityAt = now
		}
	}

	return view, nil
}

// Extend re-validates the token and pushes its expiry to now+TTL,
// returning the new expiry.
func (m *Manager) Extend(ctx context.Context, token, ip, userAgent string) (time.Time, error) {
	view, err := m.Validate(ctx, token, ip, userAgent)
	if err != nil {
		return time.Time{}, err
	}

	expiresAt := time.Now().UTC().Add(m.cfg.TTL)
	if err := m.store.SetExpiry(ctx, token, expiresAt); err != nil {
		return time.Time{}, errors.Join(ErrSaveSession, err)
	}

	m.events.Record(ctx, secevent.TypeSessionExtended,
		fmt.Sprintf("session extended until %s", expiresAt.Format(time.RFC3339)),
		secevent.WithIP(view.IPAddress),
		secevent.WithUser(view.UserID),
	)

	return expiresAt, nil
}

// Invalidate deactivates the session for token. Idempotent: an unknown
// or already-inactive token is a no-op, and the audit event is recorded
// only when a row actually flipped.
func (m *Manager) Invalidate(ctx context.Context, token string) error {
	flipped, err := m.store.Deactivate(ctx, token)
	if err != nil {
		return err
	}

	if flipped {
		m.events.Record(ctx, secevent.TypeSessionInvalidated, "session invalidated")
	}

	return nil
}

// InvalidateAll deactivates every active session owned by userID except
// the optionally named token. Used for "log out everywhere" and
// administrative suspension. Returns the number of sessions deactivated.
func (m *Manager) InvalidateAll(ctx context.Context, userID uuid.UUID, exceptToken ...string) (int64, error) {
	except := ""
	if len(exceptToken) > 0 {
		except = exceptToken[0]
	}

	n, err := m.store.DeactivateAllForUser(ctx, userID, except)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		m.events.Record(ctx, secevent.TypeSessionInvalidated,
			fmt.Sprintf("%d sessions invalidated for user", n),
			secevent.WithUser(userID),
		)
	}

	return n, nil
}

// noteContextDrift logs IP/user-agent changes on a live session.
// Deliberately advisory: shared NATs and mobile networks make drift too
// common to enforce.
func (m *Manager) noteContextDrift(ctx context.Context, view *View, ip, userAgent string) {
	if ip != "" && view.IPAddress != "" && ip != view.IPAddress {
		m.events.Record(ctx, secevent.TypeSessionContextChanged,
			fmt.Sprintf("IP changed from %s to %s", view.IPAddress, ip),
			secevent.WithIP(ip),
			secevent.WithUser(view.UserID),
		)
	}
	if userAgent != "" && view.UserAgent != "" && userAgent != view.UserAgent {
		m.events.Record(ctx, secevent.TypeSessionContextChanged,
			"user agent changed",
			secevent.WithIP(ip),
			secevent.WithUser(view.UserID),
		)
	}
}

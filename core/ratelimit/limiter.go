package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gatekeeperhq/gatekeeper/core/secevent"
)

// Limiter enforces the per-IP failed-login policy on top of a Store.
type Limiter struct {
	store  Store
	events *secevent.Recorder
	cfg    Config
	logger *slog.Logger
}

// NewLimiter creates a limiter. Panics if store or events is nil.
func NewLimiter(store Store, events *secevent.Recorder, opts ...Option) *Limiter {
	if store == nil {
		panic("ratelimit: store is required")
	}
	if events == nil {
		panic("ratelimit: event recorder is required")
	}

	l := &Limiter{
		store:  store,
		events: events,
		cfg:    defaultLimiterConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// RecordFailure appends one failed attempt for ip and writes a
// failed_login event. It does not escalate; escalation happens in
// Allowed so that a blocked IP's further attempts never touch the
// failure log again.
func (l *Limiter) RecordFailure(ctx context.Context, ip, username string) error {
	if err := l.store.AddFailure(ctx, ip, time.Now().UTC()); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	details := "failed login attempt"
	if username != "" {
		details = fmt.Sprintf("failed login attempt for %q", username)
	}
	l.events.Record(ctx, secevent.TypeFailedLogin, details, secevent.WithIP(ip))

	return nil
}

// Allowed reports whether ip may attempt a login. It prunes the failure
// window first; when the remaining count reaches MaxAttempts the IP is
// escalated to a timed block and false is returned. A currently blocked
// IP is rejected up front without reading the failure window.
func (l *Limiter) Allowed(ctx context.Context, ip string) (bool, error) {
	blocked, err := l.IsBlocked(ctx, ip)
	if err != nil {
		return false, err
	}
	if blocked {
		return false, nil
	}

	now := time.Now().UTC()
	count, err := l.store.CountFailures(ctx, ip, now.Add(-l.cfg.Window))
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}

	if count >= l.cfg.MaxAttempts {
		if err := l.block(ctx, ip, now.Add(l.cfg.BlockDuration)); err != nil {
			return false, err
		}
		return false, nil
	}

	return true, nil
}

// IsBlocked reports whether ip has an active block. Expired blocks are
// lazily evicted on first observation.
func (l *Limiter) IsBlocked(ctx context.Context, ip string) (bool, error) {
	until, ok, err := l.store.BlockedUntil(ctx, ip)
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	if !ok {
		return false, nil
	}

	if time.Now().After(until) {
		if err := l.store.ClearBlock(ctx, ip); err != nil {
			l.logger.WarnContext(ctx, "failed to evict expired block",
				slog.String("ip", ip), slog.Any("error", err))
		}
		return false, nil
	}

	return true, nil
}

// RecordSuccess clears the failure window for ip after a successful
// login. An active block is deliberately left in place: once imposed,
// a block runs its full duration.
func (l *Limiter) RecordSuccess(ctx context.Context, ip string) error {
	if err := l.store.ClearFailures(ctx, ip); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (l *Limiter) block(ctx context.Context, ip string, until time.Time) error {
	if err := l.store.SetBlock(ctx, ip, until); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	l.events.Record(ctx, secevent.TypeIPBlocked,
		fmt.Sprintf("blocked until %s after %d failed attempts", until.Format(time.RFC3339), l.cfg.MaxAttempts),
		secevent.WithIP(ip),
	)
	l.logger.InfoContext(ctx, "ip blocked",
		slog.String("ip", ip),
		slog.Time("until", until))

	return nil
}

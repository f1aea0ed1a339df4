package reaper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatekeeperhq/gatekeeper/core/secevent"
)

var (
	// ErrAlreadyStarted is returned when Start is called on a running reaper.
	ErrAlreadyStarted = errors.New("reaper: already started")

	// ErrNotStarted is returned when Stop is called on a reaper that is not running.
	ErrNotStarted = errors.New("reaper: not started")
)

// ExpiredSession identifies one session deactivated during a sweep,
// carrying enough context to attribute the audit event.
type ExpiredSession struct {
	Token     string
	UserID    uuid.UUID
	IPAddress string
}

// Store is the persistence surface a sweep runs against.
//
// DeactivateExpired flips every active session with an expiry at or
// before now and returns the sessions it actually flipped. The update
// must be conditional on is_active so that concurrent sweeps each
// claim a disjoint set of rows.
type Store interface {
	DeactivateExpired(ctx context.Context, now time.Time) ([]ExpiredSession, error)
}

// Reaper periodically deactivates expired sessions and records a
// session_expired audit event for each one.
type Reaper struct {
	store    Store
	events   *secevent.Recorder
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// Option configures a Reaper.
type Option func(*Reaper)

// WithInterval overrides the background sweep interval.
// Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(r *Reaper) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithLogger sets the logger for sweep diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reaper) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a reaper over the given store and event recorder.
// It panics if store or events is nil, as both are required collaborators.
func New(store Store, events *secevent.Recorder, opts ...Option) *Reaper {
	if store == nil {
		panic("reaper: store is required")
	}
	if events == nil {
		panic("reaper: event recorder is required")
	}

	r := &Reaper{
		store:    store,
		events:   events,
		interval: time.Hour,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sweep deactivates all sessions whose expiry has passed and records
// one session_expired event per deactivated session. It is safe to call
// concurrently with the background loop.
func (r *Reaper) Sweep(ctx context.Context) error {
	reaped, err := r.store.DeactivateExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("deactivate expired sessions: %w", err)
	}

	for _, s := range reaped {
		r.events.Record(ctx, secevent.TypeSessionExpired, "session expired and deactivated",
			secevent.WithUser(s.UserID),
			secevent.WithIP(s.IPAddress),
		)
	}

	if len(reaped) > 0 {
		r.logger.InfoContext(ctx, "expired sessions reaped", slog.Int("count", len(reaped)))
	}
	return nil
}

// Start launches the background sweep loop. It blocks until the context
// is cancelled or Stop is called, then returns nil. Starting an already
// running reaper returns ErrAlreadyStarted.
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	stopped := make(chan struct{})
	r.stopped = stopped
	r.mu.Unlock()

	defer close(stopped)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.sweepSafely(ctx)
		}
	}
}

// Stop terminates the background loop and waits for it to exit.
// Stopping a reaper that was never started returns ErrNotStarted.
func (r *Reaper) Stop() error {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return ErrNotStarted
	}
	cancel := r.cancel
	stopped := r.stopped
	r.cancel = nil
	r.stopped = nil
	r.mu.Unlock()

	cancel()
	<-stopped
	return nil
}

// Run returns a function suitable for errgroup.Group.Go that starts the
// reaper and stops it when the context is cancelled.
func (r *Reaper) Run(ctx context.Context) func() error {
	return func() error {
		return r.Start(ctx)
	}
}

// sweepSafely contains errors and panics so a bad cycle never kills the loop.
func (r *Reaper) sweepSafely(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "session sweep panicked", slog.Any("panic", rec))
		}
	}()
	if err := r.Sweep(ctx); err != nil {
		r.logger.ErrorContext(ctx, "session sweep failed", slog.Any("error", err))
	}
}

package secevent

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Recorder appends security events to a Store.
//
// Record deliberately has no error return: losing an audit entry is
// preferable to failing the user-facing request that produced it.
// Store failures are reported through the configured logger instead.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the fallback logger used when the store fails.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRecorder creates a Recorder backed by the given store.
// Panics if store is nil: recording without a sink is a wiring bug.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	if store == nil {
		panic("secevent: store is required")
	}

	r := &Recorder{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Record appends one event with a server-generated ID and timestamp.
// Storage failures are logged and swallowed; see the package failure policy.
func (r *Recorder) Record(ctx context.Context, eventType, details string, opts ...Option) {
	event := &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	for _, opt := range opts {
		opt(event)
	}

	if err := r.store.Append(ctx, event); err != nil {
		attrs := []any{
			slog.String("event_type", event.Type),
			slog.String("details", event.Details),
			slog.String("ip", event.IPAddress),
			slog.Any("error", err),
		}
		if event.UserID != nil {
			attrs = append(attrs, slog.String("user_id", event.UserID.String()))
		}
		r.logger.ErrorContext(ctx, "security event append failed", attrs...)
	}
}

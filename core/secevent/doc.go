// Package secevent provides an append-only security audit trail for
// authentication and abuse-prevention events.
//
// Every security-relevant occurrence in the request pipeline (logins,
// session lifecycle changes, rate-limit blocks, suspicious activity)
// is captured as an immutable Event and appended through a Recorder.
//
// # Failure Policy
//
// Audit logging must never break request handling: Recorder.Record does
// not return an error. When the backing store fails, the event is written
// to the configured slog.Logger instead, so a degraded audit trail is
// still visible in process logs.
//
// Usage:
//
//	recorder := secevent.NewRecorder(store, secevent.WithLogger(logger))
//
//	recorder.Record(ctx, secevent.TypeFailedLogin, "invalid password for bob",
//		secevent.WithIP("203.0.113.7"),
//	)
//
// Events are never mutated or deleted by this package; retention and
// purging are operational concerns outside the request pipeline.
package secevent

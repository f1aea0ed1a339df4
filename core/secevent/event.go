package secevent

import (
	"time"

	"github.com/google/uuid"
)

// Well-known event types written by the request pipeline. The type is a
// plain string so host applications can append their own domain events
// through the same trail.
const (
	TypeSessionCreated        = "session_created"
	TypeSessionExtended       = "session_extended"
	TypeSessionInvalidated    = "session_invalidated"
	TypeSessionExpired        = "session_expired"
	TypeSessionContextChanged = "session_context_changed"
	TypeFailedLogin           = "failed_login"
	TypeIPBlocked             = "ip_blocked"
	TypeSuspiciousActivity    = "suspicious_activity"
	TypeSuspiciousRequest     = "suspicious_request"
	TypePageAccess            = "page_access"
	TypeUnauthorizedAdmin     = "unauthorized_admin_access"
)

// Event is one immutable row of the security audit trail.
type Event struct {
	// ID is assigned by the Recorder at append time.
	ID uuid.UUID

	// Type classifies the occurrence (see the Type* constants).
	Type string

	// Details is a short human-readable description of what happened.
	Details string

	// IPAddress is the client address the event originated from, if known.
	IPAddress string

	// UserID is the affected user, if the event is attributable to one.
	UserID *uuid.UUID

	// CreatedAt is the server-generated timestamp of the append.
	CreatedAt time.Time
}

// Option attaches optional attribution to a recorded event.
type Option func(*Event)

// WithIP sets the originating client IP address.
func WithIP(ip string) Option {
	return func(e *Event) {
		e.IPAddress = ip
	}
}

// WithUser attributes the event to a user.
func WithUser(userID uuid.UUID) Option {
	return func(e *Event) {
		id := userID
		e.UserID = &id
	}
}

package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatekeeperhq/gatekeeper/core/session"
)

// Identity is the resolved user attached to the request context after
// successful session validation.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Status   string
	IsAdmin  bool

	// Token is the session token the identity was resolved from,
	// needed by logout handlers to invalidate the right session.
	Token string
}

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the identity attached to the context, if any.
func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// MustGetIdentity returns the identity attached to the context and
// panics when there is none. Use only in handlers behind the gate.
func MustGetIdentity(ctx context.Context) Identity {
	id, ok := GetIdentity(ctx)
	if !ok {
		panic("middleware: no identity in context")
	}
	return id
}

func identityFromView(token string, view *session.View) Identity {
	return Identity{
		UserID:   view.UserID,
		Username: view.Username,
		Status:   view.UserStatus,
		IsAdmin:  view.IsAdmin,
		Token:    token,
	}
}

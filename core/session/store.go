package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines the persistence interface for session management.
// Implementations must handle concurrent access safely; every mutation
// is a conditional single-row update so that multiple instances sharing
// one datastore stay consistent without application-level locking.
type Store interface {
	// Insert persists a new session. Must fail on a duplicate token.
	Insert(ctx context.Context, sess *Session) error

	// FindByToken returns the session joined with minimal user fields,
	// or ErrNotFound. It does not filter on activity or expiry; the
	// Manager applies those checks.
	FindByToken(ctx context.Context, token string) (*View, error)

	// Touch updates the session's last-activity timestamp.
	Touch(ctx context.Context, token string, at time.Time) error

	// SetExpiry pushes the session's expiry forward.
	SetExpiry(ctx context.Context, token string, expiresAt time.Time) error

	// Deactivate flips is_active to false if it was true, reporting
	// whether a row actually changed. Missing or already-inactive
	// tokens are a no-op, not an error.
	Deactivate(ctx context.Context, token string) (bool, error)

	// DeactivateAllForUser bulk-deactivates every active session owned
	// by userID except exceptToken (empty means no exception), returning
	// the number of sessions deactivated. Must run as a single atomic
	// statement with respect to concurrent inserts for the same user.
	DeactivateAllForUser(ctx context.Context, userID uuid.UUID, exceptToken string) (int64, error)
}

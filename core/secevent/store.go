package secevent

import "context"

// Store is the persistence interface for the audit trail.
// Implementations must treat events as append-only: no updates, no deletes.
type Store interface {
	Append(ctx context.Context, event *Event) error
}

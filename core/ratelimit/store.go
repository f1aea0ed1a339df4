package ratelimit

import (
	"context"
	"time"
)

// Store holds per-IP rate-limit state: failure timestamps inside the
// sliding window and an optional block deadline. Implementations must be
// safe for concurrent use by many request-handling goroutines.
type Store interface {
	// AddFailure appends one failed-attempt timestamp for ip.
	AddFailure(ctx context.Context, ip string, at time.Time) error

	// CountFailures prunes timestamps older than since and returns the
	// count remaining in the window.
	CountFailures(ctx context.Context, ip string, since time.Time) (int, error)

	// ClearFailures drops the failure window for ip.
	ClearFailures(ctx context.Context, ip string) error

	// SetBlock records a block on ip until the given deadline.
	SetBlock(ctx context.Context, ip string, until time.Time) error

	// BlockedUntil returns the block deadline for ip, if one is set.
	// An expired deadline may still be returned; the Limiter evicts it.
	BlockedUntil(ctx context.Context, ip string) (time.Time, bool, error)

	// ClearBlock removes the block entry for ip.
	ClearBlock(ctx context.Context, ip string) error
}

package ratelimit

import "errors"

var (
	// ErrStoreUnavailable wraps backend failures while reading or
	// writing rate-limit state.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("memory store already started")
	// ErrNotStarted is returned when Stop is called before Start.
	ErrNotStarted = errors.New("memory store not started")
)

package session

import "errors"

var (
	// ErrNotFound is returned when no session exists for a token.
	ErrNotFound = errors.New("session not found")
	// ErrInactive is returned when the session has been invalidated.
	ErrInactive = errors.New("session is inactive")
	// ErrExpired is returned when the session has passed its expiry.
	ErrExpired = errors.New("session has expired")
	// ErrMissingIP is returned when creating a session without a client IP.
	ErrMissingIP = errors.New("IP address is required")
	// ErrTokenGeneration is returned when the random source fails.
	ErrTokenGeneration = errors.New("failed to generate token")
	// ErrSaveSession is returned when persisting a session fails.
	ErrSaveSession = errors.New("failed to save session")
)

package sessiontransport

import "errors"

var (
	// ErrNoToken is returned when the request carries no session cookie.
	ErrNoToken = errors.New("sessiontransport: no session token")

	// ErrSessionExpired is returned when writing a cookie for a session
	// whose expiry has already passed.
	ErrSessionExpired = errors.New("sessiontransport: session already expired")
)

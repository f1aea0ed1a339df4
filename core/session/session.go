package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session represents one authenticated client context.
type Session struct {
	// Token is the cryptographically secure session token
	// (32 bytes base64url). It is the primary lookup key and is never reused.
	Token string

	// UserID identifies the owning user. A user may own multiple
	// concurrent sessions.
	UserID uuid.UUID

	// IPAddress and UserAgent are captured at creation for anomaly
	// comparison. Changes on a live session are logged, not enforced.
	IPAddress string
	UserAgent string

	CreatedAt      time.Time
	ExpiresAt      time.Time
	LastActivityAt time.Time

	// IsActive is false once the session has been invalidated or reaped.
	// Rows are deactivated, never deleted, to preserve audit continuity.
	IsActive bool
}

// View is a session joined with the minimal user fields downstream
// handlers need. Validation resolves it with a single indexed lookup.
type View struct {
	Session

	Username string

	// UserStatus is the owning user's account status (active, inactive,
	// paused). A session bound to a non-active user still validates
	// structurally; authorization decisions belong to the caller.
	UserStatus string

	// IsAdmin reports whether the owning user holds administrator
	// privileges. Consumed by the request gate's admin-route check.
	IsAdmin bool
}

// IsExpired reports whether the session has passed its expiry.
func (s Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsValid reports whether the session is active and unexpired.
func (s Session) IsValid() bool {
	return s.IsActive && !s.IsExpired()
}

// New creates a session for userID with ExpiresAt set ttl from now.
// The token is generated here; uniqueness is enforced by the store's
// unique constraint, not by the generator.
func New(userID uuid.UUID, ip, userAgent string, ttl time.Duration) (Session, error) {
	if ip == "" {
		return Session{}, ErrMissingIP
	}

	token, err := GenerateToken()
	if err != nil {
		return Session{}, errors.Join(ErrTokenGeneration, err)
	}

	now := time.Now().UTC()
	return Session{
		Token:          token,
		UserID:         userID,
		IPAddress:      ip,
		UserAgent:      userAgent,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
		LastActivityAt: now,
		IsActive:       true,
	}, nil
}

// GenerateToken creates a cryptographically secure random token using
// 32 bytes (256 bits) encoded as base64 URL-safe string without padding.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

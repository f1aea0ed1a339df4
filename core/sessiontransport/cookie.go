package sessiontransport

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gatekeeperhq/gatekeeper/core/session"
)

// DefaultCookieName is the session cookie name used unless overridden.
const DefaultCookieName = "session_token"

// Cookie reads and writes the session token cookie with secure defaults:
// HttpOnly, Secure, SameSite=Lax, path "/". MaxAge always tracks the
// session's server-side expiry.
type Cookie struct {
	name     string
	path     string
	domain   string
	secure   bool
	sameSite http.SameSite
}

// CookieOption configures a Cookie.
type CookieOption func(*Cookie)

// WithCookieName overrides the cookie name.
func WithCookieName(name string) CookieOption {
	return func(c *Cookie) {
		if name != "" {
			c.name = name
		}
	}
}

// WithCookieDomain scopes the cookie to a domain.
func WithCookieDomain(domain string) CookieOption {
	return func(c *Cookie) {
		c.domain = domain
	}
}

// WithCookiePath overrides the cookie path.
func WithCookiePath(path string) CookieOption {
	return func(c *Cookie) {
		if path != "" {
			c.path = path
		}
	}
}

// WithInsecure drops the Secure attribute for plain-HTTP development
// environments. Never use in production.
func WithInsecure() CookieOption {
	return func(c *Cookie) {
		c.secure = false
	}
}

// NewCookie creates a session cookie transport with secure defaults.
func NewCookie(opts ...CookieOption) *Cookie {
	c := &Cookie{
		name:     DefaultCookieName,
		path:     "/",
		secure:   true,
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the cookie name.
func (c *Cookie) Name() string {
	return c.name
}

// Read extracts the session token from the request. It returns
// ErrNoToken when the cookie is absent or empty.
func (c *Cookie) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNoToken
		}
		return "", err
	}
	if cookie.Value == "" {
		return "", ErrNoToken
	}
	return cookie.Value, nil
}

// Write sets the session cookie with MaxAge derived from expiresAt, so
// the browser's copy lives exactly as long as the server-side session.
func (c *Cookie) Write(w http.ResponseWriter, token string, expiresAt time.Time) error {
	until := time.Until(expiresAt)
	if until <= 0 {
		return fmt.Errorf("%w: expired %v ago", ErrSessionExpired, -until.Round(time.Second))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     c.path,
		Domain:   c.domain,
		MaxAge:   int(until.Seconds()),
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: c.sameSite,
	})
	return nil
}

// WriteSession sets the cookie from a freshly created session.
func (c *Cookie) WriteSession(w http.ResponseWriter, sess session.Session) error {
	return c.Write(w, sess.Token, sess.ExpiresAt)
}

// Clear expires the session cookie immediately.
func (c *Cookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     c.path,
		Domain:   c.domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: c.sameSite,
	})
}

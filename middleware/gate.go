package middleware

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gatekeeperhq/gatekeeper/core/ratelimit"
	"github.com/gatekeeperhq/gatekeeper/core/secevent"
	"github.com/gatekeeperhq/gatekeeper/core/session"
	"github.com/gatekeeperhq/gatekeeper/core/sessiontransport"
	"github.com/gatekeeperhq/gatekeeper/pkg/clientip"
)

// attackPatterns are URL substrings that indicate probing or injection
// attempts. Matching is case-insensitive over the full request URI.
var attackPatterns = []string{
	"<script",
	"javascript:",
	"../",
	"..\\",
	"union select",
	"drop table",
	"insert into",
	"delete from",
	"information_schema",
}

// Sweeper deactivates expired sessions on demand. *reaper.Reaper
// satisfies it.
type Sweeper interface {
	Sweep(ctx context.Context) error
}

// GateConfig configures the request gate.
type GateConfig struct {
	// Sessions validates tokens and resolves identities. Required.
	Sessions *session.Manager

	// Limiter answers whether the client IP is currently blocked. Required.
	Limiter *ratelimit.Limiter

	// Events receives the gate's audit events. Required.
	Events *secevent.Recorder

	// Cookie reads and clears the session token cookie. Required.
	Cookie *sessiontransport.Cookie

	// Sweeper, when set, runs a best-effort expired-session sweep at the
	// top of each request. Errors are logged and never affect the request.
	Sweeper Sweeper

	// LoginPath is where unauthenticated browsers are redirected.
	// Defaults to "/login".
	LoginPath string

	// DeniedPath is where non-admins hitting admin routes are sent.
	// Defaults to "/".
	DeniedPath string

	// ExemptPaths lists path prefixes that skip session validation
	// entirely (the login page itself, static assets, health checks).
	// Block checks and the attack pattern scan still apply to them.
	ExemptPaths []string

	// AdminPaths lists path prefixes reserved for administrators.
	AdminPaths []string

	// Skip bypasses the gate entirely for matching requests.
	Skip func(r *http.Request) bool

	// Logger receives sweep and validation diagnostics.
	Logger *slog.Logger
}

// Gate returns the middleware that fronts every protected route. Checks
// run in a fixed order: opportunistic sweep, IP block check, attack
// pattern scan, session validation with identity attachment and
// page_access logging, and the admin-route privilege re-check.
//
// It panics when a required collaborator is missing.
func Gate(cfg GateConfig) func(http.Handler) http.Handler {
	if cfg.Sessions == nil {
		panic("middleware: session manager is required")
	}
	if cfg.Limiter == nil {
		panic("middleware: rate limiter is required")
	}
	if cfg.Events == nil {
		panic("middleware: event recorder is required")
	}
	if cfg.Cookie == nil {
		panic("middleware: cookie transport is required")
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.DeniedPath == "" {
		cfg.DeniedPath = "/"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := clientip.GetIP(r)

			if cfg.Sweeper != nil {
				if err := cfg.Sweeper.Sweep(ctx); err != nil {
					cfg.Logger.WarnContext(ctx, "opportunistic session sweep failed", slog.Any("error", err))
				}
			}

			blocked, err := cfg.Limiter.IsBlocked(ctx, ip)
			if err != nil {
				cfg.Logger.ErrorContext(ctx, "block list check failed", slog.Any("error", err), slog.String("ip", ip))
			}
			if blocked {
				cfg.reject(w, r)
				return
			}

			if pattern := scanURL(r.URL); pattern != "" {
				cfg.Events.Record(ctx, secevent.TypeSuspiciousRequest,
					fmt.Sprintf("attack pattern %q in %s", pattern, r.URL.Path),
					secevent.WithIP(ip),
				)
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}

			if pathHasPrefix(r.URL.Path, cfg.ExemptPaths) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := cfg.Cookie.Read(r)
			if err != nil {
				http.Redirect(w, r, cfg.LoginPath, http.StatusSeeOther)
				return
			}

			view, err := cfg.Sessions.Validate(ctx, token, ip, r.UserAgent())
			if err != nil {
				cfg.Cookie.Clear(w)
				http.Redirect(w, r, cfg.LoginPath, http.StatusSeeOther)
				return
			}

			id := identityFromView(token, view)
			cfg.Events.Record(ctx, secevent.TypePageAccess, r.Method+" "+r.URL.Path,
				secevent.WithIP(ip),
				secevent.WithUser(id.UserID),
			)

			if pathHasPrefix(r.URL.Path, cfg.AdminPaths) && !id.IsAdmin {
				cfg.Events.Record(ctx, secevent.TypeUnauthorizedAdmin,
					fmt.Sprintf("user %q attempted %s", id.Username, r.URL.Path),
					secevent.WithIP(ip),
					secevent.WithUser(id.UserID),
				)
				http.Redirect(w, r, cfg.DeniedPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
		})
	}
}

// reject answers a blocked IP: browsers are bounced to the login page,
// API clients get a plain 429.
func (cfg GateConfig) reject(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, cfg.LoginPath, http.StatusSeeOther)
		return
	}
	http.Error(w, "too many requests", http.StatusTooManyRequests)
}

// scanURL returns the first attack pattern found in the decoded path or
// query, or "" when the URL looks clean. The query is unescaped before
// scanning so percent-encoding cannot hide a pattern.
func scanURL(u *url.URL) string {
	query, err := url.QueryUnescape(u.RawQuery)
	if err != nil {
		query = u.RawQuery
	}
	lowered := strings.ToLower(u.Path + "?" + query)
	for _, pattern := range attackPatterns {
		if strings.Contains(lowered, pattern) {
			return pattern
		}
	}
	return ""
}

func pathHasPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

package sessiontransport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gatekeeperhq/gatekeeper/core/session"
	"github.com/gatekeeperhq/gatekeeper/pkg/clientip"
)

// Endpoints exposes the session self-service API: clients can check
// whether their session is still active and push its expiry forward.
type Endpoints struct {
	manager *session.Manager
	cookie  *Cookie
	logger  *slog.Logger
}

// EndpointsOption configures Endpoints.
type EndpointsOption func(*Endpoints)

// WithLogger sets the logger for response encoding diagnostics.
func WithLogger(logger *slog.Logger) EndpointsOption {
	return func(e *Endpoints) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEndpoints creates the session API handlers. It panics if manager or
// cookie is nil, as both are required collaborators.
func NewEndpoints(manager *session.Manager, cookie *Cookie, opts ...EndpointsOption) *Endpoints {
	if manager == nil {
		panic("sessiontransport: session manager is required")
	}
	if cookie == nil {
		panic("sessiontransport: cookie transport is required")
	}

	e := &Endpoints{
		manager: manager,
		cookie:  cookie,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type statusResponse struct {
	Active    bool       `json:"active"`
	User      string     `json:"user,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type extendResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Status reports whether the request's session is active. An active
// session answers 200 with the owner and expiry; anything else answers
// 401 with {"active": false} and no detail about why.
func (e *Endpoints) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := e.cookie.Read(r)
	if err != nil {
		e.writeJSON(w, http.StatusUnauthorized, statusResponse{Active: false})
		return
	}

	view, err := e.manager.Validate(ctx, token, clientip.GetIP(r), r.UserAgent())
	if err != nil {
		e.writeJSON(w, http.StatusUnauthorized, statusResponse{Active: false})
		return
	}

	e.writeJSON(w, http.StatusOK, statusResponse{
		Active:    true,
		User:      view.Username,
		ExpiresAt: &view.ExpiresAt,
	})
}

// Extend pushes the session expiry forward by the configured TTL and
// refreshes the cookie to match. An invalid session answers 401.
func (e *Endpoints) Extend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := e.cookie.Read(r)
	if err != nil {
		e.writeJSON(w, http.StatusUnauthorized, extendResponse{Success: false, Message: "no active session"})
		return
	}

	expiresAt, err := e.manager.Extend(ctx, token, clientip.GetIP(r), r.UserAgent())
	if err != nil {
		e.writeJSON(w, http.StatusUnauthorized, extendResponse{Success: false, Message: "session is not active"})
		return
	}

	if err := e.cookie.Write(w, token, expiresAt); err != nil {
		e.logger.ErrorContext(ctx, "failed to refresh session cookie", slog.Any("error", err))
	}

	e.writeJSON(w, http.StatusOK, extendResponse{
		Success:   true,
		Message:   "session extended",
		ExpiresAt: &expiresAt,
	})
}

func (e *Endpoints) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		e.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// Package middleware provides the HTTP composition layer: the request
// gate that fronts every protected route, security response headers, and
// the context plumbing that carries the authenticated identity.
//
// All middleware are plain func(http.Handler) http.Handler values, so
// they compose with any stdlib-compatible router:
//
//	gate := middleware.Gate(middleware.GateConfig{
//		Sessions: sessionManager,
//		Limiter:  limiter,
//		Events:   recorder,
//		Cookie:   cookieTransport,
//		Sweeper:  reaper,
//		ExemptPaths: []string{"/login", "/static/", "/health"},
//		AdminPaths:  []string{"/admin"},
//	})
//	handler := middleware.SecurityHeaders()(gate(mux))
//
// The gate applies its checks in a fixed order: opportunistic expired
// session sweep, IP block check, attack pattern scan, session
// validation with identity attachment and activity logging, and the
// admin-route privilege re-check. Auth checks are a middleware chain
// applied in front of handlers, never per-handler wrappers.
package middleware

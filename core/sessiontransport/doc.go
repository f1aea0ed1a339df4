// Package sessiontransport moves session tokens between the server and
// the browser, and exposes the JSON endpoints clients use to inspect and
// extend their own session.
//
// The token travels in an HttpOnly cookie. The Cookie type owns the
// cookie's attributes and keeps its MaxAge synchronized with the
// server-side expiry, so the browser drops the cookie at roughly the
// same moment the session stops validating. Tokens are opaque random
// values; the cookie carries them as-is.
//
// Endpoints provides two handlers: Status reports whether the current
// session is active along with its owner and expiry, and Extend pushes
// the expiry forward by the configured TTL. Both answer 401 with
// {"active": false} or {"success": false} when no valid session is
// attached to the request, and both identify the session purely by the
// cookie token.
//
// Usage:
//
//	ck := sessiontransport.NewCookie()
//	ep := sessiontransport.NewEndpoints(manager, ck)
//	mux.HandleFunc("GET /session/status", ep.Status)
//	mux.HandleFunc("POST /session/extend", ep.Extend)
package sessiontransport

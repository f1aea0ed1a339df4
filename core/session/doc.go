// Package session implements the server-side session lifecycle: opaque
// token issuance, validation, extension, and invalidation.
//
// A Session is created on successful credential verification and
// identified by a cryptographically unpredictable 256-bit token carried
// in a client cookie. Sessions are deactivated rather than deleted so the
// audit trail stays joinable against historical session rows.
//
// The Manager coordinates a persistence Store with the security event
// recorder: every lifecycle transition (created, extended, invalidated)
// is appended to the audit trail. Validation is the hot path, called on
// virtually every request; it performs a single indexed lookup and
// throttles its last-activity write by the configured TouchInterval.
//
// Usage:
//
//	mgr := session.NewManager(store, recorder,
//		session.WithTTL(12*time.Hour),
//		session.WithTouchInterval(time.Minute),
//	)
//
//	sess, err := mgr.Create(ctx, userID, clientIP, userAgent)
//	if err != nil {
//		// treat as "no session": never proceed on a storage failure
//	}
//
//	view, err := mgr.Validate(ctx, token, clientIP, userAgent)
//	if err != nil {
//		// missing, inactive, or expired: redirect to login
//	}
//
// IP address and user agent are captured at creation for anomaly
// comparison only. They are not part of the trust boundary: a change on
// an otherwise valid session is recorded as a security event, never
// enforced, because mobile clients legitimately roam across networks.
package session

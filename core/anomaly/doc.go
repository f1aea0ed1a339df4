// Package anomaly flags suspicious account activity at login time.
//
// The Detector reads recent session history for a user and records a
// suspicious_activity security event when either rule trips:
//
//   - multi_ip: the user's sessions were touched from more than three
//     distinct IPs within the trailing hour;
//   - rapid_session_creation: more than three sessions were created for
//     the user within the trailing ten minutes.
//
// Detection is advisory only. It never denies a login: shared NATs and
// mobile network hops make false positives common, so hard blocking is
// reserved for the rate limiter's failed-attempt mechanism. History
// read failures are likewise logged and swallowed.
package anomaly

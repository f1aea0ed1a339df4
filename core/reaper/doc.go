// Package reaper deactivates sessions whose expiry has passed.
//
// The Reaper runs two ways: a periodic background sweep (default
// hourly) whose lifecycle follows the Start/Stop/Run pattern, and an
// opportunistic per-request Sweep invoked by the request gate. Both
// paths share the same conditional bulk update (WHERE is_active), so
// overlapping sweeps are safe: a session already flipped by one pass is
// simply absent from the other's result set, and exactly one
// session_expired event is recorded per reaped session.
//
// Sweep failures never escalate. The background loop contains errors
// and panics per cycle and keeps its schedule indefinitely; the
// per-request pass is best effort by contract.
package reaper

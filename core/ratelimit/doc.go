// Package ratelimit tracks failed login attempts per client IP in a
// sliding window and escalates repeat offenders to a timed block.
//
// The per-IP state machine is: clear -> warming (failures accumulating)
// -> blocked -> clear again once the block TTL lapses. Blocks are
// imposed by Allowed when the pruned failure count reaches the
// configured maximum, and expire lazily: IsBlocked evicts a lapsed
// block on first observation.
//
// A successful login clears the IP's failure window but never lifts an
// active block early; once escalated, a block runs its full duration.
//
// State lives behind the Store interface. MemoryStore is the
// mutex-guarded in-process default for single-instance deployments;
// RedisStore externalizes the same contract for fleets that share one
// limiter view. Memory state is intentionally lost on restart.
//
// Usage:
//
//	store := ratelimit.NewMemoryStore()
//	limiter := ratelimit.NewLimiter(store, recorder)
//
//	ok, err := limiter.Allowed(ctx, clientIP)
//	if err != nil || !ok {
//		// reject the login attempt before touching credentials
//	}
//	// ... credential check ...
//	if !verified {
//		limiter.RecordFailure(ctx, clientIP, username)
//	} else {
//		limiter.RecordSuccess(ctx, clientIP)
//	}
//
// Defaults: 5 failures within 5 minutes impose a 15 minute block.
package ratelimit

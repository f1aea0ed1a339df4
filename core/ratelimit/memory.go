package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ipState is the per-IP record: failure timestamps inside the sliding
// window plus an optional block deadline.
type ipState struct {
	failures     []time.Time
	blockedUntil time.Time
	lastAccess   time.Time // Used by cleanup to identify stale entries
}

// MemoryStore implements Store with a mutex-guarded in-process map.
// State is process-local and lost on restart; multi-instance
// deployments should use RedisStore instead.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*ipState

	// Configuration
	cleanupInterval time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// State management
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	// Observability metrics
	entriesCreated atomic.Int64
	entriesRemoved atomic.Int64
}

// MemoryStoreStats provides observability metrics for monitoring and debugging.
type MemoryStoreStats struct {
	EntriesCreated int64 // Total number of per-IP entries created
	EntriesRemoved int64 // Total number of stale entries removed
	ActiveEntries  int   // Current number of tracked IPs
	IsRunning      bool  // Whether the cleanup goroutine is running
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets the interval for removing stale entries.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout.
func WithShutdownTimeout(timeout time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if timeout > 0 {
			ms.shutdownTimeout = timeout
		}
	}
}

// WithMemoryStoreLogger sets the logger for internal operations.
func WithMemoryStoreLogger(logger *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if logger != nil {
			ms.logger = logger
		}
	}
}

// NewMemoryStore creates a new in-memory store.
// Call Start() to begin background cleanup of stale entries.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		entries:         make(map[string]*ipState),
		cleanupInterval: 5 * time.Minute,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(ms)
	}

	return ms
}

func (ms *MemoryStore) state(ip string, now time.Time) *ipState {
	st, ok := ms.entries[ip]
	if !ok {
		st = &ipState{}
		ms.entries[ip] = st
		ms.entriesCreated.Add(1)
	}
	st.lastAccess = now
	return st
}

func (ms *MemoryStore) AddFailure(_ context.Context, ip string, at time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	st := ms.state(ip, at)
	st.failures = append(st.failures, at)
	return nil
}

func (ms *MemoryStore) CountFailures(_ context.Context, ip string, since time.Time) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	st, ok := ms.entries[ip]
	if !ok {
		return 0, nil
	}
	st.lastAccess = time.Now()

	// Prune in place; timestamps are appended in order.
	kept := st.failures[:0]
	for _, ts := range st.failures {
		if ts.After(since) {
			kept = append(kept, ts)
		}
	}
	st.failures = kept

	return len(st.failures), nil
}

func (ms *MemoryStore) ClearFailures(_ context.Context, ip string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if st, ok := ms.entries[ip]; ok {
		st.failures = nil
		st.lastAccess = time.Now()
	}
	return nil
}

func (ms *MemoryStore) SetBlock(_ context.Context, ip string, until time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	st := ms.state(ip, time.Now())
	st.blockedUntil = until
	return nil
}

func (ms *MemoryStore) BlockedUntil(_ context.Context, ip string) (time.Time, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	st, ok := ms.entries[ip]
	if !ok || st.blockedUntil.IsZero() {
		return time.Time{}, false, nil
	}
	st.lastAccess = time.Now()

	return st.blockedUntil, true, nil
}

func (ms *MemoryStore) ClearBlock(_ context.Context, ip string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if st, ok := ms.entries[ip]; ok {
		st.blockedUntil = time.Time{}
	}
	return nil
}

// Start begins the background cleanup goroutine. This is a blocking
// operation that runs until the context is cancelled. Use Run() for
// errgroup pattern or call this in a goroutine.
func (ms *MemoryStore) Start(ctx context.Context) error {
	ms.mu.Lock()
	if ms.cancel != nil {
		ms.mu.Unlock()
		return ErrAlreadyStarted
	}

	if ms.cleanupInterval <= 0 {
		ms.mu.Unlock()
		return fmt.Errorf("cleanup interval must be > 0, got %v (use WithCleanupInterval to configure)", ms.cleanupInterval)
	}

	ms.ctx, ms.cancel = context.WithCancel(ctx)
	ms.mu.Unlock()

	ms.running.Store(true)
	defer ms.running.Store(false)

	ms.logger.InfoContext(ms.ctx, "rate limit store cleanup started",
		slog.Duration("cleanup_interval", ms.cleanupInterval))

	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.ctx.Done():
			ms.logger.InfoContext(context.Background(), "rate limit store cleanup stopping")
			return ms.ctx.Err()
		case <-ticker.C:
			ms.cleanupWithWait()
		}
	}
}

// Stop gracefully shuts down the background cleanup with a timeout.
func (ms *MemoryStore) Stop() error {
	ms.mu.Lock()
	if ms.cancel == nil {
		ms.mu.Unlock()
		return ErrNotStarted
	}

	cancel := ms.cancel
	ms.cancel = nil
	ms.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), ms.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		ms.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ms.logger.InfoContext(context.Background(), "rate limit store stopped cleanly")
		return nil
	case <-ctx.Done():
		ms.logger.WarnContext(context.Background(), "rate limit store shutdown timeout exceeded",
			slog.Duration("timeout", ms.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", ms.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle
// management: it starts the cleanup, monitors context cancellation, and
// performs graceful shutdown when the context is cancelled.
func (ms *MemoryStore) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- ms.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = ms.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

func (ms *MemoryStore) cleanupWithWait() {
	ms.mu.Lock()
	if ms.cancel == nil {
		ms.mu.Unlock()
		return
	}
	ms.wg.Add(1)
	ms.mu.Unlock()

	defer ms.wg.Done()
	ms.removeStale()
}

// removeStale drops entries with no recent activity and no live block.
// The one hour threshold comfortably exceeds any sane window or block
// duration, so pruning never erases state the limiter still needs.
func (ms *MemoryStore) removeStale() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	const staleThreshold = 1 * time.Hour

	removed := 0
	for ip, st := range ms.entries {
		if now.Sub(st.lastAccess) > staleThreshold && now.After(st.blockedUntil) {
			delete(ms.entries, ip)
			removed++
		}
	}

	if removed > 0 {
		ms.entriesRemoved.Add(int64(removed))
	}
}

// Stats returns current store statistics for observability and
// monitoring. Thread-safe.
func (ms *MemoryStore) Stats() MemoryStoreStats {
	ms.mu.Lock()
	isRunning := ms.cancel != nil
	activeEntries := len(ms.entries)
	ms.mu.Unlock()

	return MemoryStoreStats{
		EntriesCreated: ms.entriesCreated.Load(),
		EntriesRemoved: ms.entriesRemoved.Load(),
		ActiveEntries:  activeEntries,
		IsRunning:      isRunning,
	}
}

// Healthcheck validates that the store is operational. Suitable for use
// in health check endpoints.
func (ms *MemoryStore) Healthcheck(ctx context.Context) error {
	stats := ms.Stats()

	if ms.cleanupInterval > 0 && !stats.IsRunning {
		return fmt.Errorf("cleanup is configured but not running")
	}

	return nil
}

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeeperhq/gatekeeper/core/ratelimit"
)

func TestMemoryStore_Failures(t *testing.T) {
	t.Parallel()

	t.Run("counts only failures inside the window", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore()
		ctx := context.Background()
		now := time.Now()

		require.NoError(t, store.AddFailure(ctx, "10.0.0.1", now.Add(-10*time.Minute)))
		require.NoError(t, store.AddFailure(ctx, "10.0.0.1", now.Add(-4*time.Minute)))
		require.NoError(t, store.AddFailure(ctx, "10.0.0.1", now.Add(-1*time.Minute)))

		count, err := store.CountFailures(ctx, "10.0.0.1", now.Add(-5*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("ips are tracked independently", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore()
		ctx := context.Background()
		now := time.Now()

		require.NoError(t, store.AddFailure(ctx, "10.0.0.2", now))

		count, err := store.CountFailures(ctx, "10.0.0.3", now.Add(-5*time.Minute))
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("clear drops the window but not the block", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore()
		ctx := context.Background()
		now := time.Now()
		until := now.Add(15 * time.Minute)

		require.NoError(t, store.AddFailure(ctx, "10.0.0.4", now))
		require.NoError(t, store.SetBlock(ctx, "10.0.0.4", until))
		require.NoError(t, store.ClearFailures(ctx, "10.0.0.4"))

		count, err := store.CountFailures(ctx, "10.0.0.4", now.Add(-5*time.Minute))
		require.NoError(t, err)
		assert.Zero(t, count)

		got, ok, err := store.BlockedUntil(ctx, "10.0.0.4")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, until, got)
	})
}

func TestMemoryStore_Blocks(t *testing.T) {
	t.Parallel()

	t.Run("no block by default", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore()

		_, ok, err := store.BlockedUntil(context.Background(), "10.0.1.1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("clear block removes the deadline", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore()
		ctx := context.Background()

		require.NoError(t, store.SetBlock(ctx, "10.0.1.2", time.Now().Add(time.Minute)))
		require.NoError(t, store.ClearBlock(ctx, "10.0.1.2"))

		_, ok, err := store.BlockedUntil(ctx, "10.0.1.2")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("start and stop cleanly", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(10 * time.Millisecond))

		errCh := make(chan error, 1)
		go func() {
			errCh <- store.Start(context.Background())
		}()

		require.Eventually(t, func() bool {
			return store.Stats().IsRunning
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, store.Healthcheck(context.Background()))
		require.NoError(t, store.Stop())

		err := <-errCh
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("double start fails", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(time.Minute))

		go func() { _ = store.Start(context.Background()) }()
		require.Eventually(t, func() bool {
			return store.Stats().IsRunning
		}, time.Second, 5*time.Millisecond)
		t.Cleanup(func() { _ = store.Stop() })

		assert.ErrorIs(t, store.Start(context.Background()), ratelimit.ErrAlreadyStarted)
	})

	t.Run("stop before start fails", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore()
		assert.ErrorIs(t, store.Stop(), ratelimit.ErrNotStarted)
	})

	t.Run("stats count created entries", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore()
		ctx := context.Background()

		require.NoError(t, store.AddFailure(ctx, "10.0.2.1", time.Now()))
		require.NoError(t, store.AddFailure(ctx, "10.0.2.2", time.Now()))

		stats := store.Stats()
		assert.Equal(t, int64(2), stats.EntriesCreated)
		assert.Equal(t, 2, stats.ActiveEntries)
	})
}

package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gatekeeperhq/gatekeeper/storage/redis"
)

func TestConnect_Validation(t *testing.T) {
	t.Parallel()

	t.Run("empty connection url", func(t *testing.T) {
		t.Parallel()

		_, err := redis.Connect(context.Background(), redis.Config{})
		require.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("malformed connection url", func(t *testing.T) {
		t.Parallel()

		_, err := redis.Connect(context.Background(), redis.Config{
			ConnectionURL: "http://localhost:6379",
			RetryAttempts: 1,
		})
		require.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
	})
}

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a shared Redis instance so that every
// process in a multi-instance deployment sees the same per-IP state.
//
// Failure windows are sorted sets scored by attempt time; blocks are
// plain keys with a PX expiry, so Redis itself evicts lapsed blocks.
type RedisStore struct {
	client *redis.Client
	prefix string
	window time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the default "ratelimit" key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.prefix = prefix
		}
	}
}

// WithFailureTTL bounds how long a failure window key may outlive its
// last write. Should be at least the limiter's window; defaults to one
// hour.
func WithFailureTTL(ttl time.Duration) RedisStoreOption {
	return func(rs *RedisStore) {
		if ttl > 0 {
			rs.window = ttl
		}
	}
}

// NewRedisStore creates a Redis-backed rate-limit store.
// Panics if client is nil.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	if client == nil {
		panic("ratelimit: redis client is required")
	}

	rs := &RedisStore{
		client: client,
		prefix: "ratelimit",
		window: time.Hour,
	}

	for _, opt := range opts {
		opt(rs)
	}

	return rs
}

func (rs *RedisStore) failureKey(ip string) string {
	return fmt.Sprintf("%s:failures:%s", rs.prefix, ip)
}

func (rs *RedisStore) blockKey(ip string) string {
	return fmt.Sprintf("%s:block:%s", rs.prefix, ip)
}

func (rs *RedisStore) AddFailure(ctx context.Context, ip string, at time.Time) error {
	key := rs.failureKey(ip)

	pipe := rs.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score: float64(at.UnixNano()),
		// Member must be unique even for same-nanosecond attempts.
		Member: fmt.Sprintf("%d:%s", at.UnixNano(), uuid.NewString()),
	})
	pipe.Expire(ctx, key, rs.window)
	_, err := pipe.Exec(ctx)
	return err
}

func (rs *RedisStore) CountFailures(ctx context.Context, ip string, since time.Time) (int, error) {
	key := rs.failureKey(ip)

	pipe := rs.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%d", since.UnixNano()))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return int(card.Val()), nil
}

func (rs *RedisStore) ClearFailures(ctx context.Context, ip string) error {
	return rs.client.Del(ctx, rs.failureKey(ip)).Err()
}

func (rs *RedisStore) SetBlock(ctx context.Context, ip string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return rs.client.Set(ctx, rs.blockKey(ip), strconv.FormatInt(until.UnixNano(), 10), ttl).Err()
}

func (rs *RedisStore) BlockedUntil(ctx context.Context, ip string) (time.Time, bool, error) {
	val, err := rs.client.Get(ctx, rs.blockKey(ip)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("malformed block deadline %q: %w", val, err)
	}

	return time.Unix(0, nanos), true, nil
}

func (rs *RedisStore) ClearBlock(ctx context.Context, ip string) error {
	return rs.client.Del(ctx, rs.blockKey(ip)).Err()
}

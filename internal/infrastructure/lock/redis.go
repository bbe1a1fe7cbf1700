package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"foodprod/internal/core/apperror"
	corelock "foodprod/internal/core/lock"
	"foodprod/pkg/logger"
)

// RedisConfig configures the distributed locker.
type RedisConfig struct {
	Address string
	// TTL bounds how long a crashed holder can block an item.
	TTL time.Duration
	// RetryInterval and MaxRetries control how long Acquire waits.
	RetryInterval time.Duration
	MaxRetries    int
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig(addr string) RedisConfig {
	return RedisConfig{
		Address:       addr,
		TTL:           30 * time.Second,
		RetryInterval: 50 * time.Millisecond,
		MaxRetries:    100,
	}
}

// RedisLocker serializes stock mutations across server instances.
type RedisLocker struct {
	client *redislock.Client
	cfg    RedisConfig
}

var _ corelock.Locker = (*RedisLocker)(nil)

// NewRedisLocker connects to Redis and verifies the connection.
func NewRedisLocker(ctx context.Context, cfg RedisConfig) (*RedisLocker, *redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		PoolSize: 20,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Address, err)
	}
	return NewRedisLockerFromClient(rdb, cfg), rdb, nil
}

// NewRedisLockerFromClient wraps an existing redis client.
func NewRedisLockerFromClient(client redislock.RedisClient, cfg RedisConfig) *RedisLocker {
	return &RedisLocker{client: redislock.New(client), cfg: cfg}
}

// Acquire implements lock.Locker.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (corelock.Release, error) {
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.cfg.RetryInterval), l.cfg.MaxRetries),
	}

	held, err := l.client.Obtain(ctx, key, l.cfg.TTL, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apperror.NewConcurrentModification("stock item", key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func() {
		// Release with a fresh context: the request context may already be cancelled.
		if err := held.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn(ctx, "release stock lock failed", "key", key, "error", err)
		}
	}, nil
}

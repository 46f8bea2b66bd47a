// Package redisguard serializes schedule mutations per child with a Redis
// advisory lock, closing the check-then-act window between the existence
// check and the batch insert.
package redisguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("child schedule lock not acquired")

// Locker guards critical sections keyed by child id.
type Locker interface {
	WithChildLock(ctx context.Context, childID uuid.UUID, fn func(ctx context.Context) error) error
}

// NewClient connects to Redis and verifies connectivity.
func NewClient(addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

type redisChildLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChildLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisChildLocker{client: client, ttl: ttl}
}

func (l *redisChildLocker) WithChildLock(ctx context.Context, childID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:child-schedule:%s", childID.String())
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire child lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

// The lock is released only when the stored token still matches, so an
// expired lock re-acquired by another request is never deleted by us.
var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisChildLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release child lock: %w", err)
	}
	return nil
}

// NopLocker runs the critical section without locking. Used when Redis is
// not configured; schedule creation then degrades to plain check-then-insert.
type NopLocker struct{}

func (NopLocker) WithChildLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

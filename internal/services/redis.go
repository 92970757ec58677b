package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockTimeout is returned when a lock could not be taken before the
// context expired.
var ErrLockTimeout = errors.New("redis lock: timed out waiting for lock")

const lockRetryInterval = 50 * time.Millisecond

// unlockScript deletes the key only if it still holds our token, so an
// expired lock re-taken by someone else is left alone.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker provides per-key mutual exclusion across processes.
type RedisLocker struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisClient connects to redisURL and checks the connection.
func NewRedisClient(redisURL string, log *zap.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Info("redis connection established")
	return client, nil
}

func NewRedisLocker(client *redis.Client, log *zap.Logger) *RedisLocker {
	return &RedisLocker{client: client, log: log}
}

// Lock waits until key is free or ctx is done. The lock expires after ttl
// even if unlock is never called.
func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
			}
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		// The request context may already be done; release regardless.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := unlockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Warn("failed to release redis lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, zap.NewNop()), mr
}

func TestRedisLocker_ExcludesSecondHolder(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "payfast:order:1", time.Minute)
	require.NoError(t, err)
	require.True(t, mr.Exists("payfast:order:1"))

	waitCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "payfast:order:1", time.Minute)
	require.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	require.False(t, mr.Exists("payfast:order:1"))

	unlock2, err := locker.Lock(ctx, "payfast:order:1", time.Minute)
	require.NoError(t, err)
	unlock2()
}

func TestRedisLocker_WaitsForRelease(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "payfast:order:2", time.Minute)
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		unlock()
	}()

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	unlock2, err := locker.Lock(waitCtx, "payfast:order:2", time.Minute)
	require.NoError(t, err)
	unlock2()
}

func TestRedisLocker_ExpiredLockIsNotReleasedByOldOwner(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	staleUnlock, err := locker.Lock(ctx, "payfast:order:3", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock, err := locker.Lock(ctx, "payfast:order:3", time.Minute)
	require.NoError(t, err)

	staleUnlock()
	require.True(t, mr.Exists("payfast:order:3"), "new owner's lock must survive")

	unlock()
	require.False(t, mr.Exists("payfast:order:3"))
}

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babel-bridge/internal/utils/platformerrors"
)

type locker interface {
	WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisLocker) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	l, err := NewRedisLocker(context.Background(), "redis://"+mr.Addr(), 10*time.Second, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return mr, l
}

func lockers(t *testing.T) map[string]locker {
	_, redisLocker := setupTestRedis(t)
	return map[string]locker{
		"redis": redisLocker,
		"local": NewLocalLocker(),
	}
}

func TestWithLock_MutualExclusion(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			var inside, maxInside, runs atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 6; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := l.WithLock(context.Background(), "room:r1", func(context.Context) error {
						n := inside.Add(1)
						for {
							m := maxInside.Load()
							if n <= m || maxInside.CompareAndSwap(m, n) {
								break
							}
						}
						time.Sleep(5 * time.Millisecond)
						inside.Add(-1)
						runs.Add(1)
						return nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(6), runs.Load())
			assert.Equal(t, int32(1), maxInside.Load())
		})
	}
}

func TestWithLock_ReturnsCallbackError(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			want := assert.AnError
			err := l.WithLock(context.Background(), "room:r2", func(context.Context) error { return want })
			assert.ErrorIs(t, err, want)

			// the lock is released after a failing callback
			err = l.WithLock(context.Background(), "room:r2", func(context.Context) error { return nil })
			assert.NoError(t, err)
		})
	}
}

func TestLocalLocker_CancelledWhileWaiting(t *testing.T) {
	l := NewLocalLocker()
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = l.WithLock(context.Background(), "room:r3", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.WithLock(ctx, "room:r3", func(context.Context) error { return nil })
	assert.Equal(t, platformerrors.ErrorTypeConflict, errorType(err))
	close(release)
}

func TestLocalLocker_ForgetsIdleLocks(t *testing.T) {
	l := NewLocalLocker()
	require.NoError(t, l.WithLock(context.Background(), "room:r4", func(context.Context) error { return nil }))
	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.locks)
}

func TestBuildUniversalOptions(t *testing.T) {
	opts, err := buildUniversalOptions("redis://:secret@cache-1:6379/2, cache-2:6379")
	require.NoError(t, err)
	assert.Equal(t, []string{"cache-1:6379", "cache-2:6379"}, opts.Addrs)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = buildUniversalOptions(" , ")
	assert.Error(t, err)
}

func errorType(err error) platformerrors.ErrorType {
	var pe *platformerrors.PlatformError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ""
}

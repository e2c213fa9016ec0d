package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu       sync.Mutex
	held     map[string]string
	setErr   error
	released []string
	// freeAfter clears a held key after this many refused SetNX calls.
	freeAfter int
	refused   int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{held: map[string]string{}}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewBoolResult(false, f.setErr)
	}
	if _, ok := f.held[key]; ok {
		f.refused++
		if f.freeAfter > 0 && f.refused >= f.freeAfter {
			delete(f.held, key)
		}
		return redis.NewBoolResult(false, nil)
	}
	f.held[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[keys[0]] == args[0].(string) {
		delete(f.held, keys[0])
		f.released = append(f.released, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestRedisLocker(t *testing.T) {
	key := ApplicationKey(uuid.MustParse("6f1c9c59-4c1d-4b8e-9d0b-0a6b3b0d7e11"))
	assert.Equal(t, "withdrawal:application:6f1c9c59-4c1d-4b8e-9d0b-0a6b3b0d7e11", key)

	t.Run("acquire and release", func(t *testing.T) {
		rdb := newFakeRedis()
		l := newRedisLocker(rdb, testclock.NewClock(time.Now()), Options{})

		release, err := l.Acquire(context.Background(), key)
		require.NoError(t, err)
		assert.Contains(t, rdb.held, key)

		release()
		release()
		assert.NotContains(t, rdb.held, key)
		assert.Equal(t, []string{key}, rdb.released)
	})

	t.Run("held lock without retries", func(t *testing.T) {
		rdb := newFakeRedis()
		rdb.held[key] = "someone-else"
		l := newRedisLocker(rdb, testclock.NewClock(time.Now()), Options{})

		_, err := l.Acquire(context.Background(), key)
		assert.ErrorIs(t, err, ErrLockHeld)
	})

	t.Run("release does not free a lock taken over by another holder", func(t *testing.T) {
		rdb := newFakeRedis()
		l := newRedisLocker(rdb, testclock.NewClock(time.Now()), Options{})

		release, err := l.Acquire(context.Background(), key)
		require.NoError(t, err)
		rdb.held[key] = "someone-else"
		release()
		assert.Equal(t, "someone-else", rdb.held[key])
	})

	t.Run("retries until the holder lets go", func(t *testing.T) {
		rdb := newFakeRedis()
		rdb.held[key] = "someone-else"
		rdb.freeAfter = 1
		clk := testclock.NewClock(time.Now())
		l := newRedisLocker(rdb, clk, Options{Retries: 3, RetryDelay: time.Second})

		done := make(chan error, 1)
		go func() {
			_, err := l.Acquire(context.Background(), key)
			done <- err
		}()

		require.NoError(t, clk.WaitAdvance(time.Second, 5*time.Second, 1))

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("acquire did not return")
		}
	})

	t.Run("redis errors are wrapped", func(t *testing.T) {
		rdb := newFakeRedis()
		rdb.setErr = errors.New("connection refused")
		l := newRedisLocker(rdb, testclock.NewClock(time.Now()), Options{})

		_, err := l.Acquire(context.Background(), key)
		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestNoopLocker(t *testing.T) {
	l := NewRedisLocker(nil, nil, Options{})
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	release()
}

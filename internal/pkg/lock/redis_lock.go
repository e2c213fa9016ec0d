package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when the lock could not be taken before the retries ran out.
var ErrLockHeld = errors.New("lock held by another request")

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

type ILocker interface {
	// Acquire blocks until the lock is taken, the retries run out or ctx is done.
	// The returned release func is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type Options struct {
	TTL        time.Duration
	Retries    int
	RetryDelay time.Duration
}

type redisLocker struct {
	rdb   redisClient
	clock clock.Clock
	opts  Options
}

// NewRedisLocker returns a locker backed by SET NX PX. A nil client gives a locker that
// always succeeds, which leaves serialisation to the database row locks.
func NewRedisLocker(rdb *redis.Client, clk clock.Clock, opts Options) ILocker {
	if rdb == nil {
		return noopLocker{}
	}
	return newRedisLocker(rdb, clk, opts)
}

func newRedisLocker(rdb redisClient, clk clock.Clock, opts Options) *redisLocker {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}
	return &redisLocker{rdb: rdb, clock: clk, opts: opts}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	for attempt := 0; ; attempt++ {
		ok, err := l.rdb.SetNX(ctx, key, token, l.opts.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return l.releaser(key, token), nil
		}
		if attempt >= l.opts.Retries {
			return nil, ErrLockHeld
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-l.clock.After(l.opts.RetryDelay):
		}
	}
}

func (l *redisLocker) releaser(key, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Detached from the request context so a cancelled request still frees the key.
		l.rdb.Eval(context.Background(), releaseScript, []string{key}, token)
	}
}

type noopLocker struct{}

func (noopLocker) Acquire(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}

// ApplicationKey is the lock key guarding one application's tree.
func ApplicationKey(applicationId uuid.UUID) string {
	return "withdrawal:application:" + applicationId.String()
}

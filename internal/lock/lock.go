// Package lock serializes bookings per professional and date.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNotAcquired is returned when the lock stays held past the wait budget.
var ErrNotAcquired = errors.New("lock not acquired")

// ReleaseFunc gives the lock back.
type ReleaseFunc func(ctx context.Context) error

// Locker hands out exclusive access to one (professional, date) pair.
type Locker interface {
	Acquire(ctx context.Context, professionalID, date string) (ReleaseFunc, error)
}

// ScheduleKey takes the place of a date when locking a professional's
// schedule document for a read-modify-write. It never parses as a date.
const ScheduleKey = "schedule"

// Key returns the redis key guarding professionalID on date.
func Key(professionalID, date string) string {
	return fmt.Sprintf("beautybook:lock:%s:%s", professionalID, date)
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a SET NX lease with a random token. Only the holder of the token
// can release it; a crashed holder loses the lease after TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
	logger *zerolog.Logger
}

func NewRedis(client *redis.Client, ttl, wait time.Duration, logger *zerolog.Logger) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Redis{client: client, ttl: ttl, wait: wait, poll: 50 * time.Millisecond, logger: logger}
}

func (l *Redis) Acquire(ctx context.Context, professionalID, date string) (ReleaseFunc, error) {
	key := Key(professionalID, date)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			l.logger.Debug().Str("key", key).Msg("lock acquired")
			return func(ctx context.Context) error {
				return l.release(ctx, key, token)
			}, nil
		}

		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		}
		select {
		case <-time.After(l.poll):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *Redis) release(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	if n == 0 {
		l.logger.Warn().Str("key", key).Msg("lock expired before release")
	}
	return nil
}

// Local is an in-process Locker for single-instance deployments.
type Local struct {
	mu    sync.Mutex
	slots map[string]*localSlot
	wait  time.Duration
}

// localSlot is dropped from the map once neither a holder nor a waiter
// references it.
type localSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocal(wait time.Duration) *Local {
	return &Local{slots: make(map[string]*localSlot), wait: wait}
}

func (l *Local) ref(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s.ch
}

func (l *Local) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs <= 0 {
		delete(l.slots, key)
	}
}

func (l *Local) Acquire(ctx context.Context, professionalID, date string) (ReleaseFunc, error) {
	key := Key(professionalID, date)
	ch := l.ref(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func(context.Context) error {
			once.Do(func() {
				<-ch
				l.unref(key)
			})
			return nil
		}, nil
	case <-timer.C:
		l.unref(key)
		return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	}
}

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"loancrm/pkg/id"
)

var ErrLockHeld = errors.New("lock already held")

// only the holder's token may delete the key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out short-lived exclusive locks backed by SET NX PX.
type Locker struct{ rdb *redis.Client }

func NewLocker(rdb *redis.Client) *Locker { return &Locker{rdb: rdb} }

// Acquire returns ErrLockHeld when another holder owns key. The returned
// release func is safe to call after the TTL has already expired.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := id.NewID32()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
	}
	return release, nil
}

// TryAcquire is Acquire with contention reported as ok=false instead of an error.
func (l *Locker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error) {
	release, err = l.Acquire(ctx, key, ttl)
	switch {
	case errors.Is(err, ErrLockHeld):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return release, true, nil
}

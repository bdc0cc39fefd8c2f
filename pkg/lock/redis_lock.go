package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script for owner-checked release: only the holder's token may delete the key
const luaCompareAndDelete = `
-- KEYS[1] = lock key
-- ARGV[1] = owner token
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

// Unlock releases a held lock. Releasing an expired or stolen lock is a no-op.
type Unlock func(ctx context.Context) error

// RedisLock is a best-effort mutual exclusion keyed by string. It expires after
// its TTL, so it must only ever short-circuit duplicate work, never guard an invariant.
type RedisLock struct {
	client redis.Cmdable
	token  func() string
}

func NewRedisLock(client redis.Cmdable) *RedisLock {
	return &RedisLock{client: client, token: uuid.NewString}
}

// WithTokenFunc overrides how owner tokens are generated
func (l *RedisLock) WithTokenFunc(fn func() string) *RedisLock {
	l.token = fn
	return l
}

// TryLock attempts to take key for ttl without waiting.
func (l *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, bool, error) {
	token := l.token()
	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		if err := l.client.Eval(ctx, luaCompareAndDelete, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}
	return unlock, true, nil
}

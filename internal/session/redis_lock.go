package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DefaultLockLease      = 30 * time.Second
	defaultLockRetryDelay = 20 * time.Millisecond
	releaseTimeout        = 2 * time.Second
)

// only the holder of the token may delete the lock
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// RedisLocker is a lease based lock shared by every replica that talks to the
// same Redis. The lease must outlast the longest critical section, otherwise a
// second holder can get in after it expires.
type RedisLocker struct {
	client     *redis.Client
	lease      time.Duration
	retryDelay time.Duration
}

func NewRedisLocker(client *redis.Client, lease time.Duration) *RedisLocker {
	if lease <= 0 {
		lease = DefaultLockLease
	}
	return &RedisLocker{
		client:     client,
		lease:      lease,
		retryDelay: defaultLockRetryDelay,
	}
}

// Lock polls until the lock for key is acquired or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := lockKey(key)
	token := uuid.NewString()

	for {
		acquired, err := l.client.SetNX(ctx, lockKey, token, l.lease).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquire session lock: %w", err)
		}
		if acquired {
			break
		}

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			err := releaseScript.Run(rctx, l.client, []string{lockKey}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				// the lease still frees the key eventually
				log.Warn().Err(err).Str("key", lockKey).Msg("failed to release session lock")
			}
		})
	}, nil
}

func lockKey(id string) string {
	return fmt.Sprintf("lock:session:%s", id)
}

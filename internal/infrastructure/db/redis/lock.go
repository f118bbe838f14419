package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultLockTTL     = 30 * time.Second
	defaultLockTimeout = 10 * time.Second
	lockRetryInterval  = 50 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// lockClient is the part of *redis.Client the lock uses.
type lockClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	redis.Scripter
}

// StoreLock serializes document updates across processes sharing one store.
// Key format: lock:<name>
type StoreLock struct {
	client  lockClient
	key     string
	ttl     time.Duration
	timeout time.Duration
	log     zerolog.Logger
}

// NewStoreLock creates a lock named name. ttl bounds how long a crashed holder
// can block others; timeout bounds how long Lock waits.
func NewStoreLock(client *redis.Client, name string, ttl, timeout time.Duration, log zerolog.Logger) *StoreLock {
	return newStoreLock(client, name, ttl, timeout, log)
}

func newStoreLock(client lockClient, name string, ttl, timeout time.Duration, log zerolog.Logger) *StoreLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	return &StoreLock{
		client:  client,
		key:     "lock:" + name,
		ttl:     ttl,
		timeout: timeout,
		log:     log,
	}
}

// Lock blocks until the lock is held, the timeout elapses or ctx is done.
func (l *StoreLock) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", l.key, err)
		}
		if ok {
			return func() { l.release(token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire %s: %w", l.key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *StoreLock) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
		l.log.Warn().Err(err).Str("key", l.key).Msg("failed to release store lock")
	}
}

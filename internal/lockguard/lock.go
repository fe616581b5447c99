package lockguard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// ErrLockHeld is returned when another writer currently holds the key.
var ErrLockHeld = errors.New("lock_already_held")

// Locker guards non-idempotent booking writes with a short-lived redis lock.
// A nil Locker is valid and grants every acquisition, so deployments
// without redis fall back to the database constraints alone.
type Locker struct {
	client *redis.Client
	script *redis.Script
	ttl    time.Duration
}

func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		ttl:    ttl,
	}
}

// Acquire takes the lock for key and returns the release token.
// It returns ErrLockHeld when the key is already taken.
func (l *Locker) Acquire(ctx context.Context, key string) (string, error) {
	if l == nil || l.client == nil {
		return "", nil
	}
	if key == "" {
		return "", errors.New("lock key is empty")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

// Release drops the lock only when token still owns it.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

// Package lock provides named, expiring mutual exclusion: per-account search
// locks and the janitor's run lock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "verificapessoa:lock:"

// ErrNotHeld is returned by Extend when the lock belongs to someone else or
// has expired.
var ErrNotHeld = errors.New("lock not held")

// Locker acquires and releases named locks.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

var (
	_ Locker = (*Redis)(nil)
	_ Locker = (*Local)(nil)
)

// SearchLockName is the lock held while an account's search runs.
func SearchLockName(accountID string) string { return "search:" + accountID }

// Redis implements Locker with SET NX and an owner token.
type Redis struct {
	client  redis.UniversalClient
	ownerID string
}

func NewRedis(client redis.UniversalClient) *Redis {
	host, _ := os.Hostname()
	return &Redis{client: client, ownerID: fmt.Sprintf("%s:%d:%s", host, os.Getpid(), uuid.NewString())}
}

func (l *Redis) OwnerID() string { return l.ownerID }

func (l *Redis) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, keyPrefix+name, l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Release deletes the lock only if this owner holds it.
func (l *Redis) Release(ctx context.Context, name string) error {
	err := releaseScript.Run(ctx, l.client, []string{keyPrefix + name}, l.ownerID).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// Extend pushes the expiry of a held lock.
func (l *Redis) Extend(ctx context.Context, name string, ttl time.Duration) error {
	n, err := extendScript.Run(ctx, l.client, []string{keyPrefix + name}, l.ownerID, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("extend lock %s: %w", name, ErrNotHeld)
	}
	return nil
}

// Local is an in-process Locker for single-instance deployments without
// Redis.
type Local struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewLocal() *Local {
	return &Local{expires: make(map[string]time.Time), now: time.Now}
}

func (l *Local) Acquire(_ context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if exp, ok := l.expires[name]; ok && now.Before(exp) {
		return false, nil
	}
	l.expires[name] = now.Add(ttl)
	return true, nil
}

func (l *Local) Release(_ context.Context, name string) error {
	l.mu.Lock()
	delete(l.expires, name)
	l.mu.Unlock()
	return nil
}

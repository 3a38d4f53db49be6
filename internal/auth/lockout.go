package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"credencia/pkg/requestcontext"
)

// Lockout thresholds. Five wrong passwords lock the account name for
// fifteen minutes.
const (
	LockoutThreshold = 5
	LockoutWindow    = 15 * time.Minute
)

// Lockout throttles repeated failed logins per account name.
type Lockout interface {
	// Locked reports whether the account is currently locked out.
	Locked(ctx context.Context, username string) (bool, error)
	// RecordFailure registers one failed attempt.
	RecordFailure(ctx context.Context, username string) error
	// Clear resets the counter after a successful login.
	Clear(ctx context.Context, username string) error
}

// MemoryLockout is the single-instance fallback.
type MemoryLockout struct {
	mu       sync.Mutex
	failures map[string][]time.Time
}

func NewMemoryLockout() *MemoryLockout {
	return &MemoryLockout{failures: make(map[string][]time.Time)}
}

func (l *MemoryLockout) Locked(ctx context.Context, username string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(ctx, username)) >= LockoutThreshold, nil
}

func (l *MemoryLockout) RecordFailure(ctx context.Context, username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[username] = append(l.recent(ctx, username), requestcontext.Now(ctx))
	return nil
}

func (l *MemoryLockout) Clear(_ context.Context, username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, username)
	return nil
}

// recent drops attempts older than the window. Callers hold the lock.
func (l *MemoryLockout) recent(ctx context.Context, username string) []time.Time {
	cutoff := requestcontext.Now(ctx).Add(-LockoutWindow)
	var kept []time.Time
	for _, at := range l.failures[username] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	l.failures[username] = kept
	return kept
}

// RedisLockout shares the counter across instances.
type RedisLockout struct {
	client *redis.Client
}

func NewRedisLockout(client *redis.Client) *RedisLockout {
	return &RedisLockout{client: client}
}

func (l *RedisLockout) key(username string) string {
	return "auth:lockout:" + username
}

func (l *RedisLockout) Locked(ctx context.Context, username string) (bool, error) {
	count, err := l.client.Get(ctx, l.key(username)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lockout get: %w", err)
	}
	return count >= LockoutThreshold, nil
}

func (l *RedisLockout) RecordFailure(ctx context.Context, username string) error {
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, l.key(username))
	pipe.Expire(ctx, l.key(username), LockoutWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("lockout incr: %w", err)
	}
	return nil
}

func (l *RedisLockout) Clear(ctx context.Context, username string) error {
	if err := l.client.Del(ctx, l.key(username)).Err(); err != nil {
		return fmt.Errorf("lockout clear: %w", err)
	}
	return nil
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLockoutWindow = 15 * time.Minute

// LockoutStore counts failed login attempts per account in Redis.
// Key format: lockout:<account_id>
// The counter expires after the window, so lockouts clear themselves.
type LockoutStore struct {
	client *redis.Client
	window time.Duration
}

// NewLockoutStore creates a LockoutStore wrapping the given Redis client.
// A default window is applied when none is provided.
func NewLockoutStore(client *redis.Client, window time.Duration) *LockoutStore {
	if window <= 0 {
		window = defaultLockoutWindow
	}
	return &LockoutStore{client: client, window: window}
}

// Failures returns the number of failed attempts recorded within the window.
func (s *LockoutStore) Failures(ctx context.Context, accountID string) (int, error) {
	n, err := s.client.Get(ctx, s.key(accountID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lockout get: %w", err)
	}
	return n, nil
}

// RecordFailure increments the counter and refreshes its expiry.
func (s *LockoutStore) RecordFailure(ctx context.Context, accountID string) error {
	key := s.key(accountID)
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("lockout incr: %w", err)
	}
	return nil
}

// Clear removes the counter, typically after a successful verification.
func (s *LockoutStore) Clear(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, s.key(accountID)).Err(); err != nil {
		return fmt.Errorf("lockout clear: %w", err)
	}
	return nil
}

func (s *LockoutStore) key(accountID string) string {
	return fmt.Sprintf("lockout:%s", accountID)
}

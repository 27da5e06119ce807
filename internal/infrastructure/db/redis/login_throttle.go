package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
)

// LoginThrottle counts failed admin logins per client.
// Key format: login_fail:<client>
// The counter expires window after the first failure, so a client is locked
// out for at most one window.
type LoginThrottle struct {
	client      redis.Cmdable
	maxAttempts int64
	window      time.Duration
}

// NewLoginThrottle wraps client. Non-positive limits fall back to 5 attempts
// per 15 minutes.
func NewLoginThrottle(client redis.Cmdable, maxAttempts int, window time.Duration) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &LoginThrottle{client: client, maxAttempts: int64(maxAttempts), window: window}
}

// Allow reports whether the client still has attempts left.
func (t *LoginThrottle) Allow(ctx context.Context, clientKey string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(clientKey)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("throttle check: %w", err)
	}
	return n < t.maxAttempts, nil
}

// RecordFailure increments the failure counter, starting the window on the
// first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, clientKey string) error {
	key := t.key(clientKey)
	n, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("throttle record: %w", err)
	}
	if n == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			return fmt.Errorf("throttle expire: %w", err)
		}
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, clientKey string) error {
	if err := t.client.Del(ctx, t.key(clientKey)).Err(); err != nil {
		return fmt.Errorf("throttle reset: %w", err)
	}
	return nil
}

func (t *LoginThrottle) key(clientKey string) string {
	return "login_fail:" + clientKey
}

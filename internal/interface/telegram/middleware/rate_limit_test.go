package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCounter struct {
	counts  map[string]int64
	incrErr error
	expires map[string]time.Duration
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Duration),
	}
}

func (f *fakeCounter) Incr(_ context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounter) Expire(_ context.Context, key string, ttl time.Duration) error {
	f.expires[key] = ttl
	return nil
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	counter := newFakeCounter()
	cfg := DefaultRateLimitConfig()
	cfg.RequestsPerWindow = 3
	rl := NewRateLimiter(counter, cfg)

	for i := 0; i < 3; i++ {
		result := rl.Check(context.Background(), 42, "message")
		assert.True(t, result.Allowed)
		assert.Equal(t, 2-i, result.Remaining)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	counter := newFakeCounter()
	cfg := DefaultRateLimitConfig()
	cfg.RequestsPerWindow = 2
	rl := NewRateLimiter(counter, cfg)
	ctx := context.Background()

	rl.Check(ctx, 42, "message")
	rl.Check(ctx, 42, "message")
	result := rl.Check(ctx, 42, "message")

	assert.False(t, result.Allowed)
	assert.Equal(t, cfg.Window, result.RetryAfter)
	assert.Contains(t, result.ResponseMessage, "Too many requests!")
}

func TestRateLimiter_WindowExpirySetOnFirstHit(t *testing.T) {
	counter := newFakeCounter()
	cfg := DefaultRateLimitConfig()
	cfg.Window = 30 * time.Second
	rl := NewRateLimiter(counter, cfg)
	ctx := context.Background()

	rl.Check(ctx, 42, "message")
	rl.Check(ctx, 42, "message")

	assert.Len(t, counter.expires, 1)
	for _, ttl := range counter.expires {
		assert.Equal(t, 30*time.Second, ttl)
	}
}

func TestRateLimiter_SeparateKeysPerUserAndAction(t *testing.T) {
	counter := newFakeCounter()
	cfg := DefaultRateLimitConfig()
	cfg.RequestsPerWindow = 1
	rl := NewRateLimiter(counter, cfg)
	ctx := context.Background()

	assert.True(t, rl.Check(ctx, 1, "message").Allowed)
	assert.True(t, rl.Check(ctx, 2, "message").Allowed)
	assert.True(t, rl.Check(ctx, 1, "callback").Allowed)
	assert.False(t, rl.Check(ctx, 1, "message").Allowed)
}

func TestRateLimiter_WhitelistBypassesCounter(t *testing.T) {
	counter := newFakeCounter()
	cfg := DefaultRateLimitConfig()
	cfg.RequestsPerWindow = 1
	cfg.WhitelistedUsers = map[int64]bool{42: true}
	rl := NewRateLimiter(counter, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Check(ctx, 42, "message").Allowed)
	}
	assert.Empty(t, counter.counts)
}

func TestRateLimiter_FailsOpenOnCounterError(t *testing.T) {
	counter := newFakeCounter()
	counter.incrErr = errors.New("redis down")
	cfg := DefaultRateLimitConfig()
	cfg.RequestsPerWindow = 1
	rl := NewRateLimiter(counter, cfg)

	result := rl.Check(context.Background(), 42, "message")
	assert.True(t, result.Allowed)
}

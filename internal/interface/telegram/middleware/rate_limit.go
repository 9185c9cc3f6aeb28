package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER MIDDLEWARE
// Protects the bot from spam and abuse using a fixed-window counter backed by
// Redis, so limits hold across restarts and replicas. Philosophy: be gentle
// with legitimate users who might accidentally send multiple messages, but
// firm with actual spammers.
// ══════════════════════════════════════════════════════════════════════════════

// WindowCounter is the counter store the rate limiter runs on.
// The Redis cache satisfies this interface.
type WindowCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	// RequestsPerWindow is the maximum number of requests per user per window.
	RequestsPerWindow int

	// Window is the length of the counting window.
	Window time.Duration

	// KeyFunc builds the counter key for a user and action.
	KeyFunc func(telegramID int64, action string) string

	// WhitelistedUsers are users exempt from rate limiting (e.g., admins).
	WhitelistedUsers map[int64]bool

	// OnRateLimited is called when a user hits the rate limit.
	// Returns the message to send to the user.
	OnRateLimited func(telegramID int64, retryAfter time.Duration) string

	// Logger receives counter store failures.
	Logger *slog.Logger
}

// DefaultRateLimitConfig returns sensible defaults for rate limiting.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: 20,
		Window:            time.Minute,
		WhitelistedUsers:  make(map[int64]bool),
		OnRateLimited: func(telegramID int64, retryAfter time.Duration) string {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			return fmt.Sprintf(
				"⏳ Too many requests!\n\n"+
					"Please wait %d seconds and try again.",
				seconds,
			)
		},
		Logger: slog.Default(),
	}
}

// RateLimiter implements per-user rate limiting over a shared counter store.
type RateLimiter struct {
	config  RateLimitConfig
	counter WindowCounter
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(counter WindowCounter, config RateLimitConfig) *RateLimiter {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.KeyFunc == nil {
		config.KeyFunc = func(telegramID int64, action string) string {
			return fmt.Sprintf("ratelimit:%d:%s", telegramID, action)
		}
	}
	return &RateLimiter{
		config:  config,
		counter: counter,
	}
}

// RateLimitResult represents the result of a rate limit check.
type RateLimitResult struct {
	// Allowed indicates if the request is allowed.
	Allowed bool

	// RetryAfter is how long the user should wait before retrying.
	RetryAfter time.Duration

	// ResponseMessage is the message to send if rate limited.
	ResponseMessage string

	// Remaining is the number of requests left in the current window.
	Remaining int
}

// Check checks if a request from the given user is allowed.
// On counter store failure the request is allowed: losing rate limiting for a
// moment is better than locking every user out.
func (rl *RateLimiter) Check(ctx context.Context, telegramID int64, action string) *RateLimitResult {
	if rl.config.WhitelistedUsers[telegramID] {
		return &RateLimitResult{
			Allowed:   true,
			Remaining: rl.config.RequestsPerWindow,
		}
	}

	key := rl.config.KeyFunc(telegramID, action)

	count, err := rl.counter.Incr(ctx, key)
	if err != nil {
		rl.config.Logger.Warn("rate limit counter unavailable, allowing request",
			"telegram_id", telegramID,
			"error", err,
		)
		return &RateLimitResult{Allowed: true, Remaining: rl.config.RequestsPerWindow}
	}

	// First hit in the window starts the expiry clock.
	if count == 1 {
		if err := rl.counter.Expire(ctx, key, rl.config.Window); err != nil {
			rl.config.Logger.Warn("failed to set rate limit window expiry",
				"telegram_id", telegramID,
				"error", err,
			)
		}
	}

	if count > int64(rl.config.RequestsPerWindow) {
		retryAfter := rl.config.Window
		return &RateLimitResult{
			Allowed:         false,
			RetryAfter:      retryAfter,
			ResponseMessage: rl.config.OnRateLimited(telegramID, retryAfter),
		}
	}

	return &RateLimitResult{
		Allowed:   true,
		Remaining: rl.config.RequestsPerWindow - int(count),
	}
}

// Package middleware contains Telegram bot middlewares for update processing.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST CONTEXT
// Every incoming update gets a request ID so that all log lines produced while
// handling it can be correlated.
// ══════════════════════════════════════════════════════════════════════════════

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDContextKey is the context key for request tracing.
	RequestIDContextKey contextKey = "request_id"

	// TelegramIDContextKey is the context key for the Telegram user ID.
	TelegramIDContextKey contextKey = "telegram_id"

	// StartTimeContextKey is the context key for request start time.
	StartTimeContextKey contextKey = "start_time"
)

// WithRequestID attaches a fresh request ID and start time to the context.
func WithRequestID(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, RequestIDContextKey, uuid.NewString())
	return context.WithValue(ctx, StartTimeContextKey, time.Now())
}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// WithTelegramID attaches the Telegram user ID to the context.
func WithTelegramID(ctx context.Context, telegramID int64) context.Context {
	return context.WithValue(ctx, TelegramIDContextKey, telegramID)
}

// TelegramIDFromContext extracts the Telegram user ID from the context.
func TelegramIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(TelegramIDContextKey).(int64)
	return id, ok
}

// RequestLogger returns a logger annotated with the request metadata
// carried in the context.
func RequestLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	logger := base
	if id := RequestIDFromContext(ctx); id != "" {
		logger = logger.With("request_id", id)
	}
	if telegramID, ok := TelegramIDFromContext(ctx); ok {
		logger = logger.With("telegram_id", telegramID)
	}
	return logger
}

// RequestDuration returns the time elapsed since the request started,
// or zero if no start time was recorded.
func RequestDuration(ctx context.Context) time.Duration {
	start, ok := ctx.Value(StartTimeContextKey).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}

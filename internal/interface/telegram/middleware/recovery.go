package middleware

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Catches panics in handlers and converts them to user-friendly error messages.
// Philosophy: Never show scary stack traces to users, but make sure we log
// everything for debugging. The bot must stay responsive even if handlers crash.
// ══════════════════════════════════════════════════════════════════════════════

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// EnableStackTrace enables capturing stack traces (can be memory intensive).
	EnableStackTrace bool

	// OnPanic is called when a panic is recovered.
	// This is where you would send alerts to monitoring systems.
	OnPanic func(ctx context.Context, panicInfo *PanicInfo)

	// UserErrorMessage is the message sent to users when a panic occurs.
	UserErrorMessage string

	// Logger receives structured panic reports.
	Logger *slog.Logger

	// MaxPanicsPerMinute limits how many panics to process per minute
	// to prevent cascading failures.
	MaxPanicsPerMinute int
}

// DefaultRecoveryConfig returns sensible defaults for recovery middleware.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		EnableStackTrace: true,
		OnPanic:          nil, // Set your own handler
		UserErrorMessage: "😔 Something went wrong on my side. " +
			"Please try again in a moment.",
		Logger:             slog.Default(),
		MaxPanicsPerMinute: 100,
	}
}

// PanicInfo contains information about a recovered panic.
type PanicInfo struct {
	// Error is the panic value converted to error.
	Error error

	// PanicValue is the raw panic value.
	PanicValue interface{}

	// StackTrace is the formatted stack trace.
	StackTrace string

	// RequestID is the request ID from context (if available).
	RequestID string

	// TelegramID is the Telegram user ID (if available).
	TelegramID int64

	// Command is the command that was being processed (if available).
	Command string

	// Timestamp is when the panic occurred.
	Timestamp time.Time

	// Goroutine is the ID of the goroutine that panicked.
	Goroutine int
}

// String returns a formatted string representation of the panic info.
func (p *PanicInfo) String() string {
	var buf bytes.Buffer
	buf.WriteString("=== PANIC RECOVERED ===\n")
	buf.WriteString(fmt.Sprintf("Time:       %s\n", p.Timestamp.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("Goroutine:  %d\n", p.Goroutine))
	if p.RequestID != "" {
		buf.WriteString(fmt.Sprintf("RequestID:  %s\n", p.RequestID))
	}
	if p.TelegramID != 0 {
		buf.WriteString(fmt.Sprintf("TelegramID: %d\n", p.TelegramID))
	}
	if p.Command != "" {
		buf.WriteString(fmt.Sprintf("Command:    %s\n", p.Command))
	}
	buf.WriteString(fmt.Sprintf("Error:      %v\n", p.PanicValue))
	if p.StackTrace != "" {
		buf.WriteString("\nStack Trace:\n")
		buf.WriteString(p.StackTrace)
	}
	buf.WriteString("========================\n")
	return buf.String()
}

// RecoveryMiddleware recovers from panics and provides error handling.
type RecoveryMiddleware struct {
	config       RecoveryConfig
	panicCounter *panicRateLimiter
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(config RecoveryConfig) *RecoveryMiddleware {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RecoveryMiddleware{
		config:       config,
		panicCounter: newPanicRateLimiter(config.MaxPanicsPerMinute),
	}
}

// RecoveryResult represents the result of handling a panic.
type RecoveryResult struct {
	// Recovered indicates if a panic was recovered.
	Recovered bool

	// PanicInfo contains panic details (if recovered).
	PanicInfo *PanicInfo

	// UserMessage is the message to show to the user.
	UserMessage string
}

// RecoverWithHandler executes a handler and recovers from any panics.
// This is the main entry point for the middleware.
func (m *RecoveryMiddleware) RecoverWithHandler(
	ctx context.Context,
	telegramID int64,
	command string,
	handler func() error,
) (result *RecoveryResult, err error) {
	ctx = WithTelegramID(ctx, telegramID)

	func() {
		defer func() {
			if r := recover(); r != nil {
				result = m.handlePanic(ctx, r, telegramID, command)
			}
		}()
		err = handler()
	}()

	if result != nil {
		return result, nil
	}
	return &RecoveryResult{Recovered: false}, err
}

// handlePanic processes a recovered panic.
func (m *RecoveryMiddleware) handlePanic(
	ctx context.Context,
	panicValue interface{},
	telegramID int64,
	command string,
) *RecoveryResult {
	// Rate limit panic processing
	if !m.panicCounter.allow() {
		return &RecoveryResult{
			Recovered:   true,
			UserMessage: m.config.UserErrorMessage,
		}
	}

	panicInfo := &PanicInfo{
		Error:      toError(panicValue),
		PanicValue: panicValue,
		Timestamp:  time.Now(),
		Goroutine:  getGoroutineID(),
		TelegramID: telegramID,
		Command:    command,
		RequestID:  RequestIDFromContext(ctx),
	}

	if m.config.EnableStackTrace {
		panicInfo.StackTrace = string(debug.Stack())
	}

	m.config.Logger.Error("panic recovered in handler",
		"error", panicInfo.Error,
		"request_id", panicInfo.RequestID,
		"telegram_id", panicInfo.TelegramID,
		"command", panicInfo.Command,
		"goroutine", panicInfo.Goroutine,
		"stack", panicInfo.StackTrace,
	)

	if m.config.OnPanic != nil {
		m.config.OnPanic(ctx, panicInfo)
	}

	return &RecoveryResult{
		Recovered:   true,
		PanicInfo:   panicInfo,
		UserMessage: m.config.UserErrorMessage,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

// toError converts a panic value to an error.
func toError(panicValue interface{}) error {
	switch v := panicValue.(type) {
	case error:
		return v
	case string:
		return fmt.Errorf("%s", v)
	default:
		return fmt.Errorf("panic: %v", v)
	}
}

// getGoroutineID returns the current goroutine ID (for debugging only).
// Note: This is not officially supported by Go and should only be used for debugging.
func getGoroutineID() int {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id int
	fmt.Sscanf(string(buf[:n]), "goroutine %d ", &id)
	return id
}

// ══════════════════════════════════════════════════════════════════════════════
// PANIC RATE LIMITER
// Prevents cascading failures by limiting how many panics we process.
// ══════════════════════════════════════════════════════════════════════════════

type panicRateLimiter struct {
	mu        sync.Mutex
	count     int
	maxPerMin int
	window    time.Time
}

func newPanicRateLimiter(maxPerMin int) *panicRateLimiter {
	return &panicRateLimiter{
		maxPerMin: maxPerMin,
		window:    time.Now(),
	}
}

func (p *panicRateLimiter) allow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()

	// Reset counter if minute has passed
	if now.Sub(p.window) > time.Minute {
		p.count = 0
		p.window = now
	}

	if p.count >= p.maxPerMin {
		return false
	}

	p.count++
	return true
}

// Package anthropic implements the Claude Messages API client used as the
// primary response path. The client is resilient by construction: transient
// failures are retried, a persistently failing provider opens a circuit
// breaker, and every failure surfaces as *ProviderError so the response
// generator can degrade to its rule-based path instead of propagating.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/polyglot-tutor/polyglot-tutor-bot/pkg/circuitbreaker"
	"github.com/polyglot-tutor/polyglot-tutor-bot/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// ProviderError indicates the LLM provider failed: transport, auth,
// rate-limit, or a malformed response.
type ProviderError struct {
	// StatusCode is the HTTP status code, 0 for transport errors.
	StatusCode int

	// Message describes the failure.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("anthropic: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("anthropic: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError checks whether err is a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the Claude client.
type Config struct {
	// APIKey is the Anthropic API key. An empty key means the provider is
	// absent and the bot runs on rule-based responses only.
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model identifier.
	Model string

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls response randomness.
	Temperature float64

	// Timeout bounds a single API call. A hanging provider must not stall
	// unrelated sessions.
	Timeout time.Duration

	// RetryAttempts is the number of attempts for transient failures.
	RetryAttempts int

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:        apiKey,
		BaseURL:       "https://api.anthropic.com",
		Model:         "claude-3-5-sonnet-20241022",
		MaxTokens:     1000,
		Temperature:   0.7,
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// API TYPES
// ══════════════════════════════════════════════════════════════════════════════

// messageRequest is the Messages API request body.
type messageRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

// chatMessage is a single conversation turn.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messageResponse is the Messages API response body.
type messageResponse struct {
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

// contentBlock is one block of response content.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// apiError is the error payload returned on non-2xx responses.
type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client calls the Claude Messages API.
type Client struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a new Claude client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = 3
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "anthropic_client")

	breaker := circuitbreaker.New("anthropic",
		circuitbreaker.WithIsFailure(func(err error) bool {
			// Caller-side cancellations must not open the circuit.
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
	)

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		retrier: retry.New(
			retry.WithMaxAttempts(config.RetryAttempts),
			retry.WithInitialDelay(500*time.Millisecond),
		),
		breaker: breaker,
		logger:  logger,
	}
}

// Available reports whether the provider is configured.
func (c *Client) Available() bool {
	return c != nil && c.config.APIKey != ""
}

// Complete sends the system prompt and the user's question as the sole user
// turn, and returns the model's text verbatim.
func (c *Client) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	if !c.Available() {
		return "", &ProviderError{Message: "provider not configured"}
	}

	var result string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			text, err := c.complete(ctx, systemPrompt, userText)
			if err != nil {
				return err
			}
			result = text
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return "", &ProviderError{Message: "provider temporarily disabled", Err: err}
		}
		var pe *ProviderError
		if errors.As(err, &pe) {
			return "", pe
		}
		return "", &ProviderError{Message: "request failed", Err: err}
	}
	return result, nil
}

// complete performs a single API call.
func (c *Client) complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	body, err := json.Marshal(messageRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		System:      systemPrompt,
		Messages: []chatMessage{
			{Role: "user", Content: userText},
		},
	})
	if err != nil {
		return "", retry.Permanent(&ProviderError{Message: "failed to encode request", Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(&ProviderError{Message: "failed to build request", Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.config.APIKey)
	req.Header.Set("Anthropic-Version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", retry.Retryable(&ProviderError{Message: "transport error", Err: err})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", retry.Retryable(&ProviderError{Message: "failed to read response", Err: err})
	}

	if resp.StatusCode != http.StatusOK {
		perr := &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    apiErrorMessage(data),
		}
		// Rate limits and server errors are transient; auth and bad
		// requests are not.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", retry.Retryable(perr)
		}
		return "", retry.Permanent(perr)
	}

	var parsed messageResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", retry.Permanent(&ProviderError{Message: "failed to decode response", Err: err})
	}

	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}

	return "", retry.Permanent(&ProviderError{Message: "response contained no text content"})
}

// apiErrorMessage extracts the error message from an error payload.
func apiErrorMessage(data []byte) string {
	var parsed messageResponse
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error != nil {
		return parsed.Error.Message
	}
	return "unexpected response status"
}

// Package translate implements the machine-translation client used by the
// rule-based response path. It targets a LibreTranslate-compatible HTTP API.
// Failures surface as *TranslationError; the caller returns untranslated text
// rather than failing the whole response.
package translate

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
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// TranslationError indicates the translation backend failed: unsupported
// language pair, transport, or a malformed response.
type TranslationError struct {
	// StatusCode is the HTTP status code, 0 for transport errors.
	StatusCode int

	// Message describes the failure.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *TranslationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("translate: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("translate: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *TranslationError) Unwrap() error {
	return e.Err
}

// IsTranslationError checks whether err is a TranslationError.
func IsTranslationError(err error) bool {
	var te *TranslationError
	return errors.As(err, &te)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the translation client.
type Config struct {
	// BaseURL is the LibreTranslate instance URL.
	BaseURL string

	// APIKey is the optional API key.
	APIKey string

	// Timeout bounds a single translation call.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 15 * time.Second,
	}
}

// translateRequest is the request body for /translate.
type translateRequest struct {
	Query  string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

// translateResponse is the response body from /translate.
type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// Client calls a LibreTranslate-compatible API.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new translation client.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.With("component", "translate_client"),
	}
}

// Translate translates text from sourceLang to targetLang.
// Language codes are ISO 639-1 ("en", "es", "fr").
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if c.config.BaseURL == "" {
		return "", &TranslationError{Message: "translator not configured"}
	}
	if sourceLang == targetLang {
		return text, nil
	}

	body, err := json.Marshal(translateRequest{
		Query:  text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
		APIKey: c.config.APIKey,
	})
	if err != nil {
		return "", &TranslationError{Message: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", &TranslationError{Message: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TranslationError{Message: "transport error", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &TranslationError{Message: "failed to read response", Err: err}
	}

	var parsed translateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &TranslationError{StatusCode: resp.StatusCode, Message: "failed to decode response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		msg := parsed.Error
		if msg == "" {
			msg = "unexpected response status"
		}
		return "", &TranslationError{StatusCode: resp.StatusCode, Message: msg}
	}

	if parsed.TranslatedText == "" {
		return "", &TranslationError{Message: "empty translation"}
	}

	return parsed.TranslatedText, nil
}

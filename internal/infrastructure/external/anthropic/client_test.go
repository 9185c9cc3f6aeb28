package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(baseURL string) *Client {
	cfg := DefaultConfig("test-key")
	cfg.BaseURL = baseURL
	cfg.Timeout = 2 * time.Second
	cfg.RetryAttempts = 1
	return NewClient(cfg)
}

func TestAvailable(t *testing.T) {
	assert.True(t, NewClient(DefaultConfig("key")).Available())
	assert.False(t, NewClient(DefaultConfig("")).Available())

	var nilClient *Client
	assert.False(t, nilClient.Available())
}

func TestComplete_Success(t *testing.T) {
	var gotRequest messageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("Anthropic-Version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		json.NewEncoder(w).Encode(messageResponse{
			Content: []contentBlock{{Type: "text", Text: "Plants use sunlight."}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	reply, err := client.Complete(context.Background(), "You are a tutor.", "How do plants grow?")

	assert.NoError(t, err)
	assert.Equal(t, "Plants use sunlight.", reply)
	assert.Equal(t, "You are a tutor.", gotRequest.System)
	assert.Len(t, gotRequest.Messages, 1)
	assert.Equal(t, "user", gotRequest.Messages[0].Role)
	assert.Equal(t, "How do plants grow?", gotRequest.Messages[0].Content)
}

func TestComplete_NotConfigured(t *testing.T) {
	client := NewClient(DefaultConfig(""))

	_, err := client.Complete(context.Background(), "sys", "question")
	assert.Error(t, err)

	var pe *ProviderError
	assert.ErrorAs(t, err, &pe)
}

func TestComplete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(messageResponse{
			Error: &apiError{Type: "authentication_error", Message: "invalid api key"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), "sys", "question")

	var pe *ProviderError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
	assert.Contains(t, pe.Error(), "invalid api key")
}

func TestComplete_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(messageResponse{
			Content: []contentBlock{{Type: "text", Text: "second try"}},
		})
	}))
	defer server.Close()

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = server.URL
	cfg.RetryAttempts = 2
	client := NewClient(cfg)

	reply, err := client.Complete(context.Background(), "sys", "question")
	assert.NoError(t, err)
	assert.Equal(t, "second try", reply)
	assert.Equal(t, 2, attempts)
}

func TestComplete_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(messageResponse{
			Error: &apiError{Type: "invalid_request_error", Message: "bad request"},
		})
	}))
	defer server.Close()

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = server.URL
	cfg.RetryAttempts = 3
	client := NewClient(cfg)

	_, err := client.Complete(context.Background(), "sys", "question")
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestComplete_NoTextContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(messageResponse{
			Content: []contentBlock{{Type: "tool_use"}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), "sys", "question")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslate_Success(t *testing.T) {
	var gotRequest translateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		json.NewEncoder(w).Encode(translateResponse{TranslatedText: "¡Buena pregunta!"})
	}))
	defer server.Close()

	client := NewClient(DefaultConfig(server.URL))
	translated, err := client.Translate(context.Background(), "Great question!", "en", "es")

	assert.NoError(t, err)
	assert.Equal(t, "¡Buena pregunta!", translated)
	assert.Equal(t, "Great question!", gotRequest.Query)
	assert.Equal(t, "en", gotRequest.Source)
	assert.Equal(t, "es", gotRequest.Target)
	assert.Equal(t, "text", gotRequest.Format)
}

func TestTranslate_SameLanguageIsNoop(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(DefaultConfig(server.URL))
	translated, err := client.Translate(context.Background(), "hello", "en", "en")

	assert.NoError(t, err)
	assert.Equal(t, "hello", translated)
	assert.False(t, called)
}

func TestTranslate_NotConfigured(t *testing.T) {
	client := NewClient(DefaultConfig(""))

	_, err := client.Translate(context.Background(), "hello", "en", "es")

	var te *TranslationError
	assert.ErrorAs(t, err, &te)
	assert.Contains(t, te.Error(), "not configured")
}

func TestTranslate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(translateResponse{Error: "unsupported language pair"})
	}))
	defer server.Close()

	client := NewClient(DefaultConfig(server.URL))
	_, err := client.Translate(context.Background(), "hello", "en", "xx")

	var te *TranslationError
	assert.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
	assert.Contains(t, te.Error(), "unsupported language pair")
}

func TestTranslate_EmptyTranslation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(translateResponse{TranslatedText: ""})
	}))
	defer server.Close()

	client := NewClient(DefaultConfig(server.URL))
	_, err := client.Translate(context.Background(), "hello", "en", "es")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty translation")
}

package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func commandMessage(text string) *Message {
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	return &Message{
		Text:     text,
		Entities: []MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func TestExtractCommand(t *testing.T) {
	assert.Equal(t, "start", ExtractCommand(commandMessage("/start")))
	assert.Equal(t, "help", ExtractCommand(commandMessage("/help some args")))
	assert.Equal(t, "progress", ExtractCommand(commandMessage("/progress@tutor_bot")))
	assert.Equal(t, "", ExtractCommand(&Message{Text: "just text"}))
	assert.Equal(t, "", ExtractCommand(nil))
}

func TestExtractCommandArgs(t *testing.T) {
	assert.Equal(t, "algebra basics", ExtractCommandArgs(commandMessage("/goals algebra basics")))
	assert.Equal(t, "", ExtractCommandArgs(commandMessage("/goals")))
	assert.Equal(t, "", ExtractCommandArgs(nil))
}

func TestIsPrivateChat(t *testing.T) {
	assert.True(t, IsPrivateChat(&Message{Chat: &Chat{Type: "private"}}))
	assert.False(t, IsPrivateChat(&Message{Chat: &Chat{Type: "group"}}))
	assert.False(t, IsPrivateChat(nil))
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Bob", (&User{FirstName: "Bob"}).FullName())
	assert.Equal(t, "Bob Smith", (&User{FirstName: "Bob", LastName: "Smith"}).FullName())
}

func TestKeyboardBuilder(t *testing.T) {
	markup := NewKeyboard().
		Row(Button("Yes", "confirm_yes"), Button("No", "confirm_no")).
		Row(URLButton("Docs", "https://example.com")).
		Build()

	assert.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "confirm_yes", markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "https://example.com", markup.InlineKeyboard[1][0].URL)
}

func newTestServer(t *testing.T, handler func(method string, body map[string]interface{}) (interface{}, *APIResponse)) (*httptest.Server, *Client) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// URL shape: /bot<token>/<method>
		method := r.URL.Path[len("/bottest-token/"):]

		var body map[string]interface{}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		result, apiResp := handler(method, body)
		if apiResp == nil {
			raw, err := json.Marshal(result)
			assert.NoError(t, err)
			apiResp = &APIResponse{OK: true, Result: raw}
		}
		json.NewEncoder(w).Encode(apiResp)
	}))

	cfg := DefaultClientConfig("test-token")
	cfg.BaseURL = server.URL
	cfg.Timeout = 2 * time.Second
	cfg.RetryAttempts = 0
	return server, NewClient(cfg)
}

func TestSendMessage(t *testing.T) {
	var gotMethod string
	var gotBody map[string]interface{}
	server, client := newTestServer(t, func(method string, body map[string]interface{}) (interface{}, *APIResponse) {
		gotMethod = method
		gotBody = body
		return Message{MessageID: 99, Text: body["text"].(string)}, nil
	})
	defer server.Close()

	msg, err := client.SendMessage(context.Background(), SendMessageParams{
		ChatID:    12345,
		Text:      "Hello!",
		ParseMode: "Markdown",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(99), msg.MessageID)
	assert.Equal(t, "sendMessage", gotMethod)
	assert.Equal(t, float64(12345), gotBody["chat_id"])
	assert.Equal(t, "Markdown", gotBody["parse_mode"])
}

func TestSendMessage_APIError(t *testing.T) {
	server, client := newTestServer(t, func(string, map[string]interface{}) (interface{}, *APIResponse) {
		return nil, &APIResponse{OK: false, Description: "Bad Request: chat not found", ErrorCode: 400}
	})
	defer server.Close()

	_, err := client.SendMessage(context.Background(), SendMessageParams{ChatID: 1, Text: "hi"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestGetMe(t *testing.T) {
	server, client := newTestServer(t, func(method string, _ map[string]interface{}) (interface{}, *APIResponse) {
		assert.Equal(t, "getMe", method)
		return User{ID: 7, IsBot: true, FirstName: "Tutor", Username: "tutor_bot"}, nil
	})
	defer server.Close()

	me, err := client.GetMe(context.Background())

	assert.NoError(t, err)
	assert.True(t, me.IsBot)
	assert.Equal(t, "tutor_bot", me.Username)
}

func TestStartPolling_SlowHandlerDoesNotBlockOthers(t *testing.T) {
	var mu sync.Mutex
	served := false
	server, client := newTestServer(t, func(method string, _ map[string]interface{}) (interface{}, *APIResponse) {
		if method != "getUpdates" {
			return true, nil
		}
		mu.Lock()
		defer mu.Unlock()
		if served {
			return []Update{}, nil
		}
		served = true
		return []Update{
			{UpdateID: 1, Message: &Message{From: &User{ID: 1}, Chat: &Chat{ID: 1}, Text: "slow"}},
			{UpdateID: 2, Message: &Message{From: &User{ID: 2}, Chat: &Chat{ID: 2}, Text: "fast"}},
		}, nil
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan int64, 2)
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = client.StartPolling(ctx, func(_ context.Context, u *Update) error {
			started <- u.Message.From.ID
			if u.Message.Text == "slow" {
				<-release
			}
			return nil
		})
	}()

	// Both handlers start even while the first one is still in flight.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("second update stalled behind an in-flight handler")
		}
	}

	close(release)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop after context cancellation")
	}
}

func TestAnswerCallbackQuery(t *testing.T) {
	var gotBody map[string]interface{}
	server, client := newTestServer(t, func(method string, body map[string]interface{}) (interface{}, *APIResponse) {
		assert.Equal(t, "answerCallbackQuery", method)
		gotBody = body
		return true, nil
	})
	defer server.Close()

	err := client.AnswerCallbackQuery(context.Background(), "cb-id-1", "Done!", false)

	assert.NoError(t, err)
	assert.Equal(t, "cb-id-1", gotBody["callback_query_id"])
	assert.Equal(t, "Done!", gotBody["text"])
}

package handler

import (
	"context"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE HANDLER
// Handles plain text messages - the core tutoring flow. All the interesting
// work (language routing, goal capture, response generation, achievements)
// happens in the session engine; this handler is a thin adapter.
// ══════════════════════════════════════════════════════════════════════════════

// Tutor processes one learner message end to end.
// The session engine satisfies this interface.
type Tutor interface {
	HandleMessage(ctx context.Context, userID learner.UserID, firstName, text string) (string, error)
}

// MessageHandler handles plain text messages.
type MessageHandler struct {
	tutor Tutor
}

// NewMessageHandler creates a new MessageHandler with dependencies.
func NewMessageHandler(tutor Tutor) *MessageHandler {
	return &MessageHandler{tutor: tutor}
}

// MessageRequest contains the incoming text message data.
type MessageRequest struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID for sending responses.
	ChatID int64

	// FirstName is the user's display name from the update.
	FirstName string

	// Text is the message text.
	Text string
}

// MessageResponse contains the response to send back.
type MessageResponse struct {
	// Text is the message text (Markdown formatted).
	Text string

	// ParseMode is the parse mode (Markdown).
	ParseMode string

	// IsError indicates if this is an error response.
	IsError bool
}

// Handle processes a plain text message.
// The engine returns a user-facing reply even on failure, so the reply is
// always forwarded; the error is surfaced for logging.
func (h *MessageHandler) Handle(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	reply, err := h.tutor.HandleMessage(ctx, learner.UserID(req.TelegramID), req.FirstName, req.Text)

	return &MessageResponse{
		Text:      reply,
		ParseMode: "Markdown",
		IsError:   err != nil,
	}, err
}

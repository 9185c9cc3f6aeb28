package handler

import (
	"context"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// LANGUAGE HANDLER
// Handles /language - shows the preferred language picker. Picking a language
// here overrides any automatically adopted one.
// ══════════════════════════════════════════════════════════════════════════════

const languagePickerText = "🌍 **Choose Your Preferred Language:**\n\n" +
	"I'll answer in the language you pick. You can also just write to me " +
	"in your language and I'll pick it up automatically."

// LanguageHandler handles the /language command.
type LanguageHandler struct {
	keyboards *presenter.KeyboardBuilder
}

// NewLanguageHandler creates a new LanguageHandler with dependencies.
func NewLanguageHandler(keyboards *presenter.KeyboardBuilder) *LanguageHandler {
	return &LanguageHandler{keyboards: keyboards}
}

// LanguageRequest contains the parsed /language command data.
type LanguageRequest struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID for sending responses.
	ChatID int64
}

// LanguageResponse contains the response to send back.
type LanguageResponse struct {
	// Text is the message text (Markdown formatted).
	Text string

	// Keyboard is the inline keyboard to attach.
	Keyboard *presenter.InlineKeyboard

	// ParseMode is the parse mode (Markdown).
	ParseMode string
}

// Handle processes the /language command.
func (h *LanguageHandler) Handle(ctx context.Context, req LanguageRequest) (*LanguageResponse, error) {
	return &LanguageResponse{
		Text:      languagePickerText,
		Keyboard:  h.keyboards.LanguageKeyboard(),
		ParseMode: "Markdown",
	}, nil
}

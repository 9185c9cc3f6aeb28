// Package callback contains inline button callback handlers.
// Callbacks handle user interactions with inline keyboards.
package callback

import (
	"context"
	"fmt"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// MENU CALLBACK HANDLER
// Handles the onboarding menu buttons: each one edits the message in place,
// either to a prompt text or to the next picker keyboard.
// ══════════════════════════════════════════════════════════════════════════════

// MenuHandler handles the onboarding menu button callbacks.
type MenuHandler struct {
	keyboards *presenter.KeyboardBuilder
}

// NewMenuHandler creates a new MenuHandler with dependencies.
func NewMenuHandler(keyboards *presenter.KeyboardBuilder) *MenuHandler {
	return &MenuHandler{keyboards: keyboards}
}

// MenuRequest contains the parsed callback data.
type MenuRequest struct {
	// TelegramID is the user's Telegram ID who clicked the button.
	TelegramID int64

	// ChatID is the chat ID of the message with the keyboard.
	ChatID int64

	// MessageID is the message ID for editing.
	MessageID int

	// CallbackQueryID is the callback query ID for answering.
	CallbackQueryID string

	// Data is the callback data of the pressed button.
	Data string
}

// MenuResponse contains the response data.
type MenuResponse struct {
	// UpdatedText is the new message text.
	UpdatedText string

	// UpdatedKeyboard is the new keyboard (optional).
	UpdatedKeyboard *presenter.InlineKeyboard

	// ParseMode is the parse mode for the updated text.
	ParseMode string
}

// Handle processes a menu button callback.
func (h *MenuHandler) Handle(ctx context.Context, req MenuRequest) (*MenuResponse, error) {
	switch req.Data {
	case presenter.CallbackSetGoals:
		return &MenuResponse{
			UpdatedText: "🎯 **Set Your Learning Goals**\n\n" +
				"Tell me what you want to learn! You can mention:\n" +
				"• Subjects (Math, Physics, Programming)\n" +
				"• Skills (Writing, Problem-solving)\n" +
				"• Languages (Spanish, French, Japanese)\n" +
				"• Hobbies (Guitar, Photography)\n\n" +
				"Just type your goal and I'll add it to your profile!",
			ParseMode: "Markdown",
		}, nil

	case presenter.CallbackSetDifficulty:
		return &MenuResponse{
			UpdatedText: "🎯 **Choose Your Difficulty Level:**\n\n" +
				"🌱 **Beginner** - New to the topic, need basic explanations\n" +
				"🌿 **Intermediate** - Some knowledge, ready for deeper concepts\n" +
				"🌳 **Advanced** - Strong foundation, want challenging material",
			UpdatedKeyboard: h.keyboards.DifficultyKeyboard(),
			ParseMode:       "Markdown",
		}, nil

	case presenter.CallbackLearningStyle:
		return &MenuResponse{
			UpdatedText: "🧠 **What's Your Learning Style?**\n\n" +
				"📖 **Visual** - Learn best with diagrams, charts, images\n" +
				"🎧 **Auditory** - Prefer explanations and discussions\n" +
				"✋ **Hands-on** - Learn by doing and practicing\n" +
				"🔄 **Mixed** - Combination of all styles",
			UpdatedKeyboard: h.keyboards.StyleKeyboard(),
			ParseMode:       "Markdown",
		}, nil

	case presenter.CallbackSetLanguage:
		return &MenuResponse{
			UpdatedText: "🌍 **Choose Your Preferred Language:**\n\n" +
				"I'll answer in the language you pick. You can also just write to me " +
				"in your language and I'll pick it up automatically.",
			UpdatedKeyboard: h.keyboards.LanguageKeyboard(),
			ParseMode:       "Markdown",
		}, nil

	case presenter.CallbackStartLearning:
		return &MenuResponse{
			UpdatedText: "🚀 **Let's Start Learning!**\n\n" +
				"Ask me anything you want to learn about. I can:\n" +
				"• Explain concepts step by step\n" +
				"• Provide examples and analogies\n" +
				"• Create practice exercises\n" +
				"• Answer follow-up questions\n\n" +
				"What's your first question?",
			ParseMode: "Markdown",
		}, nil

	default:
		return nil, fmt.Errorf("unknown menu callback: %q", req.Data)
	}
}

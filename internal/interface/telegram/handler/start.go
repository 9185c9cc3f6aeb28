// Package handler contains Telegram command handlers.
package handler

import (
	"context"
	"fmt"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/interface/telegram/presenter"
)

// ProfileReader loads (creating on first contact) a learner profile.
// The session engine satisfies this interface.
type ProfileReader interface {
	Profile(ctx context.Context, userID learner.UserID, firstName string) (*learner.Profile, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// START HANDLER
// Handles /start - the onboarding entry point. Ensures the learner profile
// exists and shows the welcome message with the setup keyboard.
// ══════════════════════════════════════════════════════════════════════════════

// StartHandler handles the /start command.
type StartHandler struct {
	profiles  ProfileReader
	keyboards *presenter.KeyboardBuilder
}

// NewStartHandler creates a new StartHandler with dependencies.
func NewStartHandler(profiles ProfileReader, keyboards *presenter.KeyboardBuilder) *StartHandler {
	return &StartHandler{
		profiles:  profiles,
		keyboards: keyboards,
	}
}

// StartRequest contains the parsed /start command data.
type StartRequest struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID for sending responses.
	ChatID int64

	// FirstName is the user's display name from the update.
	FirstName string
}

// StartResponse contains the response to send back.
type StartResponse struct {
	// Text is the message text (Markdown formatted).
	Text string

	// Keyboard is the inline keyboard to attach.
	Keyboard *presenter.InlineKeyboard

	// ParseMode is the parse mode (Markdown).
	ParseMode string

	// IsError indicates if this is an error response.
	IsError bool
}

// Handle processes the /start command.
func (h *StartHandler) Handle(ctx context.Context, req StartRequest) (*StartResponse, error) {
	profile, err := h.profiles.Profile(ctx, learner.UserID(req.TelegramID), req.FirstName)
	if err != nil {
		return &StartResponse{
			Text:      "😔 Something went wrong on my side. Please try again in a moment.",
			ParseMode: "Markdown",
			IsError:   true,
		}, err
	}

	text := fmt.Sprintf(
		"🎓 Hello %s! I'm your personal AI teacher!\n\n"+
			"I'm here to help you learn anything you want. I can:\n"+
			"• Explain complex topics in simple terms\n"+
			"• Create custom lessons based on your goals\n"+
			"• Adapt to your learning style and pace\n"+
			"• Track your progress\n"+
			"• Provide quizzes and exercises\n"+
			"• Answer your questions anytime\n\n"+
			"Let's start by setting up your learning profile!\n\n"+
			"What would you like to learn today?",
		profile.FirstName,
	)

	return &StartResponse{
		Text:      text,
		Keyboard:  h.keyboards.WelcomeKeyboard(),
		ParseMode: "Markdown",
	}, nil
}

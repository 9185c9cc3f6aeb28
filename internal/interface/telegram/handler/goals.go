package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// GOALS HANDLER
// Handles /goals - lists the learner's goals or prompts with examples.
// ══════════════════════════════════════════════════════════════════════════════

// GoalsHandler handles the /goals command.
type GoalsHandler struct {
	profiles ProfileReader
}

// NewGoalsHandler creates a new GoalsHandler with dependencies.
func NewGoalsHandler(profiles ProfileReader) *GoalsHandler {
	return &GoalsHandler{profiles: profiles}
}

// GoalsRequest contains the parsed /goals command data.
type GoalsRequest struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID for sending responses.
	ChatID int64

	// FirstName is the user's display name from the update.
	FirstName string
}

// GoalsResponse contains the response to send back.
type GoalsResponse struct {
	// Text is the message text (Markdown formatted).
	Text string

	// ParseMode is the parse mode (Markdown).
	ParseMode string

	// IsError indicates if this is an error response.
	IsError bool
}

// Handle processes the /goals command.
func (h *GoalsHandler) Handle(ctx context.Context, req GoalsRequest) (*GoalsResponse, error) {
	profile, err := h.profiles.Profile(ctx, learner.UserID(req.TelegramID), req.FirstName)
	if err != nil {
		return &GoalsResponse{
			Text:      "😔 Something went wrong on my side. Please try again in a moment.",
			ParseMode: "Markdown",
			IsError:   true,
		}, err
	}

	if len(profile.LearningGoals) == 0 {
		return &GoalsResponse{
			Text: "🎯 You haven't set any learning goals yet!\n\n" +
				"Tell me what you'd like to learn. Examples:\n" +
				"• Learn Python programming\n" +
				"• Understand calculus\n" +
				"• Master Spanish conversation\n" +
				"• Study world history",
			ParseMode: "Markdown",
		}, nil
	}

	lines := make([]string, 0, len(profile.LearningGoals))
	for _, goal := range profile.LearningGoals {
		lines = append(lines, "• "+goal)
	}

	text := fmt.Sprintf(
		"🎯 **Your Learning Goals:**\n\n%s\n\n"+
			"Send me a new goal to add it, or ask questions about any of these topics!",
		strings.Join(lines, "\n"),
	)

	return &GoalsResponse{
		Text:      text,
		ParseMode: "Markdown",
	}, nil
}

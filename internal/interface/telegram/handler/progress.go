package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLER
// Handles /progress - the learning progress report: interaction counter,
// difficulty level, goal count and earned achievements.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressHandler handles the /progress command.
type ProgressHandler struct {
	profiles ProfileReader
}

// NewProgressHandler creates a new ProgressHandler with dependencies.
func NewProgressHandler(profiles ProfileReader) *ProgressHandler {
	return &ProgressHandler{profiles: profiles}
}

// ProgressRequest contains the parsed /progress command data.
type ProgressRequest struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID for sending responses.
	ChatID int64

	// FirstName is the user's display name from the update.
	FirstName string
}

// ProgressResponse contains the response to send back.
type ProgressResponse struct {
	// Text is the message text (Markdown formatted).
	Text string

	// ParseMode is the parse mode (Markdown).
	ParseMode string

	// IsError indicates if this is an error response.
	IsError bool
}

// Handle processes the /progress command.
func (h *ProgressHandler) Handle(ctx context.Context, req ProgressRequest) (*ProgressResponse, error) {
	profile, err := h.profiles.Profile(ctx, learner.UserID(req.TelegramID), req.FirstName)
	if err != nil {
		return &ProgressResponse{
			Text:      "😔 Something went wrong on my side. Please try again in a moment.",
			ParseMode: "Markdown",
			IsError:   true,
		}, err
	}

	text := fmt.Sprintf(
		"📊 **Your Learning Progress:**\n\n"+
			"🎯 Current Topic: %s\n"+
			"📈 Difficulty Level: %s\n"+
			"💬 Total Interactions: %d\n"+
			"📚 Learning Goals: %d\n\n"+
			"🏆 **Achievements:**\n%s\n\n"+
			"Keep up the great work! Ask me anything to continue learning.",
		"No topic selected",
		title(string(profile.Difficulty)),
		profile.Progress.TotalInteractions,
		len(profile.LearningGoals),
		achievementLines(profile.Progress.Achievements),
	)

	return &ProgressResponse{
		Text:      text,
		ParseMode: "Markdown",
	}, nil
}

// achievementLines renders earned achievements, one per line.
func achievementLines(achievements []learner.Achievement) string {
	if len(achievements) == 0 {
		return "🥉 Getting Started"
	}
	lines := make([]string, 0, len(achievements))
	for _, a := range achievements {
		lines = append(lines, "🥇 "+string(a))
	}
	return strings.Join(lines, "\n")
}

// title upper-cases the first letter of an ASCII word.
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package handler

import (
	"context"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ HANDLER
// Handles /quiz - a static placeholder question. Generating real questions
// from the learner's topic is deliberately out of scope for now.
// ══════════════════════════════════════════════════════════════════════════════

// QuizHandler handles the /quiz command.
type QuizHandler struct{}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler() *QuizHandler {
	return &QuizHandler{}
}

// QuizRequest contains the parsed /quiz command data.
type QuizRequest struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID for sending responses.
	ChatID int64
}

// QuizResponse contains the response to send back.
type QuizResponse struct {
	// Text is the message text (Markdown formatted).
	Text string

	// ParseMode is the parse mode (Markdown).
	ParseMode string
}

// Handle processes the /quiz command.
func (h *QuizHandler) Handle(ctx context.Context, req QuizRequest) (*QuizResponse, error) {
	text := fmt.Sprintf(
		"🧩 **Quick Quiz Time!**\n\n"+
			"Topic: %s\n\n"+
			"**Question:** What is 2 + 2?\n"+
			"A) 3\n"+
			"B) 4\n"+
			"C) 5\n"+
			"D) 6\n\n"+
			"Reply with your answer (A, B, C, or D)!\n\n"+
			"💡 *This is a sample question. In a full implementation, questions "+
			"would be generated based on your current learning topic and difficulty level.*",
		"general knowledge",
	)

	return &QuizResponse{
		Text:      text,
		ParseMode: "Markdown",
	}, nil
}

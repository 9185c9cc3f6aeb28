package handler

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// HELP HANDLER
// Handles /help - the static command reference.
// ══════════════════════════════════════════════════════════════════════════════

const helpText = "🔧 **Available Commands:**\n\n" +
	"/start - Initialize your learning journey\n" +
	"/goals - Set or view your learning goals\n" +
	"/progress - Check your learning progress\n" +
	"/quiz - Take a quick quiz on current topic\n" +
	"/explain [topic] - Get explanation of any topic\n" +
	"/difficulty [level] - Set difficulty (beginner/intermediate/advanced)\n" +
	"/topic [subject] - Switch to a new learning topic\n" +
	"/help - Show this help message\n\n" +
	"💡 **Tips:**\n" +
	"• Just send me any question to get started\n" +
	"• I adapt explanations to your level\n" +
	"• Ask for examples, analogies, or deeper explanations\n" +
	"• Request practice problems or quizzes anytime"

// HelpHandler handles the /help command.
type HelpHandler struct{}

// NewHelpHandler creates a new HelpHandler.
func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

// HelpRequest contains the parsed /help command data.
type HelpRequest struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID for sending responses.
	ChatID int64
}

// HelpResponse contains the response to send back.
type HelpResponse struct {
	// Text is the message text (Markdown formatted).
	Text string

	// ParseMode is the parse mode (Markdown).
	ParseMode string
}

// Handle processes the /help command.
func (h *HelpHandler) Handle(ctx context.Context, req HelpRequest) (*HelpResponse, error) {
	return &HelpResponse{
		Text:      helpText,
		ParseMode: "Markdown",
	}, nil
}

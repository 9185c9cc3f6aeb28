package callback

import (
	"context"
	"fmt"
	"strings"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/application/command"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREFERENCE CALLBACK HANDLERS
// Handle the picker buttons (diff_*, style_*, lang_*): parse the value out of
// the callback data, run the matching command and confirm by editing the
// message. Unknown values never reach the profile - the commands validate
// against the closed enums.
// ══════════════════════════════════════════════════════════════════════════════

// PreferenceRequest contains the parsed picker callback data.
type PreferenceRequest struct {
	// TelegramID is the user's Telegram ID who clicked the button.
	TelegramID int64

	// ChatID is the chat ID of the message with the keyboard.
	ChatID int64

	// MessageID is the message ID for editing.
	MessageID int

	// CallbackQueryID is the callback query ID for answering.
	CallbackQueryID string

	// FirstName is the user's display name from the callback.
	FirstName string

	// Data is the callback data of the pressed button.
	Data string
}

// PreferenceResponse contains the response data.
type PreferenceResponse struct {
	// UpdatedText is the confirmation text to edit the message to.
	UpdatedText string

	// ParseMode is the parse mode for the updated text.
	ParseMode string

	// IsError indicates if this is an error response.
	IsError bool
}

// ══════════════════════════════════════════════════════════════════════════════
// DIFFICULTY
// ══════════════════════════════════════════════════════════════════════════════

// DifficultyHandler handles diff_* picker callbacks.
type DifficultyHandler struct {
	setDifficulty *command.SetDifficultyHandler
}

// NewDifficultyHandler creates a new DifficultyHandler with dependencies.
func NewDifficultyHandler(setDifficulty *command.SetDifficultyHandler) *DifficultyHandler {
	return &DifficultyHandler{setDifficulty: setDifficulty}
}

// Handle processes a difficulty picker callback.
func (h *DifficultyHandler) Handle(ctx context.Context, req PreferenceRequest) (*PreferenceResponse, error) {
	raw := strings.TrimPrefix(req.Data, presenter.PrefixDifficulty)

	difficulty, err := learner.ParseDifficulty(raw)
	if err != nil {
		return errorResponse(), fmt.Errorf("difficulty callback %q: %w", req.Data, err)
	}

	result, err := h.setDifficulty.Handle(ctx, command.SetDifficultyCommand{
		UserID:     learner.UserID(req.TelegramID),
		FirstName:  req.FirstName,
		Difficulty: difficulty,
	})
	if err != nil {
		return errorResponse(), err
	}

	return &PreferenceResponse{
		UpdatedText: fmt.Sprintf(
			"✅ Difficulty level set to **%s**!\n\n"+
				"I'll adapt my explanations accordingly. What would you like to learn about?",
			title(string(result.Difficulty)),
		),
		ParseMode: "Markdown",
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING STYLE
// ══════════════════════════════════════════════════════════════════════════════

// StyleHandler handles style_* picker callbacks.
type StyleHandler struct {
	setStyle *command.SetLearningStyleHandler
}

// NewStyleHandler creates a new StyleHandler with dependencies.
func NewStyleHandler(setStyle *command.SetLearningStyleHandler) *StyleHandler {
	return &StyleHandler{setStyle: setStyle}
}

// Handle processes a learning style picker callback.
func (h *StyleHandler) Handle(ctx context.Context, req PreferenceRequest) (*PreferenceResponse, error) {
	raw := strings.TrimPrefix(req.Data, presenter.PrefixStyle)

	// "mixed" is accepted as a synonym for balanced.
	style, err := learner.ParseStyle(raw)
	if err != nil {
		return errorResponse(), fmt.Errorf("style callback %q: %w", req.Data, err)
	}

	if _, err := h.setStyle.Handle(ctx, command.SetLearningStyleCommand{
		UserID:    learner.UserID(req.TelegramID),
		FirstName: req.FirstName,
		Style:     style,
	}); err != nil {
		return errorResponse(), err
	}

	// Confirm with the label the user picked, so "Mixed" stays "Mixed" even
	// though it is stored as balanced.
	return &PreferenceResponse{
		UpdatedText: fmt.Sprintf(
			"✅ Learning style set to **%s**!\n\n"+
				"I'll tailor my teaching methods to match your preferences. Ready to start learning?",
			title(raw),
		),
		ParseMode: "Markdown",
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PREFERRED LANGUAGE
// ══════════════════════════════════════════════════════════════════════════════

// LanguageHandler handles lang_* picker callbacks.
type LanguageHandler struct {
	setLanguage *command.SetPreferredLanguageHandler
}

// NewLanguageHandler creates a new LanguageHandler with dependencies.
func NewLanguageHandler(setLanguage *command.SetPreferredLanguageHandler) *LanguageHandler {
	return &LanguageHandler{setLanguage: setLanguage}
}

// Handle processes a language picker callback.
func (h *LanguageHandler) Handle(ctx context.Context, req PreferenceRequest) (*PreferenceResponse, error) {
	raw := strings.TrimPrefix(req.Data, presenter.PrefixLanguage)

	result, err := h.setLanguage.Handle(ctx, command.SetPreferredLanguageCommand{
		UserID:    learner.UserID(req.TelegramID),
		FirstName: req.FirstName,
		Language:  learner.LanguageCode(raw),
	})
	if err != nil {
		return errorResponse(), err
	}

	return &PreferenceResponse{
		UpdatedText: fmt.Sprintf(
			"✅ Preferred language set to **%s**!\n\n"+
				"I'll answer in this language from now on. What would you like to learn?",
			result.Language,
		),
		ParseMode: "Markdown",
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func errorResponse() *PreferenceResponse {
	return &PreferenceResponse{
		UpdatedText: "😔 Something went wrong on my side. Please try again in a moment.",
		ParseMode:   "Markdown",
		IsError:     true,
	}
}

// title upper-cases the first letter of an ASCII word.
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

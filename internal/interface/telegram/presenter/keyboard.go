// Package presenter formats data for Telegram display.
// Presenters handle the conversion from domain objects to user-friendly
// Telegram messages, keyboards, and other UI elements.
package presenter

// ══════════════════════════════════════════════════════════════════════════════
// INLINE KEYBOARD TYPES
// These types represent Telegram inline keyboards in a library-agnostic way.
// The transport layer converts them to the wire format.
// ══════════════════════════════════════════════════════════════════════════════

// InlineKeyboard represents an inline keyboard.
type InlineKeyboard struct {
	Rows [][]InlineButton
}

// InlineButton represents a single inline button.
type InlineButton struct {
	// Text is the button text.
	Text string

	// CallbackData is the callback data (for callback buttons).
	CallbackData string

	// URL is the URL to open (for URL buttons).
	URL string
}

// NewInlineKeyboard creates a new empty inline keyboard.
func NewInlineKeyboard() *InlineKeyboard {
	return &InlineKeyboard{
		Rows: make([][]InlineButton, 0),
	}
}

// AddRow adds a row of buttons.
func (k *InlineKeyboard) AddRow(buttons ...InlineButton) *InlineKeyboard {
	k.Rows = append(k.Rows, buttons)
	return k
}

// CallbackButton creates a callback button.
func CallbackButton(text, callbackData string) InlineButton {
	return InlineButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CALLBACK DATA
// Closed vocabulary for inline keyboard callbacks. Handlers parse these back
// into typed commands, unknown data is rejected.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// Top-level menu actions
	CallbackSetGoals      = "set_goals"
	CallbackSetDifficulty = "set_difficulty"
	CallbackLearningStyle = "learning_style"
	CallbackSetLanguage   = "set_language"
	CallbackStartLearning = "start_learning"

	// Picker prefixes
	PrefixDifficulty = "diff_"
	PrefixStyle      = "style_"
	PrefixLanguage   = "lang_"
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYBOARD BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// KeyboardBuilder builds inline keyboards for the tutoring flows.
type KeyboardBuilder struct{}

// NewKeyboardBuilder creates a new KeyboardBuilder.
func NewKeyboardBuilder() *KeyboardBuilder {
	return &KeyboardBuilder{}
}

// WelcomeKeyboard creates the /start onboarding keyboard.
func (b *KeyboardBuilder) WelcomeKeyboard() *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(CallbackButton("📚 Set Learning Goals", CallbackSetGoals)).
		AddRow(CallbackButton("🎯 Choose Difficulty Level", CallbackSetDifficulty)).
		AddRow(CallbackButton("🧠 Learning Style Quiz", CallbackLearningStyle)).
		AddRow(CallbackButton("📖 Start Learning Now", CallbackStartLearning))
}

// DifficultyKeyboard creates the difficulty picker.
func (b *KeyboardBuilder) DifficultyKeyboard() *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(CallbackButton("🌱 Beginner", PrefixDifficulty+"beginner")).
		AddRow(CallbackButton("🌿 Intermediate", PrefixDifficulty+"intermediate")).
		AddRow(CallbackButton("🌳 Advanced", PrefixDifficulty+"advanced"))
}

// StyleKeyboard creates the learning style picker.
func (b *KeyboardBuilder) StyleKeyboard() *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(CallbackButton("📖 Visual", PrefixStyle+"visual")).
		AddRow(CallbackButton("🎧 Auditory", PrefixStyle+"auditory")).
		AddRow(CallbackButton("✋ Hands-on", PrefixStyle+"kinesthetic")).
		AddRow(CallbackButton("🔄 Mixed", PrefixStyle+"mixed"))
}

// LanguageKeyboard creates the preferred language picker.
func (b *KeyboardBuilder) LanguageKeyboard() *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(
			CallbackButton("🇬🇧 English", PrefixLanguage+"en"),
			CallbackButton("🇪🇸 Español", PrefixLanguage+"es"),
		).
		AddRow(
			CallbackButton("🇫🇷 Français", PrefixLanguage+"fr"),
			CallbackButton("🇩🇪 Deutsch", PrefixLanguage+"de"),
		).
		AddRow(
			CallbackButton("🇷🇺 Русский", PrefixLanguage+"ru"),
			CallbackButton("🇵🇹 Português", PrefixLanguage+"pt"),
		)
}

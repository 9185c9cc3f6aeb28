// Package telegram implements the Telegram bot interface for Polyglot Tutor.
package telegram

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/infrastructure/external/telegram"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables debug logging for routing decisions.
	Debug bool
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT TYPES
// These types carry context information through the routing process.
// ══════════════════════════════════════════════════════════════════════════════

// CommandContext contains context for command handling.
type CommandContext struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID where the command was sent.
	ChatID int64

	// MessageID is the ID of the message containing the command.
	MessageID int

	// FirstName is the sender's display name.
	FirstName string

	// Args is the command arguments (text after the command).
	Args string

	// Message is the original Telegram message.
	Message *telegram.Message

	// Client is the Telegram client for sending responses.
	Client *telegram.Client
}

// CallbackContext contains context for callback query handling.
type CallbackContext struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID where the callback originated.
	ChatID int64

	// MessageID is the ID of the message with the inline keyboard.
	MessageID int

	// FirstName is the sender's display name.
	FirstName string

	// QueryID is the callback query ID (for answering).
	QueryID string

	// Data is the callback data string.
	Data string

	// Query is the original callback query.
	Query *telegram.CallbackQuery

	// Client is the Telegram client for sending responses.
	Client *telegram.Client
}

// TextContext contains context for plain text message handling.
type TextContext struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID.
	ChatID int64

	// MessageID is the message ID.
	MessageID int

	// FirstName is the sender's display name.
	FirstName string

	// Text is the message text.
	Text string

	// Message is the original message.
	Message *telegram.Message

	// Client is the Telegram client.
	Client *telegram.Client
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER INTERFACES
// Interfaces that handlers must implement to be registered with the router.
// ══════════════════════════════════════════════════════════════════════════════

// CommandHandler is the interface for command handlers.
type CommandHandler interface {
	Handle(ctx context.Context, cmdCtx CommandContext) error
}

// CommandHandlerFunc adapts a function to the CommandHandler interface.
type CommandHandlerFunc func(ctx context.Context, cmdCtx CommandContext) error

// Handle implements CommandHandler.
func (f CommandHandlerFunc) Handle(ctx context.Context, cmdCtx CommandContext) error {
	return f(ctx, cmdCtx)
}

// CallbackHandler is the interface for callback handlers.
type CallbackHandler interface {
	Handle(ctx context.Context, cbCtx CallbackContext) error
}

// CallbackHandlerFunc adapts a function to the CallbackHandler interface.
type CallbackHandlerFunc func(ctx context.Context, cbCtx CallbackContext) error

// Handle implements CallbackHandler.
func (f CallbackHandlerFunc) Handle(ctx context.Context, cbCtx CallbackContext) error {
	return f(ctx, cbCtx)
}

// TextHandler is the interface for plain text message handlers.
type TextHandler interface {
	Handle(ctx context.Context, txtCtx TextContext) error
}

// TextHandlerFunc adapts a function to the TextHandler interface.
type TextHandlerFunc func(ctx context.Context, txtCtx TextContext) error

// Handle implements TextHandler.
func (f TextHandlerFunc) Handle(ctx context.Context, txtCtx TextContext) error {
	return f(ctx, txtCtx)
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Routes incoming updates to appropriate handlers.
// ══════════════════════════════════════════════════════════════════════════════

// Router routes Telegram updates to appropriate handlers.
type Router struct {
	config RouterConfig
	logger *slog.Logger

	// Command handlers by command name (without /)
	commandHandlers   map[string]CommandHandler
	commandHandlersMu sync.RWMutex

	// Callback handlers by prefix
	callbackPrefixHandlers   map[string]CallbackHandler
	callbackPrefixHandlersMu sync.RWMutex

	// Text handler for non-command messages (the tutoring flow)
	textHandler   TextHandler
	textHandlerMu sync.RWMutex

	// Default handlers for unknown commands/callbacks
	defaultCommandHandler  CommandHandler
	defaultCallbackHandler CallbackHandler
}

// NewRouter creates a new router.
func NewRouter(config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	r := &Router{
		config:                 config,
		logger:                 config.Logger,
		commandHandlers:        make(map[string]CommandHandler),
		callbackPrefixHandlers: make(map[string]CallbackHandler),
	}

	r.defaultCommandHandler = CommandHandlerFunc(r.handleUnknownCommand)
	r.defaultCallbackHandler = CallbackHandlerFunc(r.handleUnknownCallback)

	return r
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION METHODS
// ══════════════════════════════════════════════════════════════════════════════

// RegisterCommand registers a handler for a specific command.
// The command should be without the leading "/".
func (r *Router) RegisterCommand(command string, h CommandHandler) {
	r.commandHandlersMu.Lock()
	defer r.commandHandlersMu.Unlock()

	r.commandHandlers[command] = h

	if r.config.Debug {
		r.logger.Debug("registered command handler", "command", command)
	}
}

// RegisterCallbackPrefix registers a handler for callbacks matching a prefix.
// An exact callback value (e.g. "set_goals") is also a valid prefix.
func (r *Router) RegisterCallbackPrefix(prefix string, h CallbackHandler) {
	r.callbackPrefixHandlersMu.Lock()
	defer r.callbackPrefixHandlersMu.Unlock()

	r.callbackPrefixHandlers[prefix] = h

	if r.config.Debug {
		r.logger.Debug("registered callback prefix handler", "prefix", prefix)
	}
}

// RegisterTextHandler registers the handler for plain text messages.
func (r *Router) RegisterTextHandler(h TextHandler) {
	r.textHandlerMu.Lock()
	defer r.textHandlerMu.Unlock()

	r.textHandler = h
}

// SetDefaultCommandHandler sets the handler for unknown commands.
func (r *Router) SetDefaultCommandHandler(h CommandHandler) {
	r.defaultCommandHandler = h
}

// SetDefaultCallbackHandler sets the handler for unknown callbacks.
func (r *Router) SetDefaultCallbackHandler(h CallbackHandler) {
	r.defaultCallbackHandler = h
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING METHODS
// ══════════════════════════════════════════════════════════════════════════════

// HandleCommand routes a command to its handler.
func (r *Router) HandleCommand(ctx context.Context, command string, cmdCtx CommandContext) error {
	r.commandHandlersMu.RLock()
	h, ok := r.commandHandlers[command]
	r.commandHandlersMu.RUnlock()

	if !ok {
		if r.config.Debug {
			r.logger.Debug("no handler for command", "command", command)
		}
		return r.defaultCommandHandler.Handle(ctx, cmdCtx)
	}

	return h.Handle(ctx, cmdCtx)
}

// HandleCallback routes a callback to its handler by longest matching prefix.
func (r *Router) HandleCallback(ctx context.Context, data string, cbCtx CallbackContext) error {
	r.callbackPrefixHandlersMu.RLock()
	var matchedPrefix string
	var matchedHandler CallbackHandler
	for prefix, h := range r.callbackPrefixHandlers {
		if strings.HasPrefix(data, prefix) && len(prefix) > len(matchedPrefix) {
			matchedPrefix = prefix
			matchedHandler = h
		}
	}
	r.callbackPrefixHandlersMu.RUnlock()

	if matchedHandler == nil {
		if r.config.Debug {
			r.logger.Debug("no handler for callback", "data", data)
		}
		return r.defaultCallbackHandler.Handle(ctx, cbCtx)
	}

	return matchedHandler.Handle(ctx, cbCtx)
}

// HandleText routes a plain text message to the text handler.
func (r *Router) HandleText(ctx context.Context, txtCtx TextContext) error {
	r.textHandlerMu.RLock()
	h := r.textHandler
	r.textHandlerMu.RUnlock()

	if h == nil {
		return nil
	}
	return h.Handle(ctx, txtCtx)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleUnknownCommand handles commands that don't have a registered handler.
func (r *Router) handleUnknownCommand(ctx context.Context, cmdCtx CommandContext) error {
	text := "❓ Unknown command.\n\n" +
		"Try /help to see what I can do, or just send me a question!"

	_, err := cmdCtx.Client.SendText(ctx, cmdCtx.ChatID, text)
	return err
}

// handleUnknownCallback handles callbacks that don't have a registered handler.
func (r *Router) handleUnknownCallback(ctx context.Context, cbCtx CallbackContext) error {
	// Just log it, don't send a message to avoid spam
	r.logger.Warn("unknown callback", "data", cbCtx.Data)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// sendResponse sends a new message with optional inline keyboard.
func (r *Router) sendResponse(
	ctx context.Context,
	client *telegram.Client,
	chatID int64,
	text, parseMode string,
	keyboard *presenter.InlineKeyboard,
) error {
	params := telegram.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
	}

	if keyboard != nil {
		params.ReplyMarkup = convertKeyboard(keyboard)
	}

	_, err := client.SendMessage(ctx, params)
	return err
}

// editResponse edits an existing message with optional inline keyboard.
func (r *Router) editResponse(
	ctx context.Context,
	client *telegram.Client,
	chatID int64,
	messageID int,
	text, parseMode string,
	keyboard *presenter.InlineKeyboard,
) error {
	var kb *telegram.InlineKeyboardMarkup
	if keyboard != nil {
		kb = convertKeyboard(keyboard)
	}

	_, err := client.EditMessageText(ctx, chatID, int64(messageID), text, parseMode, kb)
	return err
}

// convertKeyboard converts presenter.InlineKeyboard to telegram.InlineKeyboardMarkup.
func convertKeyboard(kb *presenter.InlineKeyboard) *telegram.InlineKeyboardMarkup {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}

	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: make([][]telegram.InlineKeyboardButton, len(kb.Rows)),
	}

	for i, row := range kb.Rows {
		markup.InlineKeyboard[i] = make([]telegram.InlineKeyboardButton, len(row))
		for j, btn := range row {
			markup.InlineKeyboard[i][j] = telegram.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.CallbackData,
				URL:          btn.URL,
			}
		}
	}

	return markup
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTE INFO (for introspection)
// ══════════════════════════════════════════════════════════════════════════════

// GetRegisteredCommands returns a list of registered command names.
func (r *Router) GetRegisteredCommands() []string {
	r.commandHandlersMu.RLock()
	defer r.commandHandlersMu.RUnlock()

	commands := make([]string, 0, len(r.commandHandlers))
	for cmd := range r.commandHandlers {
		commands = append(commands, cmd)
	}
	return commands
}

// GetRegisteredCallbackPrefixes returns a list of registered callback prefixes.
func (r *Router) GetRegisteredCallbackPrefixes() []string {
	r.callbackPrefixHandlersMu.RLock()
	defer r.callbackPrefixHandlersMu.RUnlock()

	prefixes := make([]string, 0, len(r.callbackPrefixHandlers))
	for prefix := range r.callbackPrefixHandlers {
		prefixes = append(prefixes, prefix)
	}
	return prefixes
}

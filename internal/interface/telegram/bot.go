// Package telegram implements the Telegram bot interface for Polyglot Tutor.
// This package is the entry point for all Telegram interactions, handling
// updates, routing them to appropriate handlers, and managing the bot lifecycle.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/application/command"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/application/session"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/infrastructure/external/telegram"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/interface/telegram/handler"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/interface/telegram/handler/callback"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/interface/telegram/middleware"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// Token is the Telegram Bot API token.
	Token string

	// PollingTimeout is the timeout for long polling (in seconds).
	PollingTimeout int

	// Debug enables debug logging.
	Debug bool

	// Logger for structured logging.
	Logger *slog.Logger

	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// UserRateLimit is the per-user request budget per minute.
	// Zero keeps the middleware default.
	UserRateLimit int

	// GracefulShutdownTimeout is the timeout for graceful shutdown.
	GracefulShutdownTimeout time.Duration
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig(token string) BotConfig {
	return BotConfig{
		Token:                   token,
		PollingTimeout:          30,
		Debug:                   false,
		Logger:                  slog.Default(),
		MaxConcurrentUpdates:    100,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT DEPENDENCIES
// Aggregates all dependencies needed by handlers.
// ══════════════════════════════════════════════════════════════════════════════

// BotDependencies contains all dependencies for the bot handlers.
type BotDependencies struct {
	// SessionEngine drives the tutoring flow and profile access.
	SessionEngine *session.Engine

	// Commands
	SetDifficultyCmd *command.SetDifficultyHandler
	SetStyleCmd      *command.SetLearningStyleHandler
	SetLanguageCmd   *command.SetPreferredLanguageHandler

	// RateCounter backs per-user rate limiting. Optional: when nil,
	// rate limiting is disabled.
	RateCounter middleware.WindowCounter
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// Main bot structure that orchestrates Telegram interactions.
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the main Telegram bot controller.
type Bot struct {
	config BotConfig
	client *telegram.Client
	router *Router
	logger *slog.Logger

	// Middleware chain
	rateLimiter        *middleware.RateLimiter
	recoveryMiddleware *middleware.RecoveryMiddleware

	// Lifecycle management
	running   bool
	runningMu sync.RWMutex
	stopCh    chan struct{}
	updateSem chan struct{} // Semaphore for concurrent update limiting
	wg        sync.WaitGroup

	// Statistics
	stats *BotStats
}

// BotStats holds runtime statistics.
type BotStats struct {
	mu              sync.RWMutex
	StartedAt       time.Time
	UpdatesReceived int64
	UpdatesHandled  int64
	ErrorsCount     int64
	CommandsCount   map[string]int64
}

// NewBot creates a new Telegram bot with all dependencies.
func NewBot(config BotConfig, deps BotDependencies) (*Bot, error) {
	if config.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	if deps.SessionEngine == nil {
		return nil, errors.New("session engine is required")
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	// Create Telegram client
	clientConfig := telegram.DefaultClientConfig(config.Token)
	clientConfig.Logger = config.Logger
	clientConfig.Debug = config.Debug
	client := telegram.NewClient(clientConfig)

	// Create presenters
	keyboards := presenter.NewKeyboardBuilder()

	// Create handlers
	startHandler := handler.NewStartHandler(deps.SessionEngine, keyboards)
	helpHandler := handler.NewHelpHandler()
	goalsHandler := handler.NewGoalsHandler(deps.SessionEngine)
	progressHandler := handler.NewProgressHandler(deps.SessionEngine)
	quizHandler := handler.NewQuizHandler()
	languageHandler := handler.NewLanguageHandler(keyboards)
	messageHandler := handler.NewMessageHandler(deps.SessionEngine)

	// Create callback handlers
	menuCallback := callback.NewMenuHandler(keyboards)
	difficultyCallback := callback.NewDifficultyHandler(deps.SetDifficultyCmd)
	styleCallback := callback.NewStyleHandler(deps.SetStyleCmd)
	languageCallback := callback.NewLanguageHandler(deps.SetLanguageCmd)

	// Create middleware
	var rateLimiter *middleware.RateLimiter
	if deps.RateCounter != nil {
		rateLimitConfig := middleware.DefaultRateLimitConfig()
		rateLimitConfig.Logger = config.Logger
		if config.UserRateLimit > 0 {
			rateLimitConfig.RequestsPerWindow = config.UserRateLimit
		}
		rateLimiter = middleware.NewRateLimiter(deps.RateCounter, rateLimitConfig)
	}

	recoveryMiddleware := middleware.NewRecoveryMiddleware(middleware.RecoveryConfig{
		EnableStackTrace:   true,
		UserErrorMessage:   "😔 Something went wrong on my side. Please try again in a moment.",
		Logger:             config.Logger,
		MaxPanicsPerMinute: 100,
	})

	// Create router with all handlers
	router := NewRouter(RouterConfig{
		Logger: config.Logger,
		Debug:  config.Debug,
	})

	bot := &Bot{
		config:             config,
		client:             client,
		router:             router,
		logger:             config.Logger,
		rateLimiter:        rateLimiter,
		recoveryMiddleware: recoveryMiddleware,
		stopCh:             make(chan struct{}),
		updateSem:          make(chan struct{}, config.MaxConcurrentUpdates),
		stats: &BotStats{
			CommandsCount: make(map[string]int64),
		},
	}

	bot.registerRoutes(
		startHandler, helpHandler, goalsHandler, progressHandler,
		quizHandler, languageHandler, messageHandler,
		menuCallback, difficultyCallback, styleCallback, languageCallback,
	)

	return bot, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTE REGISTRATION
// Adapters between routing contexts and handler request/response types.
// ══════════════════════════════════════════════════════════════════════════════

func (b *Bot) registerRoutes(
	startHandler *handler.StartHandler,
	helpHandler *handler.HelpHandler,
	goalsHandler *handler.GoalsHandler,
	progressHandler *handler.ProgressHandler,
	quizHandler *handler.QuizHandler,
	languageHandler *handler.LanguageHandler,
	messageHandler *handler.MessageHandler,
	menuCallback *callback.MenuHandler,
	difficultyCallback *callback.DifficultyHandler,
	styleCallback *callback.StyleHandler,
	languageCallback *callback.LanguageHandler,
) {
	r := b.router

	r.RegisterCommand("start", CommandHandlerFunc(func(ctx context.Context, cmdCtx CommandContext) error {
		resp, err := startHandler.Handle(ctx, handler.StartRequest{
			TelegramID: cmdCtx.TelegramID,
			ChatID:     cmdCtx.ChatID,
			FirstName:  cmdCtx.FirstName,
		})
		if resp == nil {
			return err
		}
		if sendErr := r.sendResponse(ctx, cmdCtx.Client, cmdCtx.ChatID, resp.Text, resp.ParseMode, resp.Keyboard); sendErr != nil {
			return sendErr
		}
		return err
	}))

	r.RegisterCommand("help", CommandHandlerFunc(func(ctx context.Context, cmdCtx CommandContext) error {
		resp, err := helpHandler.Handle(ctx, handler.HelpRequest{
			TelegramID: cmdCtx.TelegramID,
			ChatID:     cmdCtx.ChatID,
		})
		if err != nil {
			return err
		}
		return r.sendResponse(ctx, cmdCtx.Client, cmdCtx.ChatID, resp.Text, resp.ParseMode, nil)
	}))

	r.RegisterCommand("goals", CommandHandlerFunc(func(ctx context.Context, cmdCtx CommandContext) error {
		resp, err := goalsHandler.Handle(ctx, handler.GoalsRequest{
			TelegramID: cmdCtx.TelegramID,
			ChatID:     cmdCtx.ChatID,
			FirstName:  cmdCtx.FirstName,
		})
		if resp == nil {
			return err
		}
		if sendErr := r.sendResponse(ctx, cmdCtx.Client, cmdCtx.ChatID, resp.Text, resp.ParseMode, nil); sendErr != nil {
			return sendErr
		}
		return err
	}))

	r.RegisterCommand("progress", CommandHandlerFunc(func(ctx context.Context, cmdCtx CommandContext) error {
		resp, err := progressHandler.Handle(ctx, handler.ProgressRequest{
			TelegramID: cmdCtx.TelegramID,
			ChatID:     cmdCtx.ChatID,
			FirstName:  cmdCtx.FirstName,
		})
		if resp == nil {
			return err
		}
		if sendErr := r.sendResponse(ctx, cmdCtx.Client, cmdCtx.ChatID, resp.Text, resp.ParseMode, nil); sendErr != nil {
			return sendErr
		}
		return err
	}))

	r.RegisterCommand("quiz", CommandHandlerFunc(func(ctx context.Context, cmdCtx CommandContext) error {
		resp, err := quizHandler.Handle(ctx, handler.QuizRequest{
			TelegramID: cmdCtx.TelegramID,
			ChatID:     cmdCtx.ChatID,
		})
		if err != nil {
			return err
		}
		return r.sendResponse(ctx, cmdCtx.Client, cmdCtx.ChatID, resp.Text, resp.ParseMode, nil)
	}))

	r.RegisterCommand("language", CommandHandlerFunc(func(ctx context.Context, cmdCtx CommandContext) error {
		resp, err := languageHandler.Handle(ctx, handler.LanguageRequest{
			TelegramID: cmdCtx.TelegramID,
			ChatID:     cmdCtx.ChatID,
		})
		if err != nil {
			return err
		}
		return r.sendResponse(ctx, cmdCtx.Client, cmdCtx.ChatID, resp.Text, resp.ParseMode, resp.Keyboard)
	}))

	r.RegisterTextHandler(TextHandlerFunc(func(ctx context.Context, txtCtx TextContext) error {
		resp, handleErr := messageHandler.Handle(ctx, handler.MessageRequest{
			TelegramID: txtCtx.TelegramID,
			ChatID:     txtCtx.ChatID,
			FirstName:  txtCtx.FirstName,
			Text:       txtCtx.Text,
		})
		// The engine always produces a user-facing reply, even on failure.
		if resp != nil && resp.Text != "" {
			if sendErr := r.sendResponse(ctx, txtCtx.Client, txtCtx.ChatID, resp.Text, resp.ParseMode, nil); sendErr != nil {
				return sendErr
			}
		}
		return handleErr
	}))

	// Menu buttons use exact callback values; pickers match by prefix.
	menuAdapter := CallbackHandlerFunc(func(ctx context.Context, cbCtx CallbackContext) error {
		resp, err := menuCallback.Handle(ctx, callback.MenuRequest{
			TelegramID:      cbCtx.TelegramID,
			ChatID:          cbCtx.ChatID,
			MessageID:       cbCtx.MessageID,
			CallbackQueryID: cbCtx.QueryID,
			Data:            cbCtx.Data,
		})
		if err != nil {
			return err
		}
		return r.editResponse(ctx, cbCtx.Client, cbCtx.ChatID, cbCtx.MessageID, resp.UpdatedText, resp.ParseMode, resp.UpdatedKeyboard)
	})

	r.RegisterCallbackPrefix(presenter.CallbackSetGoals, menuAdapter)
	r.RegisterCallbackPrefix(presenter.CallbackSetDifficulty, menuAdapter)
	r.RegisterCallbackPrefix(presenter.CallbackLearningStyle, menuAdapter)
	r.RegisterCallbackPrefix(presenter.CallbackSetLanguage, menuAdapter)
	r.RegisterCallbackPrefix(presenter.CallbackStartLearning, menuAdapter)

	r.RegisterCallbackPrefix(presenter.PrefixDifficulty, b.preferenceAdapter(difficultyCallback.Handle))
	r.RegisterCallbackPrefix(presenter.PrefixStyle, b.preferenceAdapter(styleCallback.Handle))
	r.RegisterCallbackPrefix(presenter.PrefixLanguage, b.preferenceAdapter(languageCallback.Handle))
}

// preferenceAdapter adapts a picker callback handler to the router interface.
func (b *Bot) preferenceAdapter(
	handle func(ctx context.Context, req callback.PreferenceRequest) (*callback.PreferenceResponse, error),
) CallbackHandler {
	return CallbackHandlerFunc(func(ctx context.Context, cbCtx CallbackContext) error {
		resp, err := handle(ctx, callback.PreferenceRequest{
			TelegramID:      cbCtx.TelegramID,
			ChatID:          cbCtx.ChatID,
			MessageID:       cbCtx.MessageID,
			CallbackQueryID: cbCtx.QueryID,
			FirstName:       cbCtx.FirstName,
			Data:            cbCtx.Data,
		})
		if resp == nil {
			return err
		}
		if editErr := b.router.editResponse(ctx, cbCtx.Client, cbCtx.ChatID, cbCtx.MessageID, resp.UpdatedText, resp.ParseMode, nil); editErr != nil {
			return editErr
		}
		return err
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE MANAGEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the bot and begins receiving updates via long polling.
func (b *Bot) Start(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.stats.StartedAt = time.Now()
	b.runningMu.Unlock()

	b.logger.Info("starting telegram bot",
		"debug", b.config.Debug,
	)

	// Verify bot token with getMe
	if err := b.verifyToken(ctx); err != nil {
		return fmt.Errorf("failed to verify bot token: %w", err)
	}

	b.logger.Info("starting long polling")

	return b.client.StartPolling(ctx, func(ctx context.Context, update *telegram.Update) error {
		return b.handleUpdate(ctx, update)
	})
}

// Stop gracefully stops the bot.
func (b *Bot) Stop(ctx context.Context) error {
	b.runningMu.Lock()
	if !b.running {
		b.runningMu.Unlock()
		return nil
	}
	b.running = false
	b.runningMu.Unlock()

	b.logger.Info("stopping telegram bot")

	// Signal stop
	close(b.stopCh)

	// Wait for all handlers to complete with timeout
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(b.config.GracefulShutdownTimeout):
		b.logger.Warn("graceful shutdown timeout exceeded")
	case <-ctx.Done():
		b.logger.Warn("context cancelled during shutdown")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the bot is currently running.
func (b *Bot) IsRunning() bool {
	b.runningMu.RLock()
	defer b.runningMu.RUnlock()
	return b.running
}

// verifyToken verifies the bot token by calling getMe.
func (b *Bot) verifyToken(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return err
	}

	b.logger.Info("bot verified",
		"id", me.ID,
		"username", me.Username,
		"first_name", me.FirstName,
	)

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// handleUpdate processes a single Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update *telegram.Update) error {
	// Acquire semaphore slot
	select {
	case b.updateSem <- struct{}{}:
		defer func() { <-b.updateSem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	b.wg.Add(1)
	defer b.wg.Done()

	b.stats.mu.Lock()
	b.stats.UpdatesReceived++
	b.stats.mu.Unlock()

	// Attach request ID and user ID for log correlation
	ctx = middleware.WithRequestID(ctx)
	ctx = middleware.WithTelegramID(ctx, b.extractTelegramID(update))

	var err error
	switch {
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.handleCallbackQuery(ctx, update.CallbackQuery)
	default:
		// Unknown update type - ignore
		return nil
	}

	if err != nil {
		b.stats.mu.Lock()
		b.stats.ErrorsCount++
		b.stats.mu.Unlock()
		middleware.RequestLogger(ctx, b.logger).Error("failed to handle update",
			"update_id", update.UpdateID,
			"error", err,
			"duration", middleware.RequestDuration(ctx),
		)
	} else {
		b.stats.mu.Lock()
		b.stats.UpdatesHandled++
		b.stats.mu.Unlock()
	}

	return err
}

// handleMessage processes a Telegram message.
func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg == nil || msg.From == nil {
		return nil
	}

	telegramID := msg.From.ID
	chatID := msg.Chat.ID
	firstName := msg.From.FirstName

	// Rate limiting
	if b.rateLimiter != nil {
		result := b.rateLimiter.Check(ctx, telegramID, "message")
		if !result.Allowed {
			_, err := b.client.SendText(ctx, chatID, result.ResponseMessage)
			return err
		}
	}

	command := telegram.ExtractCommand(msg)
	args := telegram.ExtractCommandArgs(msg)

	if command != "" {
		return b.handleCommand(ctx, telegramID, chatID, firstName, command, args, msg)
	}

	if msg.Text != "" {
		return b.handleTextMessage(ctx, telegramID, chatID, firstName, msg)
	}

	return nil
}

// handleCommand processes a bot command.
func (b *Bot) handleCommand(
	ctx context.Context,
	telegramID, chatID int64,
	firstName, command, args string,
	msg *telegram.Message,
) error {
	b.stats.mu.Lock()
	b.stats.CommandsCount[command]++
	b.stats.mu.Unlock()

	result, err := b.recoveryMiddleware.RecoverWithHandler(ctx, telegramID, command, func() error {
		return b.router.HandleCommand(ctx, command, CommandContext{
			TelegramID: telegramID,
			ChatID:     chatID,
			MessageID:  int(msg.MessageID),
			FirstName:  firstName,
			Args:       args,
			Message:    msg,
			Client:     b.client,
		})
	})

	if result.Recovered {
		_, sendErr := b.client.SendText(ctx, chatID, result.UserMessage)
		return sendErr
	}

	return err
}

// handleTextMessage processes a non-command text message - the tutoring flow.
func (b *Bot) handleTextMessage(
	ctx context.Context,
	telegramID, chatID int64,
	firstName string,
	msg *telegram.Message,
) error {
	result, err := b.recoveryMiddleware.RecoverWithHandler(ctx, telegramID, "text", func() error {
		return b.router.HandleText(ctx, TextContext{
			TelegramID: telegramID,
			ChatID:     chatID,
			MessageID:  int(msg.MessageID),
			FirstName:  firstName,
			Text:       msg.Text,
			Message:    msg,
			Client:     b.client,
		})
	})

	if result.Recovered {
		_, sendErr := b.client.SendText(ctx, chatID, result.UserMessage)
		return sendErr
	}

	return err
}

// handleCallbackQuery processes a callback query from an inline keyboard.
func (b *Bot) handleCallbackQuery(ctx context.Context, cq *telegram.CallbackQuery) error {
	if cq == nil || cq.From == nil {
		return nil
	}

	telegramID := cq.From.ID
	firstName := cq.From.FirstName
	chatID := int64(0)
	messageID := int64(0)

	if cq.Message != nil {
		chatID = cq.Message.Chat.ID
		messageID = cq.Message.MessageID
	}

	// Answer callback query first (removes loading state)
	defer func() {
		_ = b.client.AnswerCallbackQuery(ctx, cq.ID, "", false)
	}()

	// Rate limiting for callbacks
	if b.rateLimiter != nil {
		result := b.rateLimiter.Check(ctx, telegramID, "callback")
		if !result.Allowed {
			_ = b.client.AnswerCallbackQuery(ctx, cq.ID, "⏳ Too fast! Please wait a moment.", true)
			return nil
		}
	}

	result, err := b.recoveryMiddleware.RecoverWithHandler(ctx, telegramID, "callback:"+cq.Data, func() error {
		return b.router.HandleCallback(ctx, cq.Data, CallbackContext{
			TelegramID: telegramID,
			ChatID:     chatID,
			MessageID:  int(messageID),
			FirstName:  firstName,
			QueryID:    cq.ID,
			Data:       cq.Data,
			Query:      cq,
			Client:     b.client,
		})
	})

	if result.Recovered {
		if chatID > 0 {
			_, _ = b.client.SendText(ctx, chatID, result.UserMessage)
		}
		return nil
	}

	if err != nil {
		middleware.RequestLogger(ctx, b.logger).Error("callback handler failed",
			"data", cq.Data,
			"error", err,
		)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// extractTelegramID extracts the Telegram user ID from an update.
func (b *Bot) extractTelegramID(update *telegram.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// GetStats returns current bot statistics.
func (b *Bot) GetStats() map[string]interface{} {
	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()

	uptime := time.Since(b.stats.StartedAt)

	commandsCopy := make(map[string]int64)
	for k, v := range b.stats.CommandsCount {
		commandsCopy[k] = v
	}

	return map[string]interface{}{
		"started_at":       b.stats.StartedAt,
		"uptime":           uptime.String(),
		"updates_received": b.stats.UpdatesReceived,
		"updates_handled":  b.stats.UpdatesHandled,
		"errors_count":     b.stats.ErrorsCount,
		"commands_count":   commandsCopy,
		"running":          b.IsRunning(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT ACCESS
// ══════════════════════════════════════════════════════════════════════════════

// Client returns the Telegram client for direct API access.
// Use sparingly - prefer going through handlers.
func (b *Bot) Client() *telegram.Client {
	return b.client
}

// Router returns the router for handler registration.
func (b *Bot) Router() *Router {
	return b.router
}

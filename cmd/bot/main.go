// Package main - точка входа для Telegram Bot приложения Polyglot Tutor.
//
// Бот - персональный репетитор: отвечает на вопросы ученика на его языке,
// запоминает цели обучения, адаптирует сложность объяснений и отмечает
// достижения. Ответы генерирует Claude API, а при его недоступности -
// шаблонные ответы с переводом.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: сессионный движок и команды настройки профиля
// - Infrastructure: репозитории, кеш, внешние API
// - Interface: Telegram Bot handlers, HTTP health endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/polyglot-tutor/polyglot-tutor-bot/config"

	// Application layer
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/application/command"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/application/responder"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/application/session"

	// Domain layer
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/shared"

	// Infrastructure layer
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/infrastructure/external/anthropic"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/infrastructure/external/translate"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/infrastructure/language"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/infrastructure/messaging"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/infrastructure/persistence/postgres"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/polyglot-tutor/polyglot-tutor-bot/internal/interface/http"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/interface/telegram"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/interface/telegram/middleware"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем приложение
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Polyglot Tutor Bot",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	if cfg.Anthropic.APIKey == "" {
		log.Warn("ANTHROPIC_API_KEY not set. Bot will use basic responses only.")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	// Проверяем соединение
	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...", "addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
		redisCfg := redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}
		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching and rate limiting disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ И КЕША
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	profileRepo := postgres.NewProfileRepository(dbConn)

	var profileCache learner.Cache
	if redisCache != nil {
		profileCache = redis.NewProfileCache(redisCache)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBusConfig.AsyncMode = true
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	registerEventHandlers(eventBus, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ ВНЕШНИХ КЛИЕНТОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing external clients...")

	// Claude API (пустой ключ допустим: клиент сообщит о недоступности)
	var provider responder.Provider
	if cfg.Features.IsEnabled(config.FeatureTutorAIResponses, 0) {
		anthropicConfig := anthropic.Config{
			APIKey:        cfg.Anthropic.APIKey,
			BaseURL:       cfg.Anthropic.BaseURL,
			Model:         cfg.Anthropic.Model,
			MaxTokens:     cfg.Anthropic.MaxTokens,
			Temperature:   cfg.Anthropic.Temperature,
			Timeout:       cfg.Anthropic.RequestTimeout,
			RetryAttempts: cfg.Anthropic.MaxRetries,
			Logger:        log,
		}
		provider = anthropic.NewClient(anthropicConfig)
	} else {
		log.Info("AI responses disabled by feature flag")
	}

	// Сервис перевода шаблонных ответов
	var translator responder.Translator
	if cfg.Translate.BaseURL != "" && cfg.Features.IsEnabled(config.FeatureTutorTranslation, 0) {
		translateConfig := translate.Config{
			BaseURL: cfg.Translate.BaseURL,
			APIKey:  cfg.Translate.APIKey,
			Timeout: cfg.Translate.RequestTimeout,
			Logger:  log,
		}
		translator = translate.NewClient(translateConfig)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	detector := language.NewDetector(log)
	generator := responder.NewGenerator(provider, translator, log)

	sessionEngine := session.NewEngine(session.Config{
		Repository: profileRepo,
		Cache:      profileCache,
		Detector:   detector,
		Responder:  generator,
		EventBus:   eventBus,
		Logger:     log,
		LanguageRoutingEnabled: func(userID int64) bool {
			return cfg.Features.IsEnabled(config.FeatureTutorLanguageRouting, userID)
		},
		AchievementsEnabled: func(userID int64) bool {
			return cfg.Features.IsEnabled(config.FeatureTutorAchievements, userID)
		},
	})

	setDifficultyCmd := command.NewSetDifficultyHandler(sessionEngine)
	setStyleCmd := command.NewSetLearningStyleHandler(sessionEngine)
	setLanguageCmd := command.NewSetPreferredLanguageHandler(sessionEngine)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. СОЗДАНИЕ TELEGRAM BOT
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing Telegram bot...")

	botConfig := telegram.DefaultBotConfig(cfg.Telegram.Token)
	botConfig.PollingTimeout = int(cfg.Telegram.PollingTimeout.Seconds())
	botConfig.MaxConcurrentUpdates = cfg.Telegram.MaxConcurrentUpdates
	botConfig.UserRateLimit = cfg.Telegram.UserRateLimit
	botConfig.GracefulShutdownTimeout = cfg.App.ShutdownTimeout
	botConfig.Debug = cfg.App.Debug
	botConfig.Logger = log

	var rateCounter middleware.WindowCounter
	if redisCache != nil && cfg.Features.IsEnabled(config.FeatureInterfaceRateLimiting, 0) {
		rateCounter = redisCache
	}

	botDeps := telegram.BotDependencies{
		SessionEngine:    sessionEngine,
		SetDifficultyCmd: setDifficultyCmd,
		SetStyleCmd:      setStyleCmd,
		SetLanguageCmd:   setLanguageCmd,
		RateCounter:      rateCounter,
	}

	bot, err := telegram.NewBot(botConfig, botDeps)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	var httpServer *httpserver.Server
	if cfg.HTTP.Enabled {
		log.Info("initializing HTTP server...")

		httpConfig := httpserver.DefaultConfig()
		httpConfig.Host = cfg.HTTP.Host
		httpConfig.Port = cfg.HTTP.Port

		httpDeps := httpserver.Dependencies{
			Logger:   log,
			Database: dbConn,
			Stats:    bot.GetStats,
		}
		if redisCache != nil {
			httpDeps.Cache = redisCache
		}

		httpServer = httpserver.NewServer(httpConfig, httpDeps)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. ЗАПУСК СЕРВИСОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("starting services...")

	// Канал для ошибок
	errCh := make(chan error, 2)

	// Запускаем HTTP сервер
	if httpServer != nil {
		go func() {
			log.Info("starting HTTP server", "address", httpServer.Address())
			if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server error: %w", err)
			}
		}()
	}

	// Запускаем Telegram бота
	go func() {
		log.Info("starting Telegram bot")
		if err := bot.Start(ctx); err != nil {
			errCh <- fmt.Errorf("telegram bot error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 13. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Polyglot Tutor Bot is running")

	// Ожидаем сигнал завершения или ошибку
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	// Начинаем graceful shutdown
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	// 1. Останавливаем бота (перестаём принимать новые запросы)
	log.Info("stopping Telegram bot...")
	if err := bot.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop bot gracefully", "error", err)
		shutdownErr = err
	}

	// 2. Останавливаем HTTP сервер
	if httpServer != nil {
		log.Info("stopping HTTP server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to stop HTTP server gracefully", "error", err)
			shutdownErr = err
		}
	}

	// 3. Event bus и база данных закроются через defer

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
	}

	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// registerEventHandlers подписывает обработчики на доменные события.
// Пока события только логируются: слушатели-нотификаторы добавятся позже.
func registerEventHandlers(bus shared.EventBus, log *slog.Logger) {
	logEvent := func(ctx context.Context, event shared.Event) error {
		log.Info("domain event",
			"type", string(event.EventType()),
			"aggregate_id", event.AggregateID(),
			"payload", event.Payload(),
		)
		return nil
	}

	bus.Subscribe(shared.EventProfileCreated, logEvent)
	bus.Subscribe(shared.EventGoalCaptured, logEvent)
	bus.Subscribe(shared.EventLanguageAdopted, logEvent)
	bus.Subscribe(shared.EventAchievementUnlocked, logEvent)
}

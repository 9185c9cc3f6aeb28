// Package session orchestrates the handling of a single learner message:
// profile load, language detection and adoption, history bookkeeping, goal
// capture, response generation, achievement evaluation, and persistence.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATOR CONTRACTS
// ══════════════════════════════════════════════════════════════════════════════

// Detector classifies the language of a message. It never fails: low-signal
// input degrades to the default language with reduced confidence.
type Detector interface {
	Detect(text string) (learner.LanguageCode, learner.Confidence)
}

// Responder generates a reply for a learner question and reports the language
// it was routed to.
type Responder interface {
	Generate(ctx context.Context, profile *learner.Profile, question string) (string, learner.LanguageCode)
}

// ══════════════════════════════════════════════════════════════════════════════
// REPLY TEXTS
// ══════════════════════════════════════════════════════════════════════════════

// goalKeywords mark a message as a learning-goal declaration. Matching is a
// lowercased substring check.
var goalKeywords = []string{"learn", "study", "understand", "master", "teach me"}

const (
	goalCapturedReply = "✅ Added to your learning goals: **%s**\n\n" +
		"Great! I'll help you achieve this goal. What specific aspect would you like to start with?"

	achievementNotice = "\n\n🏆 **Achievement Unlocked:** %s"

	failureReply = "😔 Something went wrong on my side. Please try again in a moment."
)

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Config contains session engine collaborators.
type Config struct {
	Repository learner.Repository
	Cache      learner.Cache
	Detector   Detector
	Responder  Responder
	EventBus   shared.EventBus
	Logger     *slog.Logger

	// CacheTTL bounds how long a profile stays cached after a read.
	CacheTTL time.Duration

	// LanguageRoutingEnabled gates automatic language adoption per user.
	// Nil means enabled for everyone.
	LanguageRoutingEnabled func(userID int64) bool

	// AchievementsEnabled gates achievement evaluation per user.
	// Nil means enabled for everyone.
	AchievementsEnabled func(userID int64) bool
}

// Engine handles learner messages. Message handling for one user is
// serialized with a per-user lock: the load-modify-save cycle below is not
// atomic against the store, and without the lock two rapid messages from the
// same user would overwrite each other's counters.
type Engine struct {
	repo      learner.Repository
	cache     learner.Cache
	detector  Detector
	responder Responder
	bus       shared.EventBus
	logger    *slog.Logger
	cacheTTL  time.Duration

	languageRoutingEnabled func(userID int64) bool
	achievementsEnabled    func(userID int64) bool

	locksMu sync.Mutex
	locks   map[learner.UserID]*sync.Mutex
}

// NewEngine creates a session engine.
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &Engine{
		repo:      cfg.Repository,
		cache:     cfg.Cache,
		detector:  cfg.Detector,
		responder: cfg.Responder,
		bus:       cfg.EventBus,
		logger:    logger.With("component", "session"),
		cacheTTL:  ttl,

		languageRoutingEnabled: cfg.LanguageRoutingEnabled,
		achievementsEnabled:    cfg.AchievementsEnabled,

		locks: make(map[learner.UserID]*sync.Mutex),
	}
}

// HandleMessage processes one incoming learner message and returns the reply
// text. The reply is always non-empty: generation degrades through fallbacks,
// and only a failed profile save produces the generic failure reply along
// with the error.
func (e *Engine) HandleMessage(ctx context.Context, userID learner.UserID, firstName, text string) (string, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	profile, err := e.loadProfile(ctx, userID, firstName)
	if err != nil {
		e.logger.Error("failed to load profile", "user_id", int64(userID), "error", err)
		return failureReply, err
	}

	firstContact := profile.Progress.TotalInteractions == 0 && len(profile.History) == 0
	if firstContact {
		e.publish(ctx, shared.ProfileCreatedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventProfileCreated, aggregateID(userID)),
			UserID:    int64(userID),
			FirstName: firstName,
		})
	}

	// Name refresh is last-write-wins on every message
	profile.SetFirstName(firstName)

	lang, conf := e.detector.Detect(text)
	profile.RecordDetection(lang, conf)

	if featureOn(e.languageRoutingEnabled, userID) && profile.ShouldAdoptDetectedLanguage() {
		profile.AdoptDetectedLanguage()
		e.publish(ctx, shared.LanguageAdoptedEvent{
			BaseEvent:  shared.NewBaseEvent(shared.EventLanguageAdopted, aggregateID(userID)),
			UserID:     int64(userID),
			Language:   lang.String(),
			Confidence: float64(conf),
		})
	}

	now := time.Now()
	profile.History.AppendUserMessage(now, text, lang, conf)
	profile.Progress.RecordInteraction()

	// Goal declarations short-circuit the teaching path: the goal is stored
	// and confirmed without generating a response or evaluating
	// achievements. At the goal cap the message falls through and is
	// answered like any other question.
	if isGoalDeclaration(text) && profile.HasGoalCapacity() {
		if err := profile.AddGoal(text); err != nil {
			return failureReply, err
		}
		if err := e.saveProfile(ctx, profile); err != nil {
			return failureReply, err
		}

		e.publish(ctx, shared.GoalCapturedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventGoalCaptured, aggregateID(userID)),
			UserID:    int64(userID),
			Goal:      text,
			GoalCount: len(profile.LearningGoals),
		})

		return fmt.Sprintf(goalCapturedReply, text), nil
	}

	reply, responseLang := e.responder.Generate(ctx, profile, text)
	profile.History.AppendBotResponse(time.Now(), reply, responseLang)

	if unlocked, ok := e.evaluateAchievements(profile); ok {
		reply += fmt.Sprintf(achievementNotice, unlocked)
		e.publish(ctx, shared.AchievementUnlockedEvent{
			BaseEvent:   shared.NewBaseEvent(shared.EventAchievementUnlocked, aggregateID(userID)),
			UserID:      int64(userID),
			Achievement: string(unlocked),
			Interaction: profile.Progress.TotalInteractions,
		})
	}

	if err := e.saveProfile(ctx, profile); err != nil {
		return failureReply, err
	}

	return reply, nil
}

// Profile returns the current profile for commands and reports, creating one
// with defaults on first contact.
func (e *Engine) Profile(ctx context.Context, userID learner.UserID, firstName string) (*learner.Profile, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return e.loadProfile(ctx, userID, firstName)
}

// UpdateProfile loads the profile, applies mutate under the per-user lock,
// and saves the result. Used by the explicit preference commands.
func (e *Engine) UpdateProfile(ctx context.Context, userID learner.UserID, firstName string, mutate func(*learner.Profile) error) (*learner.Profile, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	profile, err := e.loadProfile(ctx, userID, firstName)
	if err != nil {
		return nil, err
	}

	if err := mutate(profile); err != nil {
		return nil, err
	}

	if err := e.saveProfile(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNAL
// ══════════════════════════════════════════════════════════════════════════════

// loadProfile reads through the cache to the repository.
func (e *Engine) loadProfile(ctx context.Context, userID learner.UserID, firstName string) (*learner.Profile, error) {
	if e.cache != nil {
		if cached, err := e.cache.Get(ctx, userID); err == nil {
			return cached, nil
		}
	}

	profile, err := e.repo.LoadOrCreate(ctx, userID, firstName)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, profile, e.cacheTTL); err != nil {
			e.logger.Warn("failed to cache profile", "user_id", int64(userID), "error", err)
		}
	}

	return profile, nil
}

// saveProfile persists the profile and invalidates the cache entry. Save
// failures are fatal for the message: state must not silently diverge from
// what the user was told.
func (e *Engine) saveProfile(ctx context.Context, profile *learner.Profile) error {
	if err := e.repo.Save(ctx, profile); err != nil {
		e.logger.Error("failed to save profile", "user_id", int64(profile.UserID), "error", err)
		return fmt.Errorf("save profile: %w", err)
	}

	if e.cache != nil {
		if err := e.cache.Delete(ctx, profile.UserID); err != nil {
			e.logger.Warn("failed to invalidate cached profile", "user_id", int64(profile.UserID), "error", err)
		}
	}

	return nil
}

// publish sends a domain event, tolerating a missing bus (tests).
func (e *Engine) publish(ctx context.Context, event shared.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ctx, event); err != nil {
		e.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

// evaluateAchievements runs achievement evaluation unless it is gated off
// for the user.
func (e *Engine) evaluateAchievements(profile *learner.Profile) (learner.Achievement, bool) {
	if !featureOn(e.achievementsEnabled, profile.UserID) {
		return "", false
	}
	return profile.EvaluateAchievements()
}

// featureOn treats a nil gate as enabled.
func featureOn(gate func(userID int64) bool, userID learner.UserID) bool {
	return gate == nil || gate(int64(userID))
}

// userLock returns the mutex serializing message handling for one user.
func (e *Engine) userLock(userID learner.UserID) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()

	lock, ok := e.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[userID] = lock
	}
	return lock
}

// isGoalDeclaration reports whether the message declares a learning goal.
func isGoalDeclaration(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range goalKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func aggregateID(userID learner.UserID) string {
	return strconv.FormatInt(int64(userID), 10)
}

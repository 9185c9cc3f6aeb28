package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeRepo struct {
	profiles map[learner.UserID]*learner.Profile
	saveErr  error
	loads    int
	saves    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: make(map[learner.UserID]*learner.Profile)}
}

func (r *fakeRepo) LoadOrCreate(_ context.Context, userID learner.UserID, firstName string) (*learner.Profile, error) {
	r.loads++
	if p, ok := r.profiles[userID]; ok {
		return p.Clone(), nil
	}
	p, err := learner.NewProfile(userID, firstName)
	if err != nil {
		return nil, err
	}
	r.profiles[userID] = p.Clone()
	return p, nil
}

func (r *fakeRepo) Save(_ context.Context, profile *learner.Profile) error {
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	profile.Touch(time.Now())
	profile.History = profile.History.Truncated(learner.HistoryLimit)
	r.profiles[profile.UserID] = profile.Clone()
	return nil
}

type fakeCache struct {
	entries map[learner.UserID]*learner.Profile
	gets    int
	hits    int
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[learner.UserID]*learner.Profile)}
}

func (c *fakeCache) Get(_ context.Context, userID learner.UserID) (*learner.Profile, error) {
	c.gets++
	if p, ok := c.entries[userID]; ok {
		c.hits++
		return p.Clone(), nil
	}
	return nil, learner.ErrProfileNotFound
}

func (c *fakeCache) Set(_ context.Context, profile *learner.Profile, _ time.Duration) error {
	c.sets++
	c.entries[profile.UserID] = profile.Clone()
	return nil
}

func (c *fakeCache) Delete(_ context.Context, userID learner.UserID) error {
	c.deletes++
	delete(c.entries, userID)
	return nil
}

type fakeDetector struct {
	lang learner.LanguageCode
	conf learner.Confidence
}

func (d *fakeDetector) Detect(string) (learner.LanguageCode, learner.Confidence) {
	return d.lang, d.conf
}

type fakeResponder struct {
	reply string
	calls int
}

func (r *fakeResponder) Generate(_ context.Context, profile *learner.Profile, _ string) (string, learner.LanguageCode) {
	r.calls++
	return r.reply, profile.ResponseLanguage()
}

type fakeBus struct {
	events []shared.Event
}

func (b *fakeBus) Publish(_ context.Context, event shared.Event) error {
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBus) Subscribe(shared.EventType, shared.EventHandler) {}

func (b *fakeBus) typesSeen() []shared.EventType {
	out := make([]shared.EventType, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventType())
	}
	return out
}

func newTestEngine(repo *fakeRepo, cache *fakeCache, bus *fakeBus) *Engine {
	cfg := Config{
		Repository: repo,
		Detector:   &fakeDetector{lang: learner.DefaultLanguage, conf: 0.5},
		Responder:  &fakeResponder{reply: "Here is an explanation."},
		EventBus:   bus,
	}
	if cache != nil {
		cfg.Cache = cache
	}
	return NewEngine(cfg)
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestHandleMessage_FirstMessageAwardsAchievement(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	engine := newTestEngine(repo, nil, bus)

	reply, err := engine.HandleMessage(context.Background(), learner.UserID(1), "Bob", "how do plants grow?")

	assert.NoError(t, err)
	assert.Contains(t, reply, "Here is an explanation.")
	assert.Contains(t, reply, "🏆 **Achievement Unlocked:** First Question!")

	saved := repo.profiles[learner.UserID(1)]
	assert.Equal(t, 1, saved.Progress.TotalInteractions)
	assert.True(t, saved.Progress.Has(learner.AchievementFirstQuestion))
	assert.Len(t, saved.History, 2)

	assert.Contains(t, bus.typesSeen(), shared.EventProfileCreated)
	assert.Contains(t, bus.typesSeen(), shared.EventAchievementUnlocked)
}

func TestHandleMessage_SecondMessageNoAchievement(t *testing.T) {
	repo := newFakeRepo()
	engine := newTestEngine(repo, nil, &fakeBus{})
	ctx := context.Background()

	_, err := engine.HandleMessage(ctx, learner.UserID(1), "Bob", "first question?")
	assert.NoError(t, err)

	reply, err := engine.HandleMessage(ctx, learner.UserID(1), "Bob", "second question?")
	assert.NoError(t, err)
	assert.NotContains(t, reply, "Achievement Unlocked")
}

func TestHandleMessage_GoalDeclarationShortCircuits(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	engine := newTestEngine(repo, nil, bus)
	responder := engine.responder.(*fakeResponder)

	reply, err := engine.HandleMessage(context.Background(), learner.UserID(1), "Bob", "I want to learn Spanish")

	assert.NoError(t, err)
	assert.Contains(t, reply, "✅ Added to your learning goals:")
	assert.Contains(t, reply, "I want to learn Spanish")
	assert.Equal(t, 0, responder.calls)

	saved := repo.profiles[learner.UserID(1)]
	assert.Equal(t, []string{"I want to learn Spanish"}, saved.LearningGoals)
	// The goal path stores the interaction but skips achievement evaluation.
	assert.Equal(t, 1, saved.Progress.TotalInteractions)
	assert.False(t, saved.Progress.Has(learner.AchievementFirstQuestion))

	assert.Contains(t, bus.typesSeen(), shared.EventGoalCaptured)
	assert.NotContains(t, bus.typesSeen(), shared.EventAchievementUnlocked)
}

func TestHandleMessage_GoalCapFallsThroughToTeaching(t *testing.T) {
	repo := newFakeRepo()
	engine := newTestEngine(repo, nil, &fakeBus{})
	responder := engine.responder.(*fakeResponder)
	ctx := context.Background()

	for i := 0; i < learner.MaxLearningGoals; i++ {
		_, err := engine.HandleMessage(ctx, learner.UserID(1), "Bob", "I want to learn something")
		assert.NoError(t, err)
	}
	assert.Equal(t, 0, responder.calls)

	// At the cap the declaration is answered like a normal question.
	reply, err := engine.HandleMessage(ctx, learner.UserID(1), "Bob", "I want to learn one more thing")
	assert.NoError(t, err)
	assert.Contains(t, reply, "Here is an explanation.")
	assert.Equal(t, 1, responder.calls)

	saved := repo.profiles[learner.UserID(1)]
	assert.Len(t, saved.LearningGoals, learner.MaxLearningGoals)
}

func TestHandleMessage_LanguageAdoption(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	engine := newTestEngine(repo, nil, bus)
	engine.detector = &fakeDetector{lang: "es", conf: 0.85}

	_, err := engine.HandleMessage(context.Background(), learner.UserID(1), "Bob", "¿cómo funcionan las plantas?")
	assert.NoError(t, err)

	saved := repo.profiles[learner.UserID(1)]
	assert.Equal(t, learner.LanguageCode("es"), saved.PreferredLanguage)
	assert.Contains(t, bus.typesSeen(), shared.EventLanguageAdopted)
}

func TestHandleMessage_NoAdoptionAtThreshold(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	engine := newTestEngine(repo, nil, bus)
	engine.detector = &fakeDetector{lang: "es", conf: 0.7}

	_, err := engine.HandleMessage(context.Background(), learner.UserID(1), "Bob", "hola amigo")
	assert.NoError(t, err)

	saved := repo.profiles[learner.UserID(1)]
	assert.Equal(t, learner.DefaultLanguage, saved.PreferredLanguage)
	assert.NotContains(t, bus.typesSeen(), shared.EventLanguageAdopted)
}

func TestHandleMessage_SaveFailureReturnsFailureReply(t *testing.T) {
	repo := newFakeRepo()
	repo.saveErr = errors.New("db down")
	engine := newTestEngine(repo, nil, &fakeBus{})

	reply, err := engine.HandleMessage(context.Background(), learner.UserID(1), "Bob", "what is gravity?")

	assert.Error(t, err)
	assert.Equal(t, failureReply, reply)
}

func TestHandleMessage_CacheReadThroughAndInvalidation(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	engine := newTestEngine(repo, cache, &fakeBus{})
	ctx := context.Background()

	_, err := engine.HandleMessage(ctx, learner.UserID(1), "Bob", "what is gravity?")
	assert.NoError(t, err)

	// Miss, fill, then invalidate on save.
	assert.Equal(t, 1, cache.gets)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, cache.deletes)
	assert.Empty(t, cache.entries)

	// A cached profile skips the repository on the next read.
	profile, err := engine.Profile(ctx, learner.UserID(1), "Bob")
	assert.NoError(t, err)
	loadsAfterFill := repo.loads

	cached, err := engine.Profile(ctx, learner.UserID(1), "Bob")
	assert.NoError(t, err)
	assert.Equal(t, profile.UserID, cached.UserID)
	assert.Equal(t, loadsAfterFill, repo.loads)
	assert.Equal(t, 1, cache.hits)
}

func TestHandleMessage_NameRefreshLastWriteWins(t *testing.T) {
	repo := newFakeRepo()
	engine := newTestEngine(repo, nil, &fakeBus{})
	ctx := context.Background()

	_, err := engine.HandleMessage(ctx, learner.UserID(1), "Bob", "what is gravity?")
	assert.NoError(t, err)

	_, err = engine.HandleMessage(ctx, learner.UserID(1), "Robert", "what is mass?")
	assert.NoError(t, err)

	assert.Equal(t, "Robert", repo.profiles[learner.UserID(1)].FirstName)
}

func TestUpdateProfile_MutateErrorDoesNotSave(t *testing.T) {
	repo := newFakeRepo()
	engine := newTestEngine(repo, nil, &fakeBus{})

	_, err := engine.UpdateProfile(context.Background(), learner.UserID(1), "Bob", func(p *learner.Profile) error {
		return learner.ErrInvalidDifficulty
	})

	assert.ErrorIs(t, err, learner.ErrInvalidDifficulty)
	assert.Equal(t, 0, repo.saves)
}

func TestUpdateProfile_AppliesMutation(t *testing.T) {
	repo := newFakeRepo()
	engine := newTestEngine(repo, nil, &fakeBus{})

	updated, err := engine.UpdateProfile(context.Background(), learner.UserID(1), "Bob", func(p *learner.Profile) error {
		return p.SetDifficulty(learner.DifficultyAdvanced)
	})

	assert.NoError(t, err)
	assert.Equal(t, learner.DifficultyAdvanced, updated.Difficulty)
	assert.Equal(t, learner.DifficultyAdvanced, repo.profiles[learner.UserID(1)].Difficulty)
}

func TestIsGoalDeclaration(t *testing.T) {
	assert.True(t, isGoalDeclaration("I want to LEARN guitar"))
	assert.True(t, isGoalDeclaration("help me understand calculus"))
	assert.True(t, isGoalDeclaration("teach me python"))
	assert.False(t, isGoalDeclaration("what is the capital of France?"))
}

func TestHandleMessage_ReplyLanguageFollowsRouting(t *testing.T) {
	repo := newFakeRepo()
	engine := newTestEngine(repo, nil, &fakeBus{})
	engine.detector = &fakeDetector{lang: "fr", conf: 0.5}

	_, err := engine.HandleMessage(context.Background(), learner.UserID(1), "Bob", "bonjour, une question")
	assert.NoError(t, err)

	saved := repo.profiles[learner.UserID(1)]
	last := saved.History[len(saved.History)-1]
	assert.Equal(t, learner.EventBotResponse, last.Kind)
	assert.Equal(t, learner.LanguageCode("fr"), last.ResponseLanguage)
	assert.True(t, strings.HasPrefix(last.Text, "Here is an explanation."))
}

func TestHandleMessage_AchievementsGatedOff(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	engine := newTestEngine(repo, nil, bus)
	engine.achievementsEnabled = func(int64) bool { return false }

	reply, err := engine.HandleMessage(context.Background(), learner.UserID(1), "Bob", "how do plants grow?")

	assert.NoError(t, err)
	assert.Equal(t, "Here is an explanation.", reply)

	saved := repo.profiles[learner.UserID(1)]
	assert.Equal(t, 1, saved.Progress.TotalInteractions)
	assert.Empty(t, saved.Progress.Achievements)
	assert.NotContains(t, bus.typesSeen(), shared.EventAchievementUnlocked)
}

func TestHandleMessage_LanguageRoutingGatedOff(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	engine := newTestEngine(repo, nil, bus)
	engine.detector = &fakeDetector{lang: "es", conf: 0.85}
	engine.languageRoutingEnabled = func(int64) bool { return false }

	_, err := engine.HandleMessage(context.Background(), learner.UserID(1), "Bob", "¿cómo crecen las plantas?")

	assert.NoError(t, err)

	saved := repo.profiles[learner.UserID(1)]
	// Detection is still recorded, but the strong signal adopts nothing.
	assert.Equal(t, learner.LanguageCode("es"), saved.DetectedLanguage)
	assert.Equal(t, learner.DefaultLanguage, saved.PreferredLanguage)
	assert.NotContains(t, bus.typesSeen(), shared.EventLanguageAdopted)
}

func TestHandleMessage_NilGatesMeanEnabled(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	engine := newTestEngine(repo, nil, bus)
	engine.detector = &fakeDetector{lang: "es", conf: 0.85}

	reply, err := engine.HandleMessage(context.Background(), learner.UserID(1), "Bob", "¿cómo crecen las plantas?")

	assert.NoError(t, err)
	assert.Contains(t, reply, "First Question!")
	assert.Equal(t, learner.LanguageCode("es"), repo.profiles[learner.UserID(1)].PreferredLanguage)
}

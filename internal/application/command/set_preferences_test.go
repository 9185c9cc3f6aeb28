package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
)

// fakeStore applies mutations to an in-memory profile.
type fakeStore struct {
	profile *learner.Profile
	calls   int
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	profile, err := learner.NewProfile(learner.UserID(7), "Bob")
	assert.NoError(t, err)
	return &fakeStore{profile: profile}
}

func (s *fakeStore) UpdateProfile(_ context.Context, _ learner.UserID, _ string, mutate func(*learner.Profile) error) (*learner.Profile, error) {
	s.calls++
	if err := mutate(s.profile); err != nil {
		return nil, err
	}
	return s.profile, nil
}

func TestSetDifficultyHandler(t *testing.T) {
	store := newFakeStore(t)
	handler := NewSetDifficultyHandler(store)

	result, err := handler.Handle(context.Background(), SetDifficultyCommand{
		UserID:     learner.UserID(7),
		FirstName:  "Bob",
		Difficulty: learner.DifficultyAdvanced,
	})

	assert.NoError(t, err)
	assert.Equal(t, learner.DifficultyAdvanced, result.Difficulty)
	assert.Equal(t, learner.DifficultyAdvanced, store.profile.Difficulty)
}

func TestSetDifficultyHandler_RejectsBeforeStoreTouched(t *testing.T) {
	store := newFakeStore(t)
	handler := NewSetDifficultyHandler(store)

	_, err := handler.Handle(context.Background(), SetDifficultyCommand{
		UserID:     learner.UserID(7),
		Difficulty: learner.Difficulty("expert"),
	})

	assert.ErrorIs(t, err, learner.ErrInvalidDifficulty)
	assert.Equal(t, 0, store.calls)
}

func TestSetDifficultyCommand_Validate_UserID(t *testing.T) {
	err := SetDifficultyCommand{Difficulty: learner.DifficultyBeginner}.Validate()
	assert.Error(t, err)
}

func TestSetLearningStyleHandler(t *testing.T) {
	store := newFakeStore(t)
	handler := NewSetLearningStyleHandler(store)

	result, err := handler.Handle(context.Background(), SetLearningStyleCommand{
		UserID:    learner.UserID(7),
		FirstName: "Bob",
		Style:     learner.StyleKinesthetic,
	})

	assert.NoError(t, err)
	assert.Equal(t, learner.StyleKinesthetic, result.Style)
}

func TestSetLearningStyleHandler_RejectsUnknownStyle(t *testing.T) {
	store := newFakeStore(t)
	handler := NewSetLearningStyleHandler(store)

	_, err := handler.Handle(context.Background(), SetLearningStyleCommand{
		UserID: learner.UserID(7),
		Style:  learner.Style("mixed"), // only accepted by ParseStyle, not by the command
	})

	assert.ErrorIs(t, err, learner.ErrInvalidStyle)
	assert.Equal(t, 0, store.calls)
}

func TestSetPreferredLanguageHandler(t *testing.T) {
	store := newFakeStore(t)
	handler := NewSetPreferredLanguageHandler(store)

	result, err := handler.Handle(context.Background(), SetPreferredLanguageCommand{
		UserID:    learner.UserID(7),
		FirstName: "Bob",
		Language:  learner.LanguageCode("pt"),
	})

	assert.NoError(t, err)
	assert.Equal(t, learner.LanguageCode("pt"), result.Language)
	assert.Equal(t, learner.LanguageCode("pt"), store.profile.PreferredLanguage)
}

func TestSetPreferredLanguageHandler_RejectsInvalidCode(t *testing.T) {
	store := newFakeStore(t)
	handler := NewSetPreferredLanguageHandler(store)

	_, err := handler.Handle(context.Background(), SetPreferredLanguageCommand{
		UserID:   learner.UserID(7),
		Language: learner.LanguageCode("Not A Code"),
	})

	assert.ErrorIs(t, err, learner.ErrInvalidLanguageCode)
	assert.Equal(t, 0, store.calls)
}

// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
)

// ProfileStore applies a mutation to a learner profile and persists the
// result. Implemented by the session engine, which serializes updates per
// user.
type ProfileStore interface {
	UpdateProfile(ctx context.Context, userID learner.UserID, firstName string, mutate func(*learner.Profile) error) (*learner.Profile, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// SET DIFFICULTY COMMAND
// Sets the learner's difficulty level from the closed enum. Unknown values
// are rejected before the profile is touched.
// ══════════════════════════════════════════════════════════════════════════════

// SetDifficultyCommand contains the data to change the difficulty level.
type SetDifficultyCommand struct {
	// UserID is the platform ID of the learner.
	UserID learner.UserID

	// FirstName refreshes the stored name on write.
	FirstName string

	// Difficulty is the new difficulty level.
	Difficulty learner.Difficulty
}

// Validate validates the command.
func (c SetDifficultyCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("set_difficulty: user_id is required")
	}
	if !c.Difficulty.IsValid() {
		return fmt.Errorf("set_difficulty: %w: %q", learner.ErrInvalidDifficulty, c.Difficulty)
	}
	return nil
}

// SetDifficultyResult contains the result of changing the difficulty.
type SetDifficultyResult struct {
	// UserID is the platform ID of the learner.
	UserID learner.UserID

	// Difficulty is the difficulty level now in effect.
	Difficulty learner.Difficulty

	// UpdatedAt is when the change was persisted.
	UpdatedAt time.Time
}

// SetDifficultyHandler handles the SetDifficultyCommand.
type SetDifficultyHandler struct {
	store ProfileStore
}

// NewSetDifficultyHandler creates a new SetDifficultyHandler.
func NewSetDifficultyHandler(store ProfileStore) *SetDifficultyHandler {
	return &SetDifficultyHandler{store: store}
}

// Handle executes the set difficulty command.
func (h *SetDifficultyHandler) Handle(ctx context.Context, cmd SetDifficultyCommand) (*SetDifficultyResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	profile, err := h.store.UpdateProfile(ctx, cmd.UserID, cmd.FirstName, func(p *learner.Profile) error {
		return p.SetDifficulty(cmd.Difficulty)
	})
	if err != nil {
		return nil, fmt.Errorf("set_difficulty: %w", err)
	}

	return &SetDifficultyResult{
		UserID:     profile.UserID,
		Difficulty: profile.Difficulty,
		UpdatedAt:  profile.LastActive,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SET LEARNING STYLE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SetLearningStyleCommand contains the data to change the learning style.
type SetLearningStyleCommand struct {
	// UserID is the platform ID of the learner.
	UserID learner.UserID

	// FirstName refreshes the stored name on write.
	FirstName string

	// Style is the new learning style.
	Style learner.Style
}

// Validate validates the command.
func (c SetLearningStyleCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("set_learning_style: user_id is required")
	}
	if !c.Style.IsValid() {
		return fmt.Errorf("set_learning_style: %w: %q", learner.ErrInvalidStyle, c.Style)
	}
	return nil
}

// SetLearningStyleResult contains the result of changing the learning style.
type SetLearningStyleResult struct {
	// UserID is the platform ID of the learner.
	UserID learner.UserID

	// Style is the learning style now in effect.
	Style learner.Style

	// UpdatedAt is when the change was persisted.
	UpdatedAt time.Time
}

// SetLearningStyleHandler handles the SetLearningStyleCommand.
type SetLearningStyleHandler struct {
	store ProfileStore
}

// NewSetLearningStyleHandler creates a new SetLearningStyleHandler.
func NewSetLearningStyleHandler(store ProfileStore) *SetLearningStyleHandler {
	return &SetLearningStyleHandler{store: store}
}

// Handle executes the set learning style command.
func (h *SetLearningStyleHandler) Handle(ctx context.Context, cmd SetLearningStyleCommand) (*SetLearningStyleResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	profile, err := h.store.UpdateProfile(ctx, cmd.UserID, cmd.FirstName, func(p *learner.Profile) error {
		return p.SetStyle(cmd.Style)
	})
	if err != nil {
		return nil, fmt.Errorf("set_learning_style: %w", err)
	}

	return &SetLearningStyleResult{
		UserID:    profile.UserID,
		Style:     profile.Style,
		UpdatedAt: profile.LastActive,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SET PREFERRED LANGUAGE COMMAND
// Explicit preference beats any adopted detection: once set, only another
// explicit command changes it.
// ══════════════════════════════════════════════════════════════════════════════

// SetPreferredLanguageCommand contains the data to change the preferred language.
type SetPreferredLanguageCommand struct {
	// UserID is the platform ID of the learner.
	UserID learner.UserID

	// FirstName refreshes the stored name on write.
	FirstName string

	// Language is the new preferred language (ISO 639-1).
	Language learner.LanguageCode
}

// Validate validates the command.
func (c SetPreferredLanguageCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("set_preferred_language: user_id is required")
	}
	if !c.Language.IsValid() {
		return fmt.Errorf("set_preferred_language: %w: %q", learner.ErrInvalidLanguageCode, c.Language)
	}
	return nil
}

// SetPreferredLanguageResult contains the result of changing the language.
type SetPreferredLanguageResult struct {
	// UserID is the platform ID of the learner.
	UserID learner.UserID

	// Language is the preferred language now in effect.
	Language learner.LanguageCode

	// UpdatedAt is when the change was persisted.
	UpdatedAt time.Time
}

// SetPreferredLanguageHandler handles the SetPreferredLanguageCommand.
type SetPreferredLanguageHandler struct {
	store ProfileStore
}

// NewSetPreferredLanguageHandler creates a new SetPreferredLanguageHandler.
func NewSetPreferredLanguageHandler(store ProfileStore) *SetPreferredLanguageHandler {
	return &SetPreferredLanguageHandler{store: store}
}

// Handle executes the set preferred language command.
func (h *SetPreferredLanguageHandler) Handle(ctx context.Context, cmd SetPreferredLanguageCommand) (*SetPreferredLanguageResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	profile, err := h.store.UpdateProfile(ctx, cmd.UserID, cmd.FirstName, func(p *learner.Profile) error {
		return p.SetPreferredLanguage(cmd.Language)
	})
	if err != nil {
		return nil, fmt.Errorf("set_preferred_language: %w", err)
	}

	return &SetPreferredLanguageResult{
		UserID:    profile.UserID,
		Language:  profile.PreferredLanguage,
		UpdatedAt: profile.LastActive,
	}, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements learner.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

const profileColumns = `
	user_id, first_name, learning_goals, difficulty, learning_style,
	conversation_history, progress, preferred_language, detected_language,
	language_confidence, created_at, last_active
`

// LoadOrCreate returns the profile for userID, creating a default profile if
// none exists. Never returns learner.ErrProfileNotFound.
func (r *ProfileRepository) LoadOrCreate(ctx context.Context, userID learner.UserID, firstName string) (*learner.Profile, error) {
	profile, err := r.get(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if err != learner.ErrProfileNotFound {
		return nil, err
	}

	fresh, err := learner.NewProfile(userID, firstName)
	if err != nil {
		return nil, err
	}

	// ON CONFLICT DO NOTHING keeps creation idempotent: two concurrent
	// first contacts must never yield two records for the same id.
	if err := r.insert(ctx, fresh); err != nil {
		return nil, err
	}

	return r.get(ctx, userID)
}

// Save performs a full upsert keyed by user_id (replace-all-columns
// semantics). LastActive is refreshed and the conversation history is
// truncated to learner.HistoryLimit entries before writing; conflicting
// saves for the same user overwrite each other - last writer wins.
func (r *ProfileRepository) Save(ctx context.Context, profile *learner.Profile) error {
	profile.History = profile.History.Truncated(learner.HistoryLimit)
	profile.Touch(time.Now())

	goals, history, progress, err := marshalStructured(profile)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			learning_goals = EXCLUDED.learning_goals,
			difficulty = EXCLUDED.difficulty,
			learning_style = EXCLUDED.learning_style,
			conversation_history = EXCLUDED.conversation_history,
			progress = EXCLUDED.progress,
			preferred_language = EXCLUDED.preferred_language,
			detected_language = EXCLUDED.detected_language,
			language_confidence = EXCLUDED.language_confidence,
			last_active = EXCLUDED.last_active
	`

	_, err = r.conn.Exec(ctx, query,
		int64(profile.UserID),
		profile.FirstName,
		goals,
		string(profile.Difficulty),
		string(profile.Style),
		history,
		progress,
		string(profile.PreferredLanguage),
		string(profile.DetectedLanguage),
		float64(profile.LanguageConfidence),
		profile.CreatedAt,
		profile.LastActive,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %d: %w", profile.UserID, err)
	}

	return nil
}

// get returns the stored profile or learner.ErrProfileNotFound.
func (r *ProfileRepository) get(ctx context.Context, userID learner.UserID) (*learner.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	return scanProfile(r.conn.QueryRow(ctx, query, int64(userID)))
}

// insert creates a new profile row, ignoring a concurrent insert of the same id.
func (r *ProfileRepository) insert(ctx context.Context, profile *learner.Profile) error {
	goals, history, progress, err := marshalStructured(profile)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err = r.conn.Exec(ctx, query,
		int64(profile.UserID),
		profile.FirstName,
		goals,
		string(profile.Difficulty),
		string(profile.Style),
		history,
		progress,
		string(profile.PreferredLanguage),
		string(profile.DetectedLanguage),
		float64(profile.LanguageConfidence),
		profile.CreatedAt,
		profile.LastActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile %d: %w", profile.UserID, err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SERIALIZATION
// Structured fields are stored as JSONB and must round-trip exactly:
// ordering preserved, no key loss.
// ══════════════════════════════════════════════════════════════════════════════

// marshalStructured serializes the structured profile fields.
func marshalStructured(profile *learner.Profile) (goals, history, progress []byte, err error) {
	goals, err = json.Marshal(profile.LearningGoals)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal learning goals: %w", err)
	}

	history, err = json.Marshal(profile.History)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal conversation history: %w", err)
	}

	progress, err = json.Marshal(profile.Progress)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal progress: %w", err)
	}

	return goals, history, progress, nil
}

// rowScanner abstracts pgx.Row for scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanProfile scans a profile row into the domain entity.
func scanProfile(row rowScanner) (*learner.Profile, error) {
	var (
		p           learner.Profile
		userID      int64
		goalsRaw    []byte
		historyRaw  []byte
		progressRaw []byte
		difficulty  string
		style       string
		preferred   string
		detected    string
		confidence  float64
	)

	err := row.Scan(
		&userID,
		&p.FirstName,
		&goalsRaw,
		&difficulty,
		&style,
		&historyRaw,
		&progressRaw,
		&preferred,
		&detected,
		&confidence,
		&p.CreatedAt,
		&p.LastActive,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, learner.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	p.UserID = learner.UserID(userID)
	p.Difficulty = learner.Difficulty(difficulty)
	p.Style = learner.Style(style)
	p.PreferredLanguage = learner.LanguageCode(preferred)
	p.DetectedLanguage = learner.LanguageCode(detected)
	p.LanguageConfidence = learner.Confidence(confidence)

	if err := json.Unmarshal(goalsRaw, &p.LearningGoals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal learning goals: %w", err)
	}
	if err := json.Unmarshal(historyRaw, &p.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	if err := json.Unmarshal(progressRaw, &p.Progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}

	return &p, nil
}

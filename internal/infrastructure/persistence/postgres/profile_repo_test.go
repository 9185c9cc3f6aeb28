package postgres

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
)

// fakeRow plays back stored column values through the rowScanner contract,
// the same shapes pgx would deliver for the profiles table.
type fakeRow struct {
	values []interface{}
	err    error
}

func (f *fakeRow) Scan(dest ...interface{}) error {
	if f.err != nil {
		return f.err
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(f.values[i]))
	}
	return nil
}

func rowFromProfile(t *testing.T, p *learner.Profile) *fakeRow {
	t.Helper()

	goals, history, progress, err := marshalStructured(p)
	assert.NoError(t, err)

	return &fakeRow{values: []interface{}{
		int64(p.UserID),
		p.FirstName,
		goals,
		string(p.Difficulty),
		string(p.Style),
		history,
		progress,
		string(p.PreferredLanguage),
		string(p.DetectedLanguage),
		float64(p.LanguageConfidence),
		p.CreatedAt,
		p.LastActive,
	}}
}

func TestProfileSerialization_RoundTrip(t *testing.T) {
	profile, err := learner.NewProfile(learner.UserID(42), "Aida")
	assert.NoError(t, err)

	assert.NoError(t, profile.AddGoal("learn spanish"))
	assert.NoError(t, profile.AddGoal("master algebra"))
	assert.NoError(t, profile.SetDifficulty(learner.DifficultyAdvanced))
	assert.NoError(t, profile.SetStyle(learner.StyleVisual))
	profile.RecordDetection("es", 0.85)
	profile.Progress.RecordInteraction()
	profile.Progress.Grant(learner.AchievementFirstQuestion)

	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	profile.History.AppendUserMessage(at, "hola", "es", 0.85)
	profile.History.AppendBotResponse(at.Add(time.Second), "¡Hola!", "es")

	loaded, err := scanProfile(rowFromProfile(t, profile))

	assert.NoError(t, err)
	assert.Equal(t, profile, loaded)
}

func TestProfileSerialization_RoundTripDefaults(t *testing.T) {
	profile, err := learner.NewProfile(learner.UserID(7), "Bob")
	assert.NoError(t, err)

	loaded, err := scanProfile(rowFromProfile(t, profile))

	assert.NoError(t, err)
	assert.Equal(t, profile, loaded)
	assert.Equal(t, []string{}, loaded.LearningGoals)
	assert.Equal(t, []learner.Achievement{}, loaded.Progress.Achievements)
}

func TestScanProfile_NoRows(t *testing.T) {
	_, err := scanProfile(&fakeRow{err: pgx.ErrNoRows})

	assert.ErrorIs(t, err, learner.ErrProfileNotFound)
}

func TestScanProfile_ScanError(t *testing.T) {
	_, err := scanProfile(&fakeRow{err: errors.New("connection reset")})

	assert.Error(t, err)
	assert.NotErrorIs(t, err, learner.ErrProfileNotFound)
}

func TestScanProfile_CorruptedGoals(t *testing.T) {
	profile, err := learner.NewProfile(learner.UserID(7), "Bob")
	assert.NoError(t, err)

	row := rowFromProfile(t, profile)
	row.values[2] = []byte("{not json")

	_, err = scanProfile(row)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "learning goals")
}

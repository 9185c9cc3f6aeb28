package postgres

import (
	"context"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create learner profiles table
-- Version: 001

CREATE TABLE IF NOT EXISTS profiles (
    user_id BIGINT PRIMARY KEY,
    first_name TEXT NOT NULL DEFAULT '',
    learning_goals JSONB NOT NULL DEFAULT '[]'::jsonb,
    difficulty VARCHAR(20) NOT NULL DEFAULT 'beginner',
    learning_style VARCHAR(20) NOT NULL DEFAULT 'balanced',
    conversation_history JSONB NOT NULL DEFAULT '[]'::jsonb,
    progress JSONB NOT NULL DEFAULT '{"total_interactions": 0, "achievements": []}'::jsonb,
    preferred_language VARCHAR(8) NOT NULL DEFAULT 'en',
    detected_language VARCHAR(8) NOT NULL DEFAULT 'en',
    language_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_active TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Constraints for data integrity
    CONSTRAINT valid_user_id CHECK (user_id > 0),
    CONSTRAINT valid_difficulty CHECK (difficulty IN ('beginner', 'intermediate', 'advanced')),
    CONSTRAINT valid_learning_style CHECK (learning_style IN ('visual', 'auditory', 'kinesthetic', 'balanced')),
    CONSTRAINT valid_confidence CHECK (language_confidence >= 0 AND language_confidence <= 1)
);

-- Index for inactivity queries
CREATE INDEX IF NOT EXISTS idx_profiles_last_active ON profiles(last_active);
`

const migration001Down = `
DROP TABLE IF EXISTS profiles;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a single schema migration.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// GetMigrations returns all migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_profiles", Up: migration001Up, Down: migration001Down},
	}
}

// Migrator applies schema migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a new Migrator with the default migration set.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
	}
}

// EnsureMigrationTable creates the schema_migrations bookkeeping table.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to create migration table: %v", ErrMigrationFailed, err)
	}
	return nil
}

// GetAppliedMigrations returns the versions that have already been applied.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.Query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read applied migrations: %v", ErrMigrationFailed, err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan migration row: %v", ErrMigrationFailed, err)
		}
		applied[version] = appliedAt
	}

	return applied, rows.Err()
}

// Migrate applies all pending migrations in order.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if _, ok := applied[migration.Version]; ok {
			continue
		}

		if _, err := m.conn.Exec(ctx, migration.Up); err != nil {
			return fmt.Errorf("%w: migration %03d (%s): %v",
				ErrMigrationFailed, migration.Version, migration.Name, err)
		}

		_, err = m.conn.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			migration.Version, migration.Name)
		if err != nil {
			return fmt.Errorf("%w: failed to record migration %03d: %v",
				ErrMigrationFailed, migration.Version, err)
		}
	}

	return nil
}

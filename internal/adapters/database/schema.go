package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Table names.
const (
	landingContentTable = "landing_page_contents"
	doctorProfilesTable = "doctor_profiles"
)

var schemas = map[string][]string{
	"postgres": {
		`CREATE TABLE IF NOT EXISTS doctor_profiles (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			credentials  TEXT NOT NULL DEFAULT '',
			locations    JSONB NOT NULL DEFAULT '[]',
			testimonials JSONB NOT NULL DEFAULT '[]',
			website      TEXT NOT NULL DEFAULT '',
			avatar_url   TEXT,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS landing_page_contents (
			id             TEXT PRIMARY KEY,
			doctor_id      TEXT NOT NULL,
			quiz_type      TEXT NOT NULL,
			content        JSONB NOT NULL,
			chatbot_colors JSONB,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_landing_page_contents_key
			ON landing_page_contents (doctor_id, quiz_type)`,
	},
	"sqlite3": {
		`CREATE TABLE IF NOT EXISTS doctor_profiles (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			credentials  TEXT NOT NULL DEFAULT '',
			locations    TEXT NOT NULL DEFAULT '[]',
			testimonials TEXT NOT NULL DEFAULT '[]',
			website      TEXT NOT NULL DEFAULT '',
			avatar_url   TEXT,
			created_at   TIMESTAMP NOT NULL,
			updated_at   TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS landing_page_contents (
			id             TEXT PRIMARY KEY,
			doctor_id      TEXT NOT NULL,
			quiz_type      TEXT NOT NULL,
			content        TEXT NOT NULL,
			chatbot_colors TEXT,
			created_at     TIMESTAMP NOT NULL,
			updated_at     TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_landing_page_contents_key
			ON landing_page_contents (doctor_id, quiz_type)`,
	},
}

// EnsureSchema creates the service's tables when they do not exist. The
// (doctor_id, quiz_type) index is deliberately not unique: duplicates are
// reconciled on read.
func EnsureSchema(ctx context.Context, db *sql.DB, dialect string) error {
	stmts, ok := schemas[dialect]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", dialect)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

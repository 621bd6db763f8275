package store

import (
	"database/sql"
	"fmt"
)

// migration is a single schema step. Append new steps with incrementing
// versions; never edit an applied one.
type migration struct {
	version     int
	description string
	up          func(tx *sql.Tx) error
}

var migrations = []migration{
	{
		version:     1,
		description: "initial schema",
		up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS raw_updates (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    source_url TEXT NOT NULL,
    source_item_id TEXT,
    published_at TEXT NOT NULL,
    fetched_at TEXT NOT NULL,
    raw_text TEXT NOT NULL,
    raw_html TEXT,
    content_hash TEXT NOT NULL,
    UNIQUE (source, source_url),
    UNIQUE (source, source_item_id)
);
CREATE INDEX IF NOT EXISTS ix_raw_updates_published_at ON raw_updates(published_at);
CREATE INDEX IF NOT EXISTS ix_raw_updates_source ON raw_updates(source);

CREATE TABLE IF NOT EXISTS clean_updates (
    id TEXT PRIMARY KEY,
    raw_update_id TEXT NOT NULL UNIQUE REFERENCES raw_updates(id) ON DELETE CASCADE,
    cleaned_text TEXT NOT NULL,
    cleaned_hash TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS duplicate_groups (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    signature TEXT
);

CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    clean_update_id TEXT NOT NULL REFERENCES clean_updates(id) ON DELETE CASCADE,
    mode TEXT NOT NULL CHECK (mode IN ('action', 'info')),
    category TEXT NOT NULL,
    action_type TEXT,
    urgency TEXT NOT NULL CHECK (urgency IN ('low', 'medium', 'high')),
    county TEXT,
    city TEXT,
    title TEXT NOT NULL,
    summary TEXT NOT NULL,
    source TEXT NOT NULL,
    source_url TEXT NOT NULL,
    published_at TEXT NOT NULL,
    duplicate_group_id TEXT REFERENCES duplicate_groups(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS ix_cards_mode ON cards(mode);
CREATE INDEX IF NOT EXISTS ix_cards_category ON cards(category);
CREATE INDEX IF NOT EXISTS ix_cards_urgency ON cards(urgency);
CREATE INDEX IF NOT EXISTS ix_cards_county ON cards(county);
CREATE INDEX IF NOT EXISTS ix_cards_published_at ON cards(published_at);
CREATE INDEX IF NOT EXISTS ix_cards_duplicate_group_id ON cards(duplicate_group_id);
`)
			return err
		},
	},
}

func latestVersion() int {
	return migrations[len(migrations)-1].version
}

// migrate brings the schema up to the latest version, tracked in
// PRAGMA user_version.
func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if current >= latestVersion() {
		return nil
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if err := m.up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}

		// PRAGMA user_version cannot run inside the transaction under
		// modernc/sqlite. Safe: the DDL above is idempotent, so a crash
		// between commit and stamp just re-runs the migration.
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("stamp version %d: %w", m.version, err)
		}
	}

	return nil
}

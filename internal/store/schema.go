package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Timestamps are stored as Unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id             TEXT PRIMARY KEY,
		sequence       INTEGER NOT NULL UNIQUE,
		activity       TEXT NOT NULL,
		kind           TEXT NOT NULL,
		score          INTEGER NOT NULL,
		level          INTEGER NOT NULL,
		turn_limit     INTEGER NOT NULL,
		difficulty     REAL NOT NULL,
		degraded       INTEGER NOT NULL DEFAULT 0,
		mean_accuracy  REAL,
		new_difficulty REAL,
		started_at     INTEGER NOT NULL,
		completed_at   INTEGER NOT NULL,
		submitted_at   INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_activity ON sessions (activity, sequence)`,
	`CREATE TABLE IF NOT EXISTS trial_outcomes (
		session_id TEXT NOT NULL REFERENCES sessions (id) ON DELETE CASCADE,
		turn_index INTEGER NOT NULL,
		prompt_id  TEXT NOT NULL,
		prompt     TEXT NOT NULL,
		candidate  TEXT,
		correct    INTEGER NOT NULL,
		skipped    INTEGER NOT NULL,
		PRIMARY KEY (session_id, turn_index)
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		timestamp     INTEGER NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		latency_ms    INTEGER NOT NULL,
		success       INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence  INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		data      TEXT NOT NULL
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

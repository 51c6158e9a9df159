package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is portable between SQLite and PostgreSQL. Statements run one at a
// time and are safe to repeat.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    event_date TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS categories (
    event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (event_id, name)
)`,
	`CREATE TABLE IF NOT EXISTS results (
    event_id TEXT NOT NULL,
    category TEXT NOT NULL,
    position INTEGER NOT NULL,
    bib TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    rank INTEGER NOT NULL,
    chip_time TEXT NOT NULL DEFAULT '',
    avg_pace TEXT NOT NULL DEFAULT '',
    division TEXT,
    gender TEXT,
    age INTEGER,
    division_place INTEGER,
    age_performance DOUBLE PRECISION,
    PRIMARY KEY (event_id, category, position)
)`,
	`CREATE INDEX IF NOT EXISTS results_rank_idx ON results (event_id, category, rank)`,
	`CREATE TABLE IF NOT EXISTS photos (
    event_id TEXT NOT NULL,
    bib TEXT NOT NULL,
    url TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (event_id, bib, url)
)`,
	`CREATE INDEX IF NOT EXISTS photos_event_idx ON photos (event_id, url)`,
}

// CreateSchema creates all tables needed by the store.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

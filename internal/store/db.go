// Package store is the Postgres fallback for session persistence, used
// when Redis or MinIO is not configured. Both the report and the
// artifact live in single-row tables keyed by the fixed session key.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(8)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// ApplySchema creates the session tables. The schema is two fixed
// single-row tables, so it is applied inline rather than through
// migration files.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS session_reports (
			session_key TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS session_artifacts (
			session_key TEXT PRIMARY KEY,
			content BYTEA NOT NULL,
			checksum TEXT NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

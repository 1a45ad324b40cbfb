package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and applies the pool limits
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS admin_profiles (
	id         UUID PRIMARY KEY,
	admin_id   TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	phone      TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT '',
	dirty      BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	synced_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS issuance_journal (
	id           UUID PRIMARY KEY,
	fingerprint  TEXT NOT NULL,
	server_id    TEXT NOT NULL DEFAULT '',
	actor        TEXT NOT NULL,
	channel      TEXT NOT NULL,
	category     TEXT NOT NULL,
	letter_type  TEXT NOT NULL,
	course       TEXT NOT NULL,
	recipient    TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_issuance_journal_fingerprint ON issuance_journal (fingerprint);
CREATE INDEX IF NOT EXISTS idx_issuance_journal_submitted_at ON issuance_journal (submitted_at DESC);
`

// EnsureSchema creates the tables this service owns if they are missing
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

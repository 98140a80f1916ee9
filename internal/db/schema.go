package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// statements are idempotent; there is no migration history.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id          UUID PRIMARY KEY,
		title       TEXT NOT NULL CHECK (title <> ''),
		description TEXT NOT NULL DEFAULT '',
		date        TIMESTAMPTZ NOT NULL,
		location    TEXT NOT NULL DEFAULT '',
		capacity    INTEGER NOT NULL DEFAULT 0 CHECK (capacity >= 0),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS events_date_id_idx ON events (date, id)`,

	`CREATE TABLE IF NOT EXISTS attendees (
		id            UUID PRIMARY KEY,
		event_id      UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL DEFAULT '',
		phone         TEXT NOT NULL DEFAULT '',
		tickets       INTEGER NOT NULL DEFAULT 1 CHECK (tickets >= 1),
		registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS attendees_event_idx ON attendees (event_id, registered_at, id)`,

	`CREATE TABLE IF NOT EXISTS jobs (
		id              UUID PRIMARY KEY,
		type            TEXT NOT NULL,
		payload         JSONB NOT NULL,
		status          TEXT NOT NULL DEFAULT 'pending',
		attempts        INTEGER NOT NULL DEFAULT 0,
		max_attempts    INTEGER NOT NULL DEFAULT 10,
		run_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		locked_at       TIMESTAMPTZ,
		locked_by       TEXT,
		last_error      TEXT,
		idempotency_key TEXT UNIQUE,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS jobs_claim_idx ON jobs (status, run_at)`,

	`CREATE TABLE IF NOT EXISTS confirmation_deliveries (
		attendee_id UUID PRIMARY KEY REFERENCES attendees(id) ON DELETE CASCADE,
		job_id      UUID NOT NULL,
		recipient   TEXT NOT NULL,
		status      TEXT NOT NULL,
		last_error  TEXT,
		sent_at     TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}

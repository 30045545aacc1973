package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate bootstraps the schema. Statements are idempotent so both
// binaries can run this at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id            UUID PRIMARY KEY,
			name          TEXT NOT NULL,
			description   TEXT NOT NULL DEFAULT '',
			date          TIMESTAMPTZ NOT NULL,
			location      TEXT NOT NULL DEFAULT '',
			max_attendees INT NOT NULL CHECK (max_attendees >= 1),
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS events_date_idx ON events (date)`,
		`CREATE INDEX IF NOT EXISTS events_location_date_idx ON events (location, date)`,

		`CREATE TABLE IF NOT EXISTS attendees (
			id         UUID PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS attendees_email_uniq ON attendees (LOWER(email))`,

		`CREATE TABLE IF NOT EXISTS registrations (
			id            UUID PRIMARY KEY,
			event_id      UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			attendee_id   UUID NOT NULL REFERENCES attendees(id),
			registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS registrations_event_attendee_uniq
			ON registrations (event_id, attendee_id)`,
		`CREATE INDEX IF NOT EXISTS registrations_attendee_idx ON registrations (attendee_id)`,

		`CREATE TABLE IF NOT EXISTS jobs (
			id              UUID PRIMARY KEY,
			type            TEXT NOT NULL,
			payload         JSONB NOT NULL,
			status          TEXT NOT NULL,
			attempts        INT NOT NULL DEFAULT 0,
			max_attempts    INT NOT NULL DEFAULT 10,
			run_at          TIMESTAMPTZ NOT NULL,
			locked_at       TIMESTAMPTZ,
			locked_by       TEXT,
			last_error      TEXT,
			idempotency_key TEXT,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS jobs_claim_idx ON jobs (status, run_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS jobs_idempotency_uniq
			ON jobs (idempotency_key) WHERE idempotency_key IS NOT NULL`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

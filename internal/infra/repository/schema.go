package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pendingDeparturesSchema = `
CREATE TABLE IF NOT EXISTS pending_departures (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL,
	start_label        TEXT NOT NULL,
	end_label          TEXT NOT NULL,
	mode               TEXT NOT NULL,
	desired_arrival    TIMESTAMPTZ NOT NULL,
	computed_departure TIMESTAMPTZ NOT NULL,
	route_snapshot     JSONB,
	notification_sent  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_pending_departures_due
	ON pending_departures (computed_departure)
	WHERE notification_sent = FALSE;

CREATE INDEX IF NOT EXISTS idx_pending_departures_user
	ON pending_departures (user_id, created_at DESC);
`

// EnsureSchema creates the tables and indexes this service needs. Statements
// are idempotent, so running it on every startup is safe.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, pendingDeparturesSchema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

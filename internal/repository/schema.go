package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ChangeChannel is the NOTIFY channel fed by the tracked_phones trigger.
const ChangeChannel = "tracked_phones_changes"

// Execer is satisfied by *pgx.Conn and *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tracked_phones (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		phone_number TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS tracked_phones_last_updated_idx ON tracked_phones (last_updated DESC)`,
	`CREATE OR REPLACE FUNCTION notify_tracked_phones_change() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('` + ChangeChannel + `', TG_OP);
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS tracked_phones_change ON tracked_phones`,
	`CREATE TRIGGER tracked_phones_change
		AFTER INSERT OR UPDATE OR DELETE ON tracked_phones
		FOR EACH ROW EXECUTE FUNCTION notify_tracked_phones_change()`,
}

// EnsureSchema creates the tracked_phones table and its change trigger if missing.
func EnsureSchema(ctx context.Context, db Execer) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("repository: failed to ensure schema: %w", err)
		}
	}
	return nil
}

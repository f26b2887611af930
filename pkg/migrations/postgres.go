package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsurePostgresSchema creates the tables the processor needs if they
// do not exist yet. Safe to run on every startup; deployments that
// manage schema with the SQL migrations under migrations/postgres can
// leave it disabled.
func EnsurePostgresSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS logistics_orders (
			id BIGSERIAL PRIMARY KEY,
			message_id TEXT NOT NULL UNIQUE,
			subject TEXT,
			sender TEXT,
			date TIMESTAMPTZ,
			loading_address TEXT,
			unloading_address TEXT,
			loading_date TEXT,
			unloading_date TEXT,
			loading_lat DOUBLE PRECISION,
			loading_lng DOUBLE PRECISION,
			unloading_lat DOUBLE PRECISION,
			unloading_lng DOUBLE PRECISION,
			cargo_description TEXT,
			weight TEXT,
			vehicle_type TEXT,
			special_requirements TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_logistics_orders_created_at ON logistics_orders (created_at)`,
		`CREATE TABLE IF NOT EXISTS ingest_watermark (
			name TEXT PRIMARY KEY,
			last_message_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

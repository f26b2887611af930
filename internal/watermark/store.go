package watermark

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store persists the ingestion cursor between runs. Load returns the
// zero time when no watermark has been saved yet, which makes the first
// run fetch the full mailbox history.
type Store interface {
	Load(ctx context.Context) (time.Time, error)
	Save(ctx context.Context, ts time.Time) error
}

const watermarkName = "mailbox"

// PostgresStore keeps the watermark in a single named row. Save never
// moves the cursor backwards: a regressing timestamp is dropped so a
// run that raced an older batch cannot cause re-ingestion.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context) (time.Time, error) {
	query := `SELECT last_message_at FROM ingest_watermark WHERE name = $1`

	var ts time.Time
	err := s.db.QueryRowContext(ctx, query, watermarkName).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load watermark: %w", err)
	}
	return ts, nil
}

func (s *PostgresStore) Save(ctx context.Context, ts time.Time) error {
	query := `
		INSERT INTO ingest_watermark (name, last_message_at, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET last_message_at = EXCLUDED.last_message_at, updated_at = NOW()
		WHERE ingest_watermark.last_message_at < EXCLUDED.last_message_at
	`

	if _, err := s.db.ExecContext(ctx, query, watermarkName, ts); err != nil {
		return fmt.Errorf("failed to save watermark: %w", err)
	}
	return nil
}

package persist

import (
	"context"
	"database/sql"
	"fmt"

	"cargopipe/pkg/models"
)

type Repository interface {
	EnsureSchema(ctx context.Context) error
	Exists(ctx context.Context, messageID string) (bool, error)
	Write(ctx context.Context, record *models.LogisticsRecord) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

// EnsureSchema is create-if-absent, safe to call on every startup and
// on databases already managed by the SQL migrations.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS logistics_orders (
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
		)
	`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure orders table: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, messageID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM logistics_orders WHERE message_id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, messageID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check order existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Write(ctx context.Context, record *models.LogisticsRecord) error {
	query := `
		INSERT INTO logistics_orders (
			message_id, subject, sender, date,
			loading_address, unloading_address, loading_date, unloading_date,
			loading_lat, loading_lng, unloading_lat, unloading_lng,
			cargo_description, weight, vehicle_type, special_requirements
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	loadingLat, loadingLng := coordinateColumns(record.LoadingCoordinates)
	unloadingLat, unloadingLng := coordinateColumns(record.UnloadingCoordinates)

	_, err := r.db.ExecContext(ctx, query,
		record.MessageID,
		nullableString(record.MessageSubject),
		nullableString(record.MessageSender),
		record.MessageDate,
		nullableString(record.LoadingAddress),
		nullableString(record.UnloadingAddress),
		nullableString(record.LoadingDate),
		nullableString(record.UnloadingDate),
		loadingLat,
		loadingLng,
		unloadingLat,
		unloadingLng,
		nullableString(record.CargoDescription),
		nullableString(record.Weight),
		nullableString(record.VehicleType),
		nullableString(record.SpecialRequirements),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// nullableString maps a missing extraction field to a SQL NULL instead
// of an empty string, so downstream consumers can tell them apart.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func coordinateColumns(c *models.Coordinate) (sql.NullFloat64, sql.NullFloat64) {
	if c == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: c.Lat, Valid: true},
		sql.NullFloat64{Float64: c.Lng, Valid: true}
}

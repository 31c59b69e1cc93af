package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/edgeline/internal/database"
	"github.com/yourusername/edgeline/internal/models"
)

// PostgresSnapshotRepository implements SnapshotRepository for PostgreSQL
type PostgresSnapshotRepository struct {
	db *database.DB
}

// NewPostgresSnapshotRepository creates a new snapshot repository
func NewPostgresSnapshotRepository(db *database.DB) SnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

const snapshotColumns = `id, hash, event_id, external_event_id, sport, market_type, market_line, price,
	home_team_id, away_team_id, home_rating, away_rating, home_injury_delta, away_injury_delta,
	home_rest_days, away_rest_days, pace_factor, data_quality, model_version, captured_at`

// Create inserts a new snapshot. The content hash is the conflict target:
// re-inserting an identical input set is a no-op rather than a duplicate row.
func (r *PostgresSnapshotRepository) Create(ctx context.Context, snapshot *models.InputSnapshot) error {
	query := `
		INSERT INTO input_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (hash) DO NOTHING
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		snapshot.ID, snapshot.Hash(), snapshot.EventID, snapshot.ExternalEventID, snapshot.Sport,
		snapshot.MarketType, snapshot.MarketLine, snapshot.Price,
		snapshot.HomeTeamID, snapshot.AwayTeamID, snapshot.HomeRating, snapshot.AwayRating,
		snapshot.HomeInjuryDelta, snapshot.AwayInjuryDelta,
		snapshot.HomeRestDays, snapshot.AwayRestDays,
		snapshot.PaceFactor, snapshot.DataQuality, snapshot.ModelVersion, snapshot.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	return nil
}

// GetByHash retrieves a snapshot by its content hash
func (r *PostgresSnapshotRepository) GetByHash(ctx context.Context, hash string) (*models.InputSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM input_snapshots WHERE hash = $1`
	return r.scanOne(r.db.GetPool().QueryRow(ctx, query, hash))
}

// GetLatestForEvent retrieves the most recently captured snapshot for an
// event+market
func (r *PostgresSnapshotRepository) GetLatestForEvent(ctx context.Context, eventID uuid.UUID, market models.MarketType) (*models.InputSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM input_snapshots
		WHERE event_id = $1 AND market_type = $2
		ORDER BY captured_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.GetPool().QueryRow(ctx, query, eventID, market))
}

// GetClosing retrieves the last snapshot captured before event start
func (r *PostgresSnapshotRepository) GetClosing(ctx context.Context, eventID uuid.UUID, market models.MarketType, eventStart time.Time) (*models.InputSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM input_snapshots
		WHERE event_id = $1 AND market_type = $2 AND captured_at <= $3
		ORDER BY captured_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.GetPool().QueryRow(ctx, query, eventID, market, eventStart))
}

func (r *PostgresSnapshotRepository) scanOne(row pgx.Row) (*models.InputSnapshot, error) {
	snapshot := &models.InputSnapshot{}
	var hash string
	err := row.Scan(
		&snapshot.ID, &hash, &snapshot.EventID, &snapshot.ExternalEventID, &snapshot.Sport,
		&snapshot.MarketType, &snapshot.MarketLine, &snapshot.Price,
		&snapshot.HomeTeamID, &snapshot.AwayTeamID, &snapshot.HomeRating, &snapshot.AwayRating,
		&snapshot.HomeInjuryDelta, &snapshot.AwayInjuryDelta,
		&snapshot.HomeRestDays, &snapshot.AwayRestDays,
		&snapshot.PaceFactor, &snapshot.DataQuality, &snapshot.ModelVersion, &snapshot.CapturedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return snapshot, nil
}

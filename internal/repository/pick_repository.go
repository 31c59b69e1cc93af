package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/edgeline/internal/database"
	"github.com/yourusername/edgeline/internal/models"
)

// PostgresPickRepository implements PickRepository for PostgreSQL
type PostgresPickRepository struct {
	db *database.DB
}

// NewPostgresPickRepository creates a new published pick repository
func NewPostgresPickRepository(db *database.DB) PickRepository {
	return &PostgresPickRepository{db: db}
}

const pickColumns = `id, event_id, external_event_id, sport, market_type, selection, line, price,
	snapshot_hash, decision_state, home_team_id, away_team_id, correlation_id, published_at`

// Create inserts a published pick
func (r *PostgresPickRepository) Create(ctx context.Context, pick *models.PublishedPick) error {
	query := `
		INSERT INTO published_picks (` + pickColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		pick.ID, pick.EventID, pick.ExternalEventID, pick.Sport, pick.MarketType, pick.Selection,
		pick.Line, pick.Price, pick.SnapshotHash, pick.DecisionState,
		pick.HomeTeamID, pick.AwayTeamID, pick.CorrelationID, pick.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create published pick: %w", err)
	}

	return nil
}

// GetByID retrieves a published pick by ID
func (r *PostgresPickRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PublishedPick, error) {
	query := `SELECT ` + pickColumns + ` FROM published_picks WHERE id = $1`

	pick := &models.PublishedPick{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&pick.ID, &pick.EventID, &pick.ExternalEventID, &pick.Sport, &pick.MarketType, &pick.Selection,
		&pick.Line, &pick.Price, &pick.SnapshotHash, &pick.DecisionState,
		&pick.HomeTeamID, &pick.AwayTeamID, &pick.CorrelationID, &pick.PublishedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get published pick: %w", err)
	}

	return pick, nil
}

// GetUngraded retrieves published picks that have no grading record yet
func (r *PostgresPickRepository) GetUngraded(ctx context.Context, limit int) ([]*models.PublishedPick, error) {
	query := `
		SELECT ` + pickColumns + `
		FROM published_picks p
		WHERE NOT EXISTS (
			SELECT 1 FROM grading_records g WHERE g.pick_id = p.id
		)
		ORDER BY p.published_at ASC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ungraded picks: %w", err)
	}
	defer rows.Close()

	var picks []*models.PublishedPick
	for rows.Next() {
		pick := &models.PublishedPick{}
		err := rows.Scan(
			&pick.ID, &pick.EventID, &pick.ExternalEventID, &pick.Sport, &pick.MarketType, &pick.Selection,
			&pick.Line, &pick.Price, &pick.SnapshotHash, &pick.DecisionState,
			&pick.HomeTeamID, &pick.AwayTeamID, &pick.CorrelationID, &pick.PublishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan published pick: %w", err)
		}
		picks = append(picks, pick)
	}

	return picks, rows.Err()
}

// SetExternalEventID records a provider event identifier resolved after
// publication, for picks whose snapshot lacked one
func (r *PostgresPickRepository) SetExternalEventID(ctx context.Context, pickID uuid.UUID, externalEventID string) error {
	query := `
		UPDATE published_picks
		SET external_event_id = $2
		WHERE id = $1 AND external_event_id = ''
	`

	tag, err := r.db.GetPool().Exec(ctx, query, pickID, externalEventID)
	if err != nil {
		return fmt.Errorf("failed to set external event id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/edgeline/internal/database"
	"github.com/yourusername/edgeline/internal/models"
)

// PostgresSimulationRepository implements SimulationRepository for PostgreSQL
type PostgresSimulationRepository struct {
	db *database.DB
}

// NewPostgresSimulationRepository creates a new simulation result repository
func NewPostgresSimulationRepository(db *database.DB) SimulationRepository {
	return &PostgresSimulationRepository{db: db}
}

const simulationColumns = `id, snapshot_hash, model_version, tier, iterations, seed,
	home_win_prob, away_win_prob, tie_prob, cover_prob, cover_push_prob, over_prob,
	mean_margin, std_margin, mean_total, std_total, ci_width,
	fair_line, edge_points, volatility, confidence_score, variance_z_score,
	data_quality, market_deviation, created_at`

// Create inserts a simulation result. The unique constraint on
// (snapshot_hash, tier, model_version) guarantees at most one authoritative
// result per input set; a duplicate insert surfaces as ErrDuplicateKey.
func (r *PostgresSimulationRepository) Create(ctx context.Context, result *models.SimulationResult) error {
	query := `
		INSERT INTO simulation_results (` + simulationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		ON CONFLICT (snapshot_hash, tier, model_version) DO NOTHING
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		result.ID, result.SnapshotHash, result.ModelVersion, result.Tier, result.Iterations, result.Seed,
		result.HomeWinProb, result.AwayWinProb, result.TieProb, result.CoverProb, result.CoverPushProb, result.OverProb,
		result.MeanMargin, result.StdMargin, result.MeanTotal, result.StdTotal, result.CIWidth,
		result.FairLine, result.EdgePoints, result.Volatility, result.ConfidenceScore, result.VarianceZScore,
		result.DataQuality, result.MarketDeviation, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create simulation result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrDuplicateKey
	}

	return nil
}

// GetBySnapshotHash retrieves the authoritative result for an input set
func (r *PostgresSimulationRepository) GetBySnapshotHash(ctx context.Context, hash string, tier models.IterationTier, modelVersion string) (*models.SimulationResult, error) {
	query := `
		SELECT ` + simulationColumns + `
		FROM simulation_results
		WHERE snapshot_hash = $1 AND tier = $2 AND model_version = $3
	`

	result := &models.SimulationResult{}
	err := r.db.GetPool().QueryRow(ctx, query, hash, tier, modelVersion).Scan(
		&result.ID, &result.SnapshotHash, &result.ModelVersion, &result.Tier, &result.Iterations, &result.Seed,
		&result.HomeWinProb, &result.AwayWinProb, &result.TieProb, &result.CoverProb, &result.CoverPushProb, &result.OverProb,
		&result.MeanMargin, &result.StdMargin, &result.MeanTotal, &result.StdTotal, &result.CIWidth,
		&result.FairLine, &result.EdgePoints, &result.Volatility, &result.ConfidenceScore, &result.VarianceZScore,
		&result.DataQuality, &result.MarketDeviation, &result.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get simulation result: %w", err)
	}

	return result, nil
}

// GetByEventAndSnapshot retrieves results for determinism audits
func (r *PostgresSimulationRepository) GetByEventAndSnapshot(ctx context.Context, eventID uuid.UUID, hash string) ([]*models.SimulationResult, error) {
	query := `
		SELECT ` + simulationColumns + `
		FROM simulation_results sr
		WHERE sr.snapshot_hash = $2
		  AND EXISTS (
			SELECT 1 FROM input_snapshots s
			WHERE s.hash = sr.snapshot_hash AND s.event_id = $1
		  )
		ORDER BY sr.created_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, eventID, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulation results: %w", err)
	}
	defer rows.Close()

	var results []*models.SimulationResult
	for rows.Next() {
		result := &models.SimulationResult{}
		err := rows.Scan(
			&result.ID, &result.SnapshotHash, &result.ModelVersion, &result.Tier, &result.Iterations, &result.Seed,
			&result.HomeWinProb, &result.AwayWinProb, &result.TieProb, &result.CoverProb, &result.CoverPushProb, &result.OverProb,
			&result.MeanMargin, &result.StdMargin, &result.MeanTotal, &result.StdTotal, &result.CIWidth,
			&result.FairLine, &result.EdgePoints, &result.Volatility, &result.ConfidenceScore, &result.VarianceZScore,
			&result.DataQuality, &result.MarketDeviation, &result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan simulation result: %w", err)
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/edgeline/internal/database"
	"github.com/yourusername/edgeline/internal/models"
)

// PostgresGradingRepository implements GradingRepository for PostgreSQL
type PostgresGradingRepository struct {
	db *database.DB
}

// NewPostgresGradingRepository creates a new grading record repository
func NewPostgresGradingRepository(db *database.DB) GradingRepository {
	return &PostgresGradingRepository{db: db}
}

const gradingColumns = `id, pick_id, idempotency_key, status, clv, closing_line,
	score_event_id, score_payload, event_id, snapshot_hash, correlation_id,
	settlement_version, clv_rules_version, graded_at`

// CreateOrGet inserts the record unless its idempotency key already exists.
// ON CONFLICT DO NOTHING plus a follow-up read makes concurrent duplicate
// attempts converge on a single row without ever mutating it.
func (r *PostgresGradingRepository) CreateOrGet(ctx context.Context, record *models.GradingRecord) (*models.GradingRecord, bool, error) {
	query := `
		INSERT INTO grading_records (` + gradingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (idempotency_key) DO NOTHING
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		record.ID, record.PickID, record.IdempotencyKey, record.Status, record.CLV, record.ClosingLine,
		record.ScoreEventID, record.ScorePayload, record.EventID, record.SnapshotHash, record.CorrelationID,
		record.SettlementVersion, record.CLVRulesVersion, record.GradedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create grading record: %w", err)
	}

	existing, err := r.getByIdempotencyKey(ctx, record.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}

	return existing, tag.RowsAffected() > 0, nil
}

// GetByPickID retrieves the grading record for a pick. A pick can carry one
// record per rules-version pair, so the newest row is the authoritative one.
func (r *PostgresGradingRepository) GetByPickID(ctx context.Context, pickID uuid.UUID) (*models.GradingRecord, error) {
	query := `SELECT ` + gradingColumns + ` FROM grading_records WHERE pick_id = $1 ORDER BY graded_at DESC LIMIT 1`
	return r.scanOne(r.db.GetPool().QueryRow(ctx, query, pickID))
}

// GetByCorrelationID retrieves grading records by correlation/trace id
func (r *PostgresGradingRepository) GetByCorrelationID(ctx context.Context, correlationID uuid.UUID) ([]*models.GradingRecord, error) {
	query := `SELECT ` + gradingColumns + ` FROM grading_records WHERE correlation_id = $1 ORDER BY graded_at ASC`
	return r.scanMany(ctx, query, correlationID)
}

// GetByEventAndSnapshot retrieves grading records for determinism audits
func (r *PostgresGradingRepository) GetByEventAndSnapshot(ctx context.Context, eventID uuid.UUID, snapshotHash string) ([]*models.GradingRecord, error) {
	query := `SELECT ` + gradingColumns + ` FROM grading_records WHERE event_id = $1 AND snapshot_hash = $2 ORDER BY graded_at ASC`
	return r.scanMany(ctx, query, eventID, snapshotHash)
}

func (r *PostgresGradingRepository) getByIdempotencyKey(ctx context.Context, key string) (*models.GradingRecord, error) {
	query := `SELECT ` + gradingColumns + ` FROM grading_records WHERE idempotency_key = $1`
	return r.scanOne(r.db.GetPool().QueryRow(ctx, query, key))
}

func (r *PostgresGradingRepository) scanOne(row pgx.Row) (*models.GradingRecord, error) {
	record := &models.GradingRecord{}
	err := row.Scan(
		&record.ID, &record.PickID, &record.IdempotencyKey, &record.Status, &record.CLV, &record.ClosingLine,
		&record.ScoreEventID, &record.ScorePayload, &record.EventID, &record.SnapshotHash, &record.CorrelationID,
		&record.SettlementVersion, &record.CLVRulesVersion, &record.GradedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grading record: %w", err)
	}

	return record, nil
}

func (r *PostgresGradingRepository) scanMany(ctx context.Context, query string, args ...interface{}) ([]*models.GradingRecord, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grading records: %w", err)
	}
	defer rows.Close()

	var records []*models.GradingRecord
	for rows.Next() {
		record := &models.GradingRecord{}
		err := rows.Scan(
			&record.ID, &record.PickID, &record.IdempotencyKey, &record.Status, &record.CLV, &record.ClosingLine,
			&record.ScoreEventID, &record.ScorePayload, &record.EventID, &record.SnapshotHash, &record.CorrelationID,
			&record.SettlementVersion, &record.CLVRulesVersion, &record.GradedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grading record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

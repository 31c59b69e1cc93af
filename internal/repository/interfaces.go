package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/edgeline/internal/models"
)

// SnapshotRepository defines the interface for input snapshot data access.
// Snapshots are immutable: there is no update or delete.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *models.InputSnapshot) error
	GetByHash(ctx context.Context, hash string) (*models.InputSnapshot, error)
	GetLatestForEvent(ctx context.Context, eventID uuid.UUID, market models.MarketType) (*models.InputSnapshot, error)
	// GetClosing returns the last snapshot captured before the event start,
	// used for CLV. A missing closing snapshot is reported as ErrNotFound.
	GetClosing(ctx context.Context, eventID uuid.UUID, market models.MarketType, eventStart time.Time) (*models.InputSnapshot, error)
}

// SimulationRepository defines the interface for simulation result data
// access. Results are unique per (snapshot hash, tier, model version).
type SimulationRepository interface {
	Create(ctx context.Context, result *models.SimulationResult) error
	GetBySnapshotHash(ctx context.Context, hash string, tier models.IterationTier, modelVersion string) (*models.SimulationResult, error)
	GetByEventAndSnapshot(ctx context.Context, eventID uuid.UUID, hash string) ([]*models.SimulationResult, error)
}

// PickRepository defines the interface for published pick data access.
// Picks are locked copies written once by the publishing layer.
type PickRepository interface {
	Create(ctx context.Context, pick *models.PublishedPick) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PublishedPick, error)
	GetUngraded(ctx context.Context, limit int) ([]*models.PublishedPick, error)
	// SetExternalEventID records a provider event identifier resolved after
	// publication. The locked pick terms (line, price, selection) never change.
	SetExternalEventID(ctx context.Context, pickID uuid.UUID, externalEventID string) error
}

// GradingRepository defines the interface for grading record data access.
// Records are append-only with a uniqueness constraint on the idempotency key.
type GradingRepository interface {
	// CreateOrGet inserts the record unless one already exists for its
	// idempotency key, in which case the existing record is returned and
	// created is false. Concurrent duplicate attempts never produce two rows.
	CreateOrGet(ctx context.Context, record *models.GradingRecord) (*models.GradingRecord, bool, error)
	GetByPickID(ctx context.Context, pickID uuid.UUID) (*models.GradingRecord, error)
	GetByCorrelationID(ctx context.Context, correlationID uuid.UUID) ([]*models.GradingRecord, error)
	GetByEventAndSnapshot(ctx context.Context, eventID uuid.UUID, snapshotHash string) ([]*models.GradingRecord, error)
}

package repository

import (
	"fmt"

	"github.com/yourusername/edgeline/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Snapshot   SnapshotRepository
	Simulation SimulationRepository
	Pick       PickRepository
	Grading    GradingRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Snapshot:   NewPostgresSnapshotRepository(db),
		Simulation: NewPostgresSimulationRepository(db),
		Pick:       NewPostgresPickRepository(db),
		Grading:    NewPostgresGradingRepository(db),
	}, nil
}

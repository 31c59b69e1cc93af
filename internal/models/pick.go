package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PublishedPick is the boundary artifact handed to the publishing layer. It
// holds a locked copy of every field needed to settle later, not references:
// nothing that happens to the snapshot or the simulation store after publish
// can change what this pick settles against.
type PublishedPick struct {
	ID              uuid.UUID       `db:"id" json:"id" validate:"required"`
	EventID         uuid.UUID       `db:"event_id" json:"event_id" validate:"required"`
	ExternalEventID string          `db:"external_event_id" json:"external_event_id"`
	Sport           Sport           `db:"sport" json:"sport" validate:"required"`
	MarketType      MarketType      `db:"market_type" json:"market_type" validate:"required"`
	Selection       Selection       `db:"selection" json:"selection" validate:"required"`
	Line            float64         `db:"line" json:"line"`
	Price           decimal.Decimal `db:"price" json:"price"`
	SnapshotHash    string          `db:"snapshot_hash" json:"snapshot_hash" validate:"required"`
	DecisionState   DecisionState   `db:"decision_state" json:"decision_state" validate:"required"`
	HomeTeamID      string          `db:"home_team_id" json:"home_team_id"`
	AwayTeamID      string          `db:"away_team_id" json:"away_team_id"`
	CorrelationID   uuid.UUID       `db:"correlation_id" json:"correlation_id"`
	PublishedAt     time.Time       `db:"published_at" json:"published_at" validate:"required"`
}

// NewPublishedPick locks the settle-relevant fields of a snapshot+decision
// pair into an immutable pick
func NewPublishedPick(snap *InputSnapshot, decision *Decision) *PublishedPick {
	line := 0.0
	if snap.MarketLine != nil {
		line = *snap.MarketLine
	}
	return &PublishedPick{
		ID:              uuid.New(),
		EventID:         snap.EventID,
		ExternalEventID: snap.ExternalEventID,
		Sport:           snap.Sport,
		MarketType:      snap.MarketType,
		Selection:       decision.Selection,
		Line:            line,
		Price:           snap.Price,
		SnapshotHash:    snap.Hash(),
		DecisionState:   decision.State,
		HomeTeamID:      snap.HomeTeamID,
		AwayTeamID:      snap.AwayTeamID,
		CorrelationID:   uuid.New(),
		PublishedAt:     time.Now().UTC(),
	}
}

// IsIntegerLine reports whether the locked line has no half-point component.
// Push handling applies only to integer lines.
func (p *PublishedPick) IsIntegerLine() bool {
	return p.Line == float64(int64(p.Line))
}

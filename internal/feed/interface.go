// Package feed provides clients for the external market, roster, and score
// feeds the core consumes. All feeds are treated as opaque collaborators:
// the types here describe only the shape the core needs.
package feed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourusername/edgeline/internal/models"
)

// MarketQuote is an immutable line/price observation for an event+market at
// a timestamp
type MarketQuote struct {
	EventID         uuid.UUID       `json:"event_id"`
	ExternalEventID string          `json:"external_event_id"`
	Sport           models.Sport    `json:"sport"`
	MarketType      models.MarketType `json:"market_type"`
	Line            *float64        `json:"line"`
	Price           decimal.Decimal `json:"price"`
	HomeTeamID      string          `json:"home_team_id"`
	AwayTeamID      string          `json:"away_team_id"`
	CapturedAt      time.Time       `json:"captured_at"`
}

// TeamContext is one side's roster/injury/rest state
type TeamContext struct {
	TeamID      string   `json:"team_id"`
	Rating      *float64 `json:"rating"`
	InjuryDelta float64  `json:"injury_delta"`
	RestDays    int      `json:"rest_days"`
}

// RosterContext is the roster and pace context for an event
type RosterContext struct {
	Home        TeamContext `json:"home"`
	Away        TeamContext `json:"away"`
	PaceFactor  float64     `json:"pace_factor"`
	DataQuality float64     `json:"data_quality"`
}

// MarketFeed returns line/price snapshots for an event+market. Pull-based;
// polling cadence is the caller's concern.
type MarketFeed interface {
	Quote(ctx context.Context, eventID uuid.UUID, market models.MarketType) (*MarketQuote, error)
}

// RosterFeed returns player status and efficiency context keyed by event
type RosterFeed interface {
	Context(ctx context.Context, eventID uuid.UUID) (*RosterContext, error)
}

// ScoreProvider supports exact lookup by stable external event identifier.
// ListFinalScores exists only for the historical backfill tooling.
type ScoreProvider interface {
	FinalScore(ctx context.Context, externalEventID string) (*models.FinalScore, error)
	ListFinalScores(ctx context.Context, sport models.Sport) ([]*models.FinalScore, error)
}

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InputSnapshot is the immutable input bundle for one event+market at one
// point in time. It is identified by a content hash; a meaningfully-changed
// input set produces a new snapshot, never a mutation of an old one.
type InputSnapshot struct {
	ID              uuid.UUID       `db:"id" json:"id" validate:"required"`
	EventID         uuid.UUID       `db:"event_id" json:"event_id" validate:"required"`
	ExternalEventID string          `db:"external_event_id" json:"external_event_id"`
	Sport           Sport           `db:"sport" json:"sport" validate:"required"`
	MarketType      MarketType      `db:"market_type" json:"market_type" validate:"required"`
	MarketLine      *float64        `db:"market_line" json:"market_line"`
	Price           decimal.Decimal `db:"price" json:"price"`
	HomeTeamID      string          `db:"home_team_id" json:"home_team_id" validate:"required"`
	AwayTeamID      string          `db:"away_team_id" json:"away_team_id" validate:"required"`
	HomeRating      *float64        `db:"home_rating" json:"home_rating"`
	AwayRating      *float64        `db:"away_rating" json:"away_rating"`
	HomeInjuryDelta float64         `db:"home_injury_delta" json:"home_injury_delta"`
	AwayInjuryDelta float64         `db:"away_injury_delta" json:"away_injury_delta"`
	HomeRestDays    int             `db:"home_rest_days" json:"home_rest_days"`
	AwayRestDays    int             `db:"away_rest_days" json:"away_rest_days"`
	PaceFactor      float64         `db:"pace_factor" json:"pace_factor"`
	DataQuality     float64         `db:"data_quality" json:"data_quality" validate:"gte=0,lte=100"`
	ModelVersion    string          `db:"model_version" json:"model_version" validate:"required"`
	CapturedAt      time.Time       `db:"captured_at" json:"captured_at" validate:"required"`
}

// Hash returns the content-derived identifier of the snapshot. Every field
// that can change a simulation outcome participates; captured-at does not,
// so re-fetching identical inputs yields the same hash.
func (s *InputSnapshot) Hash() string {
	var b strings.Builder
	b.WriteString(s.EventID.String())
	b.WriteString("|")
	b.WriteString(string(s.Sport))
	b.WriteString("|")
	b.WriteString(string(s.MarketType))
	b.WriteString("|")
	if s.MarketLine != nil {
		fmt.Fprintf(&b, "%.2f", *s.MarketLine)
	}
	b.WriteString("|")
	b.WriteString(s.Price.String())
	b.WriteString("|")
	b.WriteString(s.HomeTeamID)
	b.WriteString("|")
	b.WriteString(s.AwayTeamID)
	b.WriteString("|")
	if s.HomeRating != nil {
		fmt.Fprintf(&b, "%.4f", *s.HomeRating)
	}
	b.WriteString("|")
	if s.AwayRating != nil {
		fmt.Fprintf(&b, "%.4f", *s.AwayRating)
	}
	fmt.Fprintf(&b, "|%.4f|%.4f|%d|%d|%.4f|%.2f|%s",
		s.HomeInjuryDelta, s.AwayInjuryDelta,
		s.HomeRestDays, s.AwayRestDays,
		s.PaceFactor, s.DataQuality, s.ModelVersion,
	)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Validate rejects snapshots that are missing required simulation inputs.
// Nothing is ever silently defaulted.
func (s *InputSnapshot) Validate() error {
	if !s.Sport.IsValid() {
		return NewValidationError("sport", fmt.Sprintf("unknown sport %q", s.Sport))
	}
	if !s.MarketType.IsValid() {
		return NewValidationError("market_type", fmt.Sprintf("unknown market type %q", s.MarketType))
	}
	if s.MarketLine == nil && s.MarketType != MarketTypeMoneyline {
		return NewValidationError("market_line", "market line is missing")
	}
	if s.Price.IsZero() {
		return NewValidationError("price", "market price is missing")
	}
	if s.HomeRating == nil || s.AwayRating == nil {
		return NewValidationError("roster", "roster ratings are missing")
	}
	if s.HomeTeamID == "" || s.AwayTeamID == "" {
		return NewValidationError("teams", "team identifiers are missing")
	}
	if s.ModelVersion == "" {
		return NewValidationError("model_version", "model version is missing")
	}
	return nil
}

// HasExternalID reports whether the snapshot carries a stable provider
// identifier for score lookup
func (s *InputSnapshot) HasExternalID() bool {
	return s.ExternalEventID != ""
}

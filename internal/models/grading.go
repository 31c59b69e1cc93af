package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementStatus is the terminal outcome of a graded pick
type SettlementStatus string

const (
	SettlementWin  SettlementStatus = "WIN"
	SettlementLoss SettlementStatus = "LOSS"
	SettlementPush SettlementStatus = "PUSH"
	SettlementVoid SettlementStatus = "VOID"
)

// GradingRecord is the immutable settlement record for one published pick.
// Records are append-only and uniquely keyed by an idempotency key; a
// duplicate grading attempt returns the existing record, never a second write.
type GradingRecord struct {
	ID                 uuid.UUID        `db:"id" json:"id"`
	PickID             uuid.UUID        `db:"pick_id" json:"pick_id" validate:"required"`
	IdempotencyKey     string           `db:"idempotency_key" json:"idempotency_key" validate:"required"`
	Status             SettlementStatus `db:"status" json:"status" validate:"required"`
	CLV                *decimal.Decimal `db:"clv" json:"clv"`
	ClosingLine        *float64         `db:"closing_line" json:"closing_line"`
	ScoreEventID       string           `db:"score_event_id" json:"score_event_id"`
	ScorePayload       json.RawMessage  `db:"score_payload" json:"score_payload"`
	EventID            uuid.UUID        `db:"event_id" json:"event_id"`
	SnapshotHash       string           `db:"snapshot_hash" json:"snapshot_hash"`
	CorrelationID      uuid.UUID        `db:"correlation_id" json:"correlation_id"`
	SettlementVersion  string           `db:"settlement_version" json:"settlement_version"`
	CLVRulesVersion    string           `db:"clv_rules_version" json:"clv_rules_version"`
	GradedAt           time.Time        `db:"graded_at" json:"graded_at"`
}

// GradingIdempotencyKey derives the uniqueness key for a settlement action.
// The same pick graded under the same rule versions always maps to the same
// key, so concurrent or repeated attempts collapse to one record.
func GradingIdempotencyKey(pickID uuid.UUID, settlementVersion, clvRulesVersion string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", pickID, settlementVersion, clvRulesVersion)))
	return hex.EncodeToString(sum[:])
}

// FinalScore is the authoritative score payload fetched from the provider by
// exact external identifier
type FinalScore struct {
	ProviderEventID string          `json:"provider_event_id"`
	HomeTeamID      string          `json:"home_team_id"`
	AwayTeamID      string          `json:"away_team_id"`
	HomeScore       int             `json:"home_score"`
	AwayScore       int             `json:"away_score"`
	Final           bool            `json:"final"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}

// Margin returns home score minus away score
func (f *FinalScore) Margin() int {
	return f.HomeScore - f.AwayScore
}

// Total returns the combined score
func (f *FinalScore) Total() int {
	return f.HomeScore + f.AwayScore
}

// MatchesTeams checks the entity identifiers on the score against a pick's
// locked identifiers. A mismatch is drift and must freeze grading.
func (f *FinalScore) MatchesTeams(homeTeamID, awayTeamID string) bool {
	return f.HomeTeamID == homeTeamID && f.AwayTeamID == awayTeamID
}

package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGradingIdempotencyKey(t *testing.T) {
	pickID := uuid.MustParse("6f1a9f0e-3d2b-4c8a-b1e7-5a0d9c4e2f11")

	key := GradingIdempotencyKey(pickID, "settle-v2", "clv-v1")
	assert.Len(t, key, 64)
	assert.Equal(t, key, GradingIdempotencyKey(pickID, "settle-v2", "clv-v1"))

	assert.NotEqual(t, key, GradingIdempotencyKey(uuid.New(), "settle-v2", "clv-v1"))
	assert.NotEqual(t, key, GradingIdempotencyKey(pickID, "settle-v3", "clv-v1"))
	assert.NotEqual(t, key, GradingIdempotencyKey(pickID, "settle-v2", "clv-v2"))
}

func TestFinalScoreMath(t *testing.T) {
	score := &FinalScore{HomeScore: 110, AwayScore: 104}
	assert.Equal(t, 6, score.Margin())
	assert.Equal(t, 214, score.Total())
}

func TestFinalScoreMatchesTeams(t *testing.T) {
	score := &FinalScore{HomeTeamID: "BOS", AwayTeamID: "NYK"}
	assert.True(t, score.MatchesTeams("BOS", "NYK"))
	assert.False(t, score.MatchesTeams("NYK", "BOS"), "swapped sides are drift, not a match")
	assert.False(t, score.MatchesTeams("BOS", "LAL"))
}

func TestPickIsIntegerLine(t *testing.T) {
	pick := &PublishedPick{Line: -3.0}
	assert.True(t, pick.IsIntegerLine())

	pick.Line = -3.5
	assert.False(t, pick.IsIntegerLine())

	pick.Line = 0
	assert.True(t, pick.IsIntegerLine())

	pick.Line = 220.5
	assert.False(t, pick.IsIntegerLine())
}

func TestNewPublishedPickLocksSnapshotTerms(t *testing.T) {
	snap := validSnapshot()
	decision := &Decision{
		SnapshotHash: snap.Hash(),
		State:        DecisionPick,
		Selection:    SelectionHome,
	}

	pick := NewPublishedPick(snap, decision)

	assert.Equal(t, snap.EventID, pick.EventID)
	assert.Equal(t, snap.ExternalEventID, pick.ExternalEventID)
	assert.Equal(t, -3.5, pick.Line)
	assert.Equal(t, snap.Price, pick.Price)
	assert.Equal(t, snap.Hash(), pick.SnapshotHash)
	assert.Equal(t, DecisionPick, pick.DecisionState)
	assert.Equal(t, SelectionHome, pick.Selection)
	assert.NotEqual(t, uuid.Nil, pick.CorrelationID)

	// Mutating the snapshot afterwards must not reach the locked pick
	snap.MarketLine = ptr(-7.5)
	assert.Equal(t, -3.5, pick.Line)
}

func TestSportAllowsTies(t *testing.T) {
	assert.True(t, SportNFL.AllowsTies())
	assert.True(t, SportSoccer.AllowsTies())
	assert.False(t, SportNBA.AllowsTies())
	assert.False(t, SportMLB.AllowsTies())
	assert.False(t, SportNHL.AllowsTies())
}

func TestIterationTierSpec(t *testing.T) {
	spec, err := TierStandard.Spec()
	assert.NoError(t, err)
	assert.Equal(t, 25_000, spec.Iterations)
	assert.Equal(t, 0.012, spec.TargetCIWidth)

	_, err = IterationTier("TURBO").Spec()
	assert.Error(t, err)
}

func TestSelectionProbability(t *testing.T) {
	result := &SimulationResult{
		HomeWinProb:   0.61,
		AwayWinProb:   0.39,
		CoverProb:     0.55,
		CoverPushProb: 0.03,
		OverProb:      0.48,
	}

	assert.Equal(t, 0.55, result.SelectionProbability(MarketTypeSpread, SelectionHome))
	assert.InDelta(t, 0.42, result.SelectionProbability(MarketTypeSpread, SelectionAway), 1e-12,
		"away cover excludes pushes from the complement")
	assert.Equal(t, 0.48, result.SelectionProbability(MarketTypeTotal, SelectionOver))
	assert.InDelta(t, 0.52, result.SelectionProbability(MarketTypeTotal, SelectionUnder), 1e-12)
	assert.Equal(t, 0.61, result.SelectionProbability(MarketTypeMoneyline, SelectionHome))
	assert.Equal(t, 0.39, result.SelectionProbability(MarketTypeMoneyline, SelectionAway))
}

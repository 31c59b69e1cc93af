package grading

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edgeline/internal/models"
)

func testPick(sport models.Sport, market models.MarketType, sel models.Selection, line float64) *models.PublishedPick {
	return &models.PublishedPick{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		Sport:         sport,
		MarketType:    market,
		Selection:     sel,
		Line:          line,
		Price:         decimal.NewFromInt(-110),
		SnapshotHash:  "deadbeef",
		DecisionState: models.DecisionPick,
		HomeTeamID:    "BOS",
		AwayTeamID:    "NYK",
	}
}

func testScore(home, away int) *models.FinalScore {
	return &models.FinalScore{
		ProviderEventID: "ext-1001",
		HomeTeamID:      "BOS",
		AwayTeamID:      "NYK",
		HomeScore:       home,
		AwayScore:       away,
		Final:           true,
	}
}

func TestSettleSpread(t *testing.T) {
	rules := NewRuleSet("settle-v2")

	tests := []struct {
		name      string
		selection models.Selection
		line      float64
		home      int
		away      int
		want      models.SettlementStatus
	}{
		{"home covers", models.SelectionHome, -3.5, 110, 104, models.SettlementWin},
		{"home fails to cover", models.SelectionHome, -3.5, 106, 104, models.SettlementLoss},
		{"away covers", models.SelectionAway, -3.5, 106, 104, models.SettlementWin},
		{"away fails to cover", models.SelectionAway, -3.5, 110, 104, models.SettlementLoss},
		{"integer line push home", models.SelectionHome, -3.0, 107, 104, models.SettlementPush},
		{"integer line push away", models.SelectionAway, -3.0, 107, 104, models.SettlementPush},
		{"underdog home covers outright loss", models.SelectionHome, 6.5, 100, 104, models.SettlementWin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pick := testPick(models.SportNBA, models.MarketTypeSpread, tt.selection, tt.line)
			status, err := rules.Settle(pick, testScore(tt.home, tt.away))
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestSettleTotal(t *testing.T) {
	rules := NewRuleSet("settle-v2")

	tests := []struct {
		name      string
		selection models.Selection
		line      float64
		home      int
		away      int
		want      models.SettlementStatus
	}{
		{"over hits", models.SelectionOver, 215.5, 112, 108, models.SettlementWin},
		{"over misses", models.SelectionOver, 225.5, 112, 108, models.SettlementLoss},
		{"under hits", models.SelectionUnder, 225.5, 112, 108, models.SettlementWin},
		{"under misses", models.SelectionUnder, 215.5, 112, 108, models.SettlementLoss},
		{"integer total push", models.SelectionOver, 220.0, 112, 108, models.SettlementPush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pick := testPick(models.SportNBA, models.MarketTypeTotal, tt.selection, tt.line)
			status, err := rules.Settle(pick, testScore(tt.home, tt.away))
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestSettleMoneyline(t *testing.T) {
	rules := NewRuleSet("settle-v2")

	tests := []struct {
		name      string
		sport     models.Sport
		selection models.Selection
		home      int
		away      int
		want      models.SettlementStatus
	}{
		{"home wins", models.SportNBA, models.SelectionHome, 110, 104, models.SettlementWin},
		{"home loses", models.SportNBA, models.SelectionHome, 100, 104, models.SettlementLoss},
		{"away wins", models.SportNBA, models.SelectionAway, 100, 104, models.SettlementWin},
		{"nfl tie pushes", models.SportNFL, models.SelectionHome, 20, 20, models.SettlementPush},
		{"soccer draw pushes", models.SportSoccer, models.SelectionAway, 1, 1, models.SettlementPush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pick := testPick(tt.sport, models.MarketTypeMoneyline, tt.selection, 0)
			status, err := rules.Settle(pick, testScore(tt.home, tt.away))
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestSettleMoneylineTieInTielessSport(t *testing.T) {
	rules := NewRuleSet("settle-v2")

	// NBA games cannot end level; a tied final score is a bad payload and
	// must surface as an error rather than a guessed push.
	pick := testPick(models.SportNBA, models.MarketTypeMoneyline, models.SelectionHome, 0)
	_, err := rules.Settle(pick, testScore(104, 104))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot end level")
}

func TestSettleRejectsBadInputs(t *testing.T) {
	rules := NewRuleSet("settle-v2")

	_, err := rules.Settle(nil, testScore(1, 0))
	assert.Error(t, err)

	_, err = rules.Settle(testPick(models.SportNBA, models.MarketTypeSpread, models.SelectionHome, -3.5), nil)
	assert.Error(t, err)

	pick := testPick(models.SportNBA, models.MarketType("PARLAY"), models.SelectionHome, -3.5)
	_, err = rules.Settle(pick, testScore(1, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot handle market type")

	// Selection from the wrong market family is an error, not a guess.
	pick = testPick(models.SportNBA, models.MarketTypeSpread, models.SelectionOver, -3.5)
	_, err = rules.Settle(pick, testScore(110, 104))
	assert.Error(t, err)
}

package grading

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edgeline/internal/models"
)

func lineRef(f float64) *float64 {
	return &f
}

func closingSnapshot(market models.MarketType, line *float64, price int64) *models.InputSnapshot {
	return &models.InputSnapshot{
		ID:         uuid.New(),
		EventID:    uuid.New(),
		Sport:      models.SportNBA,
		MarketType: market,
		MarketLine: line,
		Price:      decimal.NewFromInt(price),
		HomeTeamID: "BOS",
		AwayTeamID: "NYK",
		CapturedAt: time.Now().UTC(),
	}
}

func TestComputeSpreadCLV(t *testing.T) {
	calc := NewCLVCalculator("clv-v1")

	tests := []struct {
		name      string
		selection models.Selection
		published float64
		closing   float64
		want      string
	}{
		// Home laid -3.5 and the market closed -5.0: the published number
		// was the better one, CLV is positive.
		{"home side beat the close", models.SelectionHome, -3.5, -5.0, "1.5"},
		{"home side lost to the close", models.SelectionHome, -3.5, -2.5, "-1"},
		{"away side beat the close", models.SelectionAway, -3.5, -2.5, "1"},
		{"line unchanged", models.SelectionHome, -3.5, -3.5, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pick := testPick(models.SportNBA, models.MarketTypeSpread, tt.selection, tt.published)
			clv, closingLine := calc.Compute(pick, closingSnapshot(models.MarketTypeSpread, lineRef(tt.closing), -110))
			require.NotNil(t, clv)
			require.NotNil(t, closingLine)
			assert.Equal(t, tt.want, clv.String())
			assert.Equal(t, tt.closing, *closingLine)
		})
	}
}

func TestComputeTotalCLV(t *testing.T) {
	calc := NewCLVCalculator("clv-v1")

	// Under 225.5 with a close of 222.0: the published total was higher,
	// which is the better side of an under.
	pick := testPick(models.SportNBA, models.MarketTypeTotal, models.SelectionUnder, 225.5)
	clv, closingLine := calc.Compute(pick, closingSnapshot(models.MarketTypeTotal, lineRef(222.0), -110))
	require.NotNil(t, clv)
	assert.Equal(t, "3.5", clv.String())
	assert.Equal(t, 222.0, *closingLine)

	pick = testPick(models.SportNBA, models.MarketTypeTotal, models.SelectionOver, 225.5)
	clv, _ = calc.Compute(pick, closingSnapshot(models.MarketTypeTotal, lineRef(222.0), -110))
	require.NotNil(t, clv)
	assert.Equal(t, "-3.5", clv.String())
}

func TestComputeMoneylineCLV(t *testing.T) {
	calc := NewCLVCalculator("clv-v1")

	// Taken at +150 (40.0% implied), closed at +120 (45.45% implied): the
	// market moved toward the pick, about +5.45 probability points.
	pick := testPick(models.SportNBA, models.MarketTypeMoneyline, models.SelectionHome, 0)
	pick.Price = decimal.NewFromInt(150)
	clv, closingLine := calc.Compute(pick, closingSnapshot(models.MarketTypeMoneyline, nil, 120))
	require.NotNil(t, clv)
	assert.Nil(t, closingLine, "moneyline CLV carries no closing line")
	assert.Equal(t, "5.45", clv.String())
}

func TestComputeCLVMissingInputs(t *testing.T) {
	calc := NewCLVCalculator("clv-v1")
	pick := testPick(models.SportNBA, models.MarketTypeSpread, models.SelectionHome, -3.5)

	clv, closingLine := calc.Compute(pick, nil)
	assert.Nil(t, clv)
	assert.Nil(t, closingLine)

	clv, _ = calc.Compute(pick, closingSnapshot(models.MarketTypeSpread, nil, -110))
	assert.Nil(t, clv, "closing snapshot without a line yields no CLV")
}

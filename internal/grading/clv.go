package grading

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/edgeline/internal/models"
)

// CLVCalculator computes closing-line value under a versioned rule set.
// Line-based markets measure CLV in points; moneyline measures it in implied
// probability percentage points.
type CLVCalculator struct {
	Version string
}

// NewCLVCalculator creates a CLV calculator for a version
func NewCLVCalculator(version string) CLVCalculator {
	return CLVCalculator{Version: version}
}

// Compute returns the CLV for a pick against its closing snapshot, plus the
// closing line used. Positive CLV means the published line beat the close.
func (c CLVCalculator) Compute(pick *models.PublishedPick, closing *models.InputSnapshot) (*decimal.Decimal, *float64) {
	if closing == nil {
		return nil, nil
	}

	switch pick.MarketType {
	case models.MarketTypeSpread, models.MarketTypeTotal:
		if closing.MarketLine == nil {
			return nil, nil
		}
		closingLine := *closing.MarketLine
		clv := lineCLV(pick, closingLine)
		return &clv, &closingLine

	case models.MarketTypeMoneyline:
		taken := impliedProbability(pick.Price)
		atClose := impliedProbability(closing.Price)
		if taken == 0 || atClose == 0 {
			return nil, nil
		}
		clv := decimal.NewFromFloat((atClose - taken) * 100).Round(2)
		return &clv, nil
	}

	return nil, nil
}

// lineCLV orients line movement toward the pick's side of the market
func lineCLV(pick *models.PublishedPick, closingLine float64) decimal.Decimal {
	published := decimal.NewFromFloat(pick.Line)
	closing := decimal.NewFromFloat(closingLine)

	switch pick.Selection {
	case models.SelectionHome, models.SelectionUnder:
		// Home spread and under total beat a close that moved below the
		// published number
		return published.Sub(closing).Round(2)
	default:
		return closing.Sub(published).Round(2)
	}
}

// impliedProbability converts an American price to its implied probability
func impliedProbability(price decimal.Decimal) float64 {
	amer := price.InexactFloat64()
	if amer == 0 {
		return 0
	}
	if amer > 0 {
		return 100 / (amer + 100)
	}
	return -amer / (-amer + 100)
}

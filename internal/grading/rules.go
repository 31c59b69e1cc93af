// Package grading implements settlement of published picks against
// authoritative final scores. It is the sole writer of settlement outcomes.
package grading

import (
	"fmt"

	"github.com/yourusername/edgeline/internal/models"
)

// RuleSet is the versioned, canonical settlement rule set. Settlement math
// switches exhaustively over the closed market-type set; a market the rules
// cannot handle is a fatal error, never a guessed outcome.
type RuleSet struct {
	Version string
}

// NewRuleSet creates a settlement rule set for a version
func NewRuleSet(version string) RuleSet {
	return RuleSet{Version: version}
}

// Settle resolves a pick's outcome from the final score
func (r RuleSet) Settle(pick *models.PublishedPick, score *models.FinalScore) (models.SettlementStatus, error) {
	if pick == nil || score == nil {
		return "", fmt.Errorf("settlement requires both pick and score")
	}

	switch pick.MarketType {
	case models.MarketTypeSpread:
		return r.settleSpread(pick, score)
	case models.MarketTypeTotal:
		return r.settleTotal(pick, score)
	case models.MarketTypeMoneyline:
		return r.settleMoneyline(pick, score)
	default:
		return "", fmt.Errorf("settlement rules %s cannot handle market type %q", r.Version, pick.MarketType)
	}
}

// settleSpread applies cover math. The locked line is the home spread; the
// margin adjusted by it decides the home side. A push requires the adjusted
// margin to land exactly on the line, which only an integer-valued line can
// produce; half-point lines always resolve to a side.
func (r RuleSet) settleSpread(pick *models.PublishedPick, score *models.FinalScore) (models.SettlementStatus, error) {
	adjusted := float64(score.Margin()) + pick.Line

	if adjusted == 0 {
		if !pick.IsIntegerLine() {
			return "", fmt.Errorf("adjusted margin landed on half-point line %.1f: inconsistent score payload", pick.Line)
		}
		return models.SettlementPush, nil
	}

	homeCovered := adjusted > 0
	switch pick.Selection {
	case models.SelectionHome:
		return winLoss(homeCovered), nil
	case models.SelectionAway:
		return winLoss(!homeCovered), nil
	default:
		return "", fmt.Errorf("selection %q invalid for spread market", pick.Selection)
	}
}

// settleTotal compares the combined score to the locked total line, with the
// same integer-only push rule as spreads
func (r RuleSet) settleTotal(pick *models.PublishedPick, score *models.FinalScore) (models.SettlementStatus, error) {
	diff := float64(score.Total()) - pick.Line

	if diff == 0 {
		if !pick.IsIntegerLine() {
			return "", fmt.Errorf("total landed on half-point line %.1f: inconsistent score payload", pick.Line)
		}
		return models.SettlementPush, nil
	}

	over := diff > 0
	switch pick.Selection {
	case models.SelectionOver:
		return winLoss(over), nil
	case models.SelectionUnder:
		return winLoss(!over), nil
	default:
		return "", fmt.Errorf("selection %q invalid for total market", pick.Selection)
	}
}

// settleMoneyline resolves the winner, with sport-specific tie handling: a
// regulation tie pushes two-way moneylines in sports that allow ties and is
// a data error in sports that cannot end level.
func (r RuleSet) settleMoneyline(pick *models.PublishedPick, score *models.FinalScore) (models.SettlementStatus, error) {
	margin := score.Margin()

	if margin == 0 {
		if pick.Sport.AllowsTies() {
			return models.SettlementPush, nil
		}
		return "", fmt.Errorf("tied final score in %s, which cannot end level: inconsistent score payload", pick.Sport)
	}

	homeWon := margin > 0
	switch pick.Selection {
	case models.SelectionHome:
		return winLoss(homeWon), nil
	case models.SelectionAway:
		return winLoss(!homeWon), nil
	default:
		return "", fmt.Errorf("selection %q invalid for moneyline market", pick.Selection)
	}
}

func winLoss(won bool) models.SettlementStatus {
	if won {
		return models.SettlementWin
	}
	return models.SettlementLoss
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IterationTier is the small enumerated set of trial counts a caller can
// request. Each tier is bound to a target confidence-interval width; a
// requested count below the tier floor is rejected, never rounded up.
type IterationTier string

const (
	TierQuick      IterationTier = "QUICK"
	TierStandard   IterationTier = "STANDARD"
	TierDeep       IterationTier = "DEEP"
	TierExhaustive IterationTier = "EXHAUSTIVE"
)

// TierSpec describes the floor and target CI width for a tier
type TierSpec struct {
	Iterations    int
	TargetCIWidth float64
}

var tierSpecs = map[IterationTier]TierSpec{
	TierQuick:      {Iterations: 10_000, TargetCIWidth: 0.020},
	TierStandard:   {Iterations: 25_000, TargetCIWidth: 0.012},
	TierDeep:       {Iterations: 50_000, TargetCIWidth: 0.009},
	TierExhaustive: {Iterations: 100_000, TargetCIWidth: 0.006},
}

// Spec returns the tier's iteration floor and target CI width
func (t IterationTier) Spec() (TierSpec, error) {
	spec, ok := tierSpecs[t]
	if !ok {
		return TierSpec{}, fmt.Errorf("unknown iteration tier %q", t)
	}
	return spec, nil
}

// IsValid checks whether the tier is one of the enumerated set
func (t IterationTier) IsValid() bool {
	_, ok := tierSpecs[t]
	return ok
}

// VolatilityLabel buckets the spread of the outcome distribution
type VolatilityLabel string

const (
	VolatilityLow      VolatilityLabel = "LOW"
	VolatilityModerate VolatilityLabel = "MODERATE"
	VolatilityHigh     VolatilityLabel = "HIGH"
	VolatilityExtreme  VolatilityLabel = "EXTREME"
)

// SimulationResult is the authoritative output of one simulation run. It is
// owned by the snapshot hash that produced it: at most one result exists per
// (snapshot hash, tier, model version), and re-simulating identical inputs
// reproduces it bit for bit.
type SimulationResult struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	SnapshotHash    string          `db:"snapshot_hash" json:"snapshot_hash" validate:"required"`
	ModelVersion    string          `db:"model_version" json:"model_version" validate:"required"`
	Tier            IterationTier   `db:"tier" json:"tier" validate:"required"`
	Iterations      int             `db:"iterations" json:"iterations" validate:"required,gt=0"`
	Seed            int64           `db:"seed" json:"seed"`
	HomeWinProb     float64         `db:"home_win_prob" json:"home_win_prob" validate:"gte=0,lte=1"`
	AwayWinProb     float64         `db:"away_win_prob" json:"away_win_prob" validate:"gte=0,lte=1"`
	TieProb         float64         `db:"tie_prob" json:"tie_prob" validate:"gte=0,lte=1"`
	CoverProb       float64         `db:"cover_prob" json:"cover_prob" validate:"gte=0,lte=1"`
	CoverPushProb   float64         `db:"cover_push_prob" json:"cover_push_prob" validate:"gte=0,lte=1"`
	OverProb        float64         `db:"over_prob" json:"over_prob" validate:"gte=0,lte=1"`
	MeanMargin      float64         `db:"mean_margin" json:"mean_margin"`
	StdMargin       float64         `db:"std_margin" json:"std_margin"`
	MeanTotal       float64         `db:"mean_total" json:"mean_total"`
	StdTotal        float64         `db:"std_total" json:"std_total"`
	CIWidth         float64         `db:"ci_width" json:"ci_width"`
	FairLine        float64         `db:"fair_line" json:"fair_line"`
	EdgePoints      float64         `db:"edge_points" json:"edge_points"`
	Volatility      VolatilityLabel `db:"volatility" json:"volatility"`
	ConfidenceScore float64         `db:"confidence_score" json:"confidence_score" validate:"gte=0,lte=100"`
	VarianceZScore  float64         `db:"variance_z_score" json:"variance_z_score"`
	DataQuality     float64         `db:"data_quality" json:"data_quality"`
	MarketDeviation float64         `db:"market_deviation" json:"market_deviation"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// SelectionProbability returns the win probability for the given selection.
// For spreads the complement excludes pushes: home cover, away cover, and
// push partition the trials.
func (r *SimulationResult) SelectionProbability(market MarketType, sel Selection) float64 {
	switch market {
	case MarketTypeSpread:
		if sel == SelectionHome {
			return r.CoverProb
		}
		return 1 - r.CoverProb - r.CoverPushProb
	case MarketTypeTotal:
		if sel == SelectionOver {
			return r.OverProb
		}
		return 1 - r.OverProb
	case MarketTypeMoneyline:
		if sel == SelectionHome {
			return r.HomeWinProb
		}
		return r.AwayWinProb
	default:
		return 0
	}
}

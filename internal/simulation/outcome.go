package simulation

import (
	"math"
	"math/rand"

	"github.com/yourusername/edgeline/internal/models"
)

// sportParams holds the per-sport outcome model parameters. High-scoring
// sports sample team scores from a normal distribution; low-scoring sports
// sample discrete counts from a Poisson distribution.
type sportParams struct {
	basePoints    float64 // average points per team per game
	scoreSigma    float64 // per-team score standard deviation
	homeAdvantage float64 // points added to the home side
	baselineStd   float64 // expected margin std, the variance z-score baseline
	restPerDay    float64 // rating points per rest-day differential
	maxRestDays   int     // rest adjustment saturates beyond this
}

var sportModel = map[models.Sport]sportParams{
	models.SportNBA:    {basePoints: 112.0, scoreSigma: 9.5, homeAdvantage: 2.8, baselineStd: 13.4, restPerDay: 0.7, maxRestDays: 3},
	models.SportNFL:    {basePoints: 22.5, scoreSigma: 7.2, homeAdvantage: 1.9, baselineStd: 10.2, restPerDay: 0.4, maxRestDays: 7},
	models.SportMLB:    {basePoints: 4.5, scoreSigma: 0, homeAdvantage: 0.12, baselineStd: 3.1, restPerDay: 0.02, maxRestDays: 2},
	models.SportNHL:    {basePoints: 3.1, scoreSigma: 0, homeAdvantage: 0.15, baselineStd: 2.4, restPerDay: 0.03, maxRestDays: 3},
	models.SportSoccer: {basePoints: 1.4, scoreSigma: 0, homeAdvantage: 0.25, baselineStd: 1.8, restPerDay: 0.02, maxRestDays: 5},
}

// teamExpectations converts snapshot ratings, injury deltas, and rest
// context into expected home/away scores for the sampler
func teamExpectations(snap *models.InputSnapshot, p sportParams) (homeExp, awayExp float64) {
	homeRating := *snap.HomeRating + snap.HomeInjuryDelta
	awayRating := *snap.AwayRating + snap.AwayInjuryDelta

	restDiff := snap.HomeRestDays - snap.AwayRestDays
	if restDiff > p.maxRestDays {
		restDiff = p.maxRestDays
	}
	if restDiff < -p.maxRestDays {
		restDiff = -p.maxRestDays
	}
	restAdj := float64(restDiff) * p.restPerDay

	pace := snap.PaceFactor
	if pace <= 0 {
		pace = 1.0
	}

	ratingGap := (homeRating - awayRating + restAdj) / 2.0
	homeExp = p.basePoints*pace + ratingGap + p.homeAdvantage/2.0
	awayExp = p.basePoints*pace - ratingGap - p.homeAdvantage/2.0

	if homeExp < 0 {
		homeExp = 0
	}
	if awayExp < 0 {
		awayExp = 0
	}
	return homeExp, awayExp
}

// sampleGame draws one game outcome, returning home and away scores
func sampleGame(rng *rand.Rand, sport models.Sport, p sportParams, homeExp, awayExp float64) (float64, float64) {
	if sport.IsHighScoring() {
		home := rng.NormFloat64()*p.scoreSigma + homeExp
		away := rng.NormFloat64()*p.scoreSigma + awayExp
		return math.Round(home), math.Round(away)
	}
	return float64(samplePoisson(rng, homeExp)), float64(samplePoisson(rng, awayExp))
}

// samplePoisson draws from a Poisson distribution via Knuth's method. The
// lambdas in play here are small (goals/runs per game) so the loop is short.
func samplePoisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	product := rng.Float64()
	count := 0
	for product > limit {
		count++
		product *= rng.Float64()
	}
	return count
}

// volatilityLabel buckets observed margin spread relative to the sport's
// baseline
func volatilityLabel(stdMargin, baselineStd float64) models.VolatilityLabel {
	ratio := stdMargin / baselineStd
	switch {
	case ratio < 0.90:
		return models.VolatilityLow
	case ratio < 1.10:
		return models.VolatilityModerate
	case ratio < 1.35:
		return models.VolatilityHigh
	default:
		return models.VolatilityExtreme
	}
}

package simulation

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeline/internal/config"
	"github.com/yourusername/edgeline/internal/metrics"
	"github.com/yourusername/edgeline/internal/models"
)

// numShards fixes the trial partitioning independently of worker count.
// Each shard owns its own rng stream and a fixed slice of the iteration
// budget, so the aggregate result is bit-identical whether the run uses one
// worker or sixteen.
const numShards = 16

// Engine runs stochastic outcome models over input snapshots
type Engine struct {
	cfg    config.SimulationConfig
	logger *logrus.Logger
}

// NewEngine creates a new simulation engine
func NewEngine(cfg config.SimulationConfig, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// shardTally accumulates trial outcomes for one shard
type shardTally struct {
	homeWins    int
	awayWins    int
	ties        int
	covers      int
	coverPushes int
	overs       int
	sumMargin   float64
	sumMarginSq float64
	sumTotal    float64
	sumTotalSq  float64
}

// Run simulates the snapshot at the tier's full iteration budget
func (e *Engine) Run(ctx context.Context, snap *models.InputSnapshot, tier models.IterationTier) (*models.SimulationResult, error) {
	spec, err := tier.Spec()
	if err != nil {
		return nil, models.NewValidationError("tier", err.Error())
	}
	return e.RunIterations(ctx, snap, tier, spec.Iterations)
}

// RunIterations simulates the snapshot with an explicit iteration count. A
// count below the tier floor is a hard rejection, never rounded up.
func (e *Engine) RunIterations(ctx context.Context, snap *models.InputSnapshot, tier models.IterationTier, iterations int) (*models.SimulationResult, error) {
	start := time.Now()

	if snap == nil {
		return nil, models.NewValidationError("snapshot", "snapshot is nil")
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	spec, err := tier.Spec()
	if err != nil {
		return nil, models.NewValidationError("tier", err.Error())
	}
	if iterations < spec.Iterations {
		return nil, &models.ConvergenceError{Requested: iterations, Floor: spec.Iterations, Tier: string(tier)}
	}

	params, ok := sportModel[snap.Sport]
	if !ok {
		return nil, models.NewValidationError("sport", fmt.Sprintf("no outcome model for sport %q", snap.Sport))
	}

	hash := snap.Hash()
	seed := DeriveSeed(hash, snap.ModelVersion, tier)
	homeExp, awayExp := teamExpectations(snap, params)

	spreadLine, totalLine := e.referenceLines(snap, homeExp, awayExp)

	tallies := make([]shardTally, numShards)
	shardSizes := shardIterations(iterations)

	workers := e.cfg.MaxWorkers
	if workers <= 0 || workers > numShards {
		workers = runtime.NumCPU()
		if workers > numShards {
			workers = numShards
		}
	}

	shardCh := make(chan int, numShards)
	for i := 0; i < numShards; i++ {
		shardCh <- i
	}
	close(shardCh)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for shard := range shardCh {
				tallies[shard] = runShard(seed, shard, shardSizes[shard], snap.Sport, params, homeExp, awayExp, spreadLine, totalLine)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Shard tallies merge in shard order so floating-point accumulation is
	// reproducible across runs and worker counts.
	var total shardTally
	for _, t := range tallies {
		total.homeWins += t.homeWins
		total.awayWins += t.awayWins
		total.ties += t.ties
		total.covers += t.covers
		total.coverPushes += t.coverPushes
		total.overs += t.overs
		total.sumMargin += t.sumMargin
		total.sumMarginSq += t.sumMarginSq
		total.sumTotal += t.sumTotal
		total.sumTotalSq += t.sumTotalSq
	}

	result := e.deriveResult(snap, tier, iterations, seed, hash, params, total, spreadLine)
	metrics.RecordSimulation(string(tier), time.Since(start).Seconds())

	e.logger.WithFields(logrus.Fields{
		"snapshot_hash": hash,
		"tier":          tier,
		"iterations":    iterations,
		"home_win_prob": result.HomeWinProb,
		"cover_prob":    result.CoverProb,
		"volatility":    result.Volatility,
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("Simulation completed")

	return result, nil
}

// runShard simulates one shard with its own deterministic rng stream
func runShard(seed int64, shard, iterations int, sport models.Sport, params sportParams, homeExp, awayExp, spreadLine, totalLine float64) shardTally {
	rng := rand.New(rand.NewSource(shardSeed(seed, shard)))
	var t shardTally

	for i := 0; i < iterations; i++ {
		home, away := sampleGame(rng, sport, params, homeExp, awayExp)
		margin := home - away
		gameTotal := home + away

		switch {
		case margin > 0:
			t.homeWins++
		case margin < 0:
			t.awayWins++
		default:
			t.ties++
		}

		adjusted := margin + spreadLine
		switch {
		case adjusted > 0:
			t.covers++
		case adjusted == 0:
			t.coverPushes++
		}

		if gameTotal > totalLine {
			t.overs++
		}

		t.sumMargin += margin
		t.sumMarginSq += margin * margin
		t.sumTotal += gameTotal
		t.sumTotalSq += gameTotal * gameTotal
	}

	return t
}

func (e *Engine) deriveResult(snap *models.InputSnapshot, tier models.IterationTier, iterations int, seed int64, hash string, params sportParams, t shardTally, spreadLine float64) *models.SimulationResult {
	n := float64(iterations)

	meanMargin := t.sumMargin / n
	varMargin := t.sumMarginSq/n - meanMargin*meanMargin
	if varMargin < 0 {
		varMargin = 0
	}
	stdMargin := math.Sqrt(varMargin)

	meanTotal := t.sumTotal / n
	varTotal := t.sumTotalSq/n - meanTotal*meanTotal
	if varTotal < 0 {
		varTotal = 0
	}
	stdTotal := math.Sqrt(varTotal)

	homeWinProb := float64(t.homeWins) / n
	awayWinProb := float64(t.awayWins) / n
	tieProb := float64(t.ties) / n
	coverProb := float64(t.covers) / n
	overProb := float64(t.overs) / n

	fairLine := -meanMargin
	edge, deviation := marketEdge(snap, meanMargin, meanTotal, homeWinProb, awayWinProb, overProb, coverProb)

	primary := primaryProbability(snap.MarketType, coverProb, overProb, homeWinProb)
	ciWidth := 2 * 1.96 * math.Sqrt(primary*(1-primary)/n)

	return &models.SimulationResult{
		ID:              uuid.New(),
		SnapshotHash:    hash,
		ModelVersion:    snap.ModelVersion,
		Tier:            tier,
		Iterations:      iterations,
		Seed:            seed,
		HomeWinProb:     homeWinProb,
		AwayWinProb:     awayWinProb,
		TieProb:         tieProb,
		CoverProb:       coverProb,
		CoverPushProb:   float64(t.coverPushes) / n,
		OverProb:        overProb,
		MeanMargin:      meanMargin,
		StdMargin:       stdMargin,
		MeanTotal:       meanTotal,
		StdTotal:        stdTotal,
		CIWidth:         ciWidth,
		FairLine:        fairLine,
		EdgePoints:      edge,
		Volatility:      volatilityLabel(stdMargin, params.baselineStd),
		ConfidenceScore: confidenceScore(meanMargin, stdMargin, iterations, snap),
		VarianceZScore:  varianceZScore(stdMargin, params.baselineStd),
		DataQuality:     snap.DataQuality,
		MarketDeviation: deviation,
		CreatedAt:       time.Now().UTC(),
	}
}

// referenceLines returns the spread and total lines the trial loop compares
// against. For markets that don't carry that line the model's own
// expectation stands in, which keeps the derived probabilities meaningful
// without ever defaulting a *market* input.
func (e *Engine) referenceLines(snap *models.InputSnapshot, homeExp, awayExp float64) (spreadLine, totalLine float64) {
	expMargin := homeExp - awayExp
	spreadLine = -expMargin
	totalLine = homeExp + awayExp

	if snap.MarketLine != nil {
		switch snap.MarketType {
		case models.MarketTypeSpread:
			spreadLine = *snap.MarketLine
		case models.MarketTypeTotal:
			totalLine = *snap.MarketLine
		}
	}
	return spreadLine, totalLine
}

// marketEdge computes edge points and market deviation for the snapshot's
// market. Edge is in points for spread/total and in probability percentage
// points for moneyline.
func marketEdge(snap *models.InputSnapshot, meanMargin, meanTotal, homeWinProb, awayWinProb, overProb, coverProb float64) (edge, deviation float64) {
	implied := impliedProbability(snap.Price)

	switch snap.MarketType {
	case models.MarketTypeSpread:
		if snap.MarketLine != nil {
			edge = math.Abs(-meanMargin - *snap.MarketLine)
		}
		deviation = math.Abs(bestOf(coverProb, 1-coverProb) - implied)
	case models.MarketTypeTotal:
		if snap.MarketLine != nil {
			edge = math.Abs(meanTotal - *snap.MarketLine)
		}
		deviation = math.Abs(bestOf(overProb, 1-overProb) - implied)
	case models.MarketTypeMoneyline:
		modelProb := bestOf(homeWinProb, awayWinProb)
		edge = math.Abs(modelProb-implied) * 100
		deviation = math.Abs(modelProb - implied)
	}
	return edge, deviation
}

func bestOf(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

func primaryProbability(market models.MarketType, coverProb, overProb, homeWinProb float64) float64 {
	switch market {
	case models.MarketTypeSpread:
		return coverProb
	case models.MarketTypeTotal:
		return overProb
	default:
		return homeWinProb
	}
}

// confidenceScore derives a 0-100 stability score from the coefficient of
// variation of the margin distribution, penalized for inherently noisy
// matchups and boosted by trial count.
func confidenceScore(meanMargin, stdMargin float64, iterations int, snap *models.InputSnapshot) float64 {
	denom := math.Abs(meanMargin)
	if denom < 1 {
		denom = 1
	}
	cv := stdMargin / denom

	score := 100 / (1 + cv/4)

	// Noisy-matchup penalties: heavy injury churn and unusual pace both
	// widen true outcome uncertainty beyond what the sampler sees.
	injuryChurn := math.Abs(snap.HomeInjuryDelta) + math.Abs(snap.AwayInjuryDelta)
	score -= injuryChurn * 1.5
	if snap.PaceFactor > 1.05 || (snap.PaceFactor > 0 && snap.PaceFactor < 0.95) {
		score -= 4
	}

	// Trial-count boost, logarithmic above the quick tier
	score += math.Log10(float64(iterations)/10_000) * 6

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// varianceZScore normalizes the observed margin spread against the sport's
// expected baseline
func varianceZScore(stdMargin, baselineStd float64) float64 {
	return (stdMargin - baselineStd) / (0.15 * baselineStd)
}

// DeriveSeed produces the deterministic rng seed for a run. Identical
// (snapshot hash, model version, tier) always seeds the same sequence; this
// is what makes simulation results reproducible and auditable.
func DeriveSeed(snapshotHash, modelVersion string, tier models.IterationTier) int64 {
	sum := sha256.Sum256([]byte(snapshotHash + "|" + modelVersion + "|" + string(tier)))
	return int64(binary.BigEndian.Uint64(sum[:8]) & math.MaxInt64)
}

func shardSeed(seed int64, shard int) int64 {
	const mix = uint64(0x9E3779B97F4A7C15)
	return int64((uint64(seed) ^ (uint64(shard+1) * mix)) & math.MaxInt64)
}

// shardIterations splits the iteration budget across shards, remainder to
// the low shards
func shardIterations(iterations int) [numShards]int {
	var sizes [numShards]int
	base := iterations / numShards
	rem := iterations % numShards
	for i := 0; i < numShards; i++ {
		sizes[i] = base
		if i < rem {
			sizes[i]++
		}
	}
	return sizes
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

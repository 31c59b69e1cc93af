// Package classify implements the decision state machine that converts a
// simulation result into a terminal PICK / LEAN / NO_PLAY decision.
package classify

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeline/internal/config"
	"github.com/yourusername/edgeline/internal/metrics"
	"github.com/yourusername/edgeline/internal/models"
)

// Convergence-failure signature bounds. A result that is simultaneously this
// extreme on probability and edge while this weak on confidence is a model
// that failed to converge, not a strong play.
const (
	convergenceProbFloor = 0.90
	convergenceEdgeFloor = 8.0
	convergenceConfCeil  = 40.0
)

// Reason codes for the convergence-failure family
const (
	ReasonLowConfidence      = "LOW_CONFIDENCE"
	ReasonExtremeProbability = "EXTREME_PROBABILITY"
	ReasonExcessiveEdge      = "EXCESSIVE_EDGE"
)

// Classifier converts simulation results into decisions. It is a pure
// function of its immutable configuration and its inputs: classifying the
// same result twice yields an identical decision, and no call mutates any
// classifier state.
type Classifier struct {
	table              ThresholdTable
	calibration        float64
	calibrationVersion string
	logger             *logrus.Logger
}

// NewClassifier creates a classifier from versioned configuration. The
// calibration damping multiplier is resolved once here; when no calibration
// job has ever run it is neutral 1.0 and the classifier works unchanged.
func NewClassifier(cfg config.ClassifierConfig, logger *logrus.Logger) *Classifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &Classifier{
		table:              NewThresholdTable(cfg),
		calibration:        cfg.CalibrationMultiplier(),
		calibrationVersion: cfg.CalibrationVersion,
		logger:             logger,
	}
}

// Classify evaluates the six threshold checks against both rows and returns
// the terminal decision with the full check table and plain-language reasons.
// Bad numeric input routes to NO_PLAY with reasons; it never raises. A
// ValidationError is returned only when required upstream fields are absent.
func (c *Classifier) Classify(result *models.SimulationResult, snap *models.InputSnapshot) (*models.Decision, error) {
	if result == nil {
		return nil, models.NewValidationError("result", "simulation result is nil")
	}
	if snap == nil {
		return nil, models.NewValidationError("snapshot", "snapshot is nil")
	}
	if err := requireFields(result); err != nil {
		return nil, err
	}

	selection := chooseSelection(result, snap.MarketType)
	rawProb := result.SelectionProbability(snap.MarketType, selection)

	// Calibration damping applies to the raw probability and edge before
	// any threshold comparison.
	prob := math.Min(rawProb*c.calibration, 1)
	edge := result.EdgePoints * c.calibration

	rows := c.table.For(snap.Sport)

	decision := &models.Decision{
		SnapshotHash:       result.SnapshotHash,
		Selection:          selection,
		CalibrationVersion: c.calibrationVersion,
		ThresholdVersion:   c.table.Version,
		DecidedAt:          result.CreatedAt,
	}

	// Self-contradicting extremes are a convergence failure, never a play,
	// regardless of what the threshold rows would say.
	if prob > convergenceProbFloor && edge > convergenceEdgeFloor && result.ConfidenceScore < convergenceConfCeil {
		decision.State = models.DecisionNoPlay
		decision.Reasons = []string{ReasonLowConfidence, ReasonExtremeProbability, ReasonExcessiveEdge}
		decision.Checks = evaluateRow(rows.Pick, "PICK", prob, edge, result)
		c.finish(decision)
		return decision, nil
	}

	pickChecks := evaluateRow(rows.Pick, "PICK", prob, edge, result)
	if allPassed(pickChecks) {
		decision.State = models.DecisionPick
		decision.Checks = pickChecks
		decision.Publishable = true
		decision.ParlayEligible = true
		c.finish(decision)
		return decision, nil
	}

	leanChecks := evaluateRow(rows.Lean, "LEAN", prob, edge, result)
	decision.Checks = append(pickChecks, leanChecks...)
	decision.Reasons = reasonsFor(pickChecks)

	if allPassed(leanChecks) {
		decision.State = models.DecisionLean
		decision.Publishable = true
		c.finish(decision)
		return decision, nil
	}

	decision.State = models.DecisionNoPlay
	decision.Reasons = append(decision.Reasons, reasonsFor(leanChecks)...)
	c.finish(decision)
	return decision, nil
}

func (c *Classifier) finish(d *models.Decision) {
	metrics.RecordDecision(string(d.State))
	c.logger.WithFields(logrus.Fields{
		"snapshot_hash": d.SnapshotHash,
		"state":         d.State,
		"selection":     d.Selection,
		"reasons":       d.Reasons,
	}).Info("Decision classified")
}

// requireFields rejects results whose required inputs are entirely absent.
// Classification must not silently invent zeros for missing fields.
func requireFields(result *models.SimulationResult) error {
	fields := map[string]float64{
		"probability":  result.HomeWinProb + result.AwayWinProb + result.CoverProb + result.OverProb,
		"edge":         result.EdgePoints,
		"confidence":   result.ConfidenceScore,
		"variance_z":   result.VarianceZScore,
		"data_quality": result.DataQuality,
	}
	for name, v := range fields {
		if math.IsNaN(v) {
			return models.NewValidationError(name, "required field is absent")
		}
	}
	if result.Iterations == 0 {
		return models.NewValidationError("iterations", "required field is absent")
	}
	return nil
}

// chooseSelection picks the market side the model favors
func chooseSelection(result *models.SimulationResult, market models.MarketType) models.Selection {
	switch market {
	case models.MarketTypeSpread:
		if result.CoverProb >= 0.5 {
			return models.SelectionHome
		}
		return models.SelectionAway
	case models.MarketTypeTotal:
		if result.OverProb >= 0.5 {
			return models.SelectionOver
		}
		return models.SelectionUnder
	default:
		if result.HomeWinProb >= result.AwayWinProb {
			return models.SelectionHome
		}
		return models.SelectionAway
	}
}

// evaluateRow runs all six checks against one threshold row. Every check is
// always evaluated so the audit table is complete even after a failure.
func evaluateRow(row ThresholdRow, rowName string, prob, edge float64, result *models.SimulationResult) []models.ThresholdCheck {
	return []models.ThresholdCheck{
		{Name: "probability", Actual: prob, Threshold: row.MinProbability, Row: rowName, Passed: prob >= row.MinProbability},
		{Name: "edge", Actual: edge, Threshold: row.MinEdgePoints, Row: rowName, Passed: edge >= row.MinEdgePoints},
		{Name: "confidence", Actual: result.ConfidenceScore, Threshold: row.MinConfidence, Row: rowName, Passed: result.ConfidenceScore >= row.MinConfidence},
		{Name: "variance_z", Actual: result.VarianceZScore, Threshold: row.MaxVarianceZ, Row: rowName, Passed: result.VarianceZScore <= row.MaxVarianceZ},
		{Name: "market_deviation", Actual: result.MarketDeviation, Threshold: row.MaxMarketDeviation, Row: rowName, Passed: result.MarketDeviation <= row.MaxMarketDeviation},
		{Name: "data_quality", Actual: result.DataQuality, Threshold: row.MinDataQuality, Row: rowName, Passed: result.DataQuality >= row.MinDataQuality},
	}
}

func allPassed(checks []models.ThresholdCheck) bool {
	for _, c := range checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// reasonsFor renders plain-language reasons for each failed check, in check
// order
func reasonsFor(checks []models.ThresholdCheck) []string {
	var reasons []string
	for _, c := range checks {
		if c.Passed {
			continue
		}
		switch c.Name {
		case "probability":
			reasons = append(reasons, fmt.Sprintf("Probability %.3f < %.3f (%s threshold)", c.Actual, c.Threshold, c.Row))
		case "edge":
			reasons = append(reasons, fmt.Sprintf("Edge %.1f < %.1f (%s threshold)", c.Actual, c.Threshold, c.Row))
		case "confidence":
			reasons = append(reasons, fmt.Sprintf("Confidence %.0f < %.0f (%s threshold)", c.Actual, c.Threshold, c.Row))
		case "variance_z":
			reasons = append(reasons, fmt.Sprintf("Variance z %.2f > %.2f (%s threshold)", c.Actual, c.Threshold, c.Row))
		case "market_deviation":
			reasons = append(reasons, fmt.Sprintf("Market deviation %.3f > %.3f (%s threshold)", c.Actual, c.Threshold, c.Row))
		case "data_quality":
			reasons = append(reasons, fmt.Sprintf("Data quality %.0f < %.0f (%s threshold)", c.Actual, c.Threshold, c.Row))
		}
	}
	return reasons
}

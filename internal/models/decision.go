package models

import "time"

// DecisionState is the terminal state of a classified simulation run
type DecisionState string

const (
	// DecisionPick is the strongest state: publishable and parlay-eligible
	DecisionPick DecisionState = "PICK"
	// DecisionLean is publishable but never parlay-eligible
	DecisionLean DecisionState = "LEAN"
	// DecisionNoPlay is not publishable
	DecisionNoPlay DecisionState = "NO_PLAY"
)

// ThresholdCheck records one threshold comparison for the audit trail
type ThresholdCheck struct {
	Name      string  `json:"name"`
	Actual    float64 `json:"actual"`
	Threshold float64 `json:"threshold"`
	Row       string  `json:"row"`
	Passed    bool    `json:"passed"`
}

// Decision is the classifier's output for one SimulationResult. It is purely
// derived: reclassifying the same result yields an identical Decision.
type Decision struct {
	SnapshotHash       string           `json:"snapshot_hash"`
	State              DecisionState    `json:"state"`
	Selection          Selection        `json:"selection"`
	Checks             []ThresholdCheck `json:"checks"`
	Reasons            []string         `json:"reasons"`
	Publishable        bool             `json:"publishable"`
	ParlayEligible     bool             `json:"parlay_eligible"`
	CalibrationVersion string           `json:"calibration_version"`
	ThresholdVersion   string           `json:"threshold_version"`
	DecidedAt          time.Time        `json:"decided_at"`
}

// FailedChecks returns the checks that did not pass, in evaluation order
func (d *Decision) FailedChecks() []ThresholdCheck {
	var failed []ThresholdCheck
	for _, c := range d.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
	ErrInvalidID    = errors.New("invalid ID format")
	ErrStaleResult  = errors.New("simulation result superseded by line movement")
)

// ValidationError indicates a malformed or incomplete input that must be
// rejected before any computation runs. Missing fields are never defaulted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for a named field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError checks whether err is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConvergenceError indicates a simulation request whose iteration count is
// below the floor of its tier
type ConvergenceError struct {
	Requested int
	Floor     int
	Tier      string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("iteration count %d below %s tier floor %d", e.Requested, e.Tier, e.Floor)
}

// IsConvergenceError checks whether err is a ConvergenceError
func IsConvergenceError(err error) bool {
	var ce *ConvergenceError
	return errors.As(err, &ce)
}

// GradingBlockedReason categorizes why grading cannot proceed
type GradingBlockedReason string

const (
	// BlockedMissingExternalID means the event has no stable provider
	// identifier yet; grading can retry once it is backfilled.
	BlockedMissingExternalID GradingBlockedReason = "MISSING_EXTERNAL_ID"
	// BlockedEntityDrift means the teams on the pick do not match the teams
	// on the fetched score. Grading freezes rather than guesses.
	BlockedEntityDrift GradingBlockedReason = "ENTITY_DRIFT"
	// BlockedScoreUnavailable means the provider has no final score yet
	BlockedScoreUnavailable GradingBlockedReason = "SCORE_UNAVAILABLE"
)

// GradingBlocked indicates settlement cannot proceed for this pick right now.
// A missing closing snapshot is explicitly NOT a blocked condition.
type GradingBlocked struct {
	PickID    string
	Reason    GradingBlockedReason
	Detail    string
	Retryable bool
}

func (e *GradingBlocked) Error() string {
	return fmt.Sprintf("grading blocked for pick %s (%s): %s", e.PickID, e.Reason, e.Detail)
}

// IsGradingBlocked checks whether err is a GradingBlocked error, returning it
func IsGradingBlocked(err error) (*GradingBlocked, bool) {
	var gb *GradingBlocked
	if errors.As(err, &gb) {
		return gb, true
	}
	return nil, false
}

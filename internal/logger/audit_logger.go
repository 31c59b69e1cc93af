// Package logger provides audit logging.
package logger

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging. Settlement outcomes,
// entity drift freezes, and publish decisions all pass through here so the
// trail survives independent of component log levels.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogDecision logs a classification decision for a snapshot.
func (al *AuditLogger) LogDecision(snapshotHash, state, selection string, publishable bool, reasons []string) {
	al.WithFields(logrus.Fields{
		"snapshot_hash": snapshotHash,
		"state":         state,
		"selection":     selection,
		"publishable":   publishable,
		"reasons":       reasons,
	}).Info("Classification decision recorded")
}

// LogSettlement logs a settled pick.
func (al *AuditLogger) LogSettlement(pickID, status string, clv *decimal.Decimal, scoreEventID, settlementVersion string) {
	fields := logrus.Fields{
		"pick_id":            pickID,
		"status":             status,
		"score_event_id":     scoreEventID,
		"settlement_version": settlementVersion,
	}
	if clv != nil {
		fields["clv"] = clv.String()
	} else {
		fields["clv"] = nil
	}
	al.WithFields(fields).Info("Pick settlement recorded")
}

// LogGradingDrift logs a pick frozen because the score provider's entities
// no longer match the entities the pick was published against.
func (al *AuditLogger) LogGradingDrift(pickID, pickHomeTeam, pickAwayTeam, scoreHomeTeam, scoreAwayTeam string) {
	al.WithFields(logrus.Fields{
		"pick_id":         pickID,
		"pick_home_team":  pickHomeTeam,
		"pick_away_team":  pickAwayTeam,
		"score_home_team": scoreHomeTeam,
		"score_away_team": scoreAwayTeam,
	}).Warn("Grading frozen: entity drift detected")
}

// LogMissingClosingLine logs a settlement completed without CLV.
func (al *AuditLogger) LogMissingClosingLine(pickID, eventID string) {
	al.WithFields(logrus.Fields{
		"pick_id":  pickID,
		"event_id": eventID,
	}).Warn("Settled without closing line; CLV unavailable")
}

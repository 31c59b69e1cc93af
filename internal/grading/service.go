package grading

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeline/internal/config"
	"github.com/yourusername/edgeline/internal/logger"
	"github.com/yourusername/edgeline/internal/metrics"
	"github.com/yourusername/edgeline/internal/models"
	"github.com/yourusername/edgeline/internal/repository"
)

// ScoreFetcher fetches an authoritative final score by exact external event
// identifier. Fuzzy or name-based lookup is not permitted in this path.
type ScoreFetcher interface {
	FinalScore(ctx context.Context, externalEventID string) (*models.FinalScore, error)
}

// Service is the grading/settlement service: the only component allowed to
// mark a pick WIN/LOSS/PUSH/VOID.
type Service struct {
	picks     repository.PickRepository
	records   repository.GradingRepository
	snapshots repository.SnapshotRepository
	scores    ScoreFetcher
	rules     RuleSet
	clv       CLVCalculator
	cfg       config.GradingConfig
	logger    *logrus.Logger
	audit     *logger.AuditLogger
}

// NewService creates a grading service
func NewService(repos *repository.Repositories, scores ScoreFetcher, cfg config.GradingConfig, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		picks:     repos.Pick,
		records:   repos.Grading,
		snapshots: repos.Snapshot,
		scores:    scores,
		rules:     NewRuleSet(cfg.SettlementVersion),
		clv:       NewCLVCalculator(cfg.CLVRulesVersion),
		cfg:       cfg,
		logger:    log,
		audit:     logger.NewAuditLogger(log),
	}
}

// GradePick settles one published pick. The operation is idempotent: grading
// the same pick under the same rule versions always converges on one record,
// and a repeated call returns the existing record untouched.
func (s *Service) GradePick(ctx context.Context, pick *models.PublishedPick) (*models.GradingRecord, error) {
	key := models.GradingIdempotencyKey(pick.ID, s.cfg.SettlementVersion, s.cfg.CLVRulesVersion)

	if existing, err := s.records.GetByPickID(ctx, pick.ID); err == nil && existing.IdempotencyKey == key {
		return existing, nil
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if pick.ExternalEventID == "" {
		return nil, &models.GradingBlocked{
			PickID:    pick.ID.String(),
			Reason:    models.BlockedMissingExternalID,
			Detail:    "event has no external identifier for score lookup",
			Retryable: true,
		}
	}

	score, err := s.scores.FinalScore(ctx, pick.ExternalEventID)
	if err != nil {
		return nil, &models.GradingBlocked{
			PickID:    pick.ID.String(),
			Reason:    models.BlockedScoreUnavailable,
			Detail:    err.Error(),
			Retryable: true,
		}
	}
	if !score.Final {
		return nil, &models.GradingBlocked{
			PickID:    pick.ID.String(),
			Reason:    models.BlockedScoreUnavailable,
			Detail:    "score payload is not final",
			Retryable: true,
		}
	}

	// Drift detection: the entities on the score must be the entities the
	// pick was published against. On mismatch grading freezes with an
	// alert; guessing here is the worst possible failure mode.
	if !score.MatchesTeams(pick.HomeTeamID, pick.AwayTeamID) {
		metrics.RecordDriftFreeze()
		s.audit.LogGradingDrift(pick.ID.String(), pick.HomeTeamID, pick.AwayTeamID, score.HomeTeamID, score.AwayTeamID)
		return nil, &models.GradingBlocked{
			PickID:    pick.ID.String(),
			Reason:    models.BlockedEntityDrift,
			Detail:    "score entity identifiers do not match published pick",
			Retryable: false,
		}
	}

	status, err := s.rules.Settle(pick, score)
	if err != nil {
		// Rule-set exception is fatal; no partial record is written
		return nil, err
	}

	clv, closingLine := s.computeCLV(ctx, pick)

	record := &models.GradingRecord{
		ID:                uuid.New(),
		PickID:            pick.ID,
		IdempotencyKey:    key,
		Status:            status,
		CLV:               clv,
		ClosingLine:       closingLine,
		ScoreEventID:      score.ProviderEventID,
		ScorePayload:      score.Raw,
		EventID:           pick.EventID,
		SnapshotHash:      pick.SnapshotHash,
		CorrelationID:     pick.CorrelationID,
		SettlementVersion: s.cfg.SettlementVersion,
		CLVRulesVersion:   s.cfg.CLVRulesVersion,
		GradedAt:          time.Now().UTC(),
	}

	final, created, err := s.records.CreateOrGet(ctx, record)
	if err != nil {
		return nil, err
	}
	if created {
		metrics.RecordGrading(string(final.Status))
		s.audit.LogSettlement(final.PickID.String(), string(final.Status), final.CLV, final.ScoreEventID, final.SettlementVersion)
	}

	return final, nil
}

// computeCLV resolves the closing snapshot opportunistically. A missing
// closing snapshot nulls CLV and alerts; it must never block settlement.
func (s *Service) computeCLV(ctx context.Context, pick *models.PublishedPick) (clv *decimal.Decimal, closingLine *float64) {
	closing, err := s.snapshots.GetClosing(ctx, pick.EventID, pick.MarketType, time.Now().UTC())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			metrics.RecordMissingClosingSnapshot()
			s.logger.WithFields(logrus.Fields{
				"pick_id":  pick.ID,
				"event_id": pick.EventID,
			}).Warn("Closing snapshot missing: settling with null CLV")
			return nil, nil
		}
		s.logger.WithError(err).WithField("pick_id", pick.ID).Warn("Closing snapshot lookup failed: settling with null CLV")
		return nil, nil
	}

	return s.clv.Compute(pick, closing)
}

// GradeBatch sweeps ungraded picks and settles what it can. Blocked picks
// stay in the queue for the next sweep; only unexpected errors stop the
// batch.
func (s *Service) GradeBatch(ctx context.Context) (graded, blocked int, err error) {
	picks, err := s.picks.GetUngraded(ctx, s.cfg.BatchSize)
	if err != nil {
		return 0, 0, err
	}

	for _, pick := range picks {
		if _, err := s.GradePick(ctx, pick); err != nil {
			if gb, ok := models.IsGradingBlocked(err); ok {
				blocked++
				s.logger.WithFields(logrus.Fields{
					"pick_id":   gb.PickID,
					"reason":    gb.Reason,
					"retryable": gb.Retryable,
				}).Warn("Pick grading blocked")
				continue
			}
			return graded, blocked, err
		}
		graded++
	}

	return graded, blocked, nil
}

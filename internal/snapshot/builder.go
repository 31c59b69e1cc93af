// Package snapshot assembles immutable input snapshots from the market and
// roster feeds. A snapshot either captures every required input or is
// rejected; nothing is silently defaulted.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeline/internal/feed"
	"github.com/yourusername/edgeline/internal/models"
	"github.com/yourusername/edgeline/internal/repository"
)

// Builder pulls the current market and roster state for an event and
// persists the combined observation as a content-addressed snapshot
type Builder struct {
	market       feed.MarketFeed
	roster       feed.RosterFeed
	snapshots    repository.SnapshotRepository
	modelVersion string
	logger       *logrus.Entry
}

// NewBuilder creates a snapshot builder
func NewBuilder(market feed.MarketFeed, roster feed.RosterFeed, snapshots repository.SnapshotRepository, modelVersion string, logger *logrus.Logger) *Builder {
	return &Builder{
		market:       market,
		roster:       roster,
		snapshots:    snapshots,
		modelVersion: modelVersion,
		logger:       logger.WithField("component", "snapshot_builder"),
	}
}

// Build captures the current inputs for an event+market, validates them, and
// persists the snapshot. If an identical snapshot already exists (same
// content hash) the stored one is returned instead of a duplicate row.
func (b *Builder) Build(ctx context.Context, eventID uuid.UUID, market models.MarketType) (*models.InputSnapshot, error) {
	quote, err := b.market.Quote(ctx, eventID, market)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market quote: %w", err)
	}

	roster, err := b.roster.Context(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster context: %w", err)
	}

	snap := b.assemble(quote, roster)

	if err := snap.Validate(); err != nil {
		return nil, err
	}

	return b.persist(ctx, snap)
}

// CaptureClosing persists a stream-delivered closing quote as a snapshot so
// CLV can later be computed against it. Roster context is re-pulled at close;
// if the roster feed is down the closing capture is skipped rather than
// stored with fabricated inputs.
func (b *Builder) CaptureClosing(ctx context.Context, quote *feed.MarketQuote) (*models.InputSnapshot, error) {
	roster, err := b.roster.Context(ctx, quote.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster context at close: %w", err)
	}

	snap := b.assemble(quote, roster)

	if err := snap.Validate(); err != nil {
		return nil, err
	}

	return b.persist(ctx, snap)
}

func (b *Builder) assemble(quote *feed.MarketQuote, roster *feed.RosterContext) *models.InputSnapshot {
	capturedAt := quote.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	return &models.InputSnapshot{
		ID:              uuid.New(),
		EventID:         quote.EventID,
		ExternalEventID: quote.ExternalEventID,
		Sport:           quote.Sport,
		MarketType:      quote.MarketType,
		MarketLine:      quote.Line,
		Price:           quote.Price,
		HomeTeamID:      quote.HomeTeamID,
		AwayTeamID:      quote.AwayTeamID,
		HomeRating:      roster.Home.Rating,
		AwayRating:      roster.Away.Rating,
		HomeInjuryDelta: roster.Home.InjuryDelta,
		AwayInjuryDelta: roster.Away.InjuryDelta,
		HomeRestDays:    roster.Home.RestDays,
		AwayRestDays:    roster.Away.RestDays,
		PaceFactor:      roster.PaceFactor,
		DataQuality:     roster.DataQuality,
		ModelVersion:    b.modelVersion,
		CapturedAt:      capturedAt,
	}
}

func (b *Builder) persist(ctx context.Context, snap *models.InputSnapshot) (*models.InputSnapshot, error) {
	hash := snap.Hash()

	if existing, err := b.snapshots.GetByHash(ctx, hash); err == nil {
		return existing, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing snapshot: %w", err)
	}

	if err := b.snapshots.Create(ctx, snap); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			// Lost a race with a concurrent capture of the same inputs
			return b.snapshots.GetByHash(ctx, hash)
		}
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"event_id": snap.EventID,
		"market":   snap.MarketType,
		"hash":     hash[:12],
	}).Debug("Captured input snapshot")

	return snap, nil
}

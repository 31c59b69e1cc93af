package snapshot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edgeline/internal/feed"
	"github.com/yourusername/edgeline/internal/models"
)

func floatPtr(f float64) *float64 {
	return &f
}

type fakeMarketFeed struct {
	quote *feed.MarketQuote
	err   error
}

func (f *fakeMarketFeed) Quote(_ context.Context, _ uuid.UUID, _ models.MarketType) (*feed.MarketQuote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

type fakeRosterFeed struct {
	roster *feed.RosterContext
	err    error
}

func (f *fakeRosterFeed) Context(_ context.Context, _ uuid.UUID) (*feed.RosterContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.roster, nil
}

// fakeSnapshotStore keeps snapshots by hash and simulates the unique
// constraint on the content hash
type fakeSnapshotStore struct {
	byHash  map[string]*models.InputSnapshot
	creates int
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{byHash: make(map[string]*models.InputSnapshot)}
}

func (f *fakeSnapshotStore) Create(_ context.Context, snap *models.InputSnapshot) error {
	hash := snap.Hash()
	if _, exists := f.byHash[hash]; exists {
		return models.ErrDuplicateKey
	}
	f.byHash[hash] = snap
	f.creates++
	return nil
}

func (f *fakeSnapshotStore) GetByHash(_ context.Context, hash string) (*models.InputSnapshot, error) {
	snap, ok := f.byHash[hash]
	if !ok {
		return nil, models.ErrNotFound
	}
	return snap, nil
}

func (f *fakeSnapshotStore) GetLatestForEvent(_ context.Context, eventID uuid.UUID, market models.MarketType) (*models.InputSnapshot, error) {
	var latest *models.InputSnapshot
	for _, snap := range f.byHash {
		if snap.EventID != eventID || snap.MarketType != market {
			continue
		}
		if latest == nil || snap.CapturedAt.After(latest.CapturedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, models.ErrNotFound
	}
	return latest, nil
}

func (f *fakeSnapshotStore) GetClosing(_ context.Context, eventID uuid.UUID, market models.MarketType, eventStart time.Time) (*models.InputSnapshot, error) {
	var closing *models.InputSnapshot
	for _, snap := range f.byHash {
		if snap.EventID != eventID || snap.MarketType != market || !snap.CapturedAt.Before(eventStart) {
			continue
		}
		if closing == nil || snap.CapturedAt.After(closing.CapturedAt) {
			closing = snap
		}
	}
	if closing == nil {
		return nil, models.ErrNotFound
	}
	return closing, nil
}

func testQuote(eventID uuid.UUID) *feed.MarketQuote {
	return &feed.MarketQuote{
		EventID:         eventID,
		ExternalEventID: "ext-1001",
		Sport:           models.SportNBA,
		MarketType:      models.MarketTypeSpread,
		Line:            floatPtr(-3.5),
		Price:           decimal.NewFromInt(-110),
		HomeTeamID:      "BOS",
		AwayTeamID:      "NYK",
		CapturedAt:      time.Date(2026, 1, 15, 18, 30, 0, 0, time.UTC),
	}
}

func testRoster() *feed.RosterContext {
	return &feed.RosterContext{
		Home:        feed.TeamContext{TeamID: "BOS", Rating: floatPtr(4.2), InjuryDelta: -0.5, RestDays: 2},
		Away:        feed.TeamContext{TeamID: "NYK", Rating: floatPtr(-1.1), RestDays: 1},
		PaceFactor:  1.02,
		DataQuality: 85,
	}
}

func testBuilder(market feed.MarketFeed, roster feed.RosterFeed, store *fakeSnapshotStore) *Builder {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewBuilder(market, roster, store, "v3.2.0", log)
}

func TestBuildCapturesAllInputs(t *testing.T) {
	eventID := uuid.New()
	store := newFakeSnapshotStore()
	b := testBuilder(&fakeMarketFeed{quote: testQuote(eventID)}, &fakeRosterFeed{roster: testRoster()}, store)

	snap, err := b.Build(context.Background(), eventID, models.MarketTypeSpread)
	require.NoError(t, err)

	assert.Equal(t, eventID, snap.EventID)
	assert.Equal(t, "ext-1001", snap.ExternalEventID)
	assert.Equal(t, -3.5, *snap.MarketLine)
	assert.Equal(t, *testRoster().Home.Rating, *snap.HomeRating)
	assert.Equal(t, -0.5, snap.HomeInjuryDelta)
	assert.Equal(t, 85.0, snap.DataQuality)
	assert.Equal(t, "v3.2.0", snap.ModelVersion)
	assert.Equal(t, 1, store.creates)
}

func TestBuildDeduplicatesByContentHash(t *testing.T) {
	eventID := uuid.New()
	store := newFakeSnapshotStore()
	b := testBuilder(&fakeMarketFeed{quote: testQuote(eventID)}, &fakeRosterFeed{roster: testRoster()}, store)

	first, err := b.Build(context.Background(), eventID, models.MarketTypeSpread)
	require.NoError(t, err)

	// Identical inputs re-fetched later must resolve to the stored snapshot
	second, err := b.Build(context.Background(), eventID, models.MarketTypeSpread)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.creates)
}

func TestBuildNewSnapshotOnLineMove(t *testing.T) {
	eventID := uuid.New()
	store := newFakeSnapshotStore()
	market := &fakeMarketFeed{quote: testQuote(eventID)}
	b := testBuilder(market, &fakeRosterFeed{roster: testRoster()}, store)

	first, err := b.Build(context.Background(), eventID, models.MarketTypeSpread)
	require.NoError(t, err)

	moved := testQuote(eventID)
	moved.Line = floatPtr(-4.5)
	market.quote = moved

	second, err := b.Build(context.Background(), eventID, models.MarketTypeSpread)
	require.NoError(t, err)

	assert.NotEqual(t, first.Hash(), second.Hash())
	assert.Equal(t, 2, store.creates)
}

func TestBuildRejectsIncompleteInputs(t *testing.T) {
	eventID := uuid.New()

	quote := testQuote(eventID)
	quote.Line = nil // spread without a line

	store := newFakeSnapshotStore()
	b := testBuilder(&fakeMarketFeed{quote: quote}, &fakeRosterFeed{roster: testRoster()}, store)

	_, err := b.Build(context.Background(), eventID, models.MarketTypeSpread)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
	assert.Equal(t, 0, store.creates, "nothing is persisted on validation failure")
}

func TestBuildRejectsMissingRatings(t *testing.T) {
	eventID := uuid.New()

	roster := testRoster()
	roster.Home.Rating = nil

	store := newFakeSnapshotStore()
	b := testBuilder(&fakeMarketFeed{quote: testQuote(eventID)}, &fakeRosterFeed{roster: roster}, store)

	_, err := b.Build(context.Background(), eventID, models.MarketTypeSpread)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

func TestBuildPropagatesFeedFailure(t *testing.T) {
	store := newFakeSnapshotStore()
	b := testBuilder(&fakeMarketFeed{err: fmt.Errorf("provider down")}, &fakeRosterFeed{roster: testRoster()}, store)

	_, err := b.Build(context.Background(), uuid.New(), models.MarketTypeSpread)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch market quote")
}

func TestCaptureClosingPersistsStreamQuote(t *testing.T) {
	eventID := uuid.New()
	store := newFakeSnapshotStore()
	b := testBuilder(&fakeMarketFeed{}, &fakeRosterFeed{roster: testRoster()}, store)

	quote := testQuote(eventID)
	quote.CapturedAt = time.Date(2026, 1, 15, 19, 29, 0, 0, time.UTC)

	snap, err := b.CaptureClosing(context.Background(), quote)
	require.NoError(t, err)
	assert.Equal(t, eventID, snap.EventID)

	// The captured closing snapshot must be what CLV later resolves
	closing, err := store.GetClosing(context.Background(), eventID, models.MarketTypeSpread, time.Date(2026, 1, 15, 19, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, snap.Hash(), closing.Hash())
}

func TestCaptureClosingSkipsOnRosterOutage(t *testing.T) {
	store := newFakeSnapshotStore()
	b := testBuilder(&fakeMarketFeed{}, &fakeRosterFeed{err: fmt.Errorf("roster feed down")}, store)

	_, err := b.CaptureClosing(context.Background(), testQuote(uuid.New()))
	require.Error(t, err)
	assert.Equal(t, 0, store.creates)
}

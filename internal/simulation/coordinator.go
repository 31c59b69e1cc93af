package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeline/internal/config"
	"github.com/yourusername/edgeline/internal/metrics"
	"github.com/yourusername/edgeline/internal/models"
	"github.com/yourusername/edgeline/internal/repository"
)

// LiveLineFunc returns the current market line for a snapshot's event+market,
// used for stale-result detection at run completion. A nil func disables the
// check.
type LiveLineFunc func(ctx context.Context, snap *models.InputSnapshot) (*float64, error)

// Coordinator serializes simulation runs per snapshot hash and serves cached
// authoritative results. At most one run is in flight for any given hash;
// concurrent callers for the same inputs share the single run's outcome.
type Coordinator struct {
	engine   *Engine
	repo     repository.SimulationRepository
	cfg      config.SimulationConfig
	cache    *cache.Cache
	liveLine LiveLineFunc
	logger   *logrus.Logger

	mu       sync.Mutex
	inflight map[string]*inflightRun
}

type inflightRun struct {
	done   chan struct{}
	result *models.SimulationResult
	err    error
}

// NewCoordinator creates a simulation coordinator
func NewCoordinator(engine *Engine, repo repository.SimulationRepository, cfg config.SimulationConfig, liveLine LiveLineFunc, logger *logrus.Logger) *Coordinator {
	if logger == nil {
		logger = logrus.New()
	}
	ttl := time.Duration(cfg.ResultCacheTTLSecond) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Coordinator{
		engine:   engine,
		repo:     repo,
		cfg:      cfg,
		cache:    cache.New(ttl, 2*ttl),
		liveLine: liveLine,
		logger:   logger,
		inflight: make(map[string]*inflightRun),
	}
}

// GetOrRun returns the authoritative result for the snapshot, computing it
// only when no persisted result exists. Repeated calls with identical inputs
// serve the same result; they never create a divergent twin.
func (c *Coordinator) GetOrRun(ctx context.Context, snap *models.InputSnapshot, tier models.IterationTier) (*models.SimulationResult, error) {
	if snap == nil {
		return nil, models.NewValidationError("snapshot", "snapshot is nil")
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	hash := snap.Hash()
	key := resultKey(hash, tier, snap.ModelVersion)

	if cached, found := c.cache.Get(key); found {
		if result, ok := cached.(*models.SimulationResult); ok {
			return result, nil
		}
	}

	if c.repo != nil {
		existing, err := c.repo.GetBySnapshotHash(ctx, hash, tier, snap.ModelVersion)
		if err == nil {
			c.cache.SetDefault(key, existing)
			return existing, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}

	c.mu.Lock()
	if run, ok := c.inflight[hash]; ok {
		c.mu.Unlock()
		select {
		case <-run.done:
			return run.result, run.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	run := &inflightRun{done: make(chan struct{})}
	c.inflight[hash] = run
	c.mu.Unlock()

	run.result, run.err = c.runAndPersist(ctx, snap, tier, hash, key)

	c.mu.Lock()
	delete(c.inflight, hash)
	c.mu.Unlock()
	close(run.done)

	return run.result, run.err
}

func (c *Coordinator) runAndPersist(ctx context.Context, snap *models.InputSnapshot, tier models.IterationTier, hash, key string) (*models.SimulationResult, error) {
	result, err := c.engine.Run(ctx, snap, tier)
	if err != nil {
		return nil, err
	}

	// Stale-result cancellation: if the market moved past the rerun
	// threshold while we were computing, this result no longer describes a
	// live input set. Discard it; never persist a superseded result.
	if stale, err := c.isStale(ctx, snap); err == nil && stale {
		metrics.RecordStaleResultDiscarded()
		c.logger.WithFields(logrus.Fields{
			"snapshot_hash": hash,
			"tier":          tier,
		}).Warn("Simulation result discarded: line moved past rerun threshold during run")
		return nil, models.ErrStaleResult
	}

	if c.repo != nil {
		if err := c.repo.Create(ctx, result); err != nil {
			if errors.Is(err, models.ErrDuplicateKey) {
				// Another process won the write; theirs is authoritative.
				existing, getErr := c.repo.GetBySnapshotHash(ctx, hash, tier, snap.ModelVersion)
				if getErr != nil {
					return nil, fmt.Errorf("failed to read authoritative result after conflict: %w", getErr)
				}
				c.cache.SetDefault(key, existing)
				return existing, nil
			}
			return nil, err
		}
	}

	c.cache.SetDefault(key, result)
	return result, nil
}

func (c *Coordinator) isStale(ctx context.Context, snap *models.InputSnapshot) (bool, error) {
	if c.liveLine == nil || snap.MarketLine == nil {
		return false, nil
	}
	current, err := c.liveLine(ctx, snap)
	if err != nil || current == nil {
		// A feed hiccup must not discard a finished run
		return false, err
	}
	return math.Abs(*current-*snap.MarketLine) >= c.cfg.RerunLineMoveMin, nil
}

// ShouldRerun is the rerun-eligibility predicate: a new simulation is
// warranted only on material line movement, an injury/lineup change, or a
// model version bump. Anything else serves the cached result.
func (c *Coordinator) ShouldRerun(prev, curr *models.InputSnapshot) bool {
	if prev == nil || curr == nil {
		return true
	}
	if prev.ModelVersion != curr.ModelVersion {
		return true
	}
	if prev.HomeInjuryDelta != curr.HomeInjuryDelta || prev.AwayInjuryDelta != curr.AwayInjuryDelta {
		return true
	}
	if prev.MarketLine != nil && curr.MarketLine != nil {
		return math.Abs(*prev.MarketLine-*curr.MarketLine) >= c.cfg.RerunLineMoveMin
	}
	return prev.Hash() != curr.Hash()
}

func resultKey(hash string, tier models.IterationTier, modelVersion string) string {
	return hash + "|" + string(tier) + "|" + modelVersion
}

// Package main provides the entry point for the simulate CLI: capture a
// snapshot for an event, run the outcome simulation, classify the result,
// and optionally publish the pick.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/edgeline/internal/classify"
	"github.com/yourusername/edgeline/internal/config"
	"github.com/yourusername/edgeline/internal/database"
	"github.com/yourusername/edgeline/internal/feed"
	"github.com/yourusername/edgeline/internal/logger"
	"github.com/yourusername/edgeline/internal/models"
	"github.com/yourusername/edgeline/internal/repository"
	"github.com/yourusername/edgeline/internal/simulation"
	"github.com/yourusername/edgeline/internal/snapshot"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	eventFlag  string
	marketFlag string
	tierFlag   string
	publish    bool

	appLog *logrus.Logger
	cfg    *config.Config
	db     *database.DB
	repos  *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&eventFlag, "event", "", "Event UUID to simulate")
	rootCmd.Flags().StringVar(&marketFlag, "market", "SPREAD", "Market type: SPREAD, TOTAL, MONEYLINE")
	rootCmd.Flags().StringVar(&tierFlag, "tier", "", "Iteration tier: QUICK, STANDARD, DEEP, EXHAUSTIVE (default from config)")
	rootCmd.Flags().BoolVar(&publish, "publish", false, "Publish the pick if the decision is publishable")
	rootCmd.MarkFlagRequired("event")
}

var rootCmd = &cobra.Command{
	Use:     "simulate",
	Short:   "Simulate and classify one event market",
	Long:    `Captures the current inputs for an event+market, runs the Monte Carlo outcome simulation at the requested iteration tier, classifies the result against the threshold table, and prints the decision.`,
	Version: fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulate(cmd.Context())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	appLog = logger.NewLogger(cfg.App.LogLevel)

	var err error
	db, err = database.NewDB(ctx, cfg.GetDatabaseDSN(), cfg.Database.MaxConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	return nil
}

func runSimulate(ctx context.Context) error {
	defer db.Close()

	eventID, err := uuid.Parse(eventFlag)
	if err != nil {
		return fmt.Errorf("invalid event id %q: %w", eventFlag, err)
	}

	market, err := models.ParseMarketType(marketFlag)
	if err != nil {
		return err
	}

	tierName := tierFlag
	if tierName == "" {
		tierName = cfg.Simulation.DefaultTier
	}
	tier := models.IterationTier(tierName)
	if !tier.IsValid() {
		return fmt.Errorf("unknown iteration tier %q", tierName)
	}

	marketHTTP := feed.NewRateLimitedHTTPClient(feedHTTPConfig(cfg.Feeds.Market.TimeoutSeconds, cfg.Feeds.Market.MaxRetries, cfg.Feeds.Market.RateLimit), appLog)
	defer marketHTTP.Close()
	rosterHTTP := feed.NewRateLimitedHTTPClient(feedHTTPConfig(cfg.Feeds.Roster.TimeoutSeconds, cfg.Feeds.Roster.MaxRetries, cfg.Feeds.Roster.RateLimit), appLog)
	defer rosterHTTP.Close()

	marketFeed := feed.NewMarketAPIClient(marketHTTP, cfg.Feeds.Market.BaseURL, cfg.Feeds.Market.APIKey, appLog)
	rosterFeed := feed.NewRosterAPIClient(rosterHTTP, cfg.Feeds.Roster.BaseURL, cfg.Feeds.Roster.APIKey, appLog)
	builder := snapshot.NewBuilder(marketFeed, rosterFeed, repos.Snapshot, cfg.Simulation.ModelVersion, appLog)

	snap, err := builder.Build(ctx, eventID, market)
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}

	engine := simulation.NewEngine(cfg.Simulation, appLog)
	coordinator := simulation.NewCoordinator(engine, repos.Simulation, cfg.Simulation, liveLine(marketFeed), appLog)

	start := time.Now()
	result, err := coordinator.GetOrRun(ctx, snap, tier)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	classifier := classify.NewClassifier(cfg.Classifier, appLog)
	decision, err := classifier.Classify(result, snap)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	appLog.WithFields(logrus.Fields{
		"event_id": eventID,
		"market":   market,
		"tier":     tier,
		"state":    decision.State,
		"elapsed":  time.Since(start).String(),
	}).Info("Simulation complete")

	if publish && decision.Publishable {
		pick := models.NewPublishedPick(snap, decision)
		if err := repos.Pick.Create(ctx, pick); err != nil {
			return fmt.Errorf("failed to publish pick: %w", err)
		}
		appLog.WithField("pick_id", pick.ID).Info("Pick published")
	} else if publish {
		appLog.WithField("state", decision.State).Warn("Decision is not publishable; nothing published")
	}

	out := struct {
		Snapshot *models.InputSnapshot    `json:"snapshot"`
		Result   *models.SimulationResult `json:"result"`
		Decision *models.Decision         `json:"decision"`
	}{snap, result, decision}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// liveLine surfaces the current market line for stale-result detection
func liveLine(marketFeed feed.MarketFeed) simulation.LiveLineFunc {
	return func(ctx context.Context, snap *models.InputSnapshot) (*float64, error) {
		quote, err := marketFeed.Quote(ctx, snap.EventID, snap.MarketType)
		if err != nil {
			return nil, err
		}
		return quote.Line, nil
	}
}

func feedHTTPConfig(timeoutSeconds, maxRetries int, rateLimit float64) feed.HTTPClientConfig {
	httpCfg := feed.DefaultHTTPClientConfig()
	if timeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(timeoutSeconds) * time.Second
	}
	if maxRetries > 0 {
		httpCfg.MaxRetries = maxRetries
	}
	if rateLimit > 0 {
		httpCfg.RateLimit = rateLimit
	}
	return httpCfg
}

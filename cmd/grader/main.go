// Package main provides the entry point for the grading daemon: it sweeps
// ungraded picks on a schedule, captures closing lines for CLV, and serves
// health and metrics endpoints.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/edgeline/internal/config"
	"github.com/yourusername/edgeline/internal/database"
	"github.com/yourusername/edgeline/internal/feed"
	"github.com/yourusername/edgeline/internal/grading"
	"github.com/yourusername/edgeline/internal/health"
	"github.com/yourusername/edgeline/internal/logger"
	"github.com/yourusername/edgeline/internal/metrics"
	"github.com/yourusername/edgeline/internal/repository"
	"github.com/yourusername/edgeline/internal/scheduler"
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
	appLog     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:     "grader",
	Short:   "Settle published picks against final scores",
	Long:    `Runs the grading daemon: sweeps ungraded picks on a schedule, settles them under the configured settlement rules version, computes closing line value, and captures closing lines from the stream.`,
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
	Run: func(cmd *cobra.Command, args []string) {
		runGrader()
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

func runGrader() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer db.Close()

	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
	}).Info("Grading daemon starting")

	metrics.InitRegistry()

	// Score provider
	scoresHTTP := feed.NewRateLimitedHTTPClient(feedHTTPConfig(cfg.Feeds.Scores.TimeoutSeconds, cfg.Feeds.Scores.MaxRetries, cfg.Feeds.Scores.RateLimit), appLog)
	defer scoresHTTP.Close()
	scores := feed.NewScoreAPIClient(
		scoresHTTP,
		cfg.Feeds.Scores.BaseURL,
		cfg.Feeds.Scores.APIKey,
		time.Duration(cfg.Feeds.Scores.CacheTTLSeconds)*time.Second,
		appLog,
	)

	gradingSvc := grading.NewService(repos, scores, cfg.Grading, appLog)

	// Closing-line capture is optional; grading settles without it
	var capture *snapshot.ClosingCapture
	if cfg.Feeds.ClosingStream.URL != "" {
		marketHTTP := feed.NewRateLimitedHTTPClient(feedHTTPConfig(cfg.Feeds.Market.TimeoutSeconds, cfg.Feeds.Market.MaxRetries, cfg.Feeds.Market.RateLimit), appLog)
		defer marketHTTP.Close()
		rosterHTTP := feed.NewRateLimitedHTTPClient(feedHTTPConfig(cfg.Feeds.Roster.TimeoutSeconds, cfg.Feeds.Roster.MaxRetries, cfg.Feeds.Roster.RateLimit), appLog)
		defer rosterHTTP.Close()

		market := feed.NewMarketAPIClient(marketHTTP, cfg.Feeds.Market.BaseURL, cfg.Feeds.Market.APIKey, appLog)
		roster := feed.NewRosterAPIClient(rosterHTTP, cfg.Feeds.Roster.BaseURL, cfg.Feeds.Roster.APIKey, appLog)
		builder := snapshot.NewBuilder(market, roster, repos.Snapshot, cfg.Simulation.ModelVersion, appLog)

		stream := feed.NewClosingStreamClient(cfg.Feeds.ClosingStream.URL, cfg.Feeds.ClosingStream.AppKey, appLog)
		capture = snapshot.NewClosingCapture(stream, builder, pendingEvents(repos, cfg.Grading.BatchSize), appLog)

		if err := capture.Start(ctx); err != nil {
			appLog.WithError(err).Warn("Closing stream unavailable; CLV coverage degraded")
		}
		defer capture.Close()
	} else {
		appLog.Info("No closing stream configured; CLV depends on polled snapshots only")
	}

	// Health server
	healthSrv := health.NewServer(health.Config{
		ServiceName: "edgeline-grader",
		Version:     Version,
		Commit:      GitCommit,
		Port:        healthPort(cfg),
		Logger:      appLog,
		DB:          db,
		Stream:      streamChecker(capture),
		Metrics:     metricsHandler(cfg),
	})
	if err := healthSrv.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	// Scheduler
	sched := scheduler.NewScheduler(gradingSvc, refresher(capture), appLog)
	if err := sched.ScheduleGradingSweep(cfg.Grading.SweepIntervalSeconds); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule grading sweep")
	}
	if capture != nil {
		if err := sched.ScheduleClosingRefresh("@every 1m"); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule closing refresh")
		}
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}

	healthSrv.SetReady(true)
	appLog.WithField("next_run", sched.GetNextRun()).Info("Grading daemon running")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthSrv.SetReady(false)
	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Error stopping scheduler")
	}
	cancel()

	appLog.Info("Grading daemon shut down")
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

// pendingEvents lists the events of currently ungraded picks; those are the
// events whose closing lines still matter
func pendingEvents(repos *repository.Repositories, batchSize int) snapshot.PendingEventsFunc {
	return func(ctx context.Context) ([]uuid.UUID, error) {
		picks, err := repos.Pick.GetUngraded(ctx, batchSize)
		if err != nil {
			return nil, err
		}
		seen := make(map[uuid.UUID]struct{}, len(picks))
		ids := make([]uuid.UUID, 0, len(picks))
		for _, p := range picks {
			if _, ok := seen[p.EventID]; ok {
				continue
			}
			seen[p.EventID] = struct{}{}
			ids = append(ids, p.EventID)
		}
		metrics.UpdateUngradedPicks(float64(len(picks)))
		return ids, nil
	}
}

func healthPort(cfg *config.Config) string {
	if cfg.Health.Port > 0 {
		return strconv.Itoa(cfg.Health.Port)
	}
	return ""
}

func metricsHandler(cfg *config.Config) http.Handler {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.Handler()
}

func streamChecker(capture *snapshot.ClosingCapture) health.StreamChecker {
	if capture == nil {
		return nil
	}
	return capture
}

func refresher(capture *snapshot.ClosingCapture) scheduler.SubscriptionRefresher {
	if capture == nil {
		return nil
	}
	return capture
}

// Package main provides the entry point for the backfill CLI: resolve
// provider event identifiers for published picks whose snapshots lacked one,
// so the grading sweep can settle them.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/edgeline/internal/config"
	"github.com/yourusername/edgeline/internal/database"
	"github.com/yourusername/edgeline/internal/feed"
	"github.com/yourusername/edgeline/internal/grading"
	"github.com/yourusername/edgeline/internal/logger"
	"github.com/yourusername/edgeline/internal/models"
	"github.com/yourusername/edgeline/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	dryRun     bool
	limit      int

	appLog *logrus.Logger
	cfg    *config.Config
	db     *database.DB
	repos  *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report matches without writing them")
	rootCmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of picks to process")
}

var rootCmd = &cobra.Command{
	Use:     "backfill",
	Short:   "Resolve provider event identifiers for unmatched picks",
	Long:    `Matches published picks that have no provider event identifier against the score provider's final scores using team name similarity. Ambiguous matches are skipped and left for manual resolution.`,
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
		return runBackfill(cmd.Context())
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

func runBackfill(ctx context.Context) error {
	defer db.Close()

	scoresHTTP := feed.NewRateLimitedHTTPClient(feed.DefaultHTTPClientConfig(), appLog)
	defer scoresHTTP.Close()
	scores := feed.NewScoreAPIClient(
		scoresHTTP,
		cfg.Feeds.Scores.BaseURL,
		cfg.Feeds.Scores.APIKey,
		0,
		appLog,
	)

	backfiller := grading.NewBackfiller(scores, appLog)

	picks, err := repos.Pick.GetUngraded(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list ungraded picks: %w", err)
	}

	var matched, skipped int
	for _, pick := range picks {
		if pick.ExternalEventID != "" {
			continue
		}

		externalID, err := backfiller.MatchExternalID(ctx, pick)
		if err != nil {
			skipped++
			appLog.WithError(err).WithField("pick_id", pick.ID).Warn("No unambiguous match")
			continue
		}

		if dryRun {
			appLog.WithFields(logrus.Fields{
				"pick_id":     pick.ID,
				"external_id": externalID,
			}).Info("Would set provider event id (dry run)")
			matched++
			continue
		}

		if err := repos.Pick.SetExternalEventID(ctx, pick.ID, externalID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				// Another process resolved it first
				continue
			}
			return fmt.Errorf("failed to record provider event id for pick %s: %w", pick.ID, err)
		}

		matched++
		appLog.WithFields(logrus.Fields{
			"pick_id":     pick.ID,
			"external_id": externalID,
		}).Info("Provider event id resolved")
	}

	appLog.WithFields(logrus.Fields{
		"matched": matched,
		"skipped": skipped,
	}).Info("Backfill complete")

	return nil
}

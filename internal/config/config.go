// Package config provides configuration management for the EdgeLine core.
package config

import (
	"fmt"
)

// Config represents the complete application configuration. It is built once
// at process start and treated as immutable afterwards: threshold tables,
// iteration tiers, and calibration versions all live here rather than in any
// runtime-mutated global.
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Feeds      FeedsConfig      `mapstructure:"feeds" validate:"required"`
	Simulation SimulationConfig `mapstructure:"simulation" validate:"required"`
	Classifier ClassifierConfig `mapstructure:"classifier" validate:"required"`
	Grading    GradingConfig    `mapstructure:"grading" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
	Health     HealthConfig     `mapstructure:"health"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// FeedsConfig groups the external feed endpoints the core consumes
type FeedsConfig struct {
	Market        FeedEndpointConfig  `mapstructure:"market" validate:"required"`
	Roster        FeedEndpointConfig  `mapstructure:"roster" validate:"required"`
	Scores        ScoreProviderConfig `mapstructure:"scores" validate:"required"`
	ClosingStream ClosingStreamConfig `mapstructure:"closing_stream"`
}

// FeedEndpointConfig represents one pull-based HTTP feed
type FeedEndpointConfig struct {
	BaseURL        string  `mapstructure:"base_url" validate:"required,url"`
	APIKey         string  `mapstructure:"api_key"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries     int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
}

// ScoreProviderConfig represents the authoritative score provider
type ScoreProviderConfig struct {
	BaseURL         string  `mapstructure:"base_url" validate:"required,url"`
	APIKey          string  `mapstructure:"api_key"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries      int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit       float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// ClosingStreamConfig represents the websocket stream used to capture
// closing lines for CLV
type ClosingStreamConfig struct {
	URL               string  `mapstructure:"url"`
	AppKey            string  `mapstructure:"app_key"`
	MaxReconnects     int     `mapstructure:"max_reconnects"`
	BackoffSeconds    int     `mapstructure:"backoff_seconds"`
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier"`
}

// SimulationConfig represents simulation engine configuration
type SimulationConfig struct {
	DefaultTier          string  `mapstructure:"default_tier" validate:"required,tier"`
	MaxWorkers           int     `mapstructure:"max_workers" validate:"gte=0"`
	RerunLineMoveMin     float64 `mapstructure:"rerun_line_move_min" validate:"required,gt=0"`
	RerunWindowMinutes   int     `mapstructure:"rerun_window_minutes" validate:"required,gt=0"`
	ResultCacheTTLSecond int     `mapstructure:"result_cache_ttl_seconds" validate:"required,gt=0"`
	ModelVersion         string  `mapstructure:"model_version" validate:"required"`
}

// ThresholdRowConfig is one row of the classifier threshold table
type ThresholdRowConfig struct {
	MinProbability     float64 `mapstructure:"min_probability" validate:"gte=0,lte=1"`
	MinEdgePoints      float64 `mapstructure:"min_edge_points" validate:"gte=0"`
	MinConfidence      float64 `mapstructure:"min_confidence" validate:"gte=0,lte=100"`
	MaxVarianceZ       float64 `mapstructure:"max_variance_z" validate:"gt=0"`
	MaxMarketDeviation float64 `mapstructure:"max_market_deviation" validate:"gt=0"`
	MinDataQuality     float64 `mapstructure:"min_data_quality" validate:"gte=0,lte=100"`
}

// SportThresholdsConfig holds the PICK and LEAN rows for one sport
type SportThresholdsConfig struct {
	Pick ThresholdRowConfig `mapstructure:"pick"`
	Lean ThresholdRowConfig `mapstructure:"lean"`
}

// ClassifierConfig represents the versioned classifier configuration. Sports
// without an entry fall back to the built-in default table; calibration
// multipliers absent for the active version default to neutral 1.0.
type ClassifierConfig struct {
	ThresholdVersion   string                           `mapstructure:"threshold_version" validate:"required"`
	Sports             map[string]SportThresholdsConfig `mapstructure:"sports"`
	CalibrationVersion string                           `mapstructure:"calibration_version"`
	Calibration        map[string]float64               `mapstructure:"calibration"`
}

// GradingConfig represents grading service configuration
type GradingConfig struct {
	SettlementVersion    string `mapstructure:"settlement_version" validate:"required"`
	CLVRulesVersion      string `mapstructure:"clv_rules_version" validate:"required"`
	SweepIntervalSeconds int    `mapstructure:"sweep_interval_seconds" validate:"required,gt=0"`
	BatchSize            int    `mapstructure:"batch_size" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// HealthConfig represents the health check server configuration
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// CalibrationMultiplier returns the damping multiplier for the configured
// calibration version. When no calibration has ever been computed the
// classifier still works: the multiplier is neutral.
func (c *ClassifierConfig) CalibrationMultiplier() float64 {
	if c.CalibrationVersion == "" {
		return 1.0
	}
	if m, ok := c.Calibration[c.CalibrationVersion]; ok && m > 0 {
		return m
	}
	return 1.0
}

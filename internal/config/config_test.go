// Package config provides configuration management for the EdgeLine core.
package config

import (
	"os"
	"strings"
	"testing"
)

const (
	validConfigPath              = "testdata/valid_config.yaml"
	expansionConfigPath          = "testdata/expansion_config.yaml"
	nonexistentConfigPath        = "testdata/nonexistent_config.yaml"
	expectedNoErrorLoadingConfig = "expected no error loading config, got %v"
	expectedNoErrorMsg           = "expected no error, got %v"
)

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.App.Name != "edgeline" {
		t.Errorf("expected app name 'edgeline', got '%s'", cfg.App.Name)
	}

	if cfg.App.Environment != "development" {
		t.Errorf("expected environment 'development', got '%s'", cfg.App.Environment)
	}

	if cfg.Database.Port != 5432 {
		t.Errorf("expected database port 5432, got %d", cfg.Database.Port)
	}

	if cfg.Simulation.DefaultTier != "STANDARD" {
		t.Errorf("expected default tier 'STANDARD', got '%s'", cfg.Simulation.DefaultTier)
	}

	if cfg.Feeds.Scores.CacheTTLSeconds != 3600 {
		t.Errorf("expected scores cache ttl 3600, got %d", cfg.Feeds.Scores.CacheTTLSeconds)
	}
}

// TestLoadConfigFileNotFound tests handling of missing configuration file
func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestLoadWithDefaultsMissingFile tests that the CLIs can start from
// environment variables alone
func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.App.Name != "edgeline" {
		t.Errorf("expected default app name 'edgeline', got '%s'", cfg.App.Name)
	}

	if cfg.Simulation.RerunLineMoveMin != 0.5 {
		t.Errorf("expected default rerun line move 0.5, got %f", cfg.Simulation.RerunLineMoveMin)
	}

	if cfg.Grading.BatchSize != 50 {
		t.Errorf("expected default batch size 50, got %d", cfg.Grading.BatchSize)
	}
}

// TestLoadConfigEnvironmentVariableExpansion tests ${VAR} expansion in the
// config file
func TestLoadConfigEnvironmentVariableExpansion(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "expanded_secret_value")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config with expansion, got %v", err)
	}

	if cfg.Database.Password != "expanded_secret_value" {
		t.Errorf("expected password from environment expansion, got '%s'", cfg.Database.Password)
	}
}

// TestValidateSuccess tests validation of a valid configuration
func TestValidateSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

// TestValidateInvalidEnvironment tests validation of invalid environment
func TestValidateInvalidEnvironment(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.App.Environment = "invalid"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for invalid environment")
	}
}

// TestValidateInvalidTier tests validation of an unknown iteration tier
func TestValidateInvalidTier(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Simulation.DefaultTier = "TURBO"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for unknown tier")
	}
}

// TestValidateUnknownThresholdSport tests cross-field validation of the
// classifier threshold table
func TestValidateUnknownThresholdSport(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Classifier.Sports["CRICKET"] = SportThresholdsConfig{}
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for unknown sport")
	}
	if !strings.Contains(err.Error(), "CRICKET") {
		t.Errorf("expected error to name the sport, got: %v", err)
	}
}

// TestValidatePickRowLooserThanLean tests PICK/LEAN ordering enforcement
func TestValidatePickRowLooserThanLean(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	rows := SportThresholdsConfig{
		Pick: ThresholdRowConfig{MinProbability: 0.50, MinEdgePoints: 3.0, MinConfidence: 65, MaxVarianceZ: 1.5, MaxMarketDeviation: 0.12, MinDataQuality: 70},
		Lean: ThresholdRowConfig{MinProbability: 0.53, MinEdgePoints: 1.5, MinConfidence: 50, MaxVarianceZ: 2.0, MaxMarketDeviation: 0.18, MinDataQuality: 60},
	}
	cfg.Classifier.Sports["NFL"] = rows

	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for PICK row looser than LEAN row")
	}
	if !strings.Contains(err.Error(), "looser") {
		t.Errorf("expected row-ordering error, got: %v", err)
	}
}

// TestValidateCalibrationOutOfRange tests the calibration multiplier bounds
func TestValidateCalibrationOutOfRange(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Classifier.Calibration["2026-01"] = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for zero calibration multiplier")
	}
}

// TestCalibrationMultiplier tests multiplier resolution
func TestCalibrationMultiplier(t *testing.T) {
	cfg := ClassifierConfig{}
	if m := cfg.CalibrationMultiplier(); m != 1.0 {
		t.Errorf("expected neutral multiplier with no calibration version, got %f", m)
	}

	cfg.CalibrationVersion = "2026-01"
	if m := cfg.CalibrationMultiplier(); m != 1.0 {
		t.Errorf("expected neutral multiplier for unknown version, got %f", m)
	}

	cfg.Calibration = map[string]float64{"2026-01": 0.95}
	if m := cfg.CalibrationMultiplier(); m != 0.95 {
		t.Errorf("expected multiplier 0.95, got %f", m)
	}
}

// TestGetDatabaseDSN tests DSN generation
func TestGetDatabaseDSN(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	dsn := cfg.GetDatabaseDSN()
	if !strings.HasPrefix(dsn, "postgres://") {
		t.Errorf("expected DSN to start with 'postgres://', got '%s'", dsn)
	}
	if !strings.Contains(dsn, "sslmode=disable") {
		t.Errorf("expected DSN to carry ssl mode, got '%s'", dsn)
	}
}

// TestIsDevelopment tests environment check functions
func TestIsDevelopment(t *testing.T) {
	cfg := &Config{App: AppConfig{Environment: "development"}}

	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return true")
	}
	if cfg.IsProduction() {
		t.Error("expected IsProduction() to return false")
	}
}

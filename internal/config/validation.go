// Package config provides configuration management for the EdgeLine core.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/edgeline/internal/models"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("tier", validateTier)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
		return true
	default:
		return false
	}
}

// validateTier validates that an iteration tier name is one of the
// enumerated set
func validateTier(fl validator.FieldLevel) bool {
	return models.IterationTier(fl.Field().String()).IsValid()
}

// validateCrossField performs validations spanning multiple sections
func validateCrossField(cfg *Config) error {
	for sportName, rows := range cfg.Classifier.Sports {
		// Viper folds config keys to lower case; sport names compare
		// case-insensitively.
		if !models.Sport(strings.ToUpper(sportName)).IsValid() {
			return fmt.Errorf("classifier thresholds reference unknown sport %q", sportName)
		}
		// The PICK row must be at least as strict as the LEAN row on every
		// floor and ceiling, otherwise PICK/LEAN ordering is meaningless.
		p, l := rows.Pick, rows.Lean
		if p.MinProbability < l.MinProbability ||
			p.MinEdgePoints < l.MinEdgePoints ||
			p.MinConfidence < l.MinConfidence ||
			p.MaxVarianceZ > l.MaxVarianceZ ||
			p.MaxMarketDeviation > l.MaxMarketDeviation ||
			p.MinDataQuality < l.MinDataQuality {
			return fmt.Errorf("classifier thresholds for %s: PICK row is looser than LEAN row", sportName)
		}
	}

	for version, multiplier := range cfg.Classifier.Calibration {
		if multiplier <= 0 || multiplier > 2 {
			return fmt.Errorf("calibration multiplier %q out of range (0, 2]: %f", version, multiplier)
		}
	}

	return nil
}

// formatValidationErrors converts validator errors into readable messages
func formatValidationErrors(errs validator.ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return fmt.Errorf("invalid configuration: field %s failed %q validation (value: %v)",
		first.Namespace(), first.Tag(), first.Value())
}

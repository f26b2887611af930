package config

import (
	"fmt"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateMailbox(cfg.Mailbox); err != nil {
		errors = append(errors, err)
	}

	if err := validateClassifier(cfg.Classifier); err != nil {
		errors = append(errors, err)
	}

	if err := validateCleaner(cfg.Cleaner); err != nil {
		errors = append(errors, err)
	}

	if err := validateGeocoder(cfg.Geocoder); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}
	return nil
}

func validateMailbox(cfg MailboxConfig) error {
	if cfg.GatewayURL == "" {
		return &ValidationError{
			Field:   "mailbox.gateway_url",
			Message: "mail gateway URL is required",
		}
	}
	if cfg.MaxBatchSize < 0 {
		return &ValidationError{
			Field:   "mailbox.max_batch_size",
			Message: fmt.Sprintf("max batch size must not be negative, got %d", cfg.MaxBatchSize),
		}
	}
	return nil
}

func validateClassifier(cfg ClassifierConfig) error {
	if cfg.URL == "" {
		return &ValidationError{
			Field:   "classifier.url",
			Message: "classifier URL is required",
		}
	}
	if cfg.Temperature < 0 || cfg.Temperature > 1 {
		return &ValidationError{
			Field:   "classifier.temperature",
			Message: fmt.Sprintf("temperature must be in [0,1], got %f", cfg.Temperature),
		}
	}
	if cfg.MaxAttempts < 0 {
		return &ValidationError{
			Field:   "classifier.max_attempts",
			Message: fmt.Sprintf("max attempts must not be negative, got %d", cfg.MaxAttempts),
		}
	}
	return nil
}

func validateCleaner(cfg CleanerConfig) error {
	if cfg.Temperature < 0 || cfg.Temperature > 1 {
		return &ValidationError{
			Field:   "cleaner.temperature",
			Message: fmt.Sprintf("temperature must be in [0,1], got %f", cfg.Temperature),
		}
	}
	return nil
}

func validateGeocoder(cfg GeocoderConfig) error {
	if cfg.RequestsPerSec < 0 {
		return &ValidationError{
			Field:   "geocoder.requests_per_sec",
			Message: fmt.Sprintf("requests per second must not be negative, got %f", cfg.RequestsPerSec),
		}
	}
	return nil
}

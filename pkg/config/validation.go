package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var configValidator = validator.New()

// Validate checks cfg's struct tags and a handful of cross-field rules that
// tags alone can't express.
func Validate(cfg *Config) error {
	if err := configValidator.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Participant.AnnouncePeriod >= cfg.Participant.LeaseDuration {
		return fmt.Errorf("participant.announce_period (%s) must be less than participant.lease_duration (%s)",
			cfg.Participant.AnnouncePeriod, cfg.Participant.LeaseDuration)
	}

	if cfg.Admin.JWTAuth && cfg.Admin.JWTSecretEnv == "" {
		return fmt.Errorf("admin.jwt_auth is enabled but admin.jwt_secret_env is not set")
	}

	return nil
}

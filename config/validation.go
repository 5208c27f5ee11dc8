package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the loaded configuration is usable for the current
// environment. All problems are reported together.
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()

	var errs []string
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg}.Error())
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			add("DB_HOST", "is required for the postgres driver")
		}
		if cfg.DBPort == "" {
			add("DB_PORT", "is required for the postgres driver")
		}
		if cfg.DBUser == "" {
			add("DB_USER", "is required for the postgres driver")
		}
		if cfg.DBPassword == "" {
			if env == CI {
				add("DB_PASSWORD", "environment variable is required in CI environment")
			} else {
				add("db_password", "secret is required")
			}
		}
	case "sqlite":
		if env == Production {
			add("DB_DRIVER", "sqlite is not allowed in production")
		}
	default:
		add("DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}

	if cfg.DBName == "" {
		add("DB_NAME", "is required")
	}

	if cfg.JWTSecret == "" {
		if env == CI {
			add("JWT_SECRET", "environment variable is required in CI environment")
		} else {
			add("jwt_secret", "secret is required")
		}
	} else if env == Production && len(cfg.JWTSecret) < 32 {
		add("jwt_secret", "must be at least 32 characters in production")
	}

	if cfg.S3Bucket != "" && cfg.AWSRegion == "" {
		add("AWS_REGION", "is required when S3_BUCKET_NAME is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}

	return nil
}

package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the OpenLens service.
// Environment variables are parsed from the OPENLENS_ prefix.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage driver: sqlite or postgres
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/openlens.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Openverse API credentials (client-credentials grant)
	OpenverseAPIURL       string `envconfig:"OPENVERSE_API_URL" default:"https://api.openverse.org/v1/"`
	OpenverseClientID     string `envconfig:"OPENVERSE_CLIENT_ID" default:""`
	OpenverseClientSecret string `envconfig:"OPENVERSE_CLIENT_SECRET" default:""`

	// APIKeys maps bearer keys to user ids, "key=user" pairs joined by commas.
	// Empty means no authenticated endpoints are usable.
	APIKeys string `envconfig:"API_KEYS" default:""`

	// Health probe settings
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// Validate checks driver selection and required upstream settings.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("OPENLENS_SQLITE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("OPENLENS_POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.OpenverseAPIURL == "" {
		return fmt.Errorf("OPENLENS_OPENVERSE_API_URL must not be empty")
	}
	return nil
}

// New creates a Config by parsing OPENLENS_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("OPENLENS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("openverse_api_url", cfg.OpenverseAPIURL).
		Bool("openverse_credentials_present", cfg.OpenverseClientID != "" && cfg.OpenverseClientSecret != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

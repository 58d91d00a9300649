package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the runtime configuration for the straviz service.
// Environment variables are parsed from the STRAVIZ_ prefix, e.g.
// STRAVIZ_HTTP_PORT, STRAVIZ_POSTGRES_DSN.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8000"`

	// Storage driver: postgres or sqlite
	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"straviz.db"`

	// Startup availability check: attempts and fixed delay between them.
	StartupRetries    int           `envconfig:"STARTUP_RETRIES" default:"5"`
	StartupRetryDelay time.Duration `envconfig:"STARTUP_RETRY_DELAY" default:"2s"`

	// Strava upstream endpoints and the credential file rewritten on refresh.
	StravaAPIURL    string `envconfig:"STRAVA_API_URL" default:"https://www.strava.com/api/v3"`
	StravaTokenURL  string `envconfig:"STRAVA_TOKEN_URL" default:"https://www.strava.com/oauth/token"`
	CredentialsFile string `envconfig:"CREDENTIALS_FILE" default:".env"`

	// Outbound request timeout applied to every Strava call.
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s"`

	// Health probing
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates driver selection and fills driver-derived values.
func (c *Config) ResolveDefaults() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("STRAVIZ_POSTGRES_DSN required when DB_DRIVER=postgres")
	}
	if c.StartupRetries < 1 {
		c.StartupRetries = 1
	}
	return nil
}

// New creates a Config by parsing STRAVIZ_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("STRAVIZ", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewForTesting returns a config suitable for unit tests: sqlite in a temp
// location and no startup retry delay.
func NewForTesting() *Config {
	return &Config{
		HTTPPort:                  8000,
		DBDriver:                  "sqlite",
		SQLitePath:                ":memory:",
		StartupRetries:            1,
		StartupRetryDelay:         0,
		StravaAPIURL:              "https://www.strava.com/api/v3",
		StravaTokenURL:            "https://www.strava.com/oauth/token",
		CredentialsFile:           ".env",
		UpstreamTimeout:           30 * time.Second,
		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 2,
	}
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

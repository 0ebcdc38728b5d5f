package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ErrNoTokenKey is returned when neither a JWT secret nor a JWKS URL is configured.
var ErrNoTokenKey = errors.New("one of AUTH_JWT_SECRET or AUTH_JWKS_URL is required")

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"VERSION" default:"dev"`

	// DatabaseURL carries the elevated (service role) credential.
	DatabaseURL           string `envconfig:"DATABASE_URL" required:"true"`
	RestrictedDatabaseURL string `envconfig:"RESTRICTED_DATABASE_URL" default:""`
	RestrictedRole        string `envconfig:"RESTRICTED_DB_ROLE" default:"authenticated"`
	AutoMigrate           bool   `envconfig:"AUTO_MIGRATE" default:"false"`

	AuthJWTSecret  string `envconfig:"AUTH_JWT_SECRET" default:""`
	AuthJWKSURL    string `envconfig:"AUTH_JWKS_URL" default:""`
	AuthIssuer     string `envconfig:"AUTH_JWT_ISSUER" default:""`
	AuthAudience   string `envconfig:"AUTH_JWT_AUDIENCE" default:"authenticated"`
	AuthCookieName string `envconfig:"AUTH_COOKIE_NAME" default:""`

	IdentityURL        string        `envconfig:"IDENTITY_URL" required:"true"`
	IdentityServiceKey string        `envconfig:"IDENTITY_SERVICE_KEY" required:"true"`
	IdentityTimeout    time.Duration `envconfig:"IDENTITY_TIMEOUT" default:"10s"`

	ClearRequestOnApprove bool          `envconfig:"CLEAR_REQUEST_ON_APPROVE" default:"false"`
	ChatTokenInterval     time.Duration `envconfig:"CHAT_TOKEN_INTERVAL" default:"350ms"`

	// RosterInterval is how often membership gauges are refreshed. Zero disables sampling.
	RosterInterval time.Duration `envconfig:"ROSTER_SAMPLE_INTERVAL" default:"1m"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if c.AuthJWTSecret == "" && c.AuthJWKSURL == "" {
		return ErrNoTokenKey
	}
	return nil
}

// RestrictedURL returns the caller-scoped connection string, falling back to
// the elevated one when no dedicated credential is configured.
func (c *Config) RestrictedURL() string {
	if c.RestrictedDatabaseURL != "" {
		return c.RestrictedDatabaseURL
	}
	return c.DatabaseURL
}

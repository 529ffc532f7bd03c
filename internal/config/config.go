package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
)

// EnvConfig holds the subset of configuration that comes from environment
// variables rather than the TOML file: admin credentials and anything an
// operator would rather inject via the process environment than commit to
// disk.
type EnvConfig struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	// AdminSessionSecret signs admin session JWTs; an empty value disables login.
	AdminSessionSecret string `env:"ADMIN_SESSION_SECRET"`

	// OJAPITokenAuthDefault seeds the token_auth_enabled app_settings row the
	// first time the database is created; later changes go through the admin
	// API and live in the database from then on.
	OJAPITokenAuthDefault bool `env:"OJ_API_TOKEN_AUTH_DEFAULT" envDefault:"true"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"oj-catalog"`

	CORSAllowOrigins string `env:"CORS_ALLOW_ORIGINS" envDefault:""`
	RateLimitPerMin  int    `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`

	// RedisURL enables the optional read-through cache in front of problem
	// detail and daily challenge lookups. Empty disables it.
	RedisURL string `env:"REDIS_URL" envDefault:""`
}

// LoadEnv parses environment variables into an EnvConfig.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("config: load env: %w", err)
	}
	return cfg, nil
}

// AdminEnabled reports whether the admin surface should be exposed: all
// three of username, password, and session secret must be set.
func (c EnvConfig) AdminEnabled() bool {
	return c.AdminUsername != "" && c.AdminPassword != "" && c.AdminSessionSecret != ""
}

// IsProd reports whether the app is running in production mode.
func (c EnvConfig) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

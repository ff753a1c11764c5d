package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Prefix is prepended to every environment variable, e.g. MEMO_SERVICE_HTTP_PORT.
const Prefix = "MEMO_SERVICE"

// Config holds the configuration for the memo service.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP Configuration
	HTTPPort               int `envconfig:"HTTP_PORT" default:"8080"`
	ShutdownTimeoutSeconds int `envconfig:"SHUTDOWN_TIMEOUT_SECONDS" default:"10"`

	// Store: postgres | sqlite
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/memos.db"`
	// Upper bound for connecting and migrating the schema at startup.
	BootstrapTimeoutSeconds int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"30"`

	// Summarization (any OpenAI-compatible chat completion endpoint; Gemini by default).
	// GEMINI_API_KEY is also read without prefix and used when SUMMARY_API_KEY is empty.
	SummaryAPIKey  string `envconfig:"SUMMARY_API_KEY" default:""`
	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY" default:""`
	SummaryBaseURL string `envconfig:"SUMMARY_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	SummaryModel   string `envconfig:"SUMMARY_MODEL" default:"gemini-2.0-flash-001"`

	// Listing view revalidation webhook; empty disables it.
	RevalidateWebhookURL string `envconfig:"REVALIDATE_WEBHOOK_URL" default:""`
	RevalidateSecret     string `envconfig:"REVALIDATE_SECRET" default:""`

	// Health Configuration
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates the driver selection and derives dependent values.
func (c *Config) ResolveDefaults() error {
	switch c.DBDriver {
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("%s_POSTGRES_DSN is required when DB_DRIVER=postgres", Prefix)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("%s_SQLITE_PATH is required when DB_DRIVER=sqlite", Prefix)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	if c.SummaryAPIKey == "" {
		c.SummaryAPIKey = c.GeminiAPIKey
	}
	if c.HealthIntervalSeconds <= 0 {
		return fmt.Errorf("HEALTH_INTERVAL_SECONDS must be positive, got %d", c.HealthIntervalSeconds)
	}
	return nil
}

// New creates a new Config by parsing environment variables with the MEMO_SERVICE_ prefix.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads variables from the given files (default ".env") without overriding
// variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8080,
		ShutdownTimeoutSeconds:    1,
		DBDriver:                  "sqlite",
		SQLitePath:                "memos-test.db",
		BootstrapTimeoutSeconds:   5,
		SummaryBaseURL:            "http://localhost:0/v1",
		SummaryModel:              "test-model",
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// HasSummaryCredential reports whether a summarization API key is configured.
func (c *Config) HasSummaryCredential() bool {
	return c.SummaryAPIKey != ""
}

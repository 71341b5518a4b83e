// Package config handles loading and validation of service configuration.
// Supports both development (env vars or CONFIG_FILE) and production
// (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/caarlos0/env/v10"

	"storefront/internal/clientinfo"
	"storefront/internal/model"
)

// Config holds all service configuration.
// Every field is keyed by its environment variable name; CONFIG_FILE and the
// production secret are flat JSON objects using the same keys.
type Config struct {
	// Server settings
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development" or "production"
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`          // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string `env:"GCP_PROJECT"`
	SecretID   string `env:"SECRET_ID" envDefault:"storefront-config"`

	Backend   BackendConfig
	Pricing   PricingConfig
	Sessions  SessionConfig
	Telemetry TelemetryConfig

	// MinClientVersion turns away UI bundles older than this semver. Empty disables the gate.
	MinClientVersion string `env:"MIN_CLIENT_VERSION"`
}

// BackendConfig describes how to reach the jewelry API.
type BackendConfig struct {
	BaseURL         string        `env:"API_BASE_URL"`
	Timeout         time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	MaxRetries      int           `env:"MAX_RETRIES" envDefault:"1"`
	RetryWait       time.Duration `env:"RETRY_WAIT" envDefault:"200ms"`
	RetryMaxWait    time.Duration `env:"RETRY_MAX_WAIT" envDefault:"2s"`
	RateLimit       float64       `env:"RATE_LIMIT_RPS" envDefault:"0"`
	RateBurst       int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	ChromeTransport bool          `env:"CHROME_TRANSPORT" envDefault:"false"`
	BreakerTimeout  time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
}

// PricingConfig holds the checkout money rules.
type PricingConfig struct {
	FreeShippingThreshold model.Money `env:"FREE_SHIPPING_THRESHOLD" envDefault:"1000"`
	FlatShippingFee       model.Money `env:"FLAT_SHIPPING_FEE" envDefault:"50"`
	TaxRate               model.Money `env:"TAX_RATE" envDefault:"0.03"`
}

// SessionConfig controls where shopper credentials live and how long page
// sessions are kept in memory.
type SessionConfig struct {
	TokenStore    string        `env:"TOKEN_STORE" envDefault:"memory"` // "memory" or "redis"
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	IdleTTL       time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) over environment; in production the
// secret's values override the environment.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	vars := environ()

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		fileVars, err := readFile(configPath)
		if err != nil {
			return nil, err
		}
		merge(vars, fileVars)
	} else if vars["ENVIRONMENT"] == "production" {
		if vars["GCP_PROJECT"] == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		secretVars, err := loadFromSecretManager(ctx, vars["GCP_PROJECT"], withDefault(vars["SECRET_ID"], "storefront-config"))
		if err != nil {
			return nil, fmt.Errorf("loading backend config: %w", err)
		}
		merge(vars, secretVars)
	}

	return parse(vars)
}

// parse maps vars onto a Config and validates it.
func parse(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Backend.BaseURL = strings.TrimSuffix(cfg.Backend.BaseURL, "/")
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readFile loads a flat JSON object of KEY: value pairs.
// Non-string values are accepted and stringified, so {"MAX_RETRIES": 3} works.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	vars, err := decodeVars(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return vars, nil
}

func decodeVars(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	vars := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
			continue
		case string:
			vars[k] = v
		case map[string]any, []any:
			return nil, fmt.Errorf("%s: nested values are not supported", k)
		default:
			vars[k] = fmt.Sprint(v)
		}
	}
	return vars, nil
}

// loadFromSecretManager fetches backend settings from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{secret_id}/versions/latest
func loadFromSecretManager(ctx context.Context, project, secretID string) (map[string]string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, secretID)
	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return nil, fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	vars, err := decodeVars(result.Payload.Data)
	if err != nil {
		return nil, fmt.Errorf("parsing secret JSON: %w", err)
	}
	return vars, nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL: %q", c.Backend.BaseURL)
	}
	switch c.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Environment)
	}
	if c.Backend.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}
	if c.Pricing.FreeShippingThreshold.IsNegative() || c.Pricing.FlatShippingFee.IsNegative() {
		return fmt.Errorf("shipping settings must not be negative")
	}
	if c.Pricing.TaxRate.IsNegative() || c.Pricing.TaxRate.GreaterThanOrEqual(model.MustMoney("1")) {
		return fmt.Errorf("TAX_RATE must be a fraction between 0 and 1, got %s", c.Pricing.TaxRate)
	}
	switch c.Sessions.TokenStore {
	case "memory":
	case "redis":
		if c.Sessions.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when TOKEN_STORE=redis")
		}
	default:
		return fmt.Errorf("TOKEN_STORE must be memory or redis, got %q", c.Sessions.TokenStore)
	}
	if c.MinClientVersion != "" && !clientinfo.ValidVersion(c.MinClientVersion) {
		return fmt.Errorf("MIN_CLIENT_VERSION is not a semantic version: %q", c.MinClientVersion)
	}
	return nil
}

// Rules converts the money settings for the cart.
func (p PricingConfig) Rules() model.Pricing {
	return model.Pricing{
		FreeShippingThreshold: p.FreeShippingThreshold,
		FlatShippingFee:       p.FlatShippingFee,
		TaxRate:               p.TaxRate,
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// environ snapshots the process environment.
func environ() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return vars
}

// merge copies src over dst.
func merge(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

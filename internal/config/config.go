package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Budget lifecycle
	Budget BudgetConfig

	// Ledger access from the budget service
	Ledger LedgerConfig

	// Shared secret for service-to-service calls
	ServiceKey string

	RateLimit RateLimitConfig
}

// BudgetConfig controls budget period shape and item validation
type BudgetConfig struct {
	Granularity domain.PeriodGranularity
	ItemPolicy  domain.ItemMonthPolicy
}

// LedgerConfig holds the ledger client settings
type LedgerConfig struct {
	URL              string
	Timeout          time.Duration
	CheckConcurrency int
}

// RateLimitConfig holds per-owner request limits
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:           getEnv("ENV", "development"),
		Budget: BudgetConfig{
			Granularity: domain.PeriodGranularity(strings.ToLower(getEnv("BUDGET_PERIOD", string(domain.PeriodMonthly)))),
			ItemPolicy:  domain.ItemMonthPolicy(strings.ToLower(getEnv("BUDGET_ITEM_MONTH_POLICY", string(domain.ItemMonthStrict)))),
		},
		Ledger: LedgerConfig{
			URL: strings.TrimRight(getEnv("LEDGER_URL", ""), "/"),
		},
		ServiceKey: getEnv("SERVICE_KEY", ""),
	}

	var err error
	if cfg.Ledger.Timeout, err = getDuration("LEDGER_TIMEOUT", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.Ledger.CheckConcurrency, err = getInt("LEDGER_CHECK_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.RateLimit.PerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = getInt("RATE_LIMIT_BURST", 10); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabaseURL loads only DATABASE_URL, for tools that need no auth settings
func DatabaseURL() (string, error) {
	_ = godotenv.Load()
	url := getEnv("DATABASE_URL", "")
	if url == "" {
		return "", fmt.Errorf("DATABASE_URL is required")
	}
	return url, nil
}

// IsProduction reports whether the service runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RequireLedger checks the settings the budget service needs to reach the ledger
func (c *Config) RequireLedger() error {
	if c.Ledger.URL == "" {
		return fmt.Errorf("LEDGER_URL is required")
	}
	if c.ServiceKey == "" {
		return fmt.Errorf("SERVICE_KEY is required")
	}
	return nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	switch c.Budget.Granularity {
	case domain.PeriodMonthly, domain.PeriodYearly:
	default:
		return fmt.Errorf("BUDGET_PERIOD must be monthly or yearly, got %q", c.Budget.Granularity)
	}
	switch c.Budget.ItemPolicy {
	case domain.ItemMonthStrict, domain.ItemMonthOff:
	default:
		return fmt.Errorf("BUDGET_ITEM_MONTH_POLICY must be strict or off, got %q", c.Budget.ItemPolicy)
	}
	if c.Ledger.Timeout <= 0 {
		return fmt.Errorf("LEDGER_TIMEOUT must be positive")
	}
	if c.Ledger.CheckConcurrency < 1 {
		return fmt.Errorf("LEDGER_CHECK_CONCURRENCY must be at least 1")
	}
	if c.RateLimit.PerMinute < 1 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 3s: %w", key, err)
	}
	return v, nil
}

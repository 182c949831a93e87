// Package config reads process configuration from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"invoicer/internal/core/numerator"
	"invoicer/internal/domain/invoice"
)

// MinSecretLength is the shortest accepted SESSION_SECRET.
const MinSecretLength = 16

// Config is the configuration of the server, worker and CLI.
type Config struct {
	// Application
	AppEnv   string
	AppPort  string
	LogLevel string

	// Database
	DatabaseURL string
	DBMaxConns  int32

	// Sessions
	SessionSecret     string
	SessionTTL        time.Duration
	AdminUsername     string
	AdminPasswordHash string

	// IdempotencyTTL is how long a completed Idempotency-Key is replayed.
	IdempotencyTTL time.Duration

	// Invoicing rules
	GSTCombinedRate   decimal.Decimal
	LineItemPolicy    invoice.Policy
	NumberingStrategy numerator.Strategy
	InvoiceDueDays    int

	// Events
	KafkaBrokers       []string
	KafkaTopic         string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads configuration for the HTTP server.
func Load() (*Config, error) {
	loadDotEnv()
	return Parse(os.Getenv)
}

// LoadWorker reads configuration for the outbox relay, which needs no
// session settings.
func LoadWorker() (*Config, error) {
	loadDotEnv()
	c, err := parse(os.Getenv)
	if err != nil {
		return nil, err
	}
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// Parse reads and validates the server configuration from getenv.
func Parse(getenv func(string) string) (*Config, error) {
	c, err := parse(getenv)
	if err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// loadDotEnv loads .env when present. Real environment variables win.
func loadDotEnv() {
	_ = godotenv.Load()
}

func parse(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	c := &Config{
		AppEnv:            env("APP_ENV", "production"),
		AppPort:           env("APP_PORT", "8080"),
		LogLevel:          env("LOG_LEVEL", "info"),
		DatabaseURL:       env("DATABASE_URL", ""),
		SessionSecret:     env("SESSION_SECRET", ""),
		AdminUsername:     env("ADMIN_USERNAME", ""),
		AdminPasswordHash: env("ADMIN_PASSWORD_HASH", ""),
		KafkaTopic:        env("KAFKA_TOPIC", "invoice-events"),
	}
	if brokers := env("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.KafkaBrokers = append(c.KafkaBrokers, b)
			}
		}
	}

	var errs []error
	var err error

	if c.GSTCombinedRate, err = decimal.NewFromString(env("GST_COMBINED_RATE", strconv.Itoa(invoice.DefaultCombinedRate))); err != nil {
		errs = append(errs, fmt.Errorf("GST_COMBINED_RATE: %w", err))
	} else if c.GSTCombinedRate.IsNegative() || c.GSTCombinedRate.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, errors.New("GST_COMBINED_RATE must be between 0 and 100"))
	}
	if c.LineItemPolicy, err = invoice.ParsePolicy(env("LINE_ITEM_POLICY", string(invoice.PolicyStrict))); err != nil {
		errs = append(errs, fmt.Errorf("LINE_ITEM_POLICY: %w", err))
	}
	if c.NumberingStrategy, err = numerator.ParseStrategy(env("NUMBERING_STRATEGY", string(numerator.StrategyCounter))); err != nil {
		errs = append(errs, fmt.Errorf("NUMBERING_STRATEGY: %w", err))
	}
	if c.InvoiceDueDays, err = strconv.Atoi(env("INVOICE_DUE_DAYS", strconv.Itoa(invoice.DefaultDueDays))); err != nil || c.InvoiceDueDays < 0 {
		errs = append(errs, errors.New("INVOICE_DUE_DAYS must be a non-negative integer"))
	}
	if n, err := strconv.ParseInt(env("DB_MAX_CONNS", "10"), 10, 32); err != nil || n <= 0 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be a positive integer"))
	} else {
		c.DBMaxConns = int32(n)
	}
	if c.SessionTTL, err = time.ParseDuration(env("SESSION_TTL", "12h")); err != nil || c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be a positive duration"))
	}
	if c.IdempotencyTTL, err = time.ParseDuration(env("IDEMPOTENCY_TTL", "24h")); err != nil || c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be a positive duration"))
	}
	if c.OutboxPollInterval, err = time.ParseDuration(env("OUTBOX_POLL_INTERVAL", "2s")); err != nil || c.OutboxPollInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL must be a positive duration"))
	}
	if c.OutboxBatchSize, err = strconv.Atoi(env("OUTBOX_BATCH_SIZE", "100")); err != nil || c.OutboxBatchSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be a positive integer"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config parse failed: %w", err)
	}
	return c, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	} else if len(c.SessionSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d characters", MinSecretLength))
	}
	if c.AdminUsername == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME is required"))
	}
	if c.AdminPasswordHash == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD_HASH is required"))
	} else if _, err := bcrypt.Cost([]byte(c.AdminPasswordHash)); err != nil {
		errs = append(errs, fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err))
	}
	return errors.Join(errs...)
}

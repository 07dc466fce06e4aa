// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/alwafa/bakery-ledger/bakery"
)

// Prefix is prepended to every variable name, e.g. BAKERY_ADDR.
const Prefix = "BAKERY"

// Config holds runtime configuration for the server.
type Config struct {
	Addr         string        `envconfig:"ADDR" default:":8080" validate:"required"`
	DBPath       string        `envconfig:"DB_PATH" default:"./bakery.db" validate:"required"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s" validate:"gt=0"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json console"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:8080"`
	// ExportRateLimit is the number of export/backup requests allowed per
	// client per minute.
	ExportRateLimit int `envconfig:"EXPORT_RATE_LIMIT" default:"10" validate:"gte=1"`

	Distributors []string `envconfig:"DISTRIBUTORS" default:"هيثم,وجيه,المفرش,علي,درهم" validate:"min=1,dive,required"`
	CashAccount  string   `envconfig:"CASH_ACCOUNT" default:"كاش" validate:"required"`
	OtherItems   []string `envconfig:"OTHER_ITEMS" default:"روتي طويل,كيك,خبز,فحم" validate:"dive,required"`
	// FoldAccountNames groups statement accounts case-insensitively.
	FoldAccountNames bool `envconfig:"FOLD_ACCOUNT_NAMES" default:"false"`

	// Demo mounts the scenario routes, which reset the database.
	Demo bool `envconfig:"DEMO" default:"false"`
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// missing .env is fine
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	cfg.cleanNames()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// cleanNames trims the comma-separated name lists, so "هيثم, وجيه" names
// the same distributors as "هيثم,وجيه".
func (c *Config) cleanNames() {
	c.Distributors = bakery.CleanAccountNames(c.Distributors)
	c.OtherItems = bakery.CleanAccountNames(c.OtherItems)
	c.CashAccount = bakery.CleanAccountName(c.CashAccount)
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for _, d := range c.Distributors {
		if d == c.CashAccount {
			return fmt.Errorf("invalid configuration: cash account %q is also listed as a distributor", d)
		}
	}
	return nil
}

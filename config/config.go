// Package config reads the settings of the command line tools from the
// environment, and from a .env file in the working directory if present.
package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/etnz/papertrade"
)

// Store backends.
const (
	StoreJSONL  = "jsonl"
	StoreSQLite = "sqlite"
)

type Config struct {
	Store       string   `env:"PAPERTRADE_STORE" envDefault:"jsonl"`
	Dir         string   `env:"PAPERTRADE_DIR" envDefault:".papertrade"`
	DB          string   `env:"PAPERTRADE_DB" envDefault:".papertrade/papertrade.db"`
	Currency    string   `env:"PAPERTRADE_CURRENCY" envDefault:"USD"`
	Currencies  []string `env:"PAPERTRADE_CURRENCIES" envSeparator:","`
	MaxAttempts int      `env:"PAPERTRADE_MAX_ATTEMPTS" envDefault:"3"`
	User        string   `env:"PAPERTRADE_USER" envDefault:"default"`
	Log         Log
}

type Log struct {
	Level  string `env:"PAPERTRADE_LOG_LEVEL" envDefault:"warn"`
	Pretty bool   `env:"PAPERTRADE_LOG_PRETTY" envDefault:"true"`
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// MustLoad is like Load but exits on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config error: %s", err)
	}
	return cfg
}

// Validate checks the store backend, the currencies and the retry budget.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreJSONL, StoreSQLite:
	default:
		return fmt.Errorf("PAPERTRADE_STORE: unknown store %q, want %s or %s", c.Store, StoreJSONL, StoreSQLite)
	}
	if err := papertrade.ValidateCurrency(c.Currency); err != nil {
		return fmt.Errorf("PAPERTRADE_CURRENCY: %w", err)
	}
	for i, cur := range c.Currencies {
		c.Currencies[i] = strings.TrimSpace(cur)
		if err := papertrade.ValidateCurrency(c.Currencies[i]); err != nil {
			return fmt.Errorf("PAPERTRADE_CURRENCIES: %w", err)
		}
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("PAPERTRADE_MAX_ATTEMPTS: must be at least 1, got %d", c.MaxAttempts)
	}
	return nil
}

// Accepts reports whether portfolios may hold cur. An empty allow list accepts
// every valid currency.
func (c *Config) Accepts(cur string) bool {
	if len(c.Currencies) == 0 {
		return true
	}
	for _, allowed := range c.Currencies {
		if allowed == cur {
			return true
		}
	}
	return false
}

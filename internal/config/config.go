// Package config holds the explicit configuration structure passed into the
// pipeline's entry points. Nothing here is process-wide mutable state.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"salespulse/internal/period"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"json"`
}

// PathsConfig contains file system paths configuration. DataDir is the
// source of truth for dataset location; there is no hardcoded fallback
// beyond this default.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`
}

// AnalysisConfig carries the default analysis parameters: the current and
// comparison periods and the order status filter.
type AnalysisConfig struct {
	StatusFilter string       `yaml:"status_filter" envconfig:"STATUS_FILTER" default:"delivered"`
	Current      PeriodConfig `yaml:"current" envconfig:"CURRENT"`
	Comparison   PeriodConfig `yaml:"comparison" envconfig:"COMPARISON"`
}

// PeriodConfig is one inclusive year-month range.
type PeriodConfig struct {
	StartYear  int `yaml:"start_year" envconfig:"START_YEAR"`
	StartMonth int `yaml:"start_month" envconfig:"START_MONTH"`
	EndYear    int `yaml:"end_year" envconfig:"END_YEAR"`
	EndMonth   int `yaml:"end_month" envconfig:"END_MONTH"`
}

// Range converts the period configuration into a validated range.
func (p PeriodConfig) Range() (period.Range, error) {
	return period.NewRange(p.StartYear, p.StartMonth, p.EndYear, p.EndMonth)
}

// IsZero reports whether the period was left unconfigured.
func (p PeriodConfig) IsZero() bool {
	return p == PeriodConfig{}
}

// Load loads configuration from environment variables and an optional config
// file. Environment variables take precedence over the file.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = *fileCfg
		}
	}

	if err := envconfig.Process("SALES", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills in values envconfig defaults don't reach when a file
// config was merged first, plus the default analysis periods: calendar 2023
// compared against calendar 2022.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = "data"
	}
	if c.Paths.ReportsDir == "" {
		c.Paths.ReportsDir = "reports"
	}
	if c.Analysis.StatusFilter == "" {
		c.Analysis.StatusFilter = "delivered"
	}
	if c.Analysis.Current.IsZero() {
		c.Analysis.Current = PeriodConfig{StartYear: 2023, StartMonth: 1, EndYear: 2023, EndMonth: 12}
	}
	if c.Analysis.Comparison.IsZero() {
		c.Analysis.Comparison = PeriodConfig{StartYear: 2022, StartMonth: 1, EndYear: 2022, EndMonth: 12}
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	if _, err := c.Analysis.Current.Range(); err != nil {
		return fmt.Errorf("invalid current period: %w", err)
	}
	if _, err := c.Analysis.Comparison.Range(); err != nil {
		return fmt.Errorf("invalid comparison period: %w", err)
	}

	return nil
}

// Package config loads the pepperwatch configuration from YAML, an optional
// .env file, and environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the pepperwatch client.
type Config struct {
	Backend  Backend  `yaml:"backend"`
	Forecast Forecast `yaml:"forecast"`
	Views    Views    `yaml:"views"`
	Archive  Archive  `yaml:"archive"`
	Logging  Logging  `yaml:"logging"`
	Gateway  Gateway  `yaml:"gateway"`
}

// Backend locates the remote prediction service. BaseURL is always injected
// into the client from here; nothing reads it from ambient globals.
type Backend struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (b Backend) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Forecast bounds the predict surface. MaxDaysAhead is the single horizon
// ceiling applied everywhere a forecast date is validated.
type Forecast struct {
	MaxDaysAhead int `yaml:"max_days_ahead"`
}

// Views holds the fetch windows, in days, for each dashboard surface.
type Views struct {
	OverviewDays       int `yaml:"overview_days"`
	PredictContextDays int `yaml:"predict_context_days"`
	BacktestDays       int `yaml:"backtest_days"`
	TableDays          int `yaml:"table_days"`
}

// Archive holds destinations for the explicit series export tool.
type Archive struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Gateway holds the local HTTP gateway listener settings.
type Gateway struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the gateway listen address in host:port form.
func (g Gateway) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, applies .env and
// environment variable overrides, and fills in defaults for unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// A .env file is optional; absence is not an error.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend.base_url must be set (config %s or PEPPER_BACKEND_URL)", path)
	}

	return cfg, nil
}

// Default returns a configuration built from defaults plus environment
// overrides only, for running without a config file.
func Default() *Config {
	_ = godotenv.Load()
	cfg := &Config{}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PEPPER_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("PEPPER_MAX_DAYS_AHEAD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Forecast.MaxDaysAhead = n
		}
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Archive.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Archive.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// applyDefaults fills zero-valued fields. The view windows mirror the
// surfaces of the original dashboard: 30-day trends, 90-day backtest,
// 180-day raw table.
func applyDefaults(cfg *Config) {
	if cfg.Backend.TimeoutSeconds <= 0 {
		cfg.Backend.TimeoutSeconds = 30
	}
	if cfg.Forecast.MaxDaysAhead <= 0 {
		cfg.Forecast.MaxDaysAhead = 5
	}
	if cfg.Views.OverviewDays <= 0 {
		cfg.Views.OverviewDays = 30
	}
	if cfg.Views.PredictContextDays <= 0 {
		cfg.Views.PredictContextDays = 30
	}
	if cfg.Views.BacktestDays <= 0 {
		cfg.Views.BacktestDays = 90
	}
	if cfg.Views.TableDays <= 0 {
		cfg.Views.TableDays = 180
	}
	if cfg.Archive.DataDir == "" {
		cfg.Archive.DataDir = "data"
	}
	if cfg.Archive.SQLitePath == "" {
		cfg.Archive.SQLitePath = "data/pepperwatch.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 8750
	}
}

package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "pepperwatch-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}
	return tmpFile.Name()
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PEPPER_BACKEND_URL", "PEPPER_MAX_DAYS_AHEAD",
		"DATA_DIR", "SQLITE_PATH", "LOG_LEVEL", "LOG_FORMAT",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadFull(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
backend:
  base_url: "http://127.0.0.1:5000"
  timeout_seconds: 10
forecast:
  max_days_ahead: 5
views:
  overview_days: 30
  predict_context_days: 30
  backtest_days: 90
  table_days: 180
archive:
  data_dir: "/tmp/pepperwatch/data"
  sqlite_path: "/tmp/pepperwatch/pepper.db"
logging:
  level: "debug"
  format: "json"
gateway:
  host: "0.0.0.0"
  port: 8750
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Backend.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("Backend.BaseURL = %q, want %q", cfg.Backend.BaseURL, "http://127.0.0.1:5000")
	}
	if cfg.Backend.Timeout().Seconds() != 10 {
		t.Errorf("Backend.Timeout() = %v, want 10s", cfg.Backend.Timeout())
	}
	if cfg.Forecast.MaxDaysAhead != 5 {
		t.Errorf("Forecast.MaxDaysAhead = %d, want 5", cfg.Forecast.MaxDaysAhead)
	}
	if cfg.Views.BacktestDays != 90 {
		t.Errorf("Views.BacktestDays = %d, want 90", cfg.Views.BacktestDays)
	}
	if cfg.Views.TableDays != 180 {
		t.Errorf("Views.TableDays = %d, want 180", cfg.Views.TableDays)
	}
	if cfg.Archive.SQLitePath != "/tmp/pepperwatch/pepper.db" {
		t.Errorf("Archive.SQLitePath = %q, want %q", cfg.Archive.SQLitePath, "/tmp/pepperwatch/pepper.db")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
	if cfg.Gateway.Addr() != "0.0.0.0:8750" {
		t.Errorf("Gateway.Addr() = %q, want %q", cfg.Gateway.Addr(), "0.0.0.0:8750")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
backend:
  base_url: "http://localhost:5000"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Backend.TimeoutSeconds != 30 {
		t.Errorf("default TimeoutSeconds = %d, want 30", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Forecast.MaxDaysAhead != 5 {
		t.Errorf("default MaxDaysAhead = %d, want 5", cfg.Forecast.MaxDaysAhead)
	}
	if cfg.Views.OverviewDays != 30 || cfg.Views.PredictContextDays != 30 {
		t.Errorf("default overview windows = %+v, want 30/30", cfg.Views)
	}
	if cfg.Views.BacktestDays != 90 || cfg.Views.TableDays != 180 {
		t.Errorf("default backtest/table windows = %+v, want 90/180", cfg.Views)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("default Logging = %+v, want info/text", cfg.Logging)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
backend:
  base_url: "http://from-yaml:5000"
forecast:
  max_days_ahead: 5
`)

	os.Setenv("PEPPER_BACKEND_URL", "http://from-env:5000")
	os.Setenv("PEPPER_MAX_DAYS_AHEAD", "15")
	os.Setenv("LOG_LEVEL", "warn")
	defer clearEnv(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Backend.BaseURL != "http://from-env:5000" {
		t.Errorf("Backend.BaseURL = %q, want env override", cfg.Backend.BaseURL)
	}
	if cfg.Forecast.MaxDaysAhead != 15 {
		t.Errorf("Forecast.MaxDaysAhead = %d, want 15 (env override)", cfg.Forecast.MaxDaysAhead)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q (env override)", cfg.Logging.Level, "warn")
	}
}

func TestLoadMissingBaseURL(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
logging:
  level: "info"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should fail when backend.base_url is unset")
	}
}

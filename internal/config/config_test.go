package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("expected default address :8080, got %q", cfg.Server.Address)
	}
	if cfg.Store.MetricsPath != "/api/v1/fleet/metrics" {
		t.Fatalf("unexpected metrics path %q", cfg.Store.MetricsPath)
	}
	if cfg.Scoring.MetricLookback != 7*24*time.Hour {
		t.Fatalf("unexpected metric lookback %v", cfg.Scoring.MetricLookback)
	}
	if cfg.Scoring.MaxParallel != 8 {
		t.Fatalf("unexpected max parallel %d", cfg.Scoring.MaxParallel)
	}
	if cfg.Cache.Enabled {
		t.Fatalf("cache should default to disabled")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(`server:
  address: ":9999"
store:
  baseURL: "http://store:8080"
logging:
  level: debug
  json: true
scoring:
  maxParallel: 2
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":9999" {
		t.Fatalf("expected address :9999, got %q", cfg.Server.Address)
	}
	if cfg.Store.BaseURL != "http://store:8080" {
		t.Fatalf("expected store base url, got %q", cfg.Store.BaseURL)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.Scoring.MaxParallel != 2 {
		t.Fatalf("expected max parallel 2, got %d", cfg.Scoring.MaxParallel)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.MetricsAddress != ":2112" {
		t.Fatalf("expected default metrics address, got %q", cfg.Server.MetricsAddress)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POSTURE_STORE_BASE_URL", "http://override:8080")
	t.Setenv("POSTURE_ENGINE_LOG_LEVEL", "warn")
	t.Setenv("POSTURE_ENGINE_MAX_PARALLEL", "16")
	t.Setenv("POSTURE_ENGINE_CACHE_ENABLED", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.BaseURL != "http://override:8080" {
		t.Fatalf("expected env base url, got %q", cfg.Store.BaseURL)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected warn level, got %q", cfg.Logging.Level)
	}
	if cfg.Scoring.MaxParallel != 16 {
		t.Fatalf("expected max parallel 16, got %d", cfg.Scoring.MaxParallel)
	}
	if !cfg.Cache.Enabled {
		t.Fatalf("expected cache enabled via env")
	}
}

func TestEnvOverrideInvalidNumberIgnored(t *testing.T) {
	t.Setenv("POSTURE_ENGINE_MAX_PARALLEL", "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scoring.MaxParallel != 8 {
		t.Fatalf("expected default max parallel, got %d", cfg.Scoring.MaxParallel)
	}
}

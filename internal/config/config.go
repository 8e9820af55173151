package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the posture engine.
type Config struct {
	Server  ServerConfig     `yaml:"server"`
	Store   StoreConfig      `yaml:"store"`
	Logging LoggingConfig    `yaml:"logging"`
	Rules   RulesConfig      `yaml:"rules"`
	Cache   CacheConfig      `yaml:"cache"`
	Scoring ScoringRunConfig `yaml:"scoring"`
}

// ServerConfig controls the HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// StoreConfig configures access to the fleet store APIs.
type StoreConfig struct {
	BaseURL             string        `yaml:"baseURL"`
	MetricsPath         string        `yaml:"metricsPath"`
	IncidentsPath       string        `yaml:"incidentsPath"`
	DependenciesPath    string        `yaml:"dependenciesPath"`
	ConfigPath          string        `yaml:"configPath"`
	SnapshotsPath       string        `yaml:"snapshotsPath"`
	RecommendationsPath string        `yaml:"recommendationsPath"`
	Timeout             time.Duration `yaml:"timeout"`
	MaxRetries          int           `yaml:"maxRetries"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// RulesConfig controls rule-pack loading for the recommendation engine.
type RulesConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// CacheConfig controls Valkey/Redis-backed caching of store lookups.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Addr          string        `yaml:"addr"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	DialTimeout   time.Duration `yaml:"dialTimeout"`
	ReadTimeout   time.Duration `yaml:"readTimeout"`
	WriteTimeout  time.Duration `yaml:"writeTimeout"`
	DependencyTTL time.Duration `yaml:"dependencyTTL"`
	ConfigTTL     time.Duration `yaml:"configTTL"`
}

// ScoringRunConfig bounds one fleet evaluation run.
type ScoringRunConfig struct {
	MetricLookback   time.Duration `yaml:"metricLookback"`
	IncidentLookback time.Duration `yaml:"incidentLookback"`
	MaxParallel      int           `yaml:"maxParallel"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("POSTURE_ENGINE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			MetricsPath:         "/api/v1/fleet/metrics",
			IncidentsPath:       "/api/v1/fleet/incidents",
			DependenciesPath:    "/api/v1/fleet/dependencies",
			ConfigPath:          "/api/v1/fleet/config",
			SnapshotsPath:       "/api/v1/fleet/snapshots",
			RecommendationsPath: "/api/v1/fleet/recommendations",
			Timeout:             5 * time.Second,
			MaxRetries:          3,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Rules:   RulesConfig{Path: "configs/rules/default.yaml"},
		Cache: CacheConfig{
			Enabled:       false,
			DialTimeout:   2 * time.Second,
			ReadTimeout:   500 * time.Millisecond,
			WriteTimeout:  500 * time.Millisecond,
			DependencyTTL: 5 * time.Minute,
			ConfigTTL:     2 * time.Minute,
		},
		Scoring: ScoringRunConfig{
			MetricLookback:   7 * 24 * time.Hour,
			IncidentLookback: 30 * 24 * time.Hour,
			MaxParallel:      8,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POSTURE_ENGINE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("POSTURE_ENGINE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("POSTURE_STORE_BASE_URL"); v != "" {
		cfg.Store.BaseURL = v
	}
	if v := os.Getenv("POSTURE_STORE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Store.Timeout = d
		}
	}
	if v := os.Getenv("POSTURE_STORE_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Store.MaxRetries = n
		}
	}
	if v := os.Getenv("POSTURE_ENGINE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("POSTURE_ENGINE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("POSTURE_ENGINE_RULES_PATH"); v != "" {
		cfg.Rules.Path = v
	}
	if v := os.Getenv("POSTURE_ENGINE_RULES_WATCH"); v != "" {
		cfg.Rules.Watch = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("POSTURE_ENGINE_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("POSTURE_ENGINE_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("POSTURE_ENGINE_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("POSTURE_ENGINE_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("POSTURE_ENGINE_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("POSTURE_ENGINE_METRIC_LOOKBACK"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scoring.MetricLookback = d
		}
	}
	if v := os.Getenv("POSTURE_ENGINE_INCIDENT_LOOKBACK"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scoring.IncidentLookback = d
		}
	}
	if v := os.Getenv("POSTURE_ENGINE_MAX_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Scoring.MaxParallel = n
		}
	}
}

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

// Config captures the settings required to boot the dashboard service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Feed    FeedConfig    `yaml:"feed"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// StoreConfig configures access to the alert store query endpoints.
type StoreConfig struct {
	BaseURL          string        `yaml:"baseURL"`
	AlertsPath       string        `yaml:"alertsPath"`
	UserOriginPath   string        `yaml:"userOriginPath"`
	UserImpactedPath string        `yaml:"userImpactedPath"`
	ComputerPath     string        `yaml:"computerPath"`
	FeedTimeout      time.Duration `yaml:"feedTimeout"`
	TimelineTimeout  time.Duration `yaml:"timelineTimeout"`
	RetryMaxAttempts uint          `yaml:"retryMaxAttempts"`
	RetryInterval    time.Duration `yaml:"retryInterval"`
	RetryMaxInterval time.Duration `yaml:"retryMaxInterval"`
}

// FeedConfig controls session accumulation.
type FeedConfig struct {
	PerPage       int           `yaml:"perPage"`
	RecencyWindow time.Duration `yaml:"recencyWindow"`
}

// CacheConfig controls the timeline query cache.
type CacheConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Addr        string        `yaml:"addr"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	DialTimeout time.Duration `yaml:"dialTimeout"`
	TimelineTTL time.Duration `yaml:"timelineTTL"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SIGMALENS_CONFIG")
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
			Address:         ":8088",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			AlertsPath:       "/api/v1/alerts",
			UserOriginPath:   "/api/v1/timeline/user-origin",
			UserImpactedPath: "/api/v1/timeline/user-impacted",
			ComputerPath:     "/api/v1/timeline/computer",
			FeedTimeout:      10 * time.Second,
			TimelineTimeout:  15 * time.Second,
			RetryMaxAttempts: 3,
			RetryInterval:    250 * time.Millisecond,
			RetryMaxInterval: 5 * time.Second,
		},
		Feed: FeedConfig{
			PerPage:       50,
			RecencyWindow: 7 * 24 * time.Hour,
		},
		Cache: CacheConfig{
			Enabled:     false,
			DialTimeout: 2 * time.Second,
			TimelineTTL: 2 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SIGMALENS_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("SIGMALENS_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("SIGMALENS_STORE_BASE_URL"); v != "" {
		cfg.Store.BaseURL = v
	}
	if v := os.Getenv("SIGMALENS_STORE_ALERTS_PATH"); v != "" {
		cfg.Store.AlertsPath = v
	}
	if v := os.Getenv("SIGMALENS_STORE_USER_ORIGIN_PATH"); v != "" {
		cfg.Store.UserOriginPath = v
	}
	if v := os.Getenv("SIGMALENS_STORE_USER_IMPACTED_PATH"); v != "" {
		cfg.Store.UserImpactedPath = v
	}
	if v := os.Getenv("SIGMALENS_STORE_COMPUTER_PATH"); v != "" {
		cfg.Store.ComputerPath = v
	}
	if v := os.Getenv("SIGMALENS_FEED_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Store.FeedTimeout = d
		}
	}
	if v := os.Getenv("SIGMALENS_FEED_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Feed.PerPage = n
		}
	}
	if v := os.Getenv("SIGMALENS_FEED_RECENCY_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Feed.RecencyWindow = d
		}
	}
	if v := os.Getenv("SIGMALENS_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("SIGMALENS_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("SIGMALENS_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("SIGMALENS_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("SIGMALENS_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("SIGMALENS_CACHE_TIMELINE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TimelineTTL = d
		}
	}
	if v := os.Getenv("SIGMALENS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SIGMALENS_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Quote sources.
const (
	SourceYahoo   = "yahoo"
	SourcePolygon = "polygon"
	SourceMock    = "mock"
)

// Recorder backends.
const (
	BackendNone   = "none"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr           string        `yaml:"addr" envconfig:"ADDR"`
		ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
		WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
		RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	} `yaml:"server"`
	Reference struct {
		URL      string        `yaml:"url" envconfig:"URL"`
		CacheTTL time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
	} `yaml:"reference"`
	Quotes struct {
		Source         string        `yaml:"source" envconfig:"SOURCE"`
		PolygonAPIKey  string        `yaml:"polygon_api_key" envconfig:"POLYGON_API_KEY"`
		LookbackMonths int           `yaml:"lookback_months" envconfig:"LOOKBACK_MONTHS"`
		CacheTTL       time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
	} `yaml:"quotes"`
	Recorder struct {
		Backend       string `yaml:"backend" envconfig:"BACKEND"`
		SQLitePath    string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
		MongoURI      string `yaml:"mongo_uri" envconfig:"MONGO_URI"`
		MongoDatabase string `yaml:"mongo_database" envconfig:"MONGO_DATABASE"`
	} `yaml:"recorder"`
	Schedule struct {
		WarmCron    string   `yaml:"warm_cron" envconfig:"WARM_CRON"`
		WarmOnStart bool     `yaml:"warm_on_start" envconfig:"WARM_ON_START"`
		Watchlist   []string `yaml:"watchlist" envconfig:"WATCHLIST"`
	} `yaml:"schedule"`
	Log struct {
		Level string `yaml:"level" envconfig:"LEVEL"`
	} `yaml:"log"`
	Metrics struct {
		Namespace string `yaml:"namespace" envconfig:"NAMESPACE"`
		Subsystem string `yaml:"subsystem" envconfig:"SUBSYSTEM"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides (SERVER_ADDR, QUOTES_SOURCE, RECORDER_BACKEND, ...), then defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Quotes.Source == "" {
		cfg.Quotes.Source = SourceYahoo
	}
	if cfg.Quotes.LookbackMonths == 0 {
		cfg.Quotes.LookbackMonths = 6
	}
	if cfg.Recorder.Backend == "" {
		cfg.Recorder.Backend = BackendNone
	}
	if cfg.Recorder.SQLitePath == "" {
		cfg.Recorder.SQLitePath = "data/share_analysis.db"
	}
	if cfg.Recorder.MongoDatabase == "" {
		cfg.Recorder.MongoDatabase = "share_analysis"
	}
	if cfg.Schedule.WarmCron == "" {
		cfg.Schedule.WarmCron = "0 0 */6 * * *"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "share_analysis"
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = "dashboard"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	switch c.Quotes.Source {
	case SourceYahoo, SourceMock:
	case SourcePolygon:
		if c.Quotes.PolygonAPIKey == "" {
			return fmt.Errorf("quotes.polygon_api_key is required for the polygon source")
		}
	default:
		return fmt.Errorf("quotes.source %q is not one of yahoo, polygon, mock", c.Quotes.Source)
	}
	if c.Quotes.LookbackMonths < 0 {
		return fmt.Errorf("quotes.lookback_months must be positive")
	}
	if c.Quotes.CacheTTL < 0 || c.Reference.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	switch c.Recorder.Backend {
	case BackendNone, BackendSQLite:
	case BackendMongo:
		if c.Recorder.MongoURI == "" {
			return fmt.Errorf("recorder.mongo_uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("recorder.backend %q is not one of none, sqlite, mongo", c.Recorder.Backend)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

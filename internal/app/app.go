// Package app builds the shared components of the binaries from configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"ShareAnalysis/internal/collector"
	"ShareAnalysis/internal/config"
	"ShareAnalysis/internal/recorder"
	"ShareAnalysis/internal/reference"
)

// ConfigPath returns the config file location, CONFIG_PATH overriding the default.
func ConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// NewLogger returns a logfmt logger filtered to lvl.
func NewLogger(w io.Writer, lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		opt = level.AllowInfo()
	}
	return level.NewFilter(logger, opt)
}

// NewFetcher creates the configured quote source.
func NewFetcher(cfg *config.Config) (collector.Fetcher, error) {
	switch cfg.Quotes.Source {
	case config.SourceYahoo:
		return collector.NewYahooFetcher(cfg.Proxy), nil
	case config.SourcePolygon:
		return collector.NewPolygonFetcher(cfg.Quotes.PolygonAPIKey), nil
	case config.SourceMock:
		return &collector.MockFetcher{Price: 100}, nil
	}
	return nil, fmt.Errorf("unknown quote source %q", cfg.Quotes.Source)
}

// NewLoaders creates the memoized reference and quote loaders.
func NewLoaders(cfg *config.Config, rec recorder.Recorder, logger log.Logger) (*reference.Loader, *collector.Loader, error) {
	fetcher, err := NewFetcher(cfg)
	if err != nil {
		return nil, nil, err
	}
	_ = level.Info(logger).Log("msg", "quote source", "source", fetcher.Name())

	source := reference.NewWikipediaSource(cfg.Reference.URL, cfg.Proxy)
	refs := reference.NewLoader(source, cfg.Reference.CacheTTL)
	quotes := collector.NewLoader(fetcher, collector.Lookback{Months: cfg.Quotes.LookbackMonths},
		cfg.Quotes.CacheTTL, rec, logger)
	return refs, quotes, nil
}

// NewRecorder opens the configured history store. When the store cannot be
// opened it logs a warning and falls back to a no-op recorder.
func NewRecorder(ctx context.Context, cfg *config.Config, logger log.Logger) recorder.Recorder {
	switch cfg.Recorder.Backend {
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.Recorder.SQLitePath); dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
		r, err := recorder.NewSQLiteRecorder(cfg.Recorder.SQLitePath, logger)
		if err != nil {
			_ = level.Warn(logger).Log("msg", "init sqlite recorder failed, using noop", "err", err)
			return recorder.NewNoopRecorder()
		}
		return r
	case config.BackendMongo:
		r, err := recorder.NewMongoRecorder(ctx, cfg.Recorder.MongoURI, cfg.Recorder.MongoDatabase, logger)
		if err != nil {
			_ = level.Warn(logger).Log("msg", "init mongo recorder failed, using noop", "err", err)
			return recorder.NewNoopRecorder()
		}
		return r
	}
	return recorder.NewNoopRecorder()
}

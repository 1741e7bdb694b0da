package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"ShareAnalysis/internal/cache"
	"ShareAnalysis/internal/model"
	"ShareAnalysis/internal/observability"
	"ShareAnalysis/internal/recorder"
	"ShareAnalysis/internal/ticker"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Days   int
	Layout model.Layout
	// Data overrides generated bars per ticker. A missing entry means an unknown ticker.
	Data map[string][]model.OHLCV
	End  time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchQuotes(_ context.Context, tk string, _ Lookback) (*model.RawSeries, error) {
	if m.Data != nil {
		bars, ok := m.Data[tk]
		if !ok {
			return model.RawSeriesFromBars(tk, nil, m.Layout), nil
		}
		return model.RawSeriesFromBars(tk, bars, m.Layout), nil
	}
	days := m.Days
	if days == 0 {
		days = 126
	}
	end := m.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return model.RawSeriesFromBars(tk, generateMockBars(m.Price, days, end), m.Layout), nil
}

func generateMockBars(basePrice float64, count int, end time.Time) []model.OHLCV {
	if basePrice == 0 {
		basePrice = 100
	}
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// errEmpty keeps empty series out of the cache so a transient upstream
// failure is not remembered for the process lifetime.
var errEmpty = errors.New("empty quote series")

// Loader fetches quotes by ticker and memoizes them.
type Loader struct {
	Fetcher  Fetcher
	Lookback Lookback
	Recorder recorder.Recorder

	memo   *cache.Memo[string, *model.RawSeries]
	logger log.Logger
}

// NewLoader creates a loader. ttl of zero caches for the process lifetime.
func NewLoader(fetcher Fetcher, lookback Lookback, ttl time.Duration, rec recorder.Recorder, logger log.Logger) *Loader {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Loader{
		Fetcher:  fetcher,
		Lookback: lookback,
		Recorder: rec,
		memo:     cache.NewMemo[string, *model.RawSeries]("quotes", ttl),
		logger:   logger,
	}
}

// Load returns the raw quote series for a reference symbol. The symbol is
// sanitized before it reaches the quote source and is the cache key.
// An empty series is returned, not cached, when the source has no data.
func (l *Loader) Load(ctx context.Context, symbol string) (*model.RawSeries, error) {
	tk := ticker.Sanitize(symbol)
	series, err := l.memo.GetOrLoad(ctx, tk, func(ctx context.Context) (*model.RawSeries, error) {
		return l.fetch(ctx, tk)
	})
	if errors.Is(err, errEmpty) {
		_ = level.Warn(l.logger).Log("msg", "no quotes returned", "ticker", tk, "source", l.Fetcher.Name())
		return &model.RawSeries{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load quotes %s: %w", tk, err)
	}
	return series, nil
}

// Cached reports whether quotes for symbol are in the cache.
func (l *Loader) Cached(symbol string) bool {
	_, ok := l.memo.Get(ticker.Sanitize(symbol))
	return ok
}

func (l *Loader) fetch(ctx context.Context, tk string) (*model.RawSeries, error) {
	start := time.Now()
	series, err := l.Fetcher.FetchQuotes(ctx, tk, l.Lookback)
	observability.RecordQuoteFetch(l.Fetcher.Name(), time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}
	if series.Empty() {
		return nil, errEmpty
	}
	_ = level.Info(l.logger).Log("msg", "quotes fetched", "ticker", tk, "source", l.Fetcher.Name(),
		"rows", series.Len(), "layout", series.Layout)

	if err := l.Recorder.RecordQuotes(&recorder.QuoteSnapshot{
		Ticker: tk,
		Source: l.Fetcher.Name(),
		Bars:   series.Bars(),
	}); err != nil {
		observability.RecordRecorderError("quotes")
		_ = level.Error(l.logger).Log("msg", "record quotes", "ticker", tk, "err", err)
	}
	return series, nil
}

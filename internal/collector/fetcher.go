package collector

import (
	"context"
	"time"

	"github.com/golang-module/carbon"

	"ShareAnalysis/internal/model"
)

// Fetcher defines the interface for fetching daily quotes.
type Fetcher interface {
	FetchQuotes(ctx context.Context, ticker string, lookback Lookback) (*model.RawSeries, error)
	Name() string
}

// Lookback is the history window requested from a quote source.
type Lookback struct {
	Months int
}

// DefaultLookback is six months of history.
var DefaultLookback = Lookback{Months: 6}

// Bounds returns the start and end of the window ending at now.
func (l Lookback) Bounds(now time.Time) (from, to time.Time) {
	months := l.Months
	if months <= 0 {
		months = DefaultLookback.Months
	}
	start := carbon.CreateFromTimestamp(now.Unix(), "UTC").SubMonths(months)
	return start.ToStdTime(), now
}

package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"ShareAnalysis/internal/model"
)

// aggsClient is the part of the polygon.io client the fetcher uses.
type aggsClient interface {
	GetAggs(ctx context.Context, params *models.GetAggsParams, opts ...models.RequestOption) (*models.GetAggsResponse, error)
}

// PolygonFetcher implements Fetcher using polygon.io daily aggregates.
type PolygonFetcher struct {
	client aggsClient
	now    func() time.Time
}

// NewPolygonFetcher creates a fetcher authenticated with apiKey.
func NewPolygonFetcher(apiKey string) *PolygonFetcher {
	return &PolygonFetcher{client: polygon.New(apiKey), now: time.Now}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

// FetchQuotes returns daily bars as a flat series. polygon.io writes share
// classes with a dot, so sanitized tickers are mapped back.
func (f *PolygonFetcher) FetchQuotes(ctx context.Context, ticker string, lookback Lookback) (*model.RawSeries, error) {
	from, to := lookback.Bounds(f.now())
	adjusted := true
	order := models.Asc
	limit := 50000

	resp, err := f.client.GetAggs(ctx, &models.GetAggsParams{
		Ticker:     strings.ReplaceAll(ticker, "-", "."),
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(from),
		To:         models.Millis(to),
		Adjusted:   &adjusted,
		Order:      &order,
		Limit:      &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("polygon aggs: %w", err)
	}
	return aggsToSeries(resp.Results), nil
}

func aggsToSeries(aggs []models.Agg) *model.RawSeries {
	bars := make([]model.OHLCV, len(aggs))
	for i, a := range aggs {
		t := time.Time(a.Timestamp).UTC()
		bars[i] = model.OHLCV{
			Time:   time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Open:   a.Open,
			High:   a.High,
			Low:    a.Low,
			Close:  a.Close,
			Volume: a.Volume,
		}
	}
	return model.RawSeriesFromBars("", bars, model.Flat)
}

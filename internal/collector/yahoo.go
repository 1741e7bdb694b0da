package collector

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"ShareAnalysis/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
	now     func() time.Time
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL: "https://query1.finance.yahoo.com",
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		now: time.Now,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// FetchQuotes returns daily bars grouped by ticker (a nested layout).
// An unknown ticker yields an empty series, not an error.
func (f *YahooFetcher) FetchQuotes(ctx context.Context, ticker string, lookback Lookback) (*model.RawSeries, error) {
	from, to := lookback.Bounds(f.now())
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d&events=history",
		f.BaseURL, url.PathEscape(ticker), from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return emptySeries(ticker), nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	return parseChart(ticker, body)
}

// parseChart decodes a chart response. Null quote fields become NaN.
func parseChart(ticker string, body []byte) (*model.RawSeries, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("yahoo decode: invalid json")
	}
	chart := gjson.GetBytes(body, "chart")
	if e := chart.Get("error"); e.Exists() && e.Type != gjson.Null {
		if e.Get("code").String() == "Not Found" {
			return emptySeries(ticker), nil
		}
		return nil, fmt.Errorf("yahoo api error: %s", e.Get("description").String())
	}

	result := chart.Get("result.0")
	timestamps := result.Get("timestamp").Array()
	if len(timestamps) == 0 {
		return emptySeries(ticker), nil
	}
	offset := result.Get("meta.gmtoffset").Int()
	quote := result.Get("indicators.quote.0")

	field := func(name string) []gjson.Result { return quote.Get(name).Array() }
	open, high, low, cl, vol := field("open"), field("high"), field("low"), field("close"), field("volume")

	bars := make([]model.OHLCV, 0, len(timestamps))
	for i, ts := range timestamps {
		bars = append(bars, model.OHLCV{
			Time:   tradingDay(ts.Int(), offset),
			Open:   valueAt(open, i),
			High:   valueAt(high, i),
			Low:    valueAt(low, i),
			Close:  valueAt(cl, i),
			Volume: valueAt(vol, i),
		})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return model.RawSeriesFromBars(ticker, bars, model.Nested), nil
}

func valueAt(values []gjson.Result, i int) float64 {
	if i >= len(values) || values[i].Type != gjson.Number {
		return math.NaN()
	}
	return values[i].Float()
}

// tradingDay maps a bar timestamp to midnight UTC of its exchange-local date.
func tradingDay(ts, gmtOffset int64) time.Time {
	t := time.Unix(ts+gmtOffset, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func emptySeries(ticker string) *model.RawSeries {
	return model.RawSeriesFromBars(ticker, nil, model.Nested)
}

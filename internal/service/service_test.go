package service

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ShareAnalysis/internal/collector"
	"ShareAnalysis/internal/model"
	"ShareAnalysis/internal/pipeline"
	"ShareAnalysis/internal/recorder"
	"ShareAnalysis/internal/reference"
)

type staticSource struct {
	companies []model.Company
	err       error
}

func (s *staticSource) FetchCompanies(context.Context) ([]model.Company, error) {
	return s.companies, s.err
}

func company(symbol, name string) model.Company {
	return model.Company{Symbol: symbol, Fields: []model.Field{
		{Name: model.ColumnSecurity, Value: name},
		{Name: model.ColumnSector, Value: "Industrials"},
	}}
}

var end = time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

func bars(n int, closeAt func(i int) float64) []model.OHLCV {
	out := make([]model.OHLCV, n)
	for i := range out {
		c := closeAt(i)
		out[i] = model.OHLCV{Time: end.AddDate(0, 0, i-n+1), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return out
}

type viewLog struct {
	recorder.NoopRecorder
	mu    sync.Mutex
	views []*recorder.ViewEvent
	err   error
}

func (v *viewLog) RecordView(e *recorder.ViewEvent) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.views = append(v.views, e)
	return v.err
}

func newTestService(t *testing.T, rec recorder.Recorder) Service {
	t.Helper()
	src := &staticSource{companies: []model.Company{
		company("AAPL", "Apple Inc."),
		company("ABBV", "AbbVie"),
		company("ABT", "Abbott Laboratories"),
		company("BRK.B", "Berkshire Hathaway"),
		company("EMPTY", "No Quotes Corp"),
	}}
	fetcher := &collector.MockFetcher{
		Layout: model.Nested,
		Data: map[string][]model.OHLCV{
			"AAPL":  bars(120, func(i int) float64 { return float64(i + 1) }),
			"ABBV":  bars(10, func(i int) float64 { return 5 }),
			"BRK-B": bars(100, func(i int) float64 { return 400 }),
		},
	}
	dir := reference.NewLoader(src, 0)
	quotes := collector.NewLoader(fetcher, collector.DefaultLookback, 0, nil, log.NewNopLogger())
	return NewService(dir, quotes, rec, log.NewNopLogger())
}

func TestDashboard_DefaultSymbol(t *testing.T) {
	svc := newTestService(t, nil)
	d, err := svc.Dashboard(context.Background(), &DashboardRequest{})
	require.NoError(t, err)

	// Sorted symbols: AAPL, ABBV, ABT, BRK.B, EMPTY. The fourth is preselected.
	assert.Equal(t, "BRK.B", d.Symbol)
	assert.Equal(t, "BRK-B", d.Ticker)
	assert.Equal(t, "BRK.B - Berkshire Hathaway", d.Label)
	assert.Equal(t, 100, d.Total)
	assert.Equal(t, 100, d.Window, "zero window shows the whole series")
	assert.Equal(t, []string{model.FieldClose}, d.Display.Names())
	assert.Nil(t, d.Stats)
}

func TestDashboard_WindowAndAverages(t *testing.T) {
	svc := newTestService(t, nil)
	d, err := svc.Dashboard(context.Background(), &DashboardRequest{
		Symbol: "AAPL",
		Window: 40,
		SMA1:   &Toggle{Period: 20},
		SMA2:   &Toggle{Period: 50},
		Stats:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, 40, d.Window)
	assert.Equal(t, 40, d.Display.Len())
	assert.Equal(t, []string{"Close", "SMA 20", "SMA2 50"}, d.Display.Names())

	// Means are computed over the full history, so the first shown row is defined.
	sma2, _ := d.Display.Column("SMA2 50")
	assert.False(t, math.IsNaN(sma2[0]))
	// Closes 1..120; row 80 (close 81) has SMA2 50 = mean(32..81).
	assert.InDelta(t, 56.5, sma2[0], 1e-9)

	require.Len(t, d.Stats, 3)
	assert.Equal(t, "Close", d.Stats[0].Name)
	assert.Equal(t, 40, d.Stats[0].Count)
}

func TestDashboard_WindowClamped(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	d, err := svc.Dashboard(ctx, &DashboardRequest{Symbol: "AAPL", Window: 5})
	require.NoError(t, err)
	assert.Equal(t, pipeline.MinWindow, d.Window)

	d, err = svc.Dashboard(ctx, &DashboardRequest{Symbol: "AAPL", Window: 1000})
	require.NoError(t, err)
	assert.Equal(t, 120, d.Window)

	d, err = svc.Dashboard(ctx, &DashboardRequest{Symbol: "ABBV", Window: 30})
	require.NoError(t, err)
	assert.Equal(t, 10, d.Window, "short series shows every row")
}

func TestDashboard_Errors(t *testing.T) {
	rec := &viewLog{}
	svc := newTestService(t, rec)
	ctx := context.Background()

	_, err := svc.Dashboard(ctx, &DashboardRequest{Symbol: "ZZZZ"})
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = svc.Dashboard(ctx, &DashboardRequest{Symbol: "EMPTY"})
	assert.ErrorIs(t, err, pipeline.ErrNoData)

	require.Len(t, rec.views, 1)
	assert.True(t, rec.views[0].NoData)
	assert.Equal(t, "EMPTY", rec.views[0].Symbol)
}

func TestDashboard_RecordsViews(t *testing.T) {
	rec := &viewLog{err: errors.New("disk full")}
	svc := newTestService(t, rec)

	_, err := svc.Dashboard(context.Background(), &DashboardRequest{Symbol: "AAPL", Window: 30, SMA1: &Toggle{Period: 5}})
	require.NoError(t, err, "recording failures are not surfaced")

	require.Len(t, rec.views, 1)
	v := rec.views[0]
	assert.Equal(t, "AAPL", v.Ticker)
	assert.Equal(t, 30, v.Window)
	assert.Equal(t, 120, v.Total)
	assert.Equal(t, []string{"Close", "SMA 5"}, v.Columns)
	assert.Equal(t, 120.0, v.LastClose)
	assert.Equal(t, end, v.LastDate)
}

func TestCompanies_ReferenceFailure(t *testing.T) {
	src := &staticSource{err: errors.New("no table")}
	svc := NewService(reference.NewLoader(src, 0), nil, nil, log.NewNopLogger())

	_, err := svc.Companies(context.Background())
	assert.ErrorContains(t, err, "no table")
	_, err = svc.Dashboard(context.Background(), &DashboardRequest{})
	assert.ErrorContains(t, err, "no table")
}

func TestAverages(t *testing.T) {
	assert.Empty(t, Averages(&DashboardRequest{}))
	got := Averages(&DashboardRequest{SMA1: &Toggle{Period: 20}, SMA2: &Toggle{Period: 20}})
	assert.Equal(t, []pipeline.Average{{Label: "SMA 20", Period: 20}, {Label: "SMA2 20", Period: 20}}, got)
}

type labelCounter struct {
	mu     sync.Mutex
	labels [][]string
}

func (c *labelCounter) With(lvs ...string) metrics.Counter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = append(c.labels, lvs)
	return c
}

func (c *labelCounter) Add(float64) {}

type labelHistogram struct{ observed int }

func (h *labelHistogram) With(...string) metrics.Histogram { return h }
func (h *labelHistogram) Observe(float64)                  { h.observed++ }

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	counter := &labelCounter{}
	hist := &labelHistogram{}

	svc := newTestService(t, nil)
	svc = NewLoggingMiddleware(log.NewLogfmtLogger(&buf), svc)
	svc = NewInstrumentingMiddleware(counter, hist, svc)

	_, err := svc.Dashboard(context.Background(), &DashboardRequest{Symbol: "AAPL"})
	require.NoError(t, err)
	_, err = svc.Dashboard(context.Background(), &DashboardRequest{Symbol: "ZZZZ"})
	require.Error(t, err)
	_, err = svc.Companies(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"method", "Dashboard", "error", "false"},
		{"method", "Dashboard", "error", "true"},
		{"method", "Companies", "error", "false"},
	}, counter.labels)
	assert.Equal(t, 3, hist.observed)

	out := buf.String()
	assert.Contains(t, out, "level=debug method=Dashboard symbol=AAPL")
	assert.Contains(t, out, "level=error method=Dashboard symbol=ZZZZ")
	assert.Contains(t, out, "method=Companies companies=5")
}

package collector

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ShareAnalysis/internal/model"
	"ShareAnalysis/internal/recorder"
)

var fixedNow = time.Date(2024, 7, 1, 20, 0, 0, 0, time.UTC)

const chartBody = `{"chart":{"result":[{
	"meta":{"symbol":"BRK-B","gmtoffset":-14400},
	"timestamp":[1719495000,1719322200,1719408600],
	"indicators":{"quote":[{
		"open":[3.0,1.0,2.0],
		"high":[3.5,1.5,2.5],
		"low":[2.5,0.5,1.5],
		"close":[3.2,1.2,null],
		"volume":[300,100,200]
	}]}
}],"error":null}}`

func TestLookbackBounds(t *testing.T) {
	from, to := DefaultLookback.Bounds(fixedNow)
	assert.Equal(t, fixedNow, to)
	assert.Equal(t, time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC), from)

	from, _ = Lookback{}.Bounds(fixedNow)
	assert.Equal(t, time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC), from, "zero months falls back to the default")

	from, _ = Lookback{Months: 1}.Bounds(fixedNow)
	assert.Equal(t, time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC), from)

	from, to = Lookback{Months: 12}.Bounds(fixedNow)
	assert.True(t, from.Before(to))
	assert.Equal(t, time.UTC, from.Location())
	assert.Equal(t, time.Date(2023, 7, 1, 20, 0, 0, 0, time.UTC), from)
}

func TestParseChart(t *testing.T) {
	s, err := parseChart("BRK-B", []byte(chartBody))
	require.NoError(t, err)

	assert.Equal(t, model.Nested, s.Layout)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, "BRK-B", s.Columns[0].Ticker)

	// Sorted ascending and mapped to the exchange-local date.
	assert.Equal(t, time.Date(2024, 6, 25, 0, 0, 0, 0, time.UTC), s.Index[0])
	assert.Equal(t, time.Date(2024, 6, 27, 0, 0, 0, 0, time.UTC), s.Index[2])

	closes, ok := s.Column(model.FieldClose)
	require.True(t, ok)
	assert.Equal(t, 1.2, closes[0])
	assert.True(t, math.IsNaN(closes[1]), "null close must be missing")
	assert.Equal(t, 3.2, closes[2])
}

func TestParseChart_NotFound(t *testing.T) {
	body := `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`
	s, err := parseChart("ZZZZ", []byte(body))
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestParseChart_Errors(t *testing.T) {
	_, err := parseChart("AAPL", []byte(`not json`))
	assert.Error(t, err)

	_, err = parseChart("AAPL", []byte(`{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input"}}}`))
	assert.ErrorContains(t, err, "Invalid input")
}

func TestYahooFetcher(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		if strings.Contains(r.URL.Path, "MISSING") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	f.now = func() time.Time { return fixedNow }

	s, err := f.FetchQuotes(context.Background(), "BRK-B", DefaultLookback)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "/v8/finance/chart/BRK-B", gotPath)
	from, to := DefaultLookback.Bounds(fixedNow)
	assert.Contains(t, gotQuery, "period1="+strconv.FormatInt(from.Unix(), 10))
	assert.Contains(t, gotQuery, "period2="+strconv.FormatInt(to.Unix(), 10))

	s, err = f.FetchQuotes(context.Background(), "MISSING", DefaultLookback)
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestYahooFetcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchQuotes(context.Background(), "AAPL", DefaultLookback)
	assert.ErrorContains(t, err, "status 502")
}

type fakeAggs struct {
	params *models.GetAggsParams
	resp   *models.GetAggsResponse
	err    error
}

func (f *fakeAggs) GetAggs(_ context.Context, params *models.GetAggsParams, _ ...models.RequestOption) (*models.GetAggsResponse, error) {
	f.params = params
	return f.resp, f.err
}

func TestPolygonFetcher(t *testing.T) {
	day := time.Date(2024, 6, 3, 4, 0, 0, 0, time.UTC)
	fake := &fakeAggs{resp: &models.GetAggsResponse{Results: []models.Agg{
		{Timestamp: models.Millis(day), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Timestamp: models.Millis(day.AddDate(0, 0, 1)), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 20},
	}}}
	f := &PolygonFetcher{client: fake, now: func() time.Time { return fixedNow }}

	s, err := f.FetchQuotes(context.Background(), "BRK-B", DefaultLookback)
	require.NoError(t, err)
	assert.Equal(t, "BRK.B", fake.params.Ticker)
	assert.Equal(t, models.Day, fake.params.Timespan)
	assert.Equal(t, model.Flat, s.Layout)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), s.Index[0])
	closes, _ := s.Column(model.FieldClose)
	assert.Equal(t, []float64{1.5, 2}, closes)

	fake.err = errors.New("unauthorized")
	_, err = f.FetchQuotes(context.Background(), "AAPL", DefaultLookback)
	assert.ErrorContains(t, err, "unauthorized")
}

func TestMockFetcher(t *testing.T) {
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	m := &MockFetcher{Price: 50, Days: 10, Layout: model.Nested, End: end}
	s, err := m.FetchQuotes(context.Background(), "AAPL", DefaultLookback)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Len())
	assert.Equal(t, end, s.Index[9])
	assert.Equal(t, "AAPL", s.Columns[0].Ticker)

	m = &MockFetcher{Data: map[string][]model.OHLCV{"AAPL": {{Time: end, Close: 1}}}}
	s, err = m.FetchQuotes(context.Background(), "MSFT", DefaultLookback)
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

type countingFetcher struct {
	mu     sync.Mutex
	calls  map[string]int
	inner  Fetcher
	failOn string
}

func (c *countingFetcher) Name() string { return "counting" }

func (c *countingFetcher) FetchQuotes(ctx context.Context, tk string, lb Lookback) (*model.RawSeries, error) {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[tk]++
	c.mu.Unlock()
	if tk == c.failOn {
		return nil, errors.New("connection reset")
	}
	return c.inner.FetchQuotes(ctx, tk, lb)
}

func (c *countingFetcher) count(tk string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[tk]
}

type memRecorder struct {
	recorder.NoopRecorder
	mu        sync.Mutex
	snapshots []*recorder.QuoteSnapshot
}

func (m *memRecorder) RecordQuotes(s *recorder.QuoteSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, s)
	return nil
}

func TestLoader_CachesBySanitizedTicker(t *testing.T) {
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	cf := &countingFetcher{inner: &MockFetcher{Days: 40, End: end}}
	rec := &memRecorder{}
	l := NewLoader(cf, DefaultLookback, 0, rec, log.NewNopLogger())
	ctx := context.Background()

	a, err := l.Load(ctx, "BRK.B")
	require.NoError(t, err)
	b, err := l.Load(ctx, " BRK-B ")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, cf.count("BRK-B"))
	assert.Zero(t, cf.count("BRK.B"))
	assert.True(t, l.Cached("BRK.B"))

	require.Len(t, rec.snapshots, 1)
	assert.Equal(t, "BRK-B", rec.snapshots[0].Ticker)
	assert.Len(t, rec.snapshots[0].Bars, 40)
}

func TestLoader_EmptyIsNotCached(t *testing.T) {
	cf := &countingFetcher{inner: &MockFetcher{Data: map[string][]model.OHLCV{}}}
	l := NewLoader(cf, DefaultLookback, 0, nil, log.NewNopLogger())
	ctx := context.Background()

	s, err := l.Load(ctx, "ZZZZ")
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.False(t, l.Cached("ZZZZ"))

	_, err = l.Load(ctx, "ZZZZ")
	require.NoError(t, err)
	assert.Equal(t, 2, cf.count("ZZZZ"))
}

func TestLoader_ErrorsPropagate(t *testing.T) {
	cf := &countingFetcher{inner: &MockFetcher{}, failOn: "AAPL"}
	l := NewLoader(cf, DefaultLookback, 0, nil, log.NewNopLogger())

	_, err := l.Load(context.Background(), "AAPL")
	assert.ErrorContains(t, err, "connection reset")
	assert.False(t, l.Cached("AAPL"))
}

func TestLoader_ConcurrentLoadsShareOneFetch(t *testing.T) {
	cf := &countingFetcher{inner: &MockFetcher{Days: 30}}
	l := NewLoader(cf, DefaultLookback, 0, nil, log.NewNopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Load(context.Background(), "MSFT")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cf.count("MSFT"))
}

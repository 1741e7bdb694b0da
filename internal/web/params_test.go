package web

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"ShareAnalysis/internal/model"
	"ShareAnalysis/internal/service"
)

func args(q string) *fasthttp.Args {
	var a fasthttp.Args
	a.Parse(q)
	return &a
}

func TestParseControls_Defaults(t *testing.T) {
	c := ParseControls(args(""))
	assert.Equal(t, Controls{
		ShowInfo:   true,
		SMAPeriod:  service.DefaultSMAPeriod,
		SMA2Period: service.DefaultSMA2Period,
	}, c)

	req := c.Request()
	assert.Nil(t, req.SMA1)
	assert.Nil(t, req.SMA2)
	assert.Zero(t, req.Window)
}

func TestParseControls(t *testing.T) {
	tests := []struct {
		name  string
		query string
		check func(t *testing.T, c Controls)
	}{
		{"info off after submit", "submitted=1", func(t *testing.T, c Controls) {
			assert.False(t, c.ShowInfo)
		}},
		{"checkboxes", "list=on&sma=1&sma2=true&stats&quotes=1", func(t *testing.T, c Controls) {
			assert.True(t, c.ShowList)
			assert.True(t, c.SMA)
			assert.True(t, c.SMA2)
			assert.True(t, c.ShowStats)
			assert.True(t, c.ShowQuotes)
		}},
		{"periods clamped", "sma_period=1&sma2_period=9000", func(t *testing.T, c Controls) {
			assert.Equal(t, MinSMAPeriod, c.SMAPeriod)
			assert.Equal(t, MaxSMAPeriod, c.SMA2Period)
		}},
		{"unparseable falls back", "sma_period=abc&window=xyz", func(t *testing.T, c Controls) {
			assert.Equal(t, service.DefaultSMAPeriod, c.SMAPeriod)
			assert.Zero(t, c.Window)
		}},
		{"negative window", "window=-10", func(t *testing.T, c Controls) {
			assert.Zero(t, c.Window)
		}},
		{"symbol and window", "symbol=BRK.B&window=60", func(t *testing.T, c Controls) {
			assert.Equal(t, "BRK.B", c.Symbol)
			assert.Equal(t, 60, c.Window)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ParseControls(args(tt.query)))
		})
	}
}

func TestControlsRequest(t *testing.T) {
	c := ParseControls(args("symbol=AAPL&window=40&sma=1&sma_period=10&sma2=1&stats=1"))
	req := c.Request()
	assert.Equal(t, "AAPL", req.Symbol)
	assert.Equal(t, 40, req.Window)
	require.NotNil(t, req.SMA1)
	assert.Equal(t, 10, req.SMA1.Period)
	require.NotNil(t, req.SMA2)
	assert.Equal(t, service.DefaultSMA2Period, req.SMA2.Period)
	assert.True(t, req.Stats)
}

func TestNewChart(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := &model.DisplayWindow{
		Index: []time.Time{day, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)},
		Columns: []model.Column{
			{Name: "Close", Values: []float64{1, 2, 3}},
			{Name: "SMA 2", Values: []float64{math.NaN(), 1.5, 2.5}},
		},
	}
	c := NewChart(w, 200, 180)
	require.Len(t, c.Series, 2)
	assert.Equal(t, "40.0,140.0 100.0,90.0 160.0,40.0", c.Series[0].Points)
	assert.Len(t, strings.Fields(c.Series[1].Points), 2, "undefined values are skipped")
	assert.Len(t, c.YTicks, 5)
	assert.Equal(t, "2024-01-01", c.XTicks[0].Label)

	empty := NewChart(nil, 200, 180)
	assert.Empty(t, empty.Series)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "", formatFloat(math.NaN()))
	assert.Equal(t, "1.50", formatFloat(1.5))
}

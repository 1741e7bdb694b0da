// Package service implements the dashboard use-cases: listing the reference
// companies and building the display window for one of them.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"ShareAnalysis/internal/calculator"
	"ShareAnalysis/internal/model"
	"ShareAnalysis/internal/observability"
	"ShareAnalysis/internal/pipeline"
	"ShareAnalysis/internal/recorder"
	"ShareAnalysis/internal/reference"
	"ShareAnalysis/internal/ticker"
)

// ErrUnknownSymbol means the symbol is not in the reference table.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Rolling-mean column roles.
const (
	RoleSMA  = "SMA"
	RoleSMA2 = "SMA2"
)

// Default rolling periods.
const (
	DefaultSMAPeriod  = 20
	DefaultSMA2Period = 50
)

// Service is the dashboard API.
type Service interface {
	Companies(ctx context.Context) (*reference.Directory, error)
	Dashboard(ctx context.Context, req *DashboardRequest) (*Dashboard, error)
}

// Toggle enables a rolling mean with the given period.
type Toggle struct {
	Period int
}

// DashboardRequest holds the control values of one dashboard render.
// A nil toggle leaves its rolling mean out. A zero window shows the whole series.
type DashboardRequest struct {
	Symbol string
	Window int
	SMA1   *Toggle
	SMA2   *Toggle
	Stats  bool
}

// Dashboard is everything needed to render one ticker.
type Dashboard struct {
	Symbol  string
	Label   string
	Company model.Company
	Ticker  string
	// Total is the length of the cleaned series. It bounds the window control.
	Total   int
	Window  int
	Display *model.DisplayWindow
	Stats   []model.Stats
}

// DirectoryLoader loads the reference table.
type DirectoryLoader interface {
	Load(ctx context.Context) (*reference.Directory, error)
}

// QuoteLoader loads the raw quote series of a reference symbol.
type QuoteLoader interface {
	Load(ctx context.Context, symbol string) (*model.RawSeries, error)
}

type service struct {
	directory DirectoryLoader
	quotes    QuoteLoader
	recorder  recorder.Recorder
	logger    log.Logger
}

// NewService creates the dashboard service. rec may be nil.
func NewService(directory DirectoryLoader, quotes QuoteLoader, rec recorder.Recorder, logger log.Logger) Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &service{directory: directory, quotes: quotes, recorder: rec, logger: logger}
}

func (s *service) Companies(ctx context.Context) (*reference.Directory, error) {
	d, err := s.directory.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference: %w", err)
	}
	return d, nil
}

func (s *service) Dashboard(ctx context.Context, req *DashboardRequest) (*Dashboard, error) {
	dir, err := s.Companies(ctx)
	if err != nil {
		return nil, err
	}

	symbol := req.Symbol
	if symbol == "" {
		symbol = dir.DefaultSymbol()
	}
	company, ok := dir.Lookup(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}

	raw, err := s.quotes.Load(ctx, symbol)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Symbol:  symbol,
		Label:   dir.Label(symbol),
		Company: company,
		Ticker:  ticker.Sanitize(symbol),
	}

	series := pipeline.Clean(raw)
	d.Total = series.Len()
	if series.Empty() {
		observability.RecordPipelineRun(0, pipeline.ErrNoData)
		s.recordView(d)
		return nil, pipeline.ErrNoData
	}

	d.Window = req.Window
	if d.Window <= 0 {
		d.Window = d.Total
	}
	d.Window = pipeline.WindowSize(d.Window, d.Total)

	d.Display, err = pipeline.TransformClean(series, pipeline.Request{
		Window:   d.Window,
		Averages: Averages(req),
	})
	observability.RecordPipelineRun(d.Window, err)
	if err != nil {
		return nil, err
	}
	if req.Stats {
		d.Stats = calculator.DescribeWindow(d.Display)
	}
	s.recordView(d)
	return d, nil
}

// Averages lists the rolling means a request enables, SMA before SMA2.
func Averages(req *DashboardRequest) []pipeline.Average {
	var out []pipeline.Average
	if req.SMA1 != nil {
		out = append(out, pipeline.Average{Label: pipeline.SMALabel(RoleSMA, req.SMA1.Period), Period: req.SMA1.Period})
	}
	if req.SMA2 != nil {
		out = append(out, pipeline.Average{Label: pipeline.SMALabel(RoleSMA2, req.SMA2.Period), Period: req.SMA2.Period})
	}
	return out
}

func (s *service) recordView(d *Dashboard) {
	evt := &recorder.ViewEvent{
		Symbol: d.Symbol,
		Ticker: d.Ticker,
		Window: d.Window,
		Total:  d.Total,
		NoData: d.Display == nil,
	}
	if w := d.Display; w != nil && w.Len() > 0 {
		evt.Columns = w.Names()
		closes, _ := w.Column(model.FieldClose)
		evt.LastClose = closes[len(closes)-1]
		evt.LastDate = w.Index[w.Len()-1]
	}
	if err := s.recorder.RecordView(evt); err != nil {
		observability.RecordRecorderError("view")
		_ = level.Error(s.logger).Log("msg", "record view", "symbol", d.Symbol, "err", err)
	}
}

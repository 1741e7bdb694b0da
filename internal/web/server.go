// Package web is the presentation layer: an HTML dashboard and a JSON API
// served over fasthttp.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/buaazp/fasthttprouter"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/mailru/easyjson"
	"github.com/valyala/fasthttp"

	"ShareAnalysis/internal/model"
	"ShareAnalysis/internal/pipeline"
	"ShareAnalysis/internal/reference"
	"ShareAnalysis/internal/service"
)

//go:embed templates/dashboard.html
var templates embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templates, "templates/dashboard.html"))

// Chart size in pixels.
const (
	ChartWidth  = 900
	ChartHeight = 400
)

// Server handles dashboard requests.
type Server struct {
	svc     service.Service
	logger  log.Logger
	timeout time.Duration
}

// NewServer creates a server. timeout bounds each service call.
func NewServer(svc service.Service, logger log.Logger, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{svc: svc, logger: logger, timeout: timeout}
}

// Router registers all routes.
func (s *Server) Router() *fasthttprouter.Router {
	r := fasthttprouter.New()
	r.GET("/", s.handleDashboard)
	r.GET("/api/companies", s.handleCompanies)
	r.GET("/api/quotes/:symbol", s.handleQuotes)
	r.GET("/healthz", s.handleHealth)
	return r
}

type option struct {
	Symbol   string
	Label    string
	Selected bool
}

type dashboardPage struct {
	Title       string
	Controls    Controls
	Options     []option
	ListHeaders []string
	ListRows    [][]string
	Company     *model.Company
	Error       string
	Dashboard   *service.Dashboard
	Chart       *Chart
	StatRows    [][]string
	QuoteRows   [][]string
	WindowMin   int
	WindowStep  int
	MinPeriod   int
	MaxPeriod   int

	// WindowSlider is false when the series is too short to choose a window.
	WindowSlider bool
}

func (s *Server) handleDashboard(ctx *fasthttp.RequestCtx) {
	c, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	controls := ParseControls(ctx.QueryArgs())
	dir, err := s.svc.Companies(c)
	if err != nil {
		s.htmlError(ctx, http.StatusBadGateway, "Could not load the list of companies: "+err.Error())
		return
	}
	if controls.Symbol == "" {
		controls.Symbol = dir.DefaultSymbol()
	}

	p := &dashboardPage{
		Controls:   controls,
		WindowMin:  pipeline.MinWindow,
		WindowStep: WindowStep,
		MinPeriod:  MinSMAPeriod,
		MaxPeriod:  MaxSMAPeriod,
	}
	for _, sym := range dir.Symbols() {
		p.Options = append(p.Options, option{Symbol: sym, Label: dir.Label(sym), Selected: sym == controls.Symbol})
	}
	if controls.ShowList {
		p.ListHeaders, p.ListRows = listTable(dir)
	}

	company, ok := dir.Lookup(controls.Symbol)
	if !ok {
		s.htmlError(ctx, http.StatusNotFound, "Unknown company '"+controls.Symbol+"'.")
		return
	}
	p.Title = company.Name()
	p.Company = &company

	d, err := s.svc.Dashboard(c, controls.Request())
	switch {
	case errors.Is(err, pipeline.ErrNoData):
		p.Error = "Could not load data for '" + controls.Symbol +
			"'. The ticker may be invalid, delisted, or there might be a network issue."
	case err != nil:
		s.htmlError(ctx, http.StatusInternalServerError, err.Error())
		return
	default:
		p.Dashboard = d
		p.Controls.Window = d.Window
		p.WindowSlider = d.Total > pipeline.MinWindow
		p.Chart = NewChart(d.Display, ChartWidth, ChartHeight)
		if controls.ShowStats {
			p.StatRows = statRows(d.Stats)
		}
		if controls.ShowQuotes {
			p.QuoteRows = quoteRows(d.Display)
		}
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, p); err != nil {
		_ = level.Error(s.logger).Log("msg", "render dashboard", "err", err)
		s.htmlError(ctx, http.StatusInternalServerError, "render failed")
		return
	}
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(buf.Bytes())
}

func (s *Server) handleCompanies(ctx *fasthttp.RequestCtx) {
	c, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dir, err := s.svc.Companies(c)
	if err != nil {
		s.jsonError(ctx, err)
		return
	}
	resp := &companiesResponse{companies: dir.Companies()}
	for _, co := range resp.companies {
		resp.labels = append(resp.labels, dir.Label(co.Symbol))
	}
	s.writeJSON(ctx, http.StatusOK, resp)
}

func (s *Server) handleQuotes(ctx *fasthttp.RequestCtx) {
	c, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	controls := ParseControls(ctx.QueryArgs())
	controls.Symbol, _ = ctx.UserValue("symbol").(string)

	d, err := s.svc.Dashboard(c, controls.Request())
	if err != nil {
		s.jsonError(ctx, err)
		return
	}
	s.writeJSON(ctx, http.StatusOK, &quotesResponse{d: d})
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain")
	ctx.SetBodyString("ok")
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, v easyjson.Marshaler) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if _, err := easyjson.MarshalToWriter(v, ctx.Response.BodyWriter()); err != nil {
		_ = level.Error(s.logger).Log("msg", "encode response", "err", err)
	}
}

func (s *Server) jsonError(ctx *fasthttp.RequestCtx, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrNoData), errors.Is(err, service.ErrUnknownSymbol):
		status = http.StatusNotFound
	case errors.Is(err, reference.ErrUpstreamShape):
		status = http.StatusBadGateway
	}
	s.writeJSON(ctx, status, &errorResponse{message: err.Error()})
}

func (s *Server) htmlError(ctx *fasthttp.RequestCtx, status int, msg string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBodyString(`<!DOCTYPE html><html><body><div class="error">` + template.HTMLEscapeString(msg) + `</div></body></html>`)
}

func listTable(dir *reference.Directory) ([]string, [][]string) {
	headers := make([]string, len(reference.ListColumns))
	for i, names := range reference.ListColumns {
		headers[i] = names[0]
	}
	var rows [][]string
	for _, co := range dir.Companies() {
		row := []string{co.Symbol}
		for _, names := range reference.ListColumns {
			row = append(row, co.GetAny(names...))
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func statRows(stats []model.Stats) [][]string {
	type getter struct {
		name string
		get  func(model.Stats) string
	}
	getters := []getter{
		{"count", func(s model.Stats) string { return formatFloat(float64(s.Count)) }},
		{"mean", func(s model.Stats) string { return formatFloat(s.Mean) }},
		{"std", func(s model.Stats) string { return formatFloat(s.Std) }},
		{"min", func(s model.Stats) string { return formatFloat(s.Min) }},
		{"25%", func(s model.Stats) string { return formatFloat(s.Q25) }},
		{"50%", func(s model.Stats) string { return formatFloat(s.Q50) }},
		{"75%", func(s model.Stats) string { return formatFloat(s.Q75) }},
		{"max", func(s model.Stats) string { return formatFloat(s.Max) }},
	}
	rows := make([][]string, len(getters))
	for i, g := range getters {
		row := []string{g.name}
		for _, s := range stats {
			row = append(row, g.get(s))
		}
		rows[i] = row
	}
	return rows
}

func quoteRows(w *model.DisplayWindow) [][]string {
	rows := make([][]string, w.Len())
	for i, t := range w.Index {
		row := []string{formatDate(t)}
		for _, c := range w.Columns {
			row = append(row, formatFloat(c.Values[i]))
		}
		rows[i] = row
	}
	return rows
}

package web

import (
	"strconv"

	"github.com/valyala/fasthttp"

	"ShareAnalysis/internal/service"
)

// Control bounds.
const (
	WindowStep    = 10
	MinSMAPeriod  = 5
	MaxSMAPeriod  = 500
	formSubmitted = "submitted"
	defaultWindow = 0
)

// Controls are the dashboard control values of one request.
type Controls struct {
	Symbol     string
	Window     int
	ShowList   bool
	ShowInfo   bool
	SMA        bool
	SMAPeriod  int
	SMA2       bool
	SMA2Period int
	ShowStats  bool
	ShowQuotes bool
}

// ParseControls reads controls from query arguments. Checkboxes are absent
// when unticked, so "info" defaults on only before the form is first submitted.
// Unparseable numbers fall back to defaults and periods are clamped to their bounds.
func ParseControls(args *fasthttp.Args) Controls {
	submitted := args.Has(formSubmitted)
	c := Controls{
		Symbol:     string(args.Peek("symbol")),
		Window:     intArg(args, "window", defaultWindow),
		ShowList:   boolArg(args, "list"),
		ShowInfo:   boolArg(args, "info") || !submitted,
		SMA:        boolArg(args, "sma"),
		SMAPeriod:  clamp(intArg(args, "sma_period", service.DefaultSMAPeriod), MinSMAPeriod, MaxSMAPeriod),
		SMA2:       boolArg(args, "sma2"),
		SMA2Period: clamp(intArg(args, "sma2_period", service.DefaultSMA2Period), MinSMAPeriod, MaxSMAPeriod),
		ShowStats:  boolArg(args, "stats"),
		ShowQuotes: boolArg(args, "quotes"),
	}
	if c.Window < 0 {
		c.Window = defaultWindow
	}
	return c
}

// Request converts the controls to a service request.
func (c Controls) Request() *service.DashboardRequest {
	req := &service.DashboardRequest{
		Symbol: c.Symbol,
		Window: c.Window,
		Stats:  c.ShowStats,
	}
	if c.SMA {
		req.SMA1 = &service.Toggle{Period: c.SMAPeriod}
	}
	if c.SMA2 {
		req.SMA2 = &service.Toggle{Period: c.SMA2Period}
	}
	return req
}

func intArg(args *fasthttp.Args, key string, def int) int {
	v := args.Peek(key)
	if len(v) == 0 {
		return def
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return def
	}
	return n
}

func boolArg(args *fasthttp.Args, key string) bool {
	if !args.Has(key) {
		return false
	}
	switch string(args.Peek(key)) {
	case "", "1", "on", "true":
		return true
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

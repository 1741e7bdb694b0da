package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-kit/kit/log/level"
	"github.com/olekukonko/tablewriter"

	"ShareAnalysis/internal/app"
	"ShareAnalysis/internal/config"
	"ShareAnalysis/internal/model"
	"ShareAnalysis/internal/pipeline"
	"ShareAnalysis/internal/reference"
	"ShareAnalysis/internal/service"
)

func main() {
	symbol := flag.String("symbol", "", "reference symbol, default is the preselected company")
	window := flag.Int("window", 0, "number of quotes to display, 0 shows all")
	sma := flag.Int("sma", 0, "SMA period, 0 disables")
	sma2 := flag.Int("sma2", 0, "SMA2 period, 0 disables")
	stats := flag.Bool("stats", false, "print statistics")
	list := flag.Bool("list", false, "print the companies list and exit")
	flag.Parse()

	cfg, err := config.Load(app.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stderr, cfg.Log.Level)

	refs, quotes, err := app.NewLoaders(cfg, nil, logger)
	if err != nil {
		_ = level.Error(logger).Log("msg", "init loaders", "err", err)
		os.Exit(1)
	}
	svc := service.NewService(refs, quotes, nil, logger)
	ctx := context.Background()

	if *list {
		dir, err := svc.Companies(ctx)
		if err != nil {
			_ = level.Error(logger).Log("msg", "load companies", "err", err)
			os.Exit(1)
		}
		printCompanies(os.Stdout, dir)
		return
	}

	req := &service.DashboardRequest{Symbol: *symbol, Window: *window, Stats: *stats}
	if *sma > 0 {
		req.SMA1 = &service.Toggle{Period: *sma}
	}
	if *sma2 > 0 {
		req.SMA2 = &service.Toggle{Period: *sma2}
	}

	d, err := svc.Dashboard(ctx, req)
	if errors.Is(err, pipeline.ErrNoData) {
		fmt.Fprintln(os.Stderr, noDataMessage(ctx, svc, *symbol))
		os.Exit(2)
	}
	if err != nil {
		_ = level.Error(logger).Log("msg", "dashboard", "err", err)
		os.Exit(1)
	}

	fmt.Printf("%s (%d of %d quotes)\n", d.Label, d.Window, d.Total)
	printWindow(os.Stdout, d.Display)
	if d.Stats != nil {
		printStats(os.Stdout, d.Display, d.Stats)
	}
}

// noDataMessage names the company that had no quotes, resolving the
// preselected one when no symbol was given.
func noDataMessage(ctx context.Context, svc service.Service, symbol string) string {
	if symbol == "" {
		if dir, err := svc.Companies(ctx); err == nil {
			symbol = dir.DefaultSymbol()
		}
	}
	return fmt.Sprintf("Could not load data for '%s'. The ticker may be invalid, delisted, or there might be a network issue.", symbol)
}

func printCompanies(w io.Writer, dir *reference.Directory) {
	header := []string{model.ColumnSymbol}
	for _, names := range reference.ListColumns {
		header = append(header, names[0])
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	for _, c := range dir.Companies() {
		row := []string{c.Symbol}
		for _, names := range reference.ListColumns {
			row = append(row, c.GetAny(names...))
		}
		table.Append(row)
	}
	table.Render()
}

func printWindow(w io.Writer, win *model.DisplayWindow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{"Date"}, win.Names()...))
	for i, t := range win.Index {
		row := []string{t.Format("2006-01-02")}
		for _, c := range win.Columns {
			row = append(row, cell(c.Values[i]))
		}
		table.Append(row)
	}
	table.Render()
}

func printStats(w io.Writer, win *model.DisplayWindow, stats []model.Stats) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{""}, win.Names()...))
	rows := []struct {
		name string
		get  func(model.Stats) float64
	}{
		{"count", func(s model.Stats) float64 { return float64(s.Count) }},
		{"mean", func(s model.Stats) float64 { return s.Mean }},
		{"std", func(s model.Stats) float64 { return s.Std }},
		{"min", func(s model.Stats) float64 { return s.Min }},
		{"25%", func(s model.Stats) float64 { return s.Q25 }},
		{"50%", func(s model.Stats) float64 { return s.Q50 }},
		{"75%", func(s model.Stats) float64 { return s.Q75 }},
		{"max", func(s model.Stats) float64 { return s.Max }},
	}
	for _, r := range rows {
		row := []string{r.name}
		for _, s := range stats {
			row = append(row, cell(r.get(s)))
		}
		table.Append(row)
	}
	table.Render()
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

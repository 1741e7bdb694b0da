package web

import (
	"fmt"
	"math"
	"strings"

	"ShareAnalysis/internal/model"
)

var palette = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728"}

// Chart is a line chart of a display window laid out in SVG coordinates.
type Chart struct {
	Width, Height int
	Series        []ChartSeries
	YTicks        []Tick
	XTicks        []Tick
}

// ChartSeries is one polyline. Undefined values are left out.
type ChartSeries struct {
	Name   string
	Color  string
	Points string
}

// Tick is an axis label at a pixel position.
type Tick struct {
	Pos   float64
	Label string
}

const chartPad = 40.0

// NewChart lays out every column of w over the same axes.
func NewChart(w *model.DisplayWindow, width, height int) *Chart {
	c := &Chart{Width: width, Height: height}
	if w == nil || w.Len() == 0 {
		return c
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, col := range w.Columns {
		for _, v := range col.Values {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return c
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}

	plotW := float64(width) - 2*chartPad
	plotH := float64(height) - 2*chartPad
	x := func(i int) float64 {
		if w.Len() == 1 {
			return chartPad + plotW/2
		}
		return chartPad + plotW*float64(i)/float64(w.Len()-1)
	}
	y := func(v float64) float64 { return chartPad + plotH*(hi-v)/(hi-lo) }

	for i, col := range w.Columns {
		var sb strings.Builder
		for j, v := range col.Values {
			if math.IsNaN(v) {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%.1f,%.1f", x(j), y(v))
		}
		c.Series = append(c.Series, ChartSeries{
			Name:   col.Name,
			Color:  palette[i%len(palette)],
			Points: sb.String(),
		})
	}

	for k := 0; k <= 4; k++ {
		v := lo + (hi-lo)*float64(k)/4
		c.YTicks = append(c.YTicks, Tick{Pos: y(v), Label: formatFloat(v)})
	}
	step := (w.Len() + 4) / 5
	if step == 0 {
		step = 1
	}
	for i := 0; i < w.Len(); i += step {
		c.XTicks = append(c.XTicks, Tick{Pos: x(i), Label: formatDate(w.Index[i])})
	}
	return c
}

// formatFloat renders a table value. Undefined values render empty.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}

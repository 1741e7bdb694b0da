// Package pipeline turns a raw quote series into the window shown on the
// dashboard: cleaned, trimmed to the selected length, with optional
// rolling means computed over the full history.
package pipeline

import (
	"errors"
	"fmt"
	"math"
	"time"

	"ShareAnalysis/internal/calculator"
	"ShareAnalysis/internal/model"
)

// MinWindow is the smallest number of rows a window shows when the series has them.
const MinWindow = 30

var (
	// ErrNoData means the cleaned series is empty.
	ErrNoData = errors.New("no quote data")
	// ErrMissingClose means the series has no Close field.
	ErrMissingClose = errors.New("quote series has no Close column")
	// ErrInvalidPeriod means a rolling period is not positive.
	ErrInvalidPeriod = errors.New("rolling period must be positive")
	// ErrDuplicateColumn means two averages share a label.
	ErrDuplicateColumn = errors.New("duplicate column label")
)

// Average requests one rolling-mean column.
type Average struct {
	Label  string
	Period int
}

// Request selects the window length and the rolling means to derive.
type Request struct {
	Window   int
	Averages []Average
}

// SMALabel builds the column label of a rolling mean, e.g. "SMA 20" or "SMA2 50".
func SMALabel(role string, period int) string {
	return fmt.Sprintf("%s %d", role, period)
}

// Clean drops incomplete rows and flattens the layout.
func Clean(raw *model.RawSeries) *model.RawSeries {
	if raw == nil {
		return &model.RawSeries{}
	}
	return raw.DropMissing().Flatten()
}

// WindowSize clamps n to [MinWindow, total].
func WindowSize(n, total int) int {
	if n < MinWindow {
		n = MinWindow
	}
	if n > total {
		n = total
	}
	return n
}

// Transform runs the full pipeline on raw.
func Transform(raw *model.RawSeries, req Request) (*model.DisplayWindow, error) {
	series := Clean(raw)
	if series.Empty() {
		return nil, ErrNoData
	}
	return TransformClean(series, req)
}

// TransformClean runs the pipeline on a series that is already clean.
func TransformClean(series *model.RawSeries, req Request) (*model.DisplayWindow, error) {
	if series.Empty() {
		return nil, ErrNoData
	}
	closes, ok := series.Column(model.FieldClose)
	if !ok {
		return nil, ErrMissingClose
	}

	seen := map[string]bool{model.FieldClose: true}
	for _, a := range req.Averages {
		if a.Period <= 0 {
			return nil, fmt.Errorf("%w: %s has period %d", ErrInvalidPeriod, a.Label, a.Period)
		}
		if seen[a.Label] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, a.Label)
		}
		seen[a.Label] = true
	}

	total := series.Len()
	n := WindowSize(req.Window, total)
	start := total - n

	w := &model.DisplayWindow{
		Index:   append([]time.Time(nil), series.Index[start:]...),
		Columns: make([]model.Column, 0, 1+len(req.Averages)),
	}
	w.Columns = append(w.Columns, model.Column{
		Name:   model.FieldClose,
		Values: append([]float64(nil), closes[start:]...),
	})

	for _, a := range req.Averages {
		sma, err := calculator.RollingSMA(closes, a.Period)
		if err != nil {
			return nil, fmt.Errorf("rolling mean %s: %w", a.Label, err)
		}
		w.Columns = append(w.Columns, model.Column{
			Name:   a.Label,
			Values: Reindex(series.Index, sma, w.Index),
		})
	}
	return w, nil
}

// Reindex restricts values, indexed by index, to the dates of target.
// Target dates absent from index are NaN.
func Reindex(index []time.Time, values []float64, target []time.Time) []float64 {
	pos := make(map[int64]int, len(index))
	for i, t := range index {
		pos[t.UnixNano()] = i
	}
	out := make([]float64, len(target))
	for i, t := range target {
		if j, ok := pos[t.UnixNano()]; ok && j < len(values) {
			out[i] = values[j]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

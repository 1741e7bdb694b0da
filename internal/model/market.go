package model

import (
	"math"
	"time"
)

// OHLCV represents a single daily bar. Missing fields are NaN.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Field names used as column labels.
const (
	FieldOpen   = "Open"
	FieldHigh   = "High"
	FieldLow    = "Low"
	FieldClose  = "Close"
	FieldVolume = "Volume"
)

// BarFields is the column order of a series built from bars.
var BarFields = []string{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume}

// Layout tells how the columns of a RawSeries are addressed.
type Layout int

const (
	// Flat columns are addressed by field only.
	Flat Layout = iota
	// Nested columns are addressed by ticker, then field.
	Nested
)

func (l Layout) String() string {
	if l == Nested {
		return "nested"
	}
	return "flat"
}

// ColumnKey addresses one column of a RawSeries. Ticker is empty for a flat layout.
type ColumnKey struct {
	Ticker string
	Field  string
}

// RawSeries is a quote series as a source delivers it. Values is column-major
// (Values[col][row]) and NaN marks a missing value.
type RawSeries struct {
	Layout  Layout
	Index   []time.Time
	Columns []ColumnKey
	Values  [][]float64
}

// RawSeriesFromBars builds a series with one column per OHLCV field.
// With a Nested layout every column is keyed under ticker.
func RawSeriesFromBars(ticker string, bars []OHLCV, layout Layout) *RawSeries {
	s := &RawSeries{
		Layout:  layout,
		Index:   make([]time.Time, len(bars)),
		Columns: make([]ColumnKey, len(BarFields)),
		Values:  make([][]float64, len(BarFields)),
	}
	for i, f := range BarFields {
		key := ColumnKey{Field: f}
		if layout == Nested {
			key.Ticker = ticker
		}
		s.Columns[i] = key
		s.Values[i] = make([]float64, len(bars))
	}
	for r, b := range bars {
		s.Index[r] = b.Time
		s.Values[0][r] = b.Open
		s.Values[1][r] = b.High
		s.Values[2][r] = b.Low
		s.Values[3][r] = b.Close
		s.Values[4][r] = b.Volume
	}
	return s
}

// Len returns the number of rows.
func (s *RawSeries) Len() int { return len(s.Index) }

// Empty reports whether the series has no rows.
func (s *RawSeries) Empty() bool { return s == nil || len(s.Index) == 0 }

// DropMissing returns a copy without the rows that have any missing value.
// Dropped rows are not reported.
func (s *RawSeries) DropMissing() *RawSeries {
	out := &RawSeries{
		Layout:  s.Layout,
		Columns: append([]ColumnKey(nil), s.Columns...),
		Values:  make([][]float64, len(s.Columns)),
	}
	for r := range s.Index {
		complete := true
		for c := range s.Columns {
			if r >= len(s.Values[c]) || math.IsNaN(s.Values[c][r]) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		out.Index = append(out.Index, s.Index[r])
		for c := range s.Columns {
			out.Values[c] = append(out.Values[c], s.Values[c][r])
		}
	}
	return out
}

// Flatten collapses a nested layout to a single level by discarding the
// ticker level. A flat series is returned as is.
func (s *RawSeries) Flatten() *RawSeries {
	if s.Layout == Flat {
		return s
	}
	out := &RawSeries{
		Layout:  Flat,
		Index:   s.Index,
		Columns: make([]ColumnKey, len(s.Columns)),
		Values:  s.Values,
	}
	for i, c := range s.Columns {
		out.Columns[i] = ColumnKey{Field: c.Field}
	}
	return out
}

// Column returns the first column whose field matches, ignoring the ticker level.
func (s *RawSeries) Column(field string) ([]float64, bool) {
	for i, c := range s.Columns {
		if c.Field == field {
			return s.Values[i], true
		}
	}
	return nil, false
}

// Bars converts the series back to bars. Fields the series lacks are NaN.
func (s *RawSeries) Bars() []OHLCV {
	get := func(field string) []float64 {
		v, _ := s.Column(field)
		return v
	}
	open, high, low, cl, vol := get(FieldOpen), get(FieldHigh), get(FieldLow), get(FieldClose), get(FieldVolume)
	at := func(v []float64, i int) float64 {
		if i < len(v) {
			return v[i]
		}
		return math.NaN()
	}
	bars := make([]OHLCV, len(s.Index))
	for i, t := range s.Index {
		bars[i] = OHLCV{
			Time:   t,
			Open:   at(open, i),
			High:   at(high, i),
			Low:    at(low, i),
			Close:  at(cl, i),
			Volume: at(vol, i),
		}
	}
	return bars
}

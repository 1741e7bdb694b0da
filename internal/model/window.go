package model

import "time"

// Column is one named column of a DisplayWindow. NaN marks an undefined value.
type Column struct {
	Name   string
	Values []float64
}

// DisplayWindow is the trailing slice of a quote series shown to the user:
// the Close column followed by any rolling-mean columns.
type DisplayWindow struct {
	Index   []time.Time
	Columns []Column
}

// Len returns the number of rows.
func (w *DisplayWindow) Len() int { return len(w.Index) }

// Column returns the named column.
func (w *DisplayWindow) Column(name string) ([]float64, bool) {
	for _, c := range w.Columns {
		if c.Name == name {
			return c.Values, true
		}
	}
	return nil, false
}

// Names returns the column names in order.
func (w *DisplayWindow) Names() []string {
	names := make([]string, len(w.Columns))
	for i, c := range w.Columns {
		names[i] = c.Name
	}
	return names
}

// Stats holds descriptive statistics of one column.
type Stats struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

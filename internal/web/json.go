package web

import (
	"math"
	"time"

	"github.com/mailru/easyjson/jwriter"

	"ShareAnalysis/internal/model"
	"ShareAnalysis/internal/service"
)

// Hand-written easyjson marshalers. Undefined values (NaN) encode as null,
// which encoding/json cannot do for float64.

type companiesResponse struct {
	companies []model.Company
	labels    []string
}

func (r *companiesResponse) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('[')
	for i, c := range r.companies {
		if i > 0 {
			w.RawByte(',')
		}
		w.RawString(`{"symbol":`)
		w.String(c.Symbol)
		w.RawString(`,"label":`)
		w.String(r.labels[i])
		w.RawString(`,"fields":{`)
		for j, f := range c.Fields {
			if j > 0 {
				w.RawByte(',')
			}
			w.String(f.Name)
			w.RawByte(':')
			w.String(f.Value)
		}
		w.RawString(`}}`)
	}
	w.RawByte(']')
}

type quotesResponse struct {
	d *service.Dashboard
}

func (r *quotesResponse) MarshalEasyJSON(w *jwriter.Writer) {
	d := r.d
	w.RawString(`{"symbol":`)
	w.String(d.Symbol)
	w.RawString(`,"ticker":`)
	w.String(d.Ticker)
	w.RawString(`,"total":`)
	w.Int(d.Total)
	w.RawString(`,"window":`)
	w.Int(d.Window)

	w.RawString(`,"dates":[`)
	for i, t := range d.Display.Index {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(t.Format(dateLayout))
	}
	w.RawString(`],"columns":{`)
	for i, c := range d.Display.Columns {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(c.Name)
		w.RawByte(':')
		writeFloats(w, c.Values)
	}
	w.RawByte('}')

	if d.Stats != nil {
		w.RawString(`,"stats":[`)
		for i, s := range d.Stats {
			if i > 0 {
				w.RawByte(',')
			}
			w.RawString(`{"name":`)
			w.String(s.Name)
			w.RawString(`,"count":`)
			w.Int(s.Count)
			for _, kv := range []struct {
				key string
				v   float64
			}{
				{"mean", s.Mean}, {"std", s.Std}, {"min", s.Min},
				{"25%", s.Q25}, {"50%", s.Q50}, {"75%", s.Q75}, {"max", s.Max},
			} {
				w.RawByte(',')
				w.String(kv.key)
				w.RawByte(':')
				writeFloat(w, kv.v)
			}
			w.RawByte('}')
		}
		w.RawByte(']')
	}
	w.RawByte('}')
}

type errorResponse struct {
	message string
}

func (r *errorResponse) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"error":`)
	w.String(r.message)
	w.RawByte('}')
}

func writeFloats(w *jwriter.Writer, values []float64) {
	w.RawByte('[')
	for i, v := range values {
		if i > 0 {
			w.RawByte(',')
		}
		writeFloat(w, v)
	}
	w.RawByte(']')
}

func writeFloat(w *jwriter.Writer, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		w.RawString("null")
		return
	}
	w.Float64(v)
}

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string { return t.Format(dateLayout) }

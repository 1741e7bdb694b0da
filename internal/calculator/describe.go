package calculator

import (
	"math"
	"sort"

	"ShareAnalysis/internal/model"
)

// Describe returns descriptive statistics of values, ignoring NaN.
// Std is the sample deviation and quantiles interpolate linearly between
// the closest ranks. Statistics that cannot be computed are NaN.
func Describe(name string, values []float64) model.Stats {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)

	st := model.Stats{Name: name, Count: len(sorted)}
	nan := math.NaN()
	if len(sorted) == 0 {
		st.Mean, st.Std, st.Min, st.Q25, st.Q50, st.Q75, st.Max = nan, nan, nan, nan, nan, nan, nan
		return st
	}

	st.Mean = windowMean(sorted)
	st.Std = nan
	if len(sorted) > 1 {
		var ss float64
		for _, v := range sorted {
			d := v - st.Mean
			ss += d * d
		}
		st.Std = math.Sqrt(ss / float64(len(sorted)-1))
	}
	st.Min = sorted[0]
	st.Max = sorted[len(sorted)-1]
	st.Q25 = quantile(sorted, 0.25)
	st.Q50 = quantile(sorted, 0.50)
	st.Q75 = quantile(sorted, 0.75)
	return st
}

// DescribeWindow describes every column of a display window.
func DescribeWindow(w *model.DisplayWindow) []model.Stats {
	out := make([]model.Stats, len(w.Columns))
	for i, c := range w.Columns {
		out[i] = Describe(c.Name, c.Values)
	}
	return out
}

// quantile expects sorted, non-empty input.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

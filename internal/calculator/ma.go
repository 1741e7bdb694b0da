package calculator

import (
	"errors"
	"math"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	return windowMean(prices[len(prices)-period:]), nil
}

// RollingSMA returns a series as long as prices where position i holds the
// mean of prices[i-period+1..i]. The first period-1 positions are NaN.
func RollingSMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := make([]float64, len(prices))
	for i := range prices {
		if i+1 < period {
			out[i] = math.NaN()
			continue
		}
		out[i], _ = CalculateSMA(prices[:i+1], period)
	}
	return out, nil
}

// windowMean averages deviations from the first value, so a constant window
// yields that constant exactly.
func windowMean(w []float64) float64 {
	base := w[0]
	var dev float64
	for _, p := range w {
		dev += p - base
	}
	return base + dev/float64(len(w))
}

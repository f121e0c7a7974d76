package calculator

import (
	"errors"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
)

var (
	// ErrInvalidPeriod is returned for a non-positive window or period.
	ErrInvalidPeriod = errors.New("period must be positive")
	// ErrInsufficientHistory is returned when there are fewer values than the window needs.
	ErrInsufficientHistory = errors.New("not enough data for the requested window")
)

// RollingSMA computes the trailing simple moving average at every position of prices.
// Positions with fewer than window values at or before them are NaN.
func RollingSMA(prices []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(prices) < window {
		return out, nil
	}

	sma := trend.NewSmaWithPeriod[float64](window)
	values := helper.ChanToSlice(sma.Compute(helper.SliceToChan(prices)))
	if len(values) > len(out) {
		values = values[len(values)-len(out):]
	}
	// The indicator skips its idle period, so its output aligns with the tail.
	copy(out[len(out)-len(values):], values)
	return out, nil
}

// CalculateSMA returns the most recent value of the simple moving average over period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if len(prices) < period {
		return 0, ErrInsufficientHistory
	}
	rolling, err := RollingSMA(prices, period)
	if err != nil {
		return 0, err
	}
	last := rolling[len(rolling)-1]
	if math.IsNaN(last) {
		return 0, ErrInsufficientHistory
	}
	return last, nil
}

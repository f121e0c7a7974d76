package calculator

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
)

// RollingRSI computes Wilder's relative strength index at every position of
// closes. Positions inside the indicator's idle period are NaN. A window with
// no movement at all reads 50.
func RollingRSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) <= period {
		return out, nil
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	values := helper.ChanToSlice(rsi.Compute(helper.SliceToChan(closes)))
	if len(values) > len(out) {
		values = values[len(values)-len(out):]
	}
	offset := len(out) - len(values)
	for i, v := range values {
		// 0/0 average gain over average loss
		if math.IsNaN(v) {
			v = 50
		}
		out[offset+i] = v
	}
	return out, nil
}

// CalculateRSI returns the most recent RSI over period. It needs at least
// period+1 closes.
func CalculateRSI(closes []float64, period int) (float64, error) {
	if period > 0 && len(closes) <= period {
		return 0, ErrInsufficientHistory
	}
	rolling, err := RollingRSI(closes, period)
	if err != nil {
		return 0, err
	}
	last := rolling[len(rolling)-1]
	if math.IsNaN(last) {
		return 0, ErrInsufficientHistory
	}
	return last, nil
}

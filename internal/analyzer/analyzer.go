// Package analyzer derives trend statistics from a canonical series.
package analyzer

import (
	"errors"
	"math"
	"time"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

// ErrNoReport is returned when there is no series to analyze.
var ErrNoReport = errors.New("no trend report: series is empty")

// Windows are the moving-average lengths, shortest first.
var Windows = []int{20, 50, 200}

// RSIPeriod is the lookback of the RSI reported alongside the averages.
const RSIPeriod = 14

// Analyze computes a TrendReport over s. It never modifies s.
func Analyze(symbol string, s model.Series) (model.TrendReport, error) {
	last, ok := s.Last()
	if !ok {
		return model.TrendReport{}, ErrNoReport
	}

	closes := s.Closes()
	report := model.TrendReport{
		Symbol:      symbol,
		AsOf:        last.Time,
		Bars:        s.Len(),
		Close:       last.Close,
		GeneratedAt: time.Now().UTC(),
	}

	averages := make([]*float64, len(Windows))
	for i, w := range Windows {
		averages[i] = trailingAverage(closes, w)
	}
	report.MA20, report.MA50, report.MA200 = averages[0], averages[1], averages[2]

	if rsi, err := calculator.CalculateRSI(closes, RSIPeriod); err == nil {
		report.RSI14 = &rsi
	}
	if high, low, err := calculator.Calculate52WeekRange(s); err == nil {
		report.High52w, report.Low52w = high, low
	}

	report.Label = Classify(report.Close, averages...)
	return report, nil
}

// trailingAverage returns the last value of the rolling mean, or nil when the
// series is shorter than the window.
func trailingAverage(closes []float64, window int) *float64 {
	rolling, err := calculator.RollingSMA(closes, window)
	if err != nil || len(rolling) == 0 {
		return nil
	}
	v := rolling[len(rolling)-1]
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

package calculator

import (
	"errors"
	"math"

	"TrendSentinel/internal/model"
)

// TradingDaysPerYear is the lookback used for the 52-week range.
const TradingDaysPerYear = 252

// CalculateRange scans the most recent lookback bars and returns the highest high and lowest low.
// Shorter series are scanned in full.
func CalculateRange(s model.Series, lookback int) (high, low float64, err error) {
	if s.Empty() {
		return 0, 0, errors.New("no bars provided")
	}
	if lookback <= 0 {
		return 0, 0, ErrInvalidPeriod
	}
	start := s.Len() - lookback
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range s[start:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// Calculate52WeekRange is CalculateRange over the last TradingDaysPerYear bars.
func Calculate52WeekRange(s model.Series) (high, low float64, err error) {
	return CalculateRange(s, TradingDaysPerYear)
}

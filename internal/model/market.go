package model

import (
	"math"
	"sort"
	"time"
)

// Bar is one trading day's OHLCV record. Time is the UTC midnight of the trading date.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Valid reports whether all prices are positive finite numbers, the volume is
// non-negative, and high/low bound open, close and each other.
func (b Bar) Valid() bool {
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return false
		}
	}
	if b.Volume < 0 {
		return false
	}
	if b.High < b.Open || b.High < b.Close || b.High < b.Low {
		return false
	}
	if b.Low > b.Open || b.Low > b.Close {
		return false
	}
	return !b.Time.IsZero()
}

// Day truncates t to the UTC midnight of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Series is a sequence of bars, strictly increasing by Time.
type Series []Bar

// NewSeries orders bars by date. When a date repeats, the first bar given for it is kept.
func NewSeries(bars []Bar) Series {
	out := make(Series, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	n := 0
	for i, b := range out {
		if i > 0 && b.Time.Equal(out[n-1].Time) {
			continue
		}
		out[n] = b
		n++
	}
	return out[:n]
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s) }

// Empty reports whether the series has no bars.
func (s Series) Empty() bool { return len(s) == 0 }

// Last returns the most recent bar.
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Closes extracts closing prices in series order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Clone returns a copy that shares no backing array with s.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Equal reports whether both series hold the same bars in the same order.
func (s Series) Equal(o Series) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		a, b := s[i], o[i]
		if !a.Time.Equal(b.Time) || a.Open != b.Open || a.High != b.High ||
			a.Low != b.Low || a.Close != b.Close || a.Volume != b.Volume {
			return false
		}
	}
	return true
}

// Strict reports whether every bar is strictly later than the one before it.
func (s Series) Strict() bool {
	for i := 1; i < len(s); i++ {
		if !s[i-1].Time.Before(s[i].Time) {
			return false
		}
	}
	return true
}

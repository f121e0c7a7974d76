package model

import "time"

// TrendLabel is the directional classification of a TrendReport.
type TrendLabel string

const (
	LabelBullish          TrendLabel = "bullish"
	LabelBearish          TrendLabel = "bearish"
	LabelMixed            TrendLabel = "mixed"
	LabelInsufficientData TrendLabel = "insufficient-data"
)

// TrendReport is a read-only snapshot of trend statistics over a canonical series.
// Nil averages mean the series is shorter than the window.
type TrendReport struct {
	Symbol      string     `json:"symbol"`
	AsOf        time.Time  `json:"as_of"`
	Bars        int        `json:"bars"`
	Close       float64    `json:"close"`
	MA20        *float64   `json:"ma20"`
	MA50        *float64   `json:"ma50"`
	MA200       *float64   `json:"ma200"`
	RSI14       *float64   `json:"rsi14"`
	High52w     float64    `json:"high_52w"`
	Low52w      float64    `json:"low_52w"`
	Label       TrendLabel `json:"label"`
	GeneratedAt time.Time  `json:"generated_at"`
}

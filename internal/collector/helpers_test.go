package collector_test

import (
	"encoding/json"
	"fmt"
	"time"

	"TrendSentinel/internal/model"
)

// day returns the UTC midnight n days after 2024-01-01.
func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// generateBars returns one valid bar per day in [from, to], rising by one
// from base. Prices are exact in both float64 and four-decimal text.
func generateBars(from, to int, base float64) []model.Bar {
	bars := make([]model.Bar, 0, to-from+1)
	for i := from; i <= to; i++ {
		p := base + float64(i)
		bars = append(bars, model.Bar{
			Time:   day(i),
			Open:   p - 0.5,
			High:   p + 1,
			Low:    p - 1,
			Close:  p,
			Volume: 1000000,
		})
	}
	return bars
}

// alphaVantagePayload renders bars the way TIME_SERIES_DAILY does, with string fields.
func alphaVantagePayload(bars []model.Bar) []byte {
	days := make(map[string]map[string]string, len(bars))
	for _, b := range bars {
		days[b.Time.Format("2006-01-02")] = map[string]string{
			"1. open":   fmt.Sprintf("%.4f", b.Open),
			"2. high":   fmt.Sprintf("%.4f", b.High),
			"3. low":    fmt.Sprintf("%.4f", b.Low),
			"4. close":  fmt.Sprintf("%.4f", b.Close),
			"5. volume": fmt.Sprintf("%d", b.Volume),
		}
	}
	out, _ := json.Marshal(map[string]any{
		"Meta Data":           map[string]string{"2. Symbol": "SPY"},
		"Time Series (Daily)": days,
	})
	return out
}

// yahooPayload renders bars as a v8 chart document. Timestamps sit at the
// 14:30 UTC session open, as Yahoo reports them.
func yahooPayload(bars []model.Bar) []byte {
	ts := make([]int64, len(bars))
	open := make([]any, len(bars))
	high := make([]any, len(bars))
	low := make([]any, len(bars))
	closes := make([]any, len(bars))
	volume := make([]any, len(bars))
	for i, b := range bars {
		ts[i] = b.Time.Add(14*time.Hour + 30*time.Minute).Unix()
		open[i], high[i], low[i], closes[i], volume[i] = b.Open, b.High, b.Low, b.Close, b.Volume
	}
	out, _ := json.Marshal(map[string]any{
		"chart": map[string]any{
			"result": []any{map[string]any{
				"meta":      map[string]any{"symbol": "SPY"},
				"timestamp": ts,
				"indicators": map[string]any{
					"quote": []any{map[string]any{
						"open": open, "high": high, "low": low, "close": closes, "volume": volume,
					}},
				},
			}},
			"error": nil,
		},
	})
	return out
}

// vstraderPayload renders bars as the vstrader bar list.
func vstraderPayload(bars []model.Bar) []byte {
	items := make([]map[string]any, len(bars))
	for i, b := range bars {
		items[i] = map[string]any{
			"timestamp": b.Time.Unix(),
			"open":      b.Open,
			"high":      b.High,
			"low":       b.Low,
			"close":     b.Close,
			"volume":    b.Volume,
		}
	}
	out, _ := json.Marshal(items)
	return out
}

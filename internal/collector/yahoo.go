package collector

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"TrendSentinel/internal/model"
)

const (
	// YahooFinanceName is the provider name of YahooFinance.
	YahooFinanceName = "yahoo_finance"

	yahooBaseURL = "https://query1.finance.yahoo.com"
)

// YahooFinance reads the v8 chart document.
type YahooFinance struct {
	BaseURL   string
	Range     string            // chart range, e.g. "1y", "2y", "max"
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFinance returns a source for two years of daily bars.
func NewYahooFinance() *YahooFinance {
	return &YahooFinance{
		BaseURL: yahooBaseURL,
		Range:   "2y",
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (y *YahooFinance) Name() string { return YahooFinanceName }

func (y *YahooFinance) yahooSymbol(symbol string) string {
	if mapped, ok := y.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

func (y *YahooFinance) Endpoint(symbol string) (string, error) {
	if symbol == "" {
		return "", fmt.Errorf("%s: empty symbol", YahooFinanceName)
	}
	base := strings.TrimRight(y.BaseURL, "/")
	if base == "" {
		base = yahooBaseURL
	}
	rng := y.Range
	if rng == "" {
		rng = "2y"
	}
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", rng)
	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", base, url.PathEscape(y.yahooSymbol(symbol)), params.Encode()), nil
}

// yahooChart is the response structure from Yahoo Finance chart API.
// Quote arrays are kept raw so null entries can be told apart from zeros.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []json.RawMessage `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []json.RawMessage `json:"open"`
					High   []json.RawMessage `json:"high"`
					Low    []json.RawMessage `json:"low"`
					Close  []json.RawMessage `json:"close"`
					Volume []json.RawMessage `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// Normalize reads the first chart result. Epoch timestamps map to their UTC
// trading date; an index missing or null in any quote array drops that bar.
func (y *YahooFinance) Normalize(payload []byte) model.Series {
	var chart yahooChart
	if err := json.Unmarshal(payload, &chart); err != nil {
		return model.Series{}
	}
	if len(chart.Chart.Result) == 0 {
		return model.Series{}
	}
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return model.Series{}
	}
	quote := result.Indicators.Quote[0]

	at := func(values []json.RawMessage, i int) json.RawMessage {
		if i < len(values) {
			return values[i]
		}
		return nil
	}

	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, raw := range result.Timestamp {
		ts, ok := parseEpoch(raw)
		if !ok {
			continue
		}
		bar, ok := newBar(ts,
			at(quote.Open, i), at(quote.High, i), at(quote.Low, i),
			at(quote.Close, i), at(quote.Volume, i))
		if !ok {
			continue // null bars (holidays, halted sessions)
		}
		bars = append(bars, bar)
	}
	return model.NewSeries(bars)
}

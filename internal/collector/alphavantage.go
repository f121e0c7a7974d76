package collector

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"TrendSentinel/internal/model"
)

const (
	// AlphaVantageName is the provider name of AlphaVantage.
	AlphaVantageName = "alpha_vantage"

	alphaVantageBaseURL = "https://www.alphavantage.co/query"
	alphaVantageSeries  = "Time Series (Daily)"
	alphaVantageDate    = "2006-01-02"
)

// AlphaVantage reads the TIME_SERIES_DAILY document.
type AlphaVantage struct {
	APIKey     string
	BaseURL    string
	OutputSize string // "compact" (100 bars) or "full"
}

// NewAlphaVantage returns a source with the public endpoint and full output.
func NewAlphaVantage(apiKey string) *AlphaVantage {
	return &AlphaVantage{APIKey: apiKey, BaseURL: alphaVantageBaseURL, OutputSize: "full"}
}

func (a *AlphaVantage) Name() string { return AlphaVantageName }

func (a *AlphaVantage) Endpoint(symbol string) (string, error) {
	if a.APIKey == "" {
		return "", fmt.Errorf("%s: %w", AlphaVantageName, ErrMissingCredentials)
	}
	base := a.BaseURL
	if base == "" {
		base = alphaVantageBaseURL
	}
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	if a.OutputSize != "" {
		params.Set("outputsize", a.OutputSize)
	}
	params.Set("apikey", a.APIKey)
	return base + "?" + params.Encode(), nil
}

// Normalize reads {"Time Series (Daily)": {"YYYY-MM-DD": {"1. open": "…", …}}}.
// Error notes and rate-limit messages carry no series and yield an empty result.
func (a *AlphaVantage) Normalize(payload []byte) model.Series {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return model.Series{}
	}
	raw, ok := doc[alphaVantageSeries]
	if !ok {
		return model.Series{}
	}
	var days map[string]json.RawMessage
	if err := json.Unmarshal(raw, &days); err != nil {
		return model.Series{}
	}

	bars := make([]model.Bar, 0, len(days))
	for date, row := range days {
		day, err := time.Parse(alphaVantageDate, date)
		if err != nil {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(row, &fields); err != nil || fields == nil {
			continue
		}
		bar, ok := newBar(day,
			fields["1. open"], fields["2. high"], fields["3. low"],
			fields["4. close"], fields["5. volume"])
		if !ok {
			continue
		}
		bars = append(bars, bar)
	}
	return model.NewSeries(bars)
}

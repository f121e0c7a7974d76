package collector

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"TrendSentinel/internal/model"
)

// VsTraderName is the provider name of VsTrader.
const VsTraderName = "vstrader"

// VsTrader reads the vstrader REST bar list.
type VsTrader struct {
	BaseURL string
	APIKey  string
	Days    int
}

// NewVsTrader returns a source for the given deployment.
func NewVsTrader(baseURL, apiKey string, days int) *VsTrader {
	return &VsTrader{BaseURL: baseURL, APIKey: apiKey, Days: days}
}

func (v *VsTrader) Name() string { return VsTraderName }

func (v *VsTrader) Endpoint(symbol string) (string, error) {
	if v.BaseURL == "" {
		return "", fmt.Errorf("%s: base url not configured", VsTraderName)
	}
	days := v.Days
	if days <= 0 {
		days = 300
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(days))
	if v.APIKey != "" {
		params.Set("api_key", v.APIKey)
	}
	return strings.TrimRight(v.BaseURL, "/") + "/api/v1/bars/daily?" + params.Encode(), nil
}

// vsBar is the expected JSON shape from the vstrader API.
type vsBar struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Open      json.RawMessage `json:"open"`
	High      json.RawMessage `json:"high"`
	Low       json.RawMessage `json:"low"`
	Close     json.RawMessage `json:"close"`
	Volume    json.RawMessage `json:"volume"`
}

// Normalize reads a top-level array of bar objects.
func (v *VsTrader) Normalize(payload []byte) model.Series {
	var raw []json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return model.Series{}
	}

	bars := make([]model.Bar, 0, len(raw))
	for _, item := range raw {
		var vb vsBar
		if err := json.Unmarshal(item, &vb); err != nil {
			continue
		}
		ts, ok := parseEpoch(vb.Timestamp)
		if !ok {
			continue
		}
		bar, ok := newBar(ts, vb.Open, vb.High, vb.Low, vb.Close, vb.Volume)
		if !ok {
			continue
		}
		bars = append(bars, bar)
	}
	return model.NewSeries(bars)
}

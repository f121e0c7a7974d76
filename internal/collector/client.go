package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"TrendSentinel/internal/metrics"
	"TrendSentinel/internal/model"
)

// DefaultProviderTimeout bounds a single provider fetch.
const DefaultProviderTimeout = 20 * time.Second

// Client fetches and normalizes provider data. It never retries; retry
// policy belongs to the Transport.
type Client struct {
	transport Transport
	registry  *Registry
	timeout   time.Duration
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithProviderTimeout bounds each provider fetch. Non-positive values are ignored.
func WithProviderTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithClientMetrics records per-provider metrics on m.
func WithClientMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient returns a client resolving provider names through registry.
func NewClient(transport Transport, registry *Registry, opts ...ClientOption) *Client {
	c := &Client{
		transport: transport,
		registry:  registry,
		timeout:   DefaultProviderTimeout,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch queries every provider in order and returns one result per provider,
// in the same order. A failing provider never stops the others.
func (c *Client) Fetch(ctx context.Context, symbol string, providers []string) []model.ProviderResult {
	results := make([]model.ProviderResult, 0, len(providers))
	for _, name := range providers {
		start := time.Now()
		res := c.fetchOne(ctx, symbol, name)
		outcome := res.Outcome()

		c.metrics.RecordProviderFetch(name, string(outcome), res.Series.Len(), time.Since(start))
		entry := c.logger.WithFields(logrus.Fields{
			"provider": name,
			"symbol":   symbol,
			"outcome":  outcome,
			"bars":     res.Series.Len(),
		})
		switch outcome {
		case model.OutcomeFailed:
			entry.WithError(res.Err).Warn("provider fetch failed")
		case model.OutcomeEmpty:
			entry.Warn("provider returned no usable bars")
		default:
			entry.Debug("provider fetched")
		}
		results = append(results, res)
	}
	return results
}

func (c *Client) fetchOne(ctx context.Context, symbol, name string) (res model.ProviderResult) {
	res.Provider = name
	defer func() {
		if r := recover(); r != nil {
			res = model.ProviderResult{
				Provider: name,
				Err:      fmt.Errorf("%s: normalize panicked: %v: %w", name, r, model.ErrMalformedPayload),
			}
		}
	}()

	src, ok := c.registry.Lookup(name)
	if !ok {
		res.Err = fmt.Errorf("%s: %w", name, model.ErrUnknownProvider)
		return res
	}
	endpoint, err := src.Endpoint(symbol)
	if err != nil {
		res.Err = fmt.Errorf("%s: build request: %w: %w", name, model.ErrTransport, err)
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.transport.Get(ctx, endpoint)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w: %w", name, model.ErrTransport, err)
		return res
	}
	if !json.Valid(body) {
		res.Err = fmt.Errorf("%s: %w", name, model.ErrMalformedPayload)
		return res
	}
	res.Series = src.Normalize(body)
	if res.Series == nil {
		res.Series = model.Series{}
	}
	return res
}

// Package transport performs the outbound HTTP GETs for provider fetches,
// with retry and per-host circuit breaking.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"TrendSentinel/internal/metrics"
)

//go:generate mockgen -package=transport_test -destination=mock_http_client_test.go -source=http.go HTTPClient

// HTTPClient is the subset of *http.Client used here.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	defaultUserAgent = "TrendSentinel/1.0"
	maxBodyBytes     = 32 << 20
	maxErrorBody     = 512
)

// HTTPTransport fetches URLs and returns their bodies.
type HTTPTransport struct {
	client    HTTPClient
	userAgent string
	headers   map[string]string
	retry     RetryConfig
	breakers  *BreakerRegistry
	metrics   *metrics.Metrics
	logger    logrus.FieldLogger
}

// Option configures an HTTPTransport.
type Option func(*HTTPTransport)

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c HTTPClient) Option {
	return func(t *HTTPTransport) { t.client = c }
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(t *HTTPTransport) {
		if ua != "" {
			t.userAgent = ua
		}
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(t *HTTPTransport) { t.headers[key] = value }
}

// WithRetry overrides DefaultRetryConfig.
func WithRetry(cfg RetryConfig) Option {
	return func(t *HTTPTransport) { t.retry = cfg }
}

// WithBreakers routes every request through r, keyed by host.
func WithBreakers(r *BreakerRegistry) Option {
	return func(t *HTTPTransport) { t.breakers = r }
}

// WithMetrics records outbound request metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *HTTPTransport) { t.metrics = m }
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(t *HTTPTransport) { t.logger = l }
}

// New returns a transport. Without WithHTTPClient it uses NewHTTPClient(30s, "").
func New(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		userAgent: defaultUserAgent,
		headers:   make(map[string]string),
		retry:     DefaultRetryConfig,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client, _ = NewHTTPClient(30*time.Second, "")
	}
	return t
}

// NewHTTPClient builds a client with bounded dial, handshake and header
// timeouts. An empty proxyURL falls back to the environment.
func NewHTTPClient(timeout time.Duration, proxyURL string) (*http.Client, error) {
	proxy := http.ProxyFromEnvironment
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		proxy = http.ProxyURL(u)
	}
	transport := &http.Transport{
		Proxy:                 proxy,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// Get fetches rawURL and returns the response body. Non-2xx responses are
// returned as *StatusError.
func (t *HTTPTransport) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.New("parse url: malformed request url")
	}
	host := u.Host

	var body []byte
	err = withRetry(ctx, t.retry, t.logger.WithField("host", host), func() error {
		var attemptErr error
		if t.breakers != nil {
			body, attemptErr = t.breakers.Execute(ctx, host, func() ([]byte, error) {
				return t.do(ctx, rawURL, host)
			})
		} else {
			body, attemptErr = t.do(ctx, rawURL, host)
		}
		if attemptErr != nil {
			t.metrics.RecordExternalAPIError(host, errorType(attemptErr))
		}
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (t *HTTPTransport) do(ctx context.Context, rawURL, host string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.New("create request: invalid method or url")
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	t.metrics.RecordExternalAPIRequest(host, time.Since(start))
	if err != nil {
		// *url.Error carries the full request URL, credentials included.
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redact(req.URL)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{URL: redact(req.URL), StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	return body, nil
}

// redact strips query values that look like credentials.
func redact(u *url.URL) string {
	c := *u
	q := c.Query()
	for _, key := range []string{"apikey", "api_key", "token"} {
		if q.Has(key) {
			q.Set(key, "REDACTED")
		}
	}
	c.RawQuery = q.Encode()
	return c.String()
}

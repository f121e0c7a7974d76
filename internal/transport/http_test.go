package transport_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"TrendSentinel/internal/metrics"
	"TrendSentinel/internal/transport"
)

var fastRetry = transport.RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestGet_ReturnsBodyAndSetsHeaders(t *testing.T) {
	t.Parallel()

	// Arrange: a client that checks the outgoing request.
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "sentinel-test", req.Header.Get("User-Agent"))
			require.Equal(t, "bar", req.Header.Get("X-Foo"))
			return response(http.StatusOK, `{"ok":true}`), nil
		}).
		Times(1)

	logger, _ := test.NewNullLogger()
	tr := transport.New(
		transport.WithHTTPClient(httpClient),
		transport.WithUserAgent("sentinel-test"),
		transport.WithHeader("X-Foo", "bar"),
		transport.WithLogger(logger),
	)

	// Act
	body, err := tr.Get(t.Context(), "https://example.com/chart")

	// Assert
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGet_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	gomock.InOrder(
		httpClient.EXPECT().Do(gomock.Any()).Return(response(http.StatusBadGateway, "upstream"), nil),
		httpClient.EXPECT().Do(gomock.Any()).Return(nil, errors.New("connection reset")),
		httpClient.EXPECT().Do(gomock.Any()).Return(response(http.StatusOK, `[]`), nil),
	)

	logger, hook := test.NewNullLogger()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	tr := transport.New(
		transport.WithHTTPClient(httpClient),
		transport.WithRetry(fastRetry),
		transport.WithLogger(logger),
		transport.WithMetrics(m),
	)

	body, err := tr.Get(t.Context(), "https://example.com/bars")
	require.NoError(t, err)
	require.Equal(t, "[]", string(body))
	require.Len(t, hook.AllEntries(), 2)
	require.Equal(t, 3.0, testutil.ToFloat64(m.ExternalAPIRequestsTotal.WithLabelValues("example.com")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ExternalAPIErrorsTotal.WithLabelValues("example.com", "status_5xx")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ExternalAPIErrorsTotal.WithLabelValues("example.com", "network")))
}

func TestGet_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Return(response(http.StatusNotFound, "no such symbol"), nil).Times(1)

	logger, _ := test.NewNullLogger()
	tr := transport.New(transport.WithHTTPClient(httpClient), transport.WithRetry(fastRetry), transport.WithLogger(logger))

	_, err := tr.Get(t.Context(), "https://example.com/q?symbol=XYZ&apikey=secret")

	var se *transport.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusNotFound, se.StatusCode)
	require.Equal(t, "no such symbol", se.Body)
	require.NotContains(t, err.Error(), "secret")
}

func TestGet_NetworkErrorHidesCredentials(t *testing.T) {
	t.Parallel()

	// Arrange: a server that is already gone, so the dial is refused.
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	logger, hook := test.NewNullLogger()
	tr := transport.New(transport.WithRetry(transport.RetryConfig{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}), transport.WithLogger(logger))

	// Act
	_, err := tr.Get(t.Context(), addr+"/query?symbol=SPY&apikey=SUPERSECRETKEY&api_key=OTHERKEY")

	// Assert
	require.Error(t, err)
	require.NotContains(t, err.Error(), "SUPERSECRETKEY")
	require.NotContains(t, err.Error(), "OTHERKEY")
	require.Contains(t, err.Error(), "REDACTED")
	require.Contains(t, err.Error(), "symbol=SPY")
	for _, entry := range hook.AllEntries() {
		msg, _ := entry.String()
		require.NotContains(t, msg, "SUPERSECRETKEY")
	}
}

func TestGet_MalformedURLHidesCredentials(t *testing.T) {
	t.Parallel()

	logger, _ := test.NewNullLogger()
	tr := transport.New(transport.WithLogger(logger))

	_, err := tr.Get(t.Context(), "http://exa mple.com/q?apikey=SUPERSECRETKEY")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "SUPERSECRETKEY")
}

func TestGet_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).
		DoAndReturn(func(*http.Request) (*http.Response, error) {
			return response(http.StatusServiceUnavailable, ""), nil
		}).
		Times(3)

	logger, _ := test.NewNullLogger()
	tr := transport.New(transport.WithHTTPClient(httpClient), transport.WithRetry(fastRetry), transport.WithLogger(logger))

	_, err := tr.Get(t.Context(), "https://example.com/bars")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed after 2 retries")

	var se *transport.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestGet_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).
		DoAndReturn(func(*http.Request) (*http.Response, error) {
			cancel()
			return response(http.StatusInternalServerError, ""), nil
		}).
		Times(1)

	logger, _ := test.NewNullLogger()
	tr := transport.New(
		transport.WithHTTPClient(httpClient),
		transport.WithRetry(transport.RetryConfig{MaxRetries: 3, InitialBackoff: time.Second, MaxBackoff: time.Second}),
		transport.WithLogger(logger),
	)

	_, err := tr.Get(ctx, "https://example.com/bars")
	require.ErrorIs(t, err, context.Canceled)
}

func TestGet_BreakerOpensPerHost(t *testing.T) {
	t.Parallel()

	// Arrange: two failures trip the breaker for the failing host only.
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			if req.URL.Host == "bad.example.com" {
				return response(http.StatusInternalServerError, ""), nil
			}
			return response(http.StatusOK, "{}"), nil
		}).
		Times(3)

	logger, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	breakers := transport.NewBreakerRegistry(transport.BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	}, m, logger)
	tr := transport.New(
		transport.WithHTTPClient(httpClient),
		transport.WithRetry(transport.RetryConfig{}),
		transport.WithBreakers(breakers),
		transport.WithLogger(logger),
		transport.WithMetrics(m),
	)

	// Act
	_, err1 := tr.Get(t.Context(), "https://bad.example.com/a")
	_, err2 := tr.Get(t.Context(), "https://bad.example.com/a")
	_, err3 := tr.Get(t.Context(), "https://bad.example.com/a")
	_, errOK := tr.Get(t.Context(), "https://good.example.com/a")

	// Assert
	require.Error(t, err1)
	require.Error(t, err2)
	require.ErrorIs(t, err3, transport.ErrCircuitOpen)
	require.NoError(t, errOK)
	require.Equal(t, "open", breakers.State()["bad.example.com"])
	require.Equal(t, "closed", breakers.State()["good.example.com"])
	require.Equal(t, 1.0, testutil.ToFloat64(m.CircuitBreakerTrips.WithLabelValues("bad.example.com")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("bad.example.com")))
}

func TestGet_ClientErrorsDoNotTripBreaker(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Return(response(http.StatusBadRequest, ""), nil).Times(4)

	logger, _ := test.NewNullLogger()
	breakers := transport.NewBreakerRegistry(transport.BreakerConfig{MaxRequests: 1, Timeout: time.Minute, MinRequests: 2, FailureRatio: 0.5}, nil, logger)
	tr := transport.New(transport.WithHTTPClient(httpClient), transport.WithRetry(transport.RetryConfig{}), transport.WithBreakers(breakers), transport.WithLogger(logger))

	for i := 0; i < 4; i++ {
		_, err := tr.Get(t.Context(), "https://example.com/a")
		var se *transport.StatusError
		require.ErrorAs(t, err, &se)
	}
	require.Equal(t, "closed", breakers.State()["example.com"])
}

func TestNewHTTPClient_AgainstServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := transport.NewHTTPClient(5*time.Second, "")
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	tr := transport.New(transport.WithHTTPClient(client), transport.WithLogger(logger))
	body, err := tr.Get(t.Context(), srv.URL+"/v8/finance/chart/SPY")
	require.NoError(t, err)
	require.JSONEq(t, `{"chart":{}}`, string(body))

	_, err = transport.NewHTTPClient(time.Second, "://bad")
	require.Error(t, err)
}

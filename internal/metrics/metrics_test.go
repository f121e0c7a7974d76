package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordProviderFetch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordProviderFetch("yahoo_finance", "ok", 250, 120*time.Millisecond)
	m.RecordProviderFetch("yahoo_finance", "failed", 0, time.Second)
	m.RecordProviderFetch("alpha_vantage", "ok", 100, 80*time.Millisecond)

	if got := testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("yahoo_finance", "ok")); got != 1 {
		t.Errorf("expected 1 ok fetch, got %v", got)
	}
	if got := testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("yahoo_finance", "failed")); got != 1 {
		t.Errorf("expected 1 failed fetch, got %v", got)
	}
	if got := testutil.ToFloat64(m.ProviderBars.WithLabelValues("yahoo_finance")); got != 0 {
		t.Errorf("expected gauge to hold the last fetch, got %v", got)
	}
	if got := testutil.ToFloat64(m.ProviderBars.WithLabelValues("alpha_vantage")); got != 100 {
		t.Errorf("expected 100 bars, got %v", got)
	}
}

func TestRecordFetchCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordFetchCycle("SPY", "ok", 300)
	m.RecordFetchCycle("SPY", "no_data", 0)

	if got := testutil.ToFloat64(m.FetchCyclesTotal.WithLabelValues("SPY", "no_data")); got != 1 {
		t.Errorf("expected 1 no_data cycle, got %v", got)
	}
	// A failed cycle leaves the last canonical size in place.
	if got := testutil.ToFloat64(m.CanonicalBars.WithLabelValues("SPY")); got != 300 {
		t.Errorf("expected canonical bars 300, got %v", got)
	}
}

func TestCircuitBreakerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SetCircuitBreakerState("www.alphavantage.co", 2)
	m.RecordCircuitBreakerTrip("www.alphavantage.co")

	if got := testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("www.alphavantage.co")); got != 2 {
		t.Errorf("expected state 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.CircuitBreakerTrips.WithLabelValues("www.alphavantage.co")); got != 1 {
		t.Errorf("expected 1 trip, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordProviderFetch("p", "ok", 1, time.Millisecond)
	m.RecordExternalAPIRequest("h", time.Millisecond)
	m.RecordExternalAPIError("h", "timeout")
	m.RecordFetchCycle("SPY", "ok", 1)
	m.RecordTrendReport("SPY", "bullish")
	m.SetCircuitBreakerState("h", 0)
	m.RecordCircuitBreakerTrip("h")
}

func TestRegistryExposesAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RecordExternalAPIRequest("query1.finance.yahoo.com", 10*time.Millisecond)
	m.RecordExternalAPIError("query1.finance.yahoo.com", "status_5xx")
	m.RecordTrendReport("SPY", "bullish")

	n, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n == 0 {
		t.Error("expected gathered metrics")
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"TrendSentinel/internal/analyzer"
	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/model"
)

// Refresher runs a fetch cycle on demand.
type Refresher interface {
	RunCycle(ctx context.Context, symbol string, trigger model.TriggerType) (model.TrendReport, error)
}

// BreakerStatus reports circuit breaker states keyed by name.
type BreakerStatus interface {
	State() map[string]string
}

// Handler handles HTTP API requests
type Handler struct {
	collector *collector.Collector
	refresher Refresher
	breakers  BreakerStatus
	logger    logrus.FieldLogger
}

// NewHandler creates a new Handler. breakers may be nil.
func NewHandler(col *collector.Collector, refresher Refresher, breakers BreakerStatus, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{collector: col, refresher: refresher, breakers: breakers, logger: logger}
}

// SeriesResponse is the body of GET /api/series.
type SeriesResponse struct {
	CycleID   string       `json:"cycle_id"`
	Symbol    string       `json:"symbol"`
	FetchedAt time.Time    `json:"fetched_at"`
	Count     int          `json:"count"`
	Bars      model.Series `json:"bars"`
}

// ProviderStatus describes one provider's contribution to a failed cycle.
type ProviderStatus struct {
	Provider string        `json:"provider"`
	Outcome  model.Outcome `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
}

// NoDataResponse is the body returned when no provider produced bars.
type NoDataResponse struct {
	Error     string           `json:"error"`
	Symbol    string           `json:"symbol"`
	Providers []ProviderStatus `json:"providers"`
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"symbol":    h.collector.Symbol(),
		"providers": h.collector.Providers(),
	}

	if snap, ok := h.collector.State().Load(); ok {
		status["last_fetch"] = snap.FetchedAt
		status["bars"] = snap.Series.Len()
	} else {
		status["status"] = "starting"
	}

	if h.breakers != nil {
		states := h.breakers.State()
		status["circuit_breakers"] = states
		for _, state := range states {
			if state == "open" {
				status["status"] = "degraded"
				break
			}
		}
	}

	h.jsonResponse(w, http.StatusOK, status)
}

// HandleGetSeries returns the canonical series held in memory.
func (h *Handler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.collector.State().Load()
	if !ok {
		h.jsonError(w, "no series loaded yet", http.StatusServiceUnavailable)
		return
	}
	h.jsonResponse(w, http.StatusOK, SeriesResponse{
		CycleID:   snap.CycleID,
		Symbol:    snap.Symbol,
		FetchedAt: snap.FetchedAt,
		Count:     snap.Series.Len(),
		Bars:      snap.Series,
	})
}

// HandleGetTrend returns the trend report for the current series.
func (h *Handler) HandleGetTrend(w http.ResponseWriter, r *http.Request) {
	report, err := h.collector.TrendReport()
	if errors.Is(err, analyzer.ErrNoReport) {
		h.jsonError(w, "no series loaded yet", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, http.StatusOK, report)
}

// HandleRefresh runs a fetch cycle and returns the resulting trend report.
// When every provider fails the per-provider reasons are returned with 502.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))

	report, err := h.refresher.RunCycle(r.Context(), symbol, model.TriggerManual)
	var noData *collector.NoDataError
	switch {
	case errors.As(err, &noData):
		resp := NoDataResponse{Error: noData.Error(), Symbol: noData.Symbol}
		for _, res := range noData.Results {
			resp.Providers = append(resp.Providers, ProviderStatus{
				Provider: res.Provider,
				Outcome:  res.Outcome(),
				Reason:   res.Reason(),
			})
		}
		h.jsonResponse(w, http.StatusBadGateway, resp)
	case err != nil:
		h.logger.WithError(err).Error("manual refresh failed")
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
	default:
		h.jsonResponse(w, http.StatusOK, report)
	}
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Warn("encode response")
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"TrendSentinel/internal/analyzer"
	"TrendSentinel/internal/metrics"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/reconcile"
	"TrendSentinel/internal/state"
)

// ErrNoData is matched by every *NoDataError.
var ErrNoData = errors.New("no data available")

// NoDataError reports a cycle in which no provider produced a usable series.
type NoDataError struct {
	Symbol  string
	Results []model.ProviderResult
}

func (e *NoDataError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no data available for %s", e.Symbol)
	for i, r := range e.Results {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", r.Provider, r.Reason())
	}
	return b.String()
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

// Cycle is the full outcome of one fetch-and-merge run.
type Cycle struct {
	ID         string
	Symbol     string
	Results    []model.ProviderResult
	Series     model.Series
	StartedAt  time.Time
	FinishedAt time.Time
}

// Collector runs fetch cycles and serves trend reports from the latest one.
type Collector struct {
	client    *Client
	state     *state.AnalyzerState
	symbol    string
	providers []string
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Collector) { c.logger = l }
}

// WithMetrics records cycle and report metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// WithState shares st instead of a private state.
func WithState(st *state.AnalyzerState) Option {
	return func(c *Collector) { c.state = st }
}

// NewCollector creates a Collector for symbol querying providers in priority order.
func NewCollector(client *Client, symbol string, providers []string, opts ...Option) *Collector {
	c := &Collector{
		client:    client,
		symbol:    symbol,
		providers: append([]string(nil), providers...),
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.state == nil {
		c.state = state.New()
	}
	return c
}

// Symbol returns the default symbol.
func (c *Collector) Symbol() string { return c.symbol }

// Providers returns the configured provider priority order.
func (c *Collector) Providers() []string { return append([]string(nil), c.providers...) }

// State exposes the analyzer state for readers.
func (c *Collector) State() *state.AnalyzerState { return c.state }

// FetchAndMerge runs a cycle for symbol (the default symbol when empty) and
// returns the canonical series. On failure the previous state is kept and the
// error is a *NoDataError.
func (c *Collector) FetchAndMerge(ctx context.Context, symbol string) (model.Series, error) {
	cycle, err := c.Refresh(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return cycle.Series, nil
}

// Refresh is FetchAndMerge returning the whole cycle, including per-provider
// results. The cycle is returned even when err is non-nil.
func (c *Collector) Refresh(ctx context.Context, symbol string) (*Cycle, error) {
	if symbol == "" {
		symbol = c.symbol
	}
	cycle := &Cycle{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		StartedAt: time.Now().UTC(),
	}
	logger := c.logger.WithFields(logrus.Fields{"cycle_id": cycle.ID, "symbol": symbol})
	logger.Info("fetch cycle started")

	cycle.Results = c.client.Fetch(ctx, symbol, c.providers)

	series := make([]model.Series, 0, len(cycle.Results))
	for _, r := range cycle.Results {
		if r.Outcome() == model.OutcomeOK {
			series = append(series, r.Series)
		}
	}
	cycle.FinishedAt = time.Now().UTC()

	if len(series) == 0 {
		err := &NoDataError{Symbol: symbol, Results: cycle.Results}
		c.metrics.RecordFetchCycle(symbol, "no_data", 0)
		logger.WithError(err).Error("fetch cycle produced no data")
		return cycle, err
	}

	cycle.Series = reconcile.Merge(series)
	if !c.state.Replace(state.Snapshot{
		CycleID:   cycle.ID,
		Symbol:    symbol,
		Series:    cycle.Series,
		StartedAt: cycle.StartedAt,
		FetchedAt: cycle.FinishedAt,
	}) {
		logger.Warn("a newer cycle already replaced the series; keeping it")
	}
	c.metrics.RecordFetchCycle(symbol, "ok", cycle.Series.Len())
	logger.WithFields(logrus.Fields{
		"providers": len(series),
		"bars":      cycle.Series.Len(),
	}).Info("fetch cycle completed")
	return cycle, nil
}

// CycleReport analyzes the series produced by cycle itself, independent of
// whatever cycle currently owns the state.
func (c *Collector) CycleReport(cycle *Cycle) (model.TrendReport, error) {
	report, err := analyzer.Analyze(cycle.Symbol, cycle.Series)
	if err != nil {
		return model.TrendReport{}, err
	}
	c.metrics.RecordTrendReport(report.Symbol, string(report.Label))
	return report, nil
}

// TrendReport analyzes the current canonical series. It returns
// analyzer.ErrNoReport until a cycle has succeeded.
func (c *Collector) TrendReport() (model.TrendReport, error) {
	snap, ok := c.state.Load()
	if !ok {
		return model.TrendReport{}, analyzer.ErrNoReport
	}
	report, err := analyzer.Analyze(snap.Symbol, snap.Series)
	if err != nil {
		return model.TrendReport{}, err
	}
	c.metrics.RecordTrendReport(report.Symbol, string(report.Label))
	return report, nil
}

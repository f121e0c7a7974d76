package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"TrendSentinel/internal/analyzer"
	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/recorder"
)

// Scheduler manages the cron-driven fetch cycles.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Logger    logrus.FieldLogger
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. Cron specs include a seconds field.
func NewScheduler(ctx context.Context, col *collector.Collector, n notifier.Notifier, rec recorder.Recorder, logger logrus.FieldLogger) *Scheduler {
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  n,
		Recorder:  rec,
		Logger:    logger,
		Ctx:       ctx,
	}
}

// RegisterAll registers the refresh task.
func (s *Scheduler) RegisterAll(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, func() {
		s.RunCycle(s.Ctx, "", model.TriggerScheduled)
	}); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunNow executes a cycle immediately (for RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.RunCycle(s.Ctx, "", model.TriggerStartup)
}

// RunCycle fetches symbol (the default when empty), journals the outcome and
// delivers either the trend report or the failure summary.
func (s *Scheduler) RunCycle(ctx context.Context, symbol string, trigger model.TriggerType) (model.TrendReport, error) {
	logger := s.Logger.WithField("trigger", trigger)
	logger.Info("running fetch cycle")

	cycle, err := s.Collector.Refresh(ctx, symbol)
	s.recordFetch(cycle, trigger, err)

	var noData *collector.NoDataError
	if errors.As(err, &noData) {
		s.trySend(ctx, notifier.FormatFetchFailure(noData.Symbol, noData.Results))
		return model.TrendReport{}, err
	}
	if err != nil {
		logger.WithError(err).Error("fetch cycle failed")
		return model.TrendReport{}, err
	}

	report, err := s.Collector.CycleReport(cycle)
	if err != nil {
		logger.WithError(err).Error("trend report")
		return model.TrendReport{}, err
	}
	if err := s.Recorder.RecordTrend(&recorder.TrendSnapshot{CycleID: cycle.ID, Report: report}); err != nil {
		logger.WithError(err).Error("record trend")
	}
	s.trySend(ctx, notifier.FormatTrendReport(report))
	return report, nil
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch fields[0] {
	case "/trend":
		report, err := s.Collector.TrendReport()
		if errors.Is(err, analyzer.ErrNoReport) {
			return "No trend report yet. Send /refresh to fetch data."
		}
		if err != nil {
			return fmt.Sprintf("trend report failed: %v", err)
		}
		return notifier.FormatTrendReport(report)
	case "/refresh":
		symbol := ""
		if len(fields) > 1 {
			symbol = strings.ToUpper(fields[1])
		}
		// RunCycle delivers its own report.
		_, _ = s.RunCycle(ctx, symbol, model.TriggerManual)
		return ""
	case "/series":
		snap, ok := s.Collector.State().Load()
		if !ok {
			return notifier.FormatSeriesSummary(s.Collector.Symbol(), nil, snap.FetchedAt)
		}
		return notifier.FormatSeriesSummary(snap.Symbol, snap.Series, snap.FetchedAt)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) recordFetch(cycle *collector.Cycle, trigger model.TriggerType, err error) {
	if cycle == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "no_data"
	}
	if recErr := s.Recorder.RecordFetch(&recorder.FetchEvent{
		CycleID:    cycle.ID,
		Symbol:     cycle.Symbol,
		Trigger:    trigger,
		Status:     status,
		Bars:       cycle.Series.Len(),
		StartedAt:  cycle.StartedAt,
		FinishedAt: cycle.FinishedAt,
		Results:    cycle.Results,
	}); recErr != nil {
		s.Logger.WithError(recErr).Error("record fetch cycle")
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		s.Logger.WithError(err).Error("send notification")
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"TrendSentinel/internal/api"
	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/config"
	"TrendSentinel/internal/logging"
	"TrendSentinel/internal/metrics"
	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/recorder"
	"TrendSentinel/internal/scheduler"
	"TrendSentinel/internal/state"
	"TrendSentinel/internal/transport"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("config validation")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	logger.WithFields(logrus.Fields{
		"symbol":    cfg.Symbol,
		"providers": cfg.Providers,
	}).Info("TrendSentinel starting...")

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Init transport
	httpClient, err := transport.NewHTTPClient(cfg.HTTPTimeout(), cfg.Proxy)
	if err != nil {
		logger.WithError(err).Fatal("init http client")
	}
	breakers := transport.NewBreakerRegistry(transport.BreakerConfig{
		MaxRequests:  cfg.Breaker.MaxRequests,
		Interval:     time.Duration(cfg.Breaker.IntervalSec) * time.Second,
		Timeout:      time.Duration(cfg.Breaker.TimeoutSec) * time.Second,
		MinRequests:  transport.DefaultBreakerConfig.MinRequests,
		FailureRatio: transport.DefaultBreakerConfig.FailureRatio,
	}, m, logging.WithComponent(logger, "breaker"))

	opts := []transport.Option{
		transport.WithHTTPClient(httpClient),
		transport.WithRetry(transport.RetryConfig{
			MaxRetries:     cfg.Transport.MaxRetries,
			InitialBackoff: time.Duration(cfg.Transport.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:     time.Duration(cfg.Transport.MaxBackoffMs) * time.Millisecond,
		}),
		transport.WithBreakers(breakers),
		transport.WithMetrics(m),
		transport.WithLogger(logging.WithComponent(logger, "transport")),
	}
	if cfg.Transport.UserAgent != "" {
		opts = append(opts, transport.WithUserAgent(cfg.Transport.UserAgent))
	}
	tr := transport.New(opts...)

	// Init collector
	registry, err := newSourceRegistry(cfg)
	if err != nil {
		logger.WithError(err).Fatal("init sources")
	}
	client := collector.NewClient(tr, registry,
		collector.WithProviderTimeout(cfg.ProviderTimeout()),
		collector.WithClientLogger(logging.WithComponent(logger, "client")),
		collector.WithClientMetrics(m),
	)
	col := collector.NewCollector(client, cfg.Symbol, cfg.Providers,
		collector.WithLogger(logging.WithComponent(logger, "collector")),
		collector.WithMetrics(m),
		collector.WithState(state.New()),
	)

	// Init recorder
	var rec recorder.Recorder
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logging.WithComponent(logger, "recorder"))
	if err != nil {
		logger.WithError(err).Warn("init sqlite recorder failed, using noop")
		rec = recorder.NewNoopRecorder()
	} else {
		rec = sr
		defer sr.Close()
	}

	// Init Telegram notifier
	var n notifier.Notifier = notifier.NoopNotifier{}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tgClient, err := transport.NewHTTPClient(30*time.Second, cfg.Proxy)
		if err != nil {
			logger.WithError(err).Fatal("init telegram client")
		}
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, tgClient, logging.WithComponent(logger, "telegram"))
		if cfg.Telegram.BaseURL != "" {
			tn.BaseURL = cfg.Telegram.BaseURL
		}
		n = tn
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, n, rec, logging.WithComponent(logger, "scheduler"))
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron); err != nil {
		logger.WithError(err).Fatal("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, executing fetch cycle now")
		go sched.RunNow()
	}

	// HTTP API
	handler := api.NewHandler(col, sched, breakers, logging.WithComponent(logger, "api"))
	requestTimeout := cfg.ProviderTimeout()*time.Duration(len(cfg.Providers)) + 10*time.Second
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(handler, reg, requestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
	}
	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("http server failed")
			cancel()
		}
	}()

	logger.Info("TrendSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	logger.Info("shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http server shutdown")
	}
	logger.Info("TrendSentinel stopped")
}

// newSourceRegistry builds every provider adapter from configuration.
// Sources without credentials are still registered and fail per cycle.
func newSourceRegistry(cfg *config.Config) (*collector.Registry, error) {
	av := collector.NewAlphaVantage(cfg.AlphaVantage.APIKey)
	if cfg.AlphaVantage.BaseURL != "" {
		av.BaseURL = cfg.AlphaVantage.BaseURL
	}
	av.OutputSize = cfg.AlphaVantage.OutputSize

	yahoo := collector.NewYahooFinance()
	if cfg.YahooFinance.BaseURL != "" {
		yahoo.BaseURL = cfg.YahooFinance.BaseURL
	}
	yahoo.Range = cfg.YahooFinance.Range

	vs := collector.NewVsTrader(cfg.VsTrader.BaseURL, cfg.VsTrader.APIKey, cfg.VsTrader.Days)

	return collector.NewRegistry(av, yahoo, vs)
}

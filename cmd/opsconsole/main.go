package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/floodwatch/opsconsole/internal/adapter/httpapi"
	"github.com/floodwatch/opsconsole/internal/adapter/inference"
	kafkaadapter "github.com/floodwatch/opsconsole/internal/adapter/kafka"
	"github.com/floodwatch/opsconsole/internal/config"
	"github.com/floodwatch/opsconsole/internal/monitor"
	"github.com/floodwatch/opsconsole/internal/observability"
	"github.com/floodwatch/opsconsole/internal/orchestrator"
	"github.com/floodwatch/opsconsole/internal/selector"
)

func main() {
	// A missing .env is fine; the environment may be set by the supervisor.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Error tracking (feature-flagged via SENTRY_DSN).
	sentryEnabled := cfg.SentryDSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			logger.Error("sentry init failed", "error", err)
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
		logger.Info("sentry error tracking enabled")
	}

	backend := inference.NewClient(cfg.BackendURL, cfg.RequestTimeout, logger, metrics)

	// Operation event publishing (feature-flagged via KAFKA_BROKERS).
	var events orchestrator.EventSink
	var writer *kafkaadapter.Writer
	if cfg.EventsEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		events = writer
		logger.Info("operation event publishing enabled", "topic", cfg.KafkaEventsTopic)
	} else {
		logger.Info("operation event publishing disabled")
	}

	sel := selector.New(logger)
	orch := orchestrator.New(backend, events, clock, logger, metrics, cfg.RequestTimeout)
	mon := monitor.New(backend, clock, cfg.ProbeInterval, cfg.ProbeTimeout, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, sel, orch, mon, clock, logger, httpapi.Options{
		CORSOrigins: cfg.CORSOrigins,
		Sentry:      sentryEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := mon.Run(ctx); err != nil {
			logger.Error("connectivity monitor error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

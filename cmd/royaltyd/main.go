package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/royaltylab/royalty-report-service/internal/adapter/httpapi"
	kafkaadapter "github.com/royaltylab/royalty-report-service/internal/adapter/kafka"
	"github.com/royaltylab/royalty-report-service/internal/config"
	"github.com/royaltylab/royalty-report-service/internal/observability"
	"github.com/royaltylab/royalty-report-service/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Initialize the canonical-record sink (feature-flagged via
	// KAFKA_SINK_ENABLED / KAFKA_SINK_TOPIC).
	var publisher httpapi.RecordPublisher
	var sink *kafkaadapter.Writer
	if cfg.SinkEnabled {
		sink = kafkaadapter.NewWriter(cfg, logger)
		publisher = sink
		metrics.SinkEnabled.Set(1)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka sink disabled")
	}

	store := session.NewStore(cfg.SessionTTL, nil)

	srv := httpapi.NewServer(cfg, store, publisher, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Expire idle sessions in the background.
	go store.Sweep(ctx, cfg.SweepInterval, func(dropped int) {
		metrics.SessionsExpired.Add(float64(dropped))
		metrics.ActiveSessions.Set(float64(store.Len()))
		logger.Info("expired idle sessions", "dropped", dropped)
	})

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	store.Close()
	if sink != nil {
		if err := sink.Close(); err != nil {
			logger.Error("kafka sink close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

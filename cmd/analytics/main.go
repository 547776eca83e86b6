package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/lepto-analytics/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/lepto-analytics/internal/adapter/kafka"
	"github.com/couchcryptid/lepto-analytics/internal/adapter/source"
	"github.com/couchcryptid/lepto-analytics/internal/analytics"
	"github.com/couchcryptid/lepto-analytics/internal/config"
	"github.com/couchcryptid/lepto-analytics/internal/domain"
	"github.com/couchcryptid/lepto-analytics/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ds, err := source.Load(cfg.DataPath, cfg.Covariates)
	if err != nil {
		logger.Error("failed to load dataset", "path", cfg.DataPath, "error", err)
		os.Exit(1)
	}
	logger.Info("dataset loaded",
		"path", cfg.DataPath,
		"rows", ds.Len(),
		"cities", len(ds.Cities()),
		"covariates", ds.Covariates(),
	)

	// The summary table is optional; without it /summary answers 404.
	var summaries domain.CitySummaries
	if cfg.CitySummaryPath != "" {
		summaries, err = source.LoadCitySummaries(cfg.CitySummaryPath)
		if err != nil {
			logger.Error("failed to load city summaries", "path", cfg.CitySummaryPath, "error", err)
			os.Exit(1)
		}
		logger.Info("city summaries loaded", "path", cfg.CitySummaryPath, "cities", len(summaries))
	}

	svc := analytics.New(ds, analytics.Options{
		Summaries:        summaries,
		StrictCities:     cfg.StrictCities,
		PeakMonths:       cfg.PeakMonths,
		OverlayCacheSize: cfg.OverlayCacheSize,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Publish reports (feature-flagged via REPORT_PUBLISH_ENABLED).
	var writer *kafkaadapter.ReportWriter
	if cfg.ReportPublishEnabled {
		writer = kafkaadapter.NewReportWriter(cfg, logger)
		go func() {
			if err := svc.PublishAll(ctx, writer); err != nil {
				logger.Error("report publishing failed", "topic", cfg.KafkaReportTopic, "error", err)
			}
		}()
	} else {
		logger.Info("report publishing disabled")
	}

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

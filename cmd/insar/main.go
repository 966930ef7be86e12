// Command insar runs the synthetic InSAR deformation pipeline once: generate
// a scene, build features, train the deformation model, flag anomalous
// residuals, and optionally publish the final record table to Kafka. Health
// and metrics endpoints are served for the lifetime of the process.
//
// Usage:
//
//	SIZE=500 TIME_STEPS=10 go run ./cmd/insar
//	KAFKA_ENABLED=true KAFKA_BROKERS=localhost:9092 go run ./cmd/insar -serve
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/insar-sim/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/insar-sim/internal/adapter/kafka"
	"github.com/couchcryptid/insar-sim/internal/anomaly"
	"github.com/couchcryptid/insar-sim/internal/config"
	"github.com/couchcryptid/insar-sim/internal/features"
	"github.com/couchcryptid/insar-sim/internal/model"
	"github.com/couchcryptid/insar-sim/internal/observability"
	"github.com/couchcryptid/insar-sim/internal/pipeline"
	"github.com/couchcryptid/insar-sim/internal/synth"
)

func main() {
	serve := flag.Bool("serve", false, "keep serving health and metrics after the run until signalled")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	trainer := model.NewTrainer(cfg.Seed)
	trainer.TestFraction = cfg.TestFraction
	if len(cfg.Features) > 0 {
		trainer.FeatureNames = cfg.Features
	}

	p := pipeline.New(
		synth.New(cfg.Size, cfg.TimeSteps, cfg.NoiseLevel, cfg.Seed),
		features.NewBuilder(),
		trainer,
		anomaly.NewDetector(cfg.Contamination),
		logger,
		metrics,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	set, result, err := p.Run(ctx)
	if err != nil {
		logger.Error("pipeline run failed", "error", err)
		shutdown(cfg, srv, logger)
		os.Exit(1)
	}

	logger.Info("pipeline run complete",
		"records", set.Len(),
		"mse", result.Evaluation.MSE,
		"anomalies", result.AnomalyCount,
		"duration", result.CompletedAt.Sub(result.StartedAt),
	)

	if cfg.KafkaEnabled {
		runID := fmt.Sprintf("run-%s", result.StartedAt.UTC().Format("20060102T150405.000Z0700"))
		writer := kafkaadapter.NewWriter(cfg, logger)
		if err := writer.PublishRecords(ctx, runID, set); err != nil {
			logger.Error("publish records failed", "error", err)
		} else {
			metrics.RecordsPublished.Add(float64(set.Len()))
		}
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	if *serve {
		<-ctx.Done()
		logger.Info("shutting down")
	}

	shutdown(cfg, srv, logger)
}

func shutdown(cfg *config.Config, srv *httpadapter.Server, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

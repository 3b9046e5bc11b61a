// Command surge runs the surge forecasting service: a Kafka pipeline that turns
// prediction requests into surge reports, alongside the HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/surge-forecast-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/surge-forecast-service/internal/adapter/kafka"
	"github.com/couchcryptid/surge-forecast-service/internal/config"
	"github.com/couchcryptid/surge-forecast-service/internal/observability"
	"github.com/couchcryptid/surge-forecast-service/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	params, err := config.LoadParams(cfg.ModelParamsFile)
	if err != nil {
		logger.Error("failed to load model params", "error", err)
		os.Exit(1)
	}
	if cfg.ModelParamsFile != "" {
		logger.Info("model params loaded", "file", cfg.ModelParamsFile)
	}

	engine := pipeline.NewEngine(params,
		pipeline.WithForecastDays(cfg.ForecastDays),
		pipeline.WithMetrics(metrics),
	)
	if err := engine.Validate(); err != nil {
		logger.Error("invalid forecast config", "error", err)
		os.Exit(1)
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(engine, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	var api httpadapter.SurgeService
	if cfg.APIEnabled {
		api = engine
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, api, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return p.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}

	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

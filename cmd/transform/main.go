package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/radar-transform-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/radar-transform-service/internal/adapter/kafka"
	"github.com/couchcryptid/radar-transform-service/internal/catalog"
	"github.com/couchcryptid/radar-transform-service/internal/config"
	"github.com/couchcryptid/radar-transform-service/internal/observability"
	"github.com/couchcryptid/radar-transform-service/internal/pipeline"
	"github.com/couchcryptid/radar-transform-service/internal/projection"
	"github.com/couchcryptid/radar-transform-service/internal/transform"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	logger.Info("catalog loaded",
		"path", cfg.CatalogPath,
		"areas", len(cat.AreaIDs()),
		"radars", len(cat.RadarIDs()),
		"projections", len(cat.ProjectionIDs()),
	)

	method, err := transform.ParseMethod(cfg.TransformMethod)
	if err != nil {
		logger.Error("invalid transform method", "error", err)
		os.Exit(1)
	}
	projections := projection.NewCachedTransformer(projection.Proj4{}, cfg.ProjectionCacheSize, metrics.ObserveProjectionCache)
	engine := transform.NewEngine(projections, logger)
	if err := engine.SetMethod(method); err != nil {
		logger.Error("invalid transform method", "error", err)
		os.Exit(1)
	}
	logger.Info("transform engine ready", "method", method.String(), "projection_cache_size", cfg.ProjectionCacheSize)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(cat, engine, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cat, method.String(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

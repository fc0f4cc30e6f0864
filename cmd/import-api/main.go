// Package main provides the product import API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/puehres/product-import/internal/blobstore"
	"github.com/puehres/product-import/internal/config"
	"github.com/puehres/product-import/internal/conflict"
	"github.com/puehres/product-import/internal/dedup"
	"github.com/puehres/product-import/internal/extract"
	"github.com/puehres/product-import/internal/ingest"
	"github.com/puehres/product-import/internal/observability"
	"github.com/puehres/product-import/internal/parse"
	"github.com/puehres/product-import/internal/storage"
	"github.com/puehres/product-import/internal/supplier"
)

func main() {
	godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "product-import-api",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("blob", cfg.Blob.Driver).
		Msg("Starting product import API")

	ctx := context.Background()

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := storage.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open blob store")
	}

	products := storage.NewProductRepository(db)
	batches := storage.NewBatchRepository(db)

	registry := supplier.DefaultRegistry()
	classifier := supplier.NewClassifier(registry, cfg.Classifier.MinConfidence, logger)
	detector := conflict.NewDetector(conflict.Config{
		PriceThreshold:          cfg.Conflict.PriceThreshold,
		NameSimilarityThreshold: cfg.Conflict.NameSimilarityThreshold,
	})
	engine := dedup.NewEngine(products, detector, logger)

	pipeline := ingest.NewPipeline(
		extract.NewPDFExtractor(),
		classifier,
		parse.DefaultRegistry(),
		engine,
		blobs,
		batches,
		logger,
	)

	router := NewRouter(cfg, logger, pipeline, registry, products, batches)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

func newBlobStore(cfg *config.Config) (blobstore.Store, error) {
	switch cfg.Blob.Driver {
	case "fs":
		return blobstore.NewFSStore(cfg.Blob.FS.Root)
	case "redis":
		return blobstore.NewRedisStore(blobstore.RedisConfig{
			Addr:     cfg.Blob.Redis.Addr,
			Password: cfg.Blob.Redis.Password,
			DB:       cfg.Blob.Redis.DB,
			PoolSize: cfg.Blob.Redis.PoolSize,
			TTL:      cfg.Blob.Redis.TTL,
		})
	case "memory":
		return blobstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported blob driver: %s", cfg.Blob.Driver)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/raggate/internal/config"
	"github.com/kailas-cloud/raggate/internal/domain"
	logpkg "github.com/kailas-cloud/raggate/internal/logger"
	"github.com/kailas-cloud/raggate/internal/metrics"
	"github.com/kailas-cloud/raggate/internal/provider"
	chiTransport "github.com/kailas-cloud/raggate/internal/transport/chi"
	"github.com/kailas-cloud/raggate/internal/usecase/generation"
	"github.com/kailas-cloud/raggate/internal/usecase/guardrail"
	healthuc "github.com/kailas-cloud/raggate/internal/usecase/health"
	"github.com/kailas-cloud/raggate/internal/usecase/ingest"
	"github.com/kailas-cloud/raggate/internal/usecase/pipeline"
	"github.com/kailas-cloud/raggate/internal/usecase/response"
	"github.com/kailas-cloud/raggate/internal/usecase/retrieval"
	"github.com/kailas-cloud/raggate/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting raggate API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTPPort()),
		zap.String("embedding", cfg.Providers.Embedding),
		zap.String("generation", cfg.Providers.Generation),
		zap.String("vector_index", cfg.Providers.VectorIndex),
	)

	// Register metrics explicitly (no init())
	metrics.Register()

	ctx := context.Background()
	registry := provider.Builtin(cfg, logger)
	defer registry.Close()

	index, err := registry.VectorIndex(ctx, cfg.Providers.VectorIndex)
	if err != nil {
		logger.Fatal("Vector index unavailable", zap.Error(err))
	}
	embedder, err := registry.Embedding(ctx, cfg.Providers.Embedding)
	if err != nil {
		logger.Fatal("Embedding provider unavailable", zap.Error(err))
	}
	logger.Info("Providers ready",
		zap.String("vector_index", cfg.Providers.VectorIndex),
		zap.String("embedding", cfg.Providers.Embedding),
		zap.Int("dimensions", embedder.Dimension()),
	)

	engine := guardrail.NewEngine(guardrail.Config{
		InputValidation:    config.On(cfg.Guardrails.InputValidation),
		InjectionDetection: config.On(cfg.Guardrails.InjectionDetection),
		OutputValidation:   config.On(cfg.Guardrails.OutputValidation),
		StrictMode:         config.On(cfg.Guardrails.StrictMode),
		Logging:            config.On(cfg.Guardrails.Logging),
		MinLength:          cfg.Query.MinLength,
		MaxLength:          cfg.Query.MaxLength,
		LeakMarkers:        generation.LeakMarkers,
	}, logger)

	// The generator is resolved on first use so /health can tell whether it was built.
	generatorName := cfg.Providers.Generation
	answers := generation.New(func(ctx context.Context) (domain.Generator, error) {
		return registry.Generator(ctx, generatorName)
	}, logger)

	queries := pipeline.New(pipeline.Deps{
		Guard:              engine,
		Bounds:             engine.InputBounds(),
		Retriever:          retrieval.New(embedder, index, cfg.Retrieval.DefaultK, logger),
		Generator:          answers,
		Formatter:          response.Formatter{},
		InputValidation:    engine.Config().InputValidation,
		Generation:         registry,
		GenerationProvider: generatorName,
		GenerationModel:    provider.GenerationModel(cfg, generatorName),
		Logger:             logger,
	})

	ingestSvc := ingest.New(embedder, index, ingest.Options{
		BatchSize: cfg.Ingest.BatchSize,
		MaxItems:  cfg.Ingest.MaxItems,
	}, logger)

	var pinger healthuc.Pinger
	if p, ok := index.(healthuc.Pinger); ok {
		pinger = p
	}
	var embChecker healthuc.EmbeddingChecker
	if c, ok := embedder.(healthuc.EmbeddingChecker); ok {
		embChecker = c
	}
	healthSvc := healthuc.New(pinger, embChecker, queries)

	server := chiTransport.NewServer(queries, ingestSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort())
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

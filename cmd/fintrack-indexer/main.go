package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/assistant"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	// Load .env for local development; absent in containers.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting fintrack-indexer")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open record store", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	vectors, err := assistant.NewVectorStore(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection)
	if err != nil {
		logger.Error("Failed to connect to Qdrant", applog.FieldError, err)
		os.Exit(1)
	}
	defer vectors.Close()

	embedder := assistant.NewOllamaClient(cfg.OllamaURL, cfg.OllamaEmbedModel)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The collection dimension follows the embedding model; probe once at
	// startup so first-run deployments do not race the first upsert.
	dim, err := probeDimension(ctx, embedder)
	if err != nil {
		logger.Error("Failed to probe embedding dimension", applog.FieldError, err)
		os.Exit(1)
	}
	if err := vectors.EnsureCollection(ctx, dim); err != nil {
		logger.Error("Failed to ensure collection", applog.FieldError, err)
		os.Exit(1)
	}

	indexWorker := worker.NewIndexWorker(repo, embedder, vectors, amqpClient, cfg.IndexBatchSize, cfg.IndexInterval)

	// Catch up on anything ingested while the indexer was down.
	if err := indexWorker.Backfill(ctx); err != nil {
		logger.Error("Startup backfill failed", applog.FieldError, err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	if err := indexWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Indexer stopped with error", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Indexer stopped gracefully")
}

func probeDimension(ctx context.Context, embedder *assistant.OllamaClient) (uint64, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	vec, err := embedder.Embed(probeCtx, "dimension probe")
	if err != nil {
		return 0, err
	}
	return uint64(len(vec)), nil
}

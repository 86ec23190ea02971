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

	"fintrack/internal/amqp"
	"fintrack/internal/assistant"
	"fintrack/internal/config"
	"fintrack/internal/csvlog"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env for local development; absent in containers.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

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

	mirror, err := csvlog.New(cfg.CSVPath)
	if err != nil {
		logger.Error("Failed to open CSV mirror", applog.FieldError, err, "path", cfg.CSVPath)
		os.Exit(1)
	}

	// The broker is optional: without it transactions still land in SQLite
	// and the CSV mirror, only vector indexing lags until the backfill sweep.
	var publisher services.EventPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, transactions will be indexed by backfill only", applog.FieldError, err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	service := services.NewTransactionService(repo, mirror, publisher)

	chat := buildAssistant(cfg, logger)

	srv := apphttp.NewServer(":"+cfg.Port, repo, service, chat, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// buildAssistant wires the chat pipeline. Any missing piece disables the
// assistant instead of failing startup.
func buildAssistant(cfg *config.Config, logger *applog.Logger) apphttp.Assistant {
	if cfg.GroqAPIKey == "" {
		logger.Info("Assistant disabled - no GROQ_API_KEY provided")
		return nil
	}

	vectors, err := assistant.NewVectorStore(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection)
	if err != nil {
		logger.Warn("Assistant disabled - Qdrant unavailable", applog.FieldError, err)
		return nil
	}

	embedder := assistant.NewOllamaClient(cfg.OllamaURL, cfg.OllamaEmbedModel)
	if !embedder.IsConfigured() {
		logger.Warn("Assistant disabled - Ollama unreachable", "url", cfg.OllamaURL)
		return nil
	}

	groq := assistant.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel)
	web := assistant.NewSearchClient()

	logger.Info("Assistant enabled",
		"collection", cfg.QdrantCollection,
		"embed_model", cfg.OllamaEmbedModel,
		"chat_model", cfg.GroqModel)

	return assistant.New(embedder, vectors, groq, web, cfg.AssistantTopK)
}

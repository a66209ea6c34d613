package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shopgrove/concierge/internal/config"
	"github.com/shopgrove/concierge/internal/engine"
	"github.com/shopgrove/concierge/internal/extract"
	"github.com/shopgrove/concierge/internal/llm"
	"github.com/shopgrove/concierge/internal/server"
	"github.com/shopgrove/concierge/internal/session"
	"github.com/shopgrove/concierge/internal/storage"
	memorystore "github.com/shopgrove/concierge/internal/storage/memory"
	sqlitestore "github.com/shopgrove/concierge/internal/storage/sqlite"
	"github.com/shopgrove/concierge/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("CONCIERGE_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	shutdown, err := telemetry.InitTracer("concierge", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	store, err := newStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	sessions := session.NewManager(store, logger)

	opts := []engine.Option{
		engine.WithMaxQuestions(cfg.Interview.MaxQuestions),
		engine.WithLLMTimeout(cfg.LLM.Timeout),
	}
	if cfg.LLM.APIKey != "" {
		client := llm.NewClient(cfg.LLM.APIKey,
			llm.WithBaseURL(cfg.LLM.BaseURL),
			llm.WithModel(cfg.LLM.Model))
		extractor := extract.NewConversationalExtractor(client, logger,
			extract.WithTokenBudget(cfg.LLM.PromptTokenBudget))
		opts = append(opts, engine.WithExtractor(extractor))
	} else {
		logger.Info("no LLM api key configured, running regex-only extraction")
	}

	eng := engine.New(sessions, logger, opts...)

	srv := server.New(cfg.Server.Port, cfg.Server.RequestTimeout, logger)
	server.NewHandler(eng, sessions, logger).Mount(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	case sig := <-sigCh:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}
}

func newStore(cfg *config.Config, logger *slog.Logger) (storage.SessionStore, error) {
	switch cfg.Storage.Type {
	case "sqlite":
		logger.Info("using sqlite session store", slog.String("path", cfg.Storage.SQLite.Path))
		return sqlitestore.New(cfg.Storage.SQLite.Path)
	default:
		logger.Info("using in-memory session store")
		return memorystore.New(cfg.Storage.SessionTTL), nil
	}
}

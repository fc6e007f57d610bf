package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trading-contest/config"
	"trading-contest/internal/api"
	"trading-contest/internal/app"
	"trading-contest/observability"
	"trading-contest/repository"
	"trading-contest/services"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		observability.Info("no .env file found, using environment variables")
	}

	observability.InitLogger(os.Getenv("APP_ENV") == "production")
	observability.InitMetrics()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()

	// Initialize store: Postgres when configured, in-memory otherwise.
	var store repository.Store
	if cfg.HasDatabase() {
		repo, err := repository.NewRepository(ctx, cfg.Database.URL)
		if err != nil {
			observability.Fatal("failed to connect to database", "error", err)
		}
		if err := repo.Migrate(ctx); err != nil {
			observability.Fatal("failed to run migrations", "error", err)
		}
		store = repo
		observability.Info("connected to postgres")
	} else {
		store = repository.NewMemoryStore()
		observability.Warn("DATABASE_URL not set, using in-memory store; state is lost on restart")
	}

	// Screenshot extraction backend (optional)
	var extractor services.Extractor
	switch cfg.Extraction.Provider {
	case config.ProviderOpenAI:
		if cfg.HasOpenAI() {
			extractor, err = services.NewOpenAIExtractor(cfg)
			if err != nil {
				observability.Warn("failed to initialize OpenAI extractor, extraction disabled", "error", err)
				extractor = nil
			}
		} else {
			observability.Warn("OPENAI_API_KEY not set, screenshot extraction disabled")
		}
	case config.ProviderBedrock:
		extractor, err = services.NewBedrockExtractor(ctx, cfg.Bedrock.Region, cfg.Bedrock.ModelID, cfg.Bedrock.MaxTokens)
		if err != nil {
			observability.Warn("failed to initialize Bedrock extractor, extraction disabled", "error", err)
			extractor = nil
		}
	}

	// Payout provider (optional)
	var payer services.Payer
	if cfg.HasPayout() {
		payer = services.NewPayoutService(cfg.Payout.APIKey, cfg.Payout.APISecret, cfg.Payout.BaseURL)
	} else {
		observability.Warn("payout credentials not set, contests complete without paying the winner")
	}

	application := app.New(cfg, store, extractor, payer)
	defer application.Shutdown(ctx)

	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.RequestTimeoutSec+5) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		observability.Fatal("http server failed", "error", err)
	case sig := <-stop:
		observability.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		observability.Error("graceful shutdown failed", "error", err)
	}
}

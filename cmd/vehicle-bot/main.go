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

	"vehicle-bot/internal/advisor"
	"vehicle-bot/internal/advisor/groq"
	advisormock "vehicle-bot/internal/advisor/mock"
	"vehicle-bot/internal/auth"
	"vehicle-bot/internal/config"
	"vehicle-bot/internal/db"
	httphandler "vehicle-bot/internal/http"
	"vehicle-bot/internal/http/middleware"
	"vehicle-bot/internal/logger"
	"vehicle-bot/internal/repository"
	"vehicle-bot/internal/risk"
	"vehicle-bot/internal/service"
	"vehicle-bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	rules, err := loadRules(cfg)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to load maintenance rules")
	}
	engine := risk.New(rules)

	var generator advisor.Generator
	if cfg.Advisor.APIKey != "" {
		generator, err = groq.New(groq.Config{
			APIKey:         cfg.Advisor.APIKey,
			BaseURL:        cfg.Advisor.BaseURL,
			Model:          cfg.Advisor.Model,
			MaxRetries:     cfg.Advisor.MaxRetries,
			RequestTimeout: cfg.Advisor.Timeout,
		}, appLogger)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to initialize advisor")
		}
	} else {
		appLogger.Warn().Msg("no advisor API key configured, using canned advisories")
		generator = advisormock.New()
	}

	diagRepo := repository.NewDiagnosisRepository(database)
	diagService := service.NewDiagnosisService(diagRepo, engine, generator, appLogger)

	// Photo storage is optional, the API degrades to 503 on uploads.
	photos, err := storage.NewR2ClientFromEnv()
	if err != nil && !errors.Is(err, storage.ErrNotConfigured) {
		appLogger.Fatal().Err(err).Msg("failed to initialize R2 client")
	}
	if err != nil {
		appLogger.Warn().Msg("R2 storage not configured, photo uploads will be disabled")
		photos = nil
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(diagService, rules, cfg, appLogger, photos)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, database, appLogger)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting vehicle diagnostics service")

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error().Err(err).Msg("failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server exited")
}

func loadRules(cfg *config.Config) (*risk.RuleSet, error) {
	if cfg.RulesPath != "" {
		return risk.LoadRulesFile(cfg.RulesPath)
	}
	return risk.LoadDefaultRules()
}

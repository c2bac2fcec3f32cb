package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menud/internal/common"
	"menud/internal/export"
	"menud/internal/extract"
	"menud/internal/llm/anthropic"
	"menud/internal/pipeline"
	"menud/internal/repository"
	"menud/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	if err := repository.EnsureSchema(ctx, pool, logger); err != nil {
		logger.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	var ocr extract.ImageOCR
	if cfg.OCR.Enabled {
		visionOCR, err := extract.NewVisionOCR(ctx, extract.VisionConfig{
			CredentialsFile: cfg.OCR.CredentialsFile,
			Timeout:         cfg.OCR.Timeout,
		}, logger)
		if err != nil {
			logger.Error("vision ocr setup failed", "error", err)
			os.Exit(1)
		}
		defer visionOCR.Close()
		ocr = visionOCR
	} else {
		logger.Info("image ocr disabled, scanned documents will be rejected")
		ocr = extract.UnavailableOCR{}
	}

	structurer := anthropic.NewClient(anthropic.Config{
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, logger)

	menusRepo := repository.NewMenuRepository(pool, logger)
	analyticsRepo := repository.NewAnalyticsRepository(pool, logger)
	exporter := export.NewService(menusRepo, logger)

	processor := pipeline.NewProcessor(
		extract.NewPDFExtractor(logger),
		ocr,
		structurer,
		menusRepo,
		cfg.Upload.ScratchDir,
		logger,
	)

	handlers := server.NewHandlers(processor, analyticsRepo, exporter, pool, cfg.Upload.MaxSizeBytes, logger)
	router := server.NewRouter(handlers, logger)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("shutdown complete")
}

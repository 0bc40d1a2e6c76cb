package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/age-of-ai-chess/internal/appbuilder"
	appcfg "github.com/park285/age-of-ai-chess/internal/config"
	"github.com/park285/age-of-ai-chess/internal/obslog"
)

const sweepInterval = time.Minute

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := obslog.InitFromEnv()
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	deps, err := appbuilder.New(cfg, logger)
	if err != nil {
		logger.Fatal("app init error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go deps.Sessions.Run(ctx, sweepInterval)

	errCh := make(chan error, 2)
	go func() { errCh <- deps.HTTP.ListenAndServe(cfg.HTTPAddr) }()
	if deps.Live != nil {
		go func() { errCh <- deps.Live.ListenAndServe(cfg.LiveAddr) }()
	}
	logger.Info("agechess started",
		zap.String("http", cfg.HTTPAddr),
		zap.String("live", cfg.LiveAddr),
		zap.String("theme", deps.Themes.Default().ID),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("listener stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := deps.HTTP.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if deps.Live != nil {
		if err := deps.Live.Shutdown(shutdownCtx); err != nil {
			logger.Warn("live shutdown", zap.Error(err))
		}
	}
	// cancels every pending automated reply
	deps.Sessions.Close()
}

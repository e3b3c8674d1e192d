package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pepperwatch/internal/config"
	"pepperwatch/internal/forecast"
	"pepperwatch/internal/httpapi"
	"pepperwatch/internal/market"
	"pepperwatch/internal/util"
	"pepperwatch/pkg/pepper"
)

func main() {
	// Load config.
	cfgPath := "config/pepperwatch.yaml"
	if p := os.Getenv("PEPPER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	client := pepper.NewClient(cfg.Backend.BaseURL, pepper.WithTimeout(cfg.Backend.Timeout()))
	orch := market.New(client, logger)
	srv := httpapi.NewServer(orch, forecast.SystemClock{}, cfg.Views, cfg.Forecast.MaxDaysAhead, logger)

	httpServer := &http.Server{
		Addr:    cfg.Gateway.Addr(),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("gateway listening", "addr", httpServer.Addr, "backend", cfg.Backend.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down gateway")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// Package main is the entry point for the stock accounting API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodprod/internal/app"
	"foodprod/internal/config"
	v1 "foodprod/internal/infrastructure/http/v1"
	"foodprod/internal/infrastructure/http/v1/handlers"
	"foodprod/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
		Service:     "foodprod-server",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting foodprod server",
		"storage", cfg.StorageDriver,
		"lock", cfg.LockDriver,
	)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	// A nil *Pool must not become a non-nil Pinger.
	var db handlers.Pinger
	if a.Pool != nil {
		db = a.Pool
	}

	router := v1.NewRouter(v1.RouterConfig{
		Logger:        log,
		StockService:  a.StockService,
		History:       a.History,
		Reconciler:    a.Reconciler,
		Resolver:      a.Resolver,
		DB:            db,
		StorageDriver: cfg.StorageDriver,
		Debug:         cfg.Development(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// Package main is the entry point for the stock reconciliation worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"foodprod/internal/app"
	"foodprod/internal/config"
	appctx "foodprod/internal/core/context"
	"foodprod/internal/domain/stock"
	"foodprod/internal/infrastructure/storage/postgres"
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
		Service:     "foodprod-worker",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Infow("starting reconciliation worker", "interval", cfg.ReconcileInterval)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	worker := NewReconcileWorker(a.Reconciler, a.Pool, cfg.ReconcileInterval, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// ReconcileWorker periodically compares stored balances with the ledger.
// It only reports; repairs are an explicit operator action.
type ReconcileWorker struct {
	reconciler *stock.Reconciler
	pool       *postgres.Pool
	interval   time.Duration
	log        *logger.Logger
}

func NewReconcileWorker(reconciler *stock.Reconciler, pool *postgres.Pool, interval time.Duration, log *logger.Logger) *ReconcileWorker {
	return &ReconcileWorker{
		reconciler: reconciler,
		pool:       pool,
		interval:   interval,
		log:        log.WithComponent("reconcile-worker"),
	}
}

// Run checks once immediately and then on every tick until ctx is done.
func (w *ReconcileWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.checkAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkAll(ctx)
		}
	}
}

func (w *ReconcileWorker) checkAll(ctx context.Context) {
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext(appctx.OriginWorker))
	log := w.log.WithContext(ctx)

	for _, stockType := range []stock.StockType{stock.TypeIngredient, stock.TypeProduct} {
		mismatches, err := w.reconciler.Check(ctx, stockType)
		if err != nil {
			if ctx.Err() == nil {
				log.Errorw("reconciliation failed", "stock_type", stockType, "error", err)
			}
			continue
		}

		for _, m := range mismatches {
			log.Warnw("stock balance drift",
				"stock_type", m.StockType,
				"stock_item_id", m.StockItemID,
				"name", m.Name,
				"stored", m.Stored,
				"ledger", m.Ledger,
				"drift", m.Drift(),
			)
		}
		log.Infow("reconciliation finished", "stock_type", stockType, "mismatches", len(mismatches))
	}

	if w.pool != nil {
		postgres.LogPoolStats(ctx, w.pool.Unwrap())
	}
}

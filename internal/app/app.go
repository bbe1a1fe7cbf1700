// Package app assembles storage, locking and the stock services from
// configuration. cmd/server and cmd/worker share it.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"foodprod/internal/config"
	corelock "foodprod/internal/core/lock"
	"foodprod/internal/core/tx"
	"foodprod/internal/domain/production"
	"foodprod/internal/domain/stock"
	"foodprod/internal/infrastructure/lock"
	"foodprod/internal/infrastructure/storage/memory"
	"foodprod/internal/infrastructure/storage/postgres"
	"foodprod/internal/infrastructure/storage/postgres/production_repo"
	"foodprod/internal/infrastructure/storage/postgres/stock_repo"
	"foodprod/pkg/logger"
)

// App holds the wired services and the resources that must be closed.
type App struct {
	StockService *stock.Service
	History      *stock.HistoryService
	Reconciler   *stock.Reconciler
	Resolver     *production.Resolver

	// Pool is nil for the memory driver.
	Pool *postgres.Pool
	// Memory is set only for the memory driver.
	Memory *memory.Store

	redis *redis.Client
}

// New connects storage and the locker and builds the services.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{}

	var (
		repo        stock.Repository
		txManager   tx.ReadOnlyManager
		composition production.CompositionReader
		balances    production.BalanceReader
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := memory.NewStore()
		if cfg.SeedDemoData {
			demo := store.SeedDemo()
			logger.Info(ctx, "demo data loaded", "work_order_id", demo.WorkOrder)
		}
		a.Memory = store
		repo, txManager, composition, balances = store, store, store, store

	default:
		poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
		poolCfg.MaxConns = int32(cfg.DBMaxConns)
		poolCfg.MinConns = int32(cfg.DBMinConns)

		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.Pool = pool

		txm := postgres.NewTxManager(pool)
		compositionRepo := production_repo.NewCompositionRepo(txm)
		repo, txManager = stock_repo.NewStockRepo(txm), txm
		composition, balances = compositionRepo, compositionRepo
	}

	locker, err := a.newLocker(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.StockService = stock.NewService(repo, txManager, locker)
	a.History = stock.NewHistoryService(repo)
	a.Reconciler = stock.NewReconciler(repo, txManager, locker)
	a.Resolver = production.NewResolver(composition, balances, a.History, txManager, production.ResolverOptions{
		ApplyCompoundQuantity: cfg.ApplyCompoundQuantity,
	})

	return a, nil
}

func (a *App) newLocker(ctx context.Context, cfg config.Config) (corelock.Locker, error) {
	if cfg.LockDriver != config.LockRedis {
		return lock.NewLocalLocker(), nil
	}

	redisCfg := lock.DefaultRedisConfig(cfg.RedisAddress)
	redisCfg.TTL = cfg.LockTTL

	locker, client, err := lock.NewRedisLocker(ctx, redisCfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.redis = client
	return locker, nil
}

// Close releases database and redis connections.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"foodprod/internal/domain/production"
	"foodprod/internal/domain/stock"
	"foodprod/internal/infrastructure/http/v1/handlers"
	"foodprod/internal/infrastructure/http/v1/middleware"
	"foodprod/pkg/logger"
)

// RouterConfig holds the services the API exposes.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Stock core
	StockService *stock.Service
	History      *stock.HistoryService
	Reconciler   *stock.Reconciler
	Resolver     *production.Resolver

	// DB is pinged by the readiness check; nil for the memory driver
	DB            handlers.Pinger
	StorageDriver string

	// Debug enables gin debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.StorageDriver)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	{
		stockGroup := v1.Group("/stock")
		handlers.NewStockHandler(base, cfg.StockService, cfg.History).RegisterRoutes(stockGroup)
		handlers.NewReconciliationHandler(base, cfg.Reconciler).RegisterRoutes(stockGroup.Group("/reconciliation"))

		handlers.NewRequirementHandler(base, cfg.Resolver).RegisterRoutes(v1.Group("/work-orders"))
	}

	return router
}

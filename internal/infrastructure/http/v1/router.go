// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"loomledger/internal/domain/catalogs/party"
	"loomledger/internal/domain/catalogs/yarn"
	"loomledger/internal/domain/costing"
	"loomledger/internal/domain/ledger"
	"loomledger/internal/domain/registry"
	"loomledger/internal/domain/reports"
	"loomledger/internal/domain/shortage"
	"loomledger/internal/domain/status"
	"loomledger/internal/domain/stock"
	"loomledger/internal/infrastructure/http/v1/handlers"
	"loomledger/internal/infrastructure/http/v1/middleware"
	"loomledger/internal/infrastructure/storage/postgres"
	"loomledger/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	Parties  *party.Service
	Yarn     *yarn.Service
	Registry *registry.Service
	Ledger   *ledger.Service
	Status   *status.Engine
	Stock    *stock.Service
	Shortage *shortage.Service
	Costing  *costing.Service
	Reports  *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	partyHandler := handlers.NewPartyHandler(cfg.Parties)
	yarnHandler := handlers.NewYarnHandler(cfg.Yarn)
	registryHandler := handlers.NewRegistryHandler(cfg.Registry)
	ledgerHandler := handlers.NewLedgerHandler(cfg.Ledger, cfg.Registry)
	statusHandler := handlers.NewStatusHandler(cfg.Status)
	stockHandler := handlers.NewStockHandler(cfg.Stock)
	shortageHandler := handlers.NewShortageHandler(cfg.Shortage)
	costingHandler := handlers.NewCostingHandler(cfg.Costing)
	reportsHandler := handlers.NewReportsHandler(cfg.Reports)

	api := router.Group("/api/v1")
	{
		// Masters
		api.POST("/parties", partyHandler.Create)
		api.GET("/parties", partyHandler.List)
		api.GET("/parties/:id", partyHandler.Get)
		api.PUT("/parties/:id", partyHandler.Update)
		api.DELETE("/parties/:id", partyHandler.Delete)

		api.POST("/yarn-types", yarnHandler.Create)
		api.GET("/yarn-types", yarnHandler.List)
		api.DELETE("/yarn-types/:id", yarnHandler.Delete)

		// Registry
		api.POST("/batches", registryHandler.CreateBatch)
		api.GET("/batches", registryHandler.ListBatches)
		api.GET("/batches/:ref", registryHandler.GetBatch)
		api.GET("/batches/:ref/lots", registryHandler.ListLots)
		api.POST("/batches/:ref/lots", registryHandler.AddLot)
		// Lot numbers contain a slash, so lot routes take a wildcard.
		api.GET("/lots/*lotNo", registryHandler.GetLot)
		api.PUT("/lot-weights/*lotNo", registryHandler.UpdateLotWeight)

		// Ledger
		api.POST("/purchases", ledgerHandler.CreatePurchase)
		api.GET("/purchases", ledgerHandler.ListPurchases)
		api.PUT("/purchases/:id", ledgerHandler.UpdatePurchase)
		api.DELETE("/purchases/:id", ledgerHandler.DeletePurchase)

		api.POST("/dyeing-returns", ledgerHandler.CreateReturn)
		api.GET("/dyeing-returns", ledgerHandler.ListReturns)
		api.PUT("/dyeing-returns/:id", ledgerHandler.UpdateReturn)
		api.DELETE("/dyeing-returns/:id", ledgerHandler.DeleteReturn)

		// Derivation
		api.GET("/status/batches/:ref", statusHandler.BatchStatus)
		api.GET("/status/lots/*lotNo", statusHandler.LotStatus)
		api.POST("/status/recompute", statusHandler.Recompute)

		api.GET("/stock/:holder", stockHandler.Summary)
		api.GET("/shortages/:dyeingUnit", shortageHandler.Report)
		api.GET("/costing/batches/:ref", costingHandler.NetPrice)
		api.GET("/reports/purchases", reportsHandler.Journal)
	}

	return router
}

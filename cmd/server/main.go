// Package main is the entry point for the loomledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loomledger/internal/core/config"
	"loomledger/internal/domain/catalogs/party"
	"loomledger/internal/domain/catalogs/yarn"
	"loomledger/internal/domain/costing"
	"loomledger/internal/domain/ledger"
	"loomledger/internal/domain/registry"
	"loomledger/internal/domain/reports"
	"loomledger/internal/domain/shortage"
	"loomledger/internal/domain/status"
	"loomledger/internal/domain/stock"
	v1 "loomledger/internal/infrastructure/http/v1"
	"loomledger/internal/infrastructure/storage/postgres"
	"loomledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting loomledger server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	if lifetime := getEnvDuration("DB_MAX_CONN_LIFETIME", 0); lifetime > 0 {
		poolCfg.MaxConnLifetime = lifetime
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	txManager := postgres.NewTxManager(pool)

	auditor, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Repositories ---
	partyRepo := postgres.NewPartyRepo(txManager)
	yarnRepo := postgres.NewYarnRepo(txManager)
	registryRepo := postgres.NewRegistryRepo(txManager)
	ledgerRepo := postgres.NewLedgerRepo(txManager)

	// --- Derivation engine and domain services ---
	derivationCfg := config.DerivationFromEnv()
	log.Infow("derivation thresholds loaded",
		"completion_threshold", derivationCfg.CompletionThreshold,
		"pending_shortage_pct", derivationCfg.PendingShortagePct,
		"completed_shortage_pct", derivationCfg.CompletedShortagePct,
	)

	statusEngine := status.NewEngine(registryRepo, ledgerRepo, partyRepo, txManager, derivationCfg)

	partyService := party.NewService(partyRepo, statusEngine)
	yarnService := yarn.NewService(yarnRepo)
	registryService := registry.NewService(registryRepo, txManager, statusEngine)
	ledgerService := ledger.NewService(ledgerRepo, partyRepo, registryRepo, statusEngine, auditor, txManager)

	stockService := stock.NewService(ledgerRepo)
	shortageService := shortage.NewService(ledgerRepo, registryRepo, partyRepo, derivationCfg)
	costingService := costing.NewService(ledgerRepo, registryRepo, partyRepo, derivationCfg)
	reportsService := reports.NewService(ledgerRepo)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:     pool,
		Logger:   log,
		Parties:  partyService,
		Yarn:     yarnService,
		Registry: registryService,
		Ledger:   ledgerService,
		Status:   statusEngine,
		Stock:    stockService,
		Shortage: shortageService,
		Costing:  costingService,
		Reports:  reportsService,
	})

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
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
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the reference trade ledger backend. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment / .env)
  2. Initialize structured logging
  3. Initialize SQLite store
  4. Seed the commodity catalog when the database is empty
  5. Configure HTTP router
  6. Start server with graceful shutdown

CONFIGURATION:
  PORT              HTTP server port (default: 8080)
  DATABASE_PATH     SQLite database path (default: ./trade.db)
                    Use ":memory:" for an in-memory database
  LOG_LEVEL         debug | info | warn | error (default: info)
  BALANCE_EPSILON   Double-entry tolerance (default: 0.01)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  DATABASE_PATH="./data/trade.db" ./server

  # Run with in-memory database
  DATABASE_PATH=":memory:" ./server

SEE ALSO:
  - server/server.go: Router configuration
  - server/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mazraa/trade-engine/config"
	"github.com/mazraa/trade-engine/factory"
	"github.com/mazraa/trade-engine/logger"
	"github.com/mazraa/trade-engine/server"
	"github.com/mazraa/trade-engine/store/sqlite"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	// Initialize store
	store, err := sqlite.New(config.Cfg.DatabasePath)
	if err != nil {
		logger.L.Error("failed to initialize database", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	// Seed the commodity catalog on first run
	if err := seedCatalog(context.Background(), store); err != nil {
		logger.L.Error("failed to seed catalog", "err", err)
		os.Exit(1)
	}

	// Initialize handler and router
	handler := server.NewHandler(store)
	handler.Epsilon = config.Cfg.BalanceEpsilon
	router := server.NewRouter(handler)

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", config.Cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.L.Info("server starting", "addr", fmt.Sprintf("http://localhost:%s", config.Cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.L.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.L.Error("server forced to shutdown", "err", err)
		os.Exit(1)
	}

	logger.L.Info("server stopped")
}

// seedCatalog loads the default commodity catalog when none exists yet.
func seedCatalog(ctx context.Context, store *sqlite.Store) error {
	existing, err := store.ListCommodities(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	commodities, err := factory.NewCommodityFactory().ParseCatalog(factory.DefaultCatalogJSON)
	if err != nil {
		return err
	}
	for _, c := range commodities {
		if err := store.UpsertCommodity(ctx, c); err != nil {
			return err
		}
	}
	logger.L.Info("seeded commodity catalog", "commodities", len(commodities))
	return nil
}

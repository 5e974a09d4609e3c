/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the shift earnings server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (config file, .env, environment)
  2. Apply command-line flag overrides
  3. Initialize SQLite store
  4. Create pending store, sweeper and API handler
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT, default 8080)
  -db      SQLite database path (overrides DB_PATH, default earnings.db)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  See config/config.go for PORT, DB_PATH, LOG_LEVEL, PENDING_TTL,
  PENDING_SWEEP_INTERVAL and CORS_ORIGINS.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the pending sweeper
  4. Close database connection

EXAMPLES:
  ./server -db="./data/earnings.db"
  ./server -db=":memory:" -port=3000
  LOG_LEVEL=debug ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/shift-earnings/api"
	"github.com/warp/shift-earnings/config"
	"github.com/warp/shift-earnings/pending"
	"github.com/warp/shift-earnings/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override configuration
	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logger := cfg.NewLogger()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Error("failed to initialize database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	pendingStore := pending.NewStore(cfg.PendingTTL)
	sweeper := api.NewPendingSweeper(pendingStore, logger)
	sweeper.Interval = cfg.PendingSweepInterval
	sweeper.Start()
	defer sweeper.Stop()

	handler := api.NewHandler(store, pendingStore, logger)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", "http://localhost:"+*port, "db", *dbPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}

	logger.Info("server stopped")
}

/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the bakery ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, BAKERY_* variables)
  2. Apply command-line flag overrides
  3. Build the zap logger
  4. Initialize SQLite store and seed distributor prices
  5. Create the bakery service and API handler
  6. Configure HTTP router
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -env     Path to a .env file (default: .env, missing is fine)
  -addr    Listen address, overrides BAKERY_ADDR
  -db      SQLite database path, overrides BAKERY_DB_PATH
           Use ":memory:" for in-memory database
  -demo    Mount the demo scenario routes, overrides BAKERY_DEMO

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/bakery.db"

  # Run with in-memory database and demo data routes
  ./server -db=":memory:" -demo

  # Run on different port
  ./server -addr=":3000"

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/alwafa/bakery-ledger/api"
	"github.com/alwafa/bakery-ledger/bakery"
	"github.com/alwafa/bakery-ledger/config"
	"github.com/alwafa/bakery-ledger/logger"
	"github.com/alwafa/bakery-ledger/store/sqlite"
)

func main() {
	// Flags
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	addr := flag.String("addr", "", "Listen address (overrides BAKERY_ADDR)")
	dbPath := flag.String("db", "", "SQLite database path (overrides BAKERY_DB_PATH)")
	demo := flag.Bool("demo", false, "Mount demo scenario routes (overrides BAKERY_DEMO)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		// no logger yet
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *demo {
		cfg.Demo = true
	}

	log := logger.Must(logger.New(cfg.LogLevel, cfg.LogFormat))
	defer log.Sync()

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer store.Close()

	if err := store.SeedDistributors(context.Background(), cfg.Distributors); err != nil {
		log.Fatal("failed to seed distributor prices", zap.Error(err))
	}

	normalize := bakery.ExactAccount
	if cfg.FoldAccountNames {
		normalize = bakery.NormalizeAccount
	}
	svc := bakery.NewService(store, bakery.Options{
		Distributors: cfg.Distributors,
		CashAccount:  cfg.CashAccount,
		OtherItems:   cfg.OtherItems,
		Normalizer:   normalize,
		Logger:       logger.Named(log, "bakery"),
	})

	// Initialize handler
	handler := api.NewHandler(svc, logger.Named(log, "api"))
	handler.Resetter = store

	// Create router
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins:  cfg.AllowedOrigins,
		ExportRateLimit: cfg.ExportRateLimit,
		Demo:            cfg.Demo,
		Logger:          logger.Named(log, "http"),
	})

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.Addr),
			zap.String("db", cfg.DBPath),
			zap.Bool("demo", cfg.Demo))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("server stopped")
}

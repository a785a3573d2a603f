package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fintrack/ledger-core/internal/api_gateway"
	"github.com/fintrack/ledger-core/internal/config"
	"github.com/fintrack/ledger-core/internal/data/postgres"
	"github.com/fintrack/ledger-core/internal/logger"
	"github.com/fintrack/ledger-core/internal/platform/locking"
	"github.com/fintrack/ledger-core/internal/platform/persistence"
	"github.com/fintrack/ledger-core/internal/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	idempotencyRepo := postgres.NewIdempotencyRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)

	// Initialize services
	accountService := service.NewAccountService(log, accountRepo)
	ledgerService := service.NewLedgerService(log, ledgerRepo, accountRepo)
	synchronizer := service.NewBalanceSynchronizer(log, accountRepo, ledgerRepo)
	idempotencyGate := service.NewIdempotencyService(log, idempotencyRepo, cfg.Idempotency.TTL, cfg.Idempotency.StaleAfter)
	transactionService := service.NewTransactionService(
		log,
		postgresDB,
		locking.SelectLocker(appCtx, postgresDB.Pool(), log),
		ledgerRepo,
		outboxRepo,
		synchronizer,
		idempotencyGate,
		service.DefaultRetryPolicy(),
	)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, accountService, ledgerService, transactionService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	} else {
		log.Info("Server shutdown completed successfully")
	}
}

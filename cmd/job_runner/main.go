package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fintrack/ledger-core/internal/config"
	"github.com/fintrack/ledger-core/internal/data/postgres"
	"github.com/fintrack/ledger-core/internal/jobs"
	"github.com/fintrack/ledger-core/internal/logger"
	"github.com/fintrack/ledger-core/internal/platform/locking"
	"github.com/fintrack/ledger-core/internal/platform/messaging/producers"
	"github.com/fintrack/ledger-core/internal/platform/persistence"
	"github.com/fintrack/ledger-core/internal/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("job_runner")
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

	// Initialize Kafka producer for outbox publishing
	eventProducer, err := producers.NewLedgerEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	idempotencyRepo := postgres.NewIdempotencyRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	recurringRepo := postgres.NewRecurringRepository(log, postgresDB)

	// Initialize the write workflow stack used by recurring schedules
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

	// Initialize jobs
	outboxJob := jobs.NewOutboxPublishJob(log, &cfg.Outbox, outboxRepo, eventProducer)
	recurringJob, err := jobs.NewRecurringTransactionsJob(log, &cfg.Jobs, recurringRepo, transactionService)
	if err != nil {
		log.Error("Failed to initialize recurring transactions job", "error", err)
		os.Exit(1)
	}
	reaperJob := jobs.NewIdempotencyReaperJob(log, idempotencyRepo)

	// Each job runs under a session-level lock so concurrent runner
	// instances never execute the same job twice.
	jobLocker := locking.SelectJobLocker(appCtx, postgresDB.Pool(), log)

	runners := []*jobs.Runner{
		jobs.NewRunner(log, outboxJob, jobLocker, cfg.Outbox.PollingInterval),
		jobs.NewRunner(log, recurringJob, jobLocker, cfg.Jobs.RecurringInterval),
		jobs.NewRunner(log, reaperJob, jobLocker, cfg.Jobs.ReaperInterval),
	}

	var wg sync.WaitGroup
	for _, r := range runners {
		wg.Add(1)
		go func(r *jobs.Runner) {
			defer wg.Done()
			r.Start(appCtx)
		}(r)
	}
	log.Info("Job runner started", "jobs", len(runners))

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info("Shutdown signal received")

	// Graceful shutdown sequence
	cancelAppCtx()
	wg.Wait()

	recurringJob.Shutdown()

	if err := eventProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	postgresDB.Close()

	log.Info("Job runner shutdown completed")
}

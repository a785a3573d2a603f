package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/fintrack/ledger-core/internal/config"
	"github.com/fintrack/ledger-core/internal/domain/idempotency"
	"github.com/fintrack/ledger-core/internal/domain/ledger"
	"github.com/fintrack/ledger-core/internal/domain/recurring"
	"github.com/fintrack/ledger-core/internal/service"
)

// RecurringTransactionsJob executes due schedules through the same
// idempotent write path as interactive requests. The occurrence key derived
// from the schedule and its due date guarantees at most one effective
// execution per occurrence, no matter how many workers pick it up.
type RecurringTransactionsJob struct {
	schedules    recurring.Repository
	transactions service.TransactionService
	pool         *ants.Pool
	batchSize    int
	logger       *slog.Logger
}

// NewRecurringTransactionsJob creates the job with its own worker pool.
func NewRecurringTransactionsJob(logger *slog.Logger, cfg *config.JobsConfig, schedules recurring.Repository, transactions service.TransactionService) (*RecurringTransactionsJob, error) {
	pool, err := ants.NewPool(cfg.WorkerPoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create recurring worker pool: %w", err)
	}

	return &RecurringTransactionsJob{
		schedules:    schedules,
		transactions: transactions,
		pool:         pool,
		batchSize:    cfg.RecurringBatchSize,
		logger:       logger,
	}, nil
}

func (j *RecurringTransactionsJob) Name() string {
	return "recurring_transactions"
}

// Run fans one batch of due schedules out to the worker pool and waits for
// all of them.
func (j *RecurringTransactionsJob) Run(ctx context.Context) error {
	now := time.Now().UTC()
	due, err := j.schedules.GetDue(ctx, now, j.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get due schedules: %w", err)
	}

	if len(due) == 0 {
		j.logger.Debug("No due recurring schedules found")
		return nil
	}

	j.logger.Info("Executing due recurring schedules", "count", len(due))

	var wg sync.WaitGroup
	for _, schedule := range due {
		schedule := schedule
		wg.Add(1)
		if err := j.pool.Submit(func() {
			defer wg.Done()
			j.executeSchedule(ctx, schedule, now)
		}); err != nil {
			wg.Done()
			j.logger.Error("Failed to submit schedule to worker pool", "schedule_id", schedule.ID.String(), "error", err)
		}
	}
	wg.Wait()

	return nil
}

// Shutdown releases the worker pool.
func (j *RecurringTransactionsJob) Shutdown() {
	j.logger.Info("Shutting down recurring worker pool", "running_workers", j.pool.Running())
	j.pool.Release()
}

func (j *RecurringTransactionsJob) executeSchedule(ctx context.Context, schedule *recurring.Schedule, now time.Time) {
	amount := schedule.Amount
	if schedule.Type == ledger.EntryTypeDebit {
		amount = amount.Neg()
	}

	outcome, err := j.transactions.Create(ctx, service.CreateParams{
		UserID:         schedule.UserID,
		AccountID:      schedule.AccountID,
		Amount:         amount,
		Type:           schedule.Type,
		IdempotencyKey: schedule.OccurrenceKey(),
	})
	switch {
	case err == nil:
		if outcome.Replayed {
			j.logger.Info("Recurring occurrence was already executed", "schedule_id", schedule.ID.String(), "occurrence_key", schedule.OccurrenceKey())
		} else {
			j.logger.Info("Executed recurring occurrence", "schedule_id", schedule.ID.String(), "occurrence_key", schedule.OccurrenceKey())
		}
	case errors.Is(err, idempotency.ErrConflict{}):
		// Another worker owns this occurrence right now. Advance the
		// schedule anyway; the occurrence runs at most once either way.
		j.logger.Info("Recurring occurrence in flight elsewhere", "schedule_id", schedule.ID.String(), "occurrence_key", schedule.OccurrenceKey())
	default:
		// Leave NextRunAt untouched so the next tick retries the occurrence.
		j.logger.Error("Failed to execute recurring occurrence", "schedule_id", schedule.ID.String(), "error", err)
		return
	}

	next := schedule.NextOccurrence(now)
	if err := j.schedules.Reschedule(ctx, schedule.ID, next); err != nil {
		j.logger.Error("Failed to reschedule recurring schedule", "schedule_id", schedule.ID.String(), "error", err)
	}
}

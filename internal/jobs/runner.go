// Package jobs contains the background loops that run beside the request
// path: publishing outbox events, executing due recurring transactions, and
// reaping expired idempotency records. Each loop guards its work with a
// session-scoped job lock so concurrent instances never run the same job
// twice.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/fintrack/ledger-core/internal/platform/locking"
)

// Job is one unit of periodic background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner ticks a job at a fixed interval. Every tick first takes the job's
// lock; an instance that loses the lock skips the tick instead of blocking.
type Runner struct {
	job      Job
	locker   locking.JobLocker
	interval time.Duration
	logger   *slog.Logger
}

// NewRunner creates a runner for the job.
func NewRunner(logger *slog.Logger, job Job, locker locking.JobLocker, interval time.Duration) *Runner {
	return &Runner{
		job:      job,
		locker:   locker,
		interval: interval,
		logger:   logger,
	}
}

// Start ticks until the context is canceled.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("Starting background job", "job", r.job.Name(), "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Background job stopping due to context cancellation", "job", r.job.Name())
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	acquired, err := r.locker.TryAcquire(ctx, r.job.Name())
	if err != nil {
		r.logger.Error("Failed to acquire job lock", "job", r.job.Name(), "error", err)
		return
	}
	if !acquired {
		r.logger.Debug("Job lock held elsewhere, skipping tick", "job", r.job.Name())
		return
	}
	defer func() {
		if err := r.locker.Release(ctx, r.job.Name()); err != nil {
			r.logger.Error("Failed to release job lock", "job", r.job.Name(), "error", err)
		}
	}()

	if err := r.job.Run(ctx); err != nil {
		r.logger.Error("Background job run failed", "job", r.job.Name(), "error", err)
	}
}

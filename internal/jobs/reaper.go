package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fintrack/ledger-core/internal/domain/idempotency"
)

// IdempotencyReaperJob deletes idempotency records past their expiry so the
// keys table stays bounded.
type IdempotencyReaperJob struct {
	records idempotency.Repository
	logger  *slog.Logger
}

// NewIdempotencyReaperJob creates the reaper job.
func NewIdempotencyReaperJob(logger *slog.Logger, records idempotency.Repository) *IdempotencyReaperJob {
	return &IdempotencyReaperJob{
		records: records,
		logger:  logger,
	}
}

func (j *IdempotencyReaperJob) Name() string {
	return "idempotency_reaper"
}

// Run deletes all expired records.
func (j *IdempotencyReaperJob) Run(ctx context.Context) error {
	deleted, err := j.records.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to reap expired idempotency records: %w", err)
	}

	if deleted > 0 {
		j.logger.Info("Reaped expired idempotency records", "count", deleted)
	}
	return nil
}

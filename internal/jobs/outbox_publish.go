package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fintrack/ledger-core/internal/config"
	"github.com/fintrack/ledger-core/internal/domain/outbox"
	"github.com/fintrack/ledger-core/internal/platform/messaging/producers"
)

// OutboxPublishJob drains pending outbox events to the event stream. Events
// that keep failing past the retry budget are parked as FAILED_TO_PUBLISH
// for operator attention instead of blocking the queue.
type OutboxPublishJob struct {
	outboxRepo       outbox.Repository
	publisher        producers.EventPublisher
	batchSize        int
	maxRetryAttempts int
	logger           *slog.Logger
}

// NewOutboxPublishJob creates the outbox publishing job.
func NewOutboxPublishJob(logger *slog.Logger, cfg *config.OutboxConfig, outboxRepo outbox.Repository, publisher producers.EventPublisher) *OutboxPublishJob {
	return &OutboxPublishJob{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
		logger:           logger,
	}
}

func (j *OutboxPublishJob) Name() string {
	return "outbox_publish"
}

// Run publishes one batch of pending events in FIFO order.
func (j *OutboxPublishJob) Run(ctx context.Context) error {
	events, err := j.outboxRepo.GetPending(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox events: %w", err)
	}

	if len(events) == 0 {
		j.logger.Debug("No pending outbox events found")
		return nil
	}

	j.logger.Info("Fetched pending outbox events", "count", len(events))

	for _, event := range events {
		if err := j.publisher.Publish(ctx, event.TransactionID.String(), event.Payload); err != nil {
			j.logger.Error("Failed to publish outbox event",
				"outbox_id", event.ID, "transaction_id", event.TransactionID, "current_attempts", event.Attempts, "error", err,
			)

			if errInc := j.outboxRepo.IncrementAttempts(ctx, event.ID); errInc != nil {
				j.logger.Error("Failed to increment attempts for outbox event", "outbox_id", event.ID, "error", errInc)
				continue
			}

			if event.Attempts+1 >= j.maxRetryAttempts {
				j.logger.Warn("Max retry attempts reached for outbox event, marking as FAILED_TO_PUBLISH",
					"outbox_id", event.ID, "transaction_id", event.TransactionID, "attempts_made", event.Attempts+1,
				)
				if errUpdate := j.outboxRepo.UpdateStatus(ctx, event.ID, outbox.StatusFailedToPublish); errUpdate != nil {
					j.logger.Error("Failed to mark outbox event as FAILED_TO_PUBLISH", "outbox_id", event.ID, "error", errUpdate)
				}
			}
			continue
		}

		if err := j.outboxRepo.UpdateStatus(ctx, event.ID, outbox.StatusProcessed); err != nil {
			// The event will be re-fetched and re-published next tick;
			// consumers must tolerate the duplicate.
			j.logger.Error("Failed to mark outbox event as PROCESSED after publish", "outbox_id", event.ID, "error", err)
			continue
		}

		j.logger.Info("Published outbox event", "outbox_id", event.ID, "transaction_id", event.TransactionID)
	}

	return nil
}

package idempotency

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository persists idempotency records.
type Repository interface {
	// TryStart atomically reserves the record's (user, key, endpoint) tuple.
	// It returns true when the caller now owns the key: either no live record
	// existed, or the existing one was failed, expired, or an in_progress
	// record abandoned for longer than staleAfter. It returns false without
	// error when a live record blocks the reservation.
	TryStart(ctx context.Context, rec *Record, staleAfter time.Duration) (bool, error)

	// Get loads the record for the tuple, or ErrRecordNotFound.
	Get(ctx context.Context, userID uuid.UUID, key, endpoint string) (*Record, error)

	// MarkCompleted transitions in_progress to completed and stores the
	// response for future replay.
	MarkCompleted(ctx context.Context, userID uuid.UUID, key, endpoint string, responseStatus int, responseBody []byte) error

	// MarkFailed transitions in_progress to failed, making the key eligible
	// for a fresh attempt.
	MarkFailed(ctx context.Context, userID uuid.UUID, key, endpoint string) error

	// DeleteExpired removes records past their expiry and returns how many
	// were reaped.
	DeleteExpired(ctx context.Context) (int64, error)

	WithTx(tx pgx.Tx) Repository
}

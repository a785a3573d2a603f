package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fintrack/ledger-core/internal/domain/idempotency"
	"github.com/fintrack/ledger-core/internal/platform/persistence"
)

// IdempotencyRepository implements idempotency.Repository for PostgreSQL.
type IdempotencyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewIdempotencyRepository creates a new PostgreSQL idempotency repository
// backed by the connection pool.
func NewIdempotencyRepository(logger *slog.Logger, db *persistence.PostgresDB) idempotency.Repository {
	return &IdempotencyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction.
func (r *IdempotencyRepository) WithTx(tx pgx.Tx) idempotency.Repository {
	return &IdempotencyRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// TryStart reserves the (user, key, endpoint) tuple in a single atomic
// upsert. The conflict clause reclaims records that no longer block reuse:
// failed attempts, expired reservations, and in_progress records abandoned
// for longer than staleAfter. A live record leaves the upsert with zero rows,
// which reports false.
func (r *IdempotencyRepository) TryStart(ctx context.Context, rec *idempotency.Record, staleAfter time.Duration) (bool, error) {
	query := `
		INSERT INTO idempotency_keys (id, user_id, key, endpoint, request_hash, status, response_status, response_body, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, '', $7, $8)
		ON CONFLICT (user_id, key, endpoint) DO UPDATE
		SET id = EXCLUDED.id,
		    request_hash = EXCLUDED.request_hash,
		    status = EXCLUDED.status,
		    response_status = 0,
		    response_body = '',
		    expires_at = EXCLUDED.expires_at,
		    created_at = EXCLUDED.created_at
		WHERE idempotency_keys.status = $9
		   OR idempotency_keys.expires_at <= $8
		   OR (idempotency_keys.status = $6 AND idempotency_keys.created_at <= $10)
		RETURNING id
	`

	var insertedID uuid.UUID
	err := r.querier.QueryRow(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Key,
		rec.Endpoint,
		rec.RequestHash,
		idempotency.StatusInProgress,
		rec.ExpiresAt,
		rec.CreatedAt,
		idempotency.StatusFailed,
		rec.CreatedAt.Add(-staleAfter),
	).Scan(&insertedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A live record owns the tuple.
			return false, nil
		}
		r.logger.Error("Failed to reserve idempotency key", "key", rec.Key, "error", err)
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}

	return true, nil
}

// Get loads the record for the tuple.
func (r *IdempotencyRepository) Get(ctx context.Context, userID uuid.UUID, key, endpoint string) (*idempotency.Record, error) {
	query := `
		SELECT id, user_id, key, endpoint, request_hash, status, response_status, response_body, expires_at, created_at
		FROM idempotency_keys
		WHERE user_id = $1 AND key = $2 AND endpoint = $3
	`

	var rec idempotency.Record
	err := r.querier.QueryRow(ctx, query, userID, key, endpoint).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Key,
		&rec.Endpoint,
		&rec.RequestHash,
		&rec.Status,
		&rec.ResponseStatus,
		&rec.ResponseBody,
		&rec.ExpiresAt,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, idempotency.ErrRecordNotFound{Key: key}
		}
		r.logger.Error("Failed to get idempotency record", "key", key, "error", err)
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}

	return &rec, nil
}

// MarkCompleted stores the response and transitions in_progress to completed.
func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, userID uuid.UUID, key, endpoint string, responseStatus int, responseBody []byte) error {
	return r.resolve(ctx, userID, key, endpoint, idempotency.StatusCompleted, responseStatus, responseBody)
}

// MarkFailed transitions in_progress to failed; the key becomes eligible for
// a fresh attempt.
func (r *IdempotencyRepository) MarkFailed(ctx context.Context, userID uuid.UUID, key, endpoint string) error {
	return r.resolve(ctx, userID, key, endpoint, idempotency.StatusFailed, 0, []byte{})
}

// resolve transitions an in_progress record exactly once; resolving a record
// in any other state is a caller bug surfaced as ErrRecordNotFound.
func (r *IdempotencyRepository) resolve(ctx context.Context, userID uuid.UUID, key, endpoint string, status idempotency.Status, responseStatus int, responseBody []byte) error {
	query := `
		UPDATE idempotency_keys
		SET status = $1, response_status = $2, response_body = $3
		WHERE user_id = $4 AND key = $5 AND endpoint = $6 AND status = $7
	`

	result, err := r.querier.Exec(ctx, query,
		status,
		responseStatus,
		responseBody,
		userID,
		key,
		endpoint,
		idempotency.StatusInProgress,
	)
	if err != nil {
		r.logger.Error("Failed to resolve idempotency record", "key", key, "status", status, "error", err)
		return fmt.Errorf("failed to resolve idempotency record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return idempotency.ErrRecordNotFound{Key: key}
	}

	return nil
}

// DeleteExpired removes records past their expiry.
func (r *IdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM idempotency_keys
		WHERE expires_at <= NOW()
	`

	result, err := r.querier.Exec(ctx, query)
	if err != nil {
		r.logger.Error("Failed to delete expired idempotency records", "error", err)
		return 0, fmt.Errorf("failed to delete expired idempotency records: %w", err)
	}

	return result.RowsAffected(), nil
}

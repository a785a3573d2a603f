package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fintrack/ledger-core/internal/domain/idempotency"
)

// IdempotencyServiceImpl implements the IdempotencyGate interface over the
// idempotency repository.
type IdempotencyServiceImpl struct {
	repo       idempotency.Repository
	ttl        time.Duration
	staleAfter time.Duration
	logger     *slog.Logger
}

// NewIdempotencyService creates an idempotency gate. Reservations expire
// after ttl; in_progress reservations older than staleAfter are treated as
// abandoned and reclaimed by the next caller.
func NewIdempotencyService(logger *slog.Logger, repo idempotency.Repository, ttl, staleAfter time.Duration) IdempotencyGate {
	return &IdempotencyServiceImpl{
		repo:       repo,
		ttl:        ttl,
		staleAfter: staleAfter,
		logger:     logger,
	}
}

// RequestHash canonicalizes a request into a hex digest so body-identical
// retries can be told apart from key reuse with a different body.
func RequestHash(v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to hash request: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// Begin reserves the (user, key, endpoint) tuple. When the reservation loses
// to an existing record, the record decides the outcome: a completed record
// with the same request hash replays the stored response, anything else is a
// conflict.
func (s *IdempotencyServiceImpl) Begin(ctx context.Context, userID uuid.UUID, key, endpoint, requestHash string) (*idempotency.BeginResult, error) {
	now := time.Now().UTC()
	rec := &idempotency.Record{
		ID:          uuid.New(),
		UserID:      userID,
		Key:         key,
		Endpoint:    endpoint,
		RequestHash: requestHash,
		Status:      idempotency.StatusInProgress,
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
	}

	started, err := s.repo.TryStart(ctx, rec, s.staleAfter)
	if err != nil {
		return nil, err
	}
	if started {
		return &idempotency.BeginResult{Outcome: idempotency.OutcomeFresh}, nil
	}

	existing, err := s.repo.Get(ctx, userID, key, endpoint)
	if err != nil {
		if errors.Is(err, idempotency.ErrRecordNotFound{}) {
			// The blocking record was resolved between the upsert and the
			// read. Treat as a conflict; the client's retry will win the key.
			s.logger.Warn("Idempotency record vanished after blocked reservation", "key", key)
			return &idempotency.BeginResult{Outcome: idempotency.OutcomeConflict}, nil
		}
		return nil, err
	}

	if existing.Status == idempotency.StatusCompleted {
		if existing.RequestHash != requestHash {
			s.logger.Warn("Idempotency key reused with a different request body", "key", key, "endpoint", endpoint)
			return &idempotency.BeginResult{Outcome: idempotency.OutcomeConflict}, nil
		}
		return &idempotency.BeginResult{
			Outcome:        idempotency.OutcomeReplay,
			ResponseStatus: existing.ResponseStatus,
			ResponseBody:   existing.ResponseBody,
		}, nil
	}

	// An in-flight request owns the key.
	return &idempotency.BeginResult{Outcome: idempotency.OutcomeConflict}, nil
}

// Complete stores the response and resolves the reservation exactly once.
// With a non-nil tx the resolution commits or rolls back together with the
// workflow's writes, so a stored response always corresponds to applied
// effects.
func (s *IdempotencyServiceImpl) Complete(ctx context.Context, tx pgx.Tx, userID uuid.UUID, key, endpoint string, responseStatus int, responseBody []byte) error {
	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	return repo.MarkCompleted(ctx, userID, key, endpoint, responseStatus, responseBody)
}

// Fail releases the reservation after a workflow error.
func (s *IdempotencyServiceImpl) Fail(ctx context.Context, userID uuid.UUID, key, endpoint string) error {
	return s.repo.MarkFailed(ctx, userID, key, endpoint)
}

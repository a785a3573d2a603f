package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fintrack/ledger-core/internal/domain/idempotency"
	"github.com/fintrack/ledger-core/internal/domain/ledger"
	"github.com/fintrack/ledger-core/internal/domain/money"
	"github.com/fintrack/ledger-core/internal/domain/outbox"
	"github.com/fintrack/ledger-core/internal/platform/locking"
)

// Endpoint identifiers scoping idempotency keys: the same key presented
// against different endpoints names different operations.
const (
	EndpointCreateTransaction = "POST /transactions"
	EndpointTransfer          = "POST /transfers"
	EndpointReverse           = "POST /reversals"
)

// Ledger event types carried on outbox payloads.
const (
	EventTransactionCreated  = "transaction_created"
	EventTransferExecuted    = "transfer_executed"
	EventTransactionReversed = "transaction_reversed"
)

// CreateParams describes a single-entry transaction. Amount is signed and
// must match Type: positive for credits, negative for debits.
type CreateParams struct {
	UserID         uuid.UUID        `json:"user_id"`
	AccountID      uuid.UUID        `json:"account_id"`
	Amount         money.Amount     `json:"amount"`
	Type           ledger.EntryType `json:"entry_type"`
	IdempotencyKey string           `json:"idempotency_key"`
}

// TransferParams describes an atomic two-leg move. Amount is the positive
// magnitude; the source account is debited and the destination credited.
type TransferParams struct {
	UserID         uuid.UUID    `json:"user_id"`
	FromAccountID  uuid.UUID    `json:"from_account_id"`
	ToAccountID    uuid.UUID    `json:"to_account_id"`
	Amount         money.Amount `json:"amount"`
	IdempotencyKey string       `json:"idempotency_key"`
}

// ReverseParams describes a compensating reversal of a prior transaction.
type ReverseParams struct {
	UserID         uuid.UUID `json:"user_id"`
	TransactionID  uuid.UUID `json:"transaction_id"`
	IdempotencyKey string    `json:"idempotency_key"`
}

// WorkflowOutcome is the response of an idempotent workflow. Replayed marks
// a stored response returned without re-executing side effects.
type WorkflowOutcome struct {
	Status   int
	Body     []byte
	Replayed bool
}

// TransactionResponse is the serialized body of a successful workflow.
type TransactionResponse struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	Entries       []*ledger.Entry `json:"entries"`
}

type eventPayload struct {
	EventType     string          `json:"event_type"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Entries       []*ledger.Entry `json:"entries"`
}

// TransactionServiceImpl implements the TransactionService workflows. Every
// workflow runs behind the idempotency gate, inside one database transaction
// holding advisory locks on the touched accounts, and behind the bounded
// retry policy for optimistic version conflicts.
type TransactionServiceImpl struct {
	db           TxRunner
	locker       locking.Locker
	ledgerRepo   ledger.Repository
	outboxRepo   outbox.Repository
	synchronizer *BalanceSynchronizer
	gate         IdempotencyGate
	retry        RetryPolicy
	logger       *slog.Logger
}

// NewTransactionService creates a new transaction workflow service.
func NewTransactionService(
	logger *slog.Logger,
	db TxRunner,
	locker locking.Locker,
	ledgerRepo ledger.Repository,
	outboxRepo outbox.Repository,
	synchronizer *BalanceSynchronizer,
	gate IdempotencyGate,
	retry RetryPolicy,
) TransactionService {
	return &TransactionServiceImpl{
		db:           db,
		locker:       locker,
		ledgerRepo:   ledgerRepo,
		outboxRepo:   outboxRepo,
		synchronizer: synchronizer,
		gate:         gate,
		retry:        retry,
		logger:       logger,
	}
}

// Create appends a single validated entry and synchronizes the account's
// cached balance in the same database transaction.
func (s *TransactionServiceImpl) Create(ctx context.Context, params CreateParams) (*WorkflowOutcome, error) {
	hash, err := RequestHash(params)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, params.UserID, params.IdempotencyKey, EndpointCreateTransaction, hash, func(ctx context.Context, tx pgx.Tx) (int, []byte, error) {
		if err := s.locker.AcquireTx(ctx, tx, locking.AccountKey(params.AccountID)); err != nil {
			return 0, nil, err
		}

		transactionID := uuid.NullUUID{UUID: uuid.New(), Valid: true}
		entry, err := ledger.NewEntry(params.UserID, params.AccountID, params.Amount, params.Type, transactionID)
		if err != nil {
			return 0, nil, err
		}

		if err := s.ledgerRepo.WithTx(tx).Append(ctx, entry); err != nil {
			return 0, nil, err
		}
		if _, err := s.synchronizer.WithTx(tx).Sync(ctx, params.AccountID); err != nil {
			return 0, nil, err
		}

		entries := []*ledger.Entry{entry}
		if err := s.publish(ctx, tx, EventTransactionCreated, transactionID.UUID, params.AccountID, entries); err != nil {
			return 0, nil, err
		}

		return respond(transactionID.UUID, entries)
	})
}

// Transfer debits the source and credits the destination atomically. Both
// advisory locks are taken in deterministic order before any write, so two
// opposite transfers cannot deadlock.
func (s *TransactionServiceImpl) Transfer(ctx context.Context, params TransferParams) (*WorkflowOutcome, error) {
	hash, err := RequestHash(params)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, params.UserID, params.IdempotencyKey, EndpointTransfer, hash, func(ctx context.Context, tx pgx.Tx) (int, []byte, error) {
		err := s.locker.AcquireTx(ctx, tx,
			locking.AccountKey(params.FromAccountID),
			locking.AccountKey(params.ToAccountID),
		)
		if err != nil {
			return 0, nil, err
		}

		transactionID := uuid.NullUUID{UUID: uuid.New(), Valid: true}

		// A non-positive magnitude fails the debit leg's sign check.
		debit, err := ledger.NewEntry(params.UserID, params.FromAccountID, params.Amount.Neg(), ledger.EntryTypeDebit, transactionID)
		if err != nil {
			return 0, nil, err
		}
		credit, err := ledger.NewEntry(params.UserID, params.ToAccountID, params.Amount, ledger.EntryTypeCredit, transactionID)
		if err != nil {
			return 0, nil, err
		}

		ledgerTx := s.ledgerRepo.WithTx(tx)
		if err := ledgerTx.Append(ctx, debit); err != nil {
			return 0, nil, err
		}
		if err := ledgerTx.Append(ctx, credit); err != nil {
			return 0, nil, err
		}

		syncTx := s.synchronizer.WithTx(tx)
		if _, err := syncTx.Sync(ctx, params.FromAccountID); err != nil {
			return 0, nil, err
		}
		if _, err := syncTx.Sync(ctx, params.ToAccountID); err != nil {
			return 0, nil, err
		}

		entries := []*ledger.Entry{debit, credit}
		if err := s.publish(ctx, tx, EventTransferExecuted, transactionID.UUID, params.FromAccountID, entries); err != nil {
			return 0, nil, err
		}

		return respond(transactionID.UUID, entries)
	})
}

// Reverse appends one compensating entry per leg of the prior transaction
// and resynchronizes every touched account. The original entries remain in
// the ledger untouched.
func (s *TransactionServiceImpl) Reverse(ctx context.Context, params ReverseParams) (*WorkflowOutcome, error) {
	hash, err := RequestHash(params)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, params.UserID, params.IdempotencyKey, EndpointReverse, hash, func(ctx context.Context, tx pgx.Tx) (int, []byte, error) {
		ledgerTx := s.ledgerRepo.WithTx(tx)

		originals, err := ledgerTx.ListByTransaction(ctx, params.TransactionID)
		if err != nil {
			return 0, nil, err
		}
		if len(originals) == 0 {
			return 0, nil, ledger.ErrTransactionNotFound{TransactionID: params.TransactionID}
		}

		keys := make([]string, 0, len(originals))
		for _, original := range originals {
			keys = append(keys, locking.AccountKey(original.AccountID))
		}
		if err := s.locker.AcquireTx(ctx, tx, keys...); err != nil {
			return 0, nil, err
		}

		reversals := make([]*ledger.Entry, 0, len(originals))
		accountIDs := make(map[uuid.UUID]struct{}, len(originals))
		for _, original := range originals {
			reversal, err := original.Reversal()
			if err != nil {
				return 0, nil, err
			}
			if err := ledgerTx.Append(ctx, reversal); err != nil {
				return 0, nil, err
			}
			reversals = append(reversals, reversal)
			accountIDs[original.AccountID] = struct{}{}
		}

		syncTx := s.synchronizer.WithTx(tx)
		for accountID := range accountIDs {
			if _, err := syncTx.Sync(ctx, accountID); err != nil {
				return 0, nil, err
			}
		}

		if err := s.publish(ctx, tx, EventTransactionReversed, params.TransactionID, originals[0].AccountID, reversals); err != nil {
			return 0, nil, err
		}

		return respond(params.TransactionID, reversals)
	})
}

// execute runs one idempotent workflow: gate, retry loop, transaction. The
// gate resolution commits atomically with the workflow's writes; a rolled
// back attempt leaves the reservation in_progress for the next attempt.
func (s *TransactionServiceImpl) execute(ctx context.Context, userID uuid.UUID, key, endpoint, hash string, workflow func(ctx context.Context, tx pgx.Tx) (int, []byte, error)) (*WorkflowOutcome, error) {
	begin, err := s.gate.Begin(ctx, userID, key, endpoint, hash)
	if err != nil {
		return nil, err
	}

	switch begin.Outcome {
	case idempotency.OutcomeReplay:
		s.logger.Info("Replaying stored response for idempotency key", "key", key, "endpoint", endpoint)
		return &WorkflowOutcome{Status: begin.ResponseStatus, Body: begin.ResponseBody, Replayed: true}, nil
	case idempotency.OutcomeConflict:
		return nil, idempotency.ErrConflict{Key: key}
	}

	var (
		status int
		body   []byte
	)
	err = s.retry.Run(ctx, func(ctx context.Context) error {
		return s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
			st, b, err := workflow(ctx, tx)
			if err != nil {
				return err
			}
			if err := s.gate.Complete(ctx, tx, userID, key, endpoint, st, b); err != nil {
				return fmt.Errorf("failed to resolve idempotency key %s: %w", key, err)
			}
			status, body = st, b
			return nil
		})
	})
	if err != nil {
		if failErr := s.gate.Fail(ctx, userID, key, endpoint); failErr != nil {
			s.logger.Error("Failed to release idempotency key after workflow error", "key", key, "error", failErr)
		}
		return nil, err
	}

	return &WorkflowOutcome{Status: status, Body: body}, nil
}

// publish writes the ledger event into the outbox inside the workflow's
// transaction.
func (s *TransactionServiceImpl) publish(ctx context.Context, tx pgx.Tx, eventType string, transactionID, accountID uuid.UUID, entries []*ledger.Entry) error {
	payload, err := json.Marshal(eventPayload{
		EventType:     eventType,
		TransactionID: transactionID,
		Entries:       entries,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event payload: %w", err)
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, outbox.NewEvent(transactionID, accountID, payload))
}

func respond(transactionID uuid.UUID, entries []*ledger.Entry) (int, []byte, error) {
	body, err := json.Marshal(TransactionResponse{TransactionID: transactionID, Entries: entries})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal transaction response: %w", err)
	}
	return http.StatusCreated, body, nil
}

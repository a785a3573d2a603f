// Package service implements the transactional write workflows and read
// paths on top of the domain repositories: idempotency gating, advisory
// locking, ledger appends, and optimistic balance synchronization composed
// into single atomic units.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fintrack/ledger-core/internal/domain/account"
	"github.com/fintrack/ledger-core/internal/domain/idempotency"
	"github.com/fintrack/ledger-core/internal/domain/ledger"
	"github.com/fintrack/ledger-core/internal/domain/money"
)

// TxRunner executes a function inside a database transaction, rolling back
// on error or panic. *persistence.PostgresDB satisfies it.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// AccountService defines account lifecycle and read operations.
type AccountService interface {
	// CreateAccount opens a new active account for the user.
	CreateAccount(ctx context.Context, userID uuid.UUID) (*account.Account, error)

	// GetAccount retrieves an account by its ID.
	// Returns ErrAccountNotFound if the account doesn't exist.
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// ListAccounts retrieves all accounts of the user, including inactive
	// ones.
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]*account.Account, error)

	// DeactivateAccount soft-deletes the account. Its ledger history remains
	// readable.
	DeactivateAccount(ctx context.Context, id uuid.UUID) error
}

// LedgerService defines read operations over the append-only ledger.
type LedgerService interface {
	// Balance recomputes the authoritative balance from the ledger entries.
	Balance(ctx context.Context, accountID uuid.UUID) (money.Amount, error)

	// CachedBalance returns the account's cached balance and its version
	// without touching the ledger. It may lag behind Balance.
	CachedBalance(ctx context.Context, accountID uuid.UUID) (money.Amount, int64, error)

	// EntriesForAccount lists up to limit entries, newest first.
	EntriesForAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*ledger.Entry, error)

	// EntriesForTransaction lists all legs of a transaction in creation
	// order. Returns ErrTransactionNotFound when none exist.
	EntriesForTransaction(ctx context.Context, transactionID uuid.UUID) ([]*ledger.Entry, error)
}

// IdempotencyGate classifies key presentations and resolves reservations.
type IdempotencyGate interface {
	// Begin reserves the (user, key, endpoint) tuple or classifies why it
	// cannot be reserved.
	Begin(ctx context.Context, userID uuid.UUID, key, endpoint, requestHash string) (*idempotency.BeginResult, error)

	// Complete stores the response and resolves the reservation. Pass a
	// non-nil tx to resolve atomically with the workflow's writes.
	Complete(ctx context.Context, tx pgx.Tx, userID uuid.UUID, key, endpoint string, responseStatus int, responseBody []byte) error

	// Fail releases the reservation so a legitimate retry can run.
	Fail(ctx context.Context, userID uuid.UUID, key, endpoint string) error
}

// TransactionService defines the idempotent write workflows. Every workflow
// returns the response to send to the caller; a replayed workflow returns
// the stored response without re-executing side effects.
type TransactionService interface {
	// Create appends a single validated entry to one account.
	Create(ctx context.Context, params CreateParams) (*WorkflowOutcome, error)

	// Transfer atomically moves a positive amount between two accounts of
	// the same user: a debit leg and a credit leg sharing one transaction
	// id, both balances synchronized in the same database transaction.
	Transfer(ctx context.Context, params TransferParams) (*WorkflowOutcome, error)

	// Reverse appends compensating entries for every leg of a prior
	// transaction. The original entries are never modified.
	Reverse(ctx context.Context, params ReverseParams) (*WorkflowOutcome, error)
}

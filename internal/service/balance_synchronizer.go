package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fintrack/ledger-core/internal/domain/account"
	"github.com/fintrack/ledger-core/internal/domain/ledger"
	"github.com/fintrack/ledger-core/internal/domain/money"
)

// BalanceSynchronizer recomputes an account's balance from the ledger and
// writes it back under optimistic concurrency control. The read of the
// current version and the conditional write form the check phase and the
// fenced write of one synchronization attempt; a lost race surfaces as
// ErrConcurrentModification for the caller's retry policy.
type BalanceSynchronizer struct {
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
	logger      *slog.Logger
}

// NewBalanceSynchronizer creates a synchronizer over the given repositories.
func NewBalanceSynchronizer(logger *slog.Logger, accountRepo account.Repository, ledgerRepo ledger.Repository) *BalanceSynchronizer {
	return &BalanceSynchronizer{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		logger:      logger,
	}
}

// WithTx returns a synchronizer whose reads and the conditional write all
// run inside tx.
func (s *BalanceSynchronizer) WithTx(tx pgx.Tx) *BalanceSynchronizer {
	return &BalanceSynchronizer{
		accountRepo: s.accountRepo.WithTx(tx),
		ledgerRepo:  s.ledgerRepo.WithTx(tx),
		logger:      s.logger,
	}
}

// Sync recomputes and persists the account's balance, returning the written
// value. The conditional update fails with ErrConcurrentModification when
// another synchronization bumped the version in between.
func (s *BalanceSynchronizer) Sync(ctx context.Context, accountID uuid.UUID) (money.Amount, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return money.Zero(), err
	}

	sum, err := s.ledgerRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return money.Zero(), fmt.Errorf("failed to recompute balance for account %s: %w", accountID, err)
	}

	if err := s.accountRepo.SetBalance(ctx, accountID, sum, acc.Version); err != nil {
		return money.Zero(), err
	}

	s.logger.Debug("Account balance synchronized",
		"account_id", accountID.String(),
		"balance", sum.String(),
		"version", acc.Version+1,
	)
	return sum, nil
}

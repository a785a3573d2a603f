package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fintrack/ledger-core/internal/domain/account"
	"github.com/fintrack/ledger-core/internal/domain/ledger"
	"github.com/fintrack/ledger-core/internal/domain/money"
)

// LedgerServiceImpl implements the LedgerService read paths.
type LedgerServiceImpl struct {
	ledgerRepo  ledger.Repository
	accountRepo account.Repository
	logger      *slog.Logger
}

// NewLedgerService creates a new ledger read service.
func NewLedgerService(logger *slog.Logger, ledgerRepo ledger.Repository, accountRepo account.Repository) LedgerService {
	return &LedgerServiceImpl{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// Balance recomputes the authoritative balance from the ledger. The account
// must exist; an account without entries has an exactly zero balance.
func (s *LedgerServiceImpl) Balance(ctx context.Context, accountID uuid.UUID) (money.Amount, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return money.Zero(), err
	}
	return s.ledgerRepo.SumByAccount(ctx, accountID)
}

// CachedBalance returns the cached balance and the version it was written
// at.
func (s *LedgerServiceImpl) CachedBalance(ctx context.Context, accountID uuid.UUID) (money.Amount, int64, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return money.Zero(), 0, err
	}
	return acc.Balance, acc.Version, nil
}

// EntriesForAccount lists up to limit entries, newest first.
func (s *LedgerServiceImpl) EntriesForAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*ledger.Entry, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.ListByAccount(ctx, accountID, limit)
}

// EntriesForTransaction lists all legs of a transaction in creation order.
func (s *LedgerServiceImpl) EntriesForTransaction(ctx context.Context, transactionID uuid.UUID) ([]*ledger.Entry, error) {
	entries, err := s.ledgerRepo.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ledger.ErrTransactionNotFound{TransactionID: transactionID}
	}
	return entries, nil
}

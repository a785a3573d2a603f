package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fintrack/ledger-core/internal/domain/account"
)

// AccountServiceImpl implements the AccountService interface.
type AccountServiceImpl struct {
	accountRepo account.Repository
	logger      *slog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(logger *slog.Logger, accountRepo account.Repository) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// CreateAccount opens a new active account with a zero balance.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, userID uuid.UUID) (*account.Account, error) {
	acc := account.NewAccount(userID)
	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Account created", "account_id", acc.ID.String(), "user_id", userID.String())
	return acc, nil
}

// GetAccount retrieves an account by its ID.
func (s *AccountServiceImpl) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// ListAccounts retrieves all accounts of the user.
func (s *AccountServiceImpl) ListAccounts(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	return s.accountRepo.ListByUser(ctx, userID)
}

// DeactivateAccount soft-deletes the account. History stays readable and
// the ledger is untouched.
func (s *AccountServiceImpl) DeactivateAccount(ctx context.Context, id uuid.UUID) error {
	if err := s.accountRepo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Account deactivated", "account_id", id.String())
	return nil
}

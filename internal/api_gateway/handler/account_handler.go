package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fintrack/ledger-core/internal/api_gateway/middleware"
	"github.com/fintrack/ledger-core/internal/domain/account"
	"github.com/fintrack/ledger-core/internal/domain/ledger"
	"github.com/fintrack/ledger-core/internal/service"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	ledgerService  service.LedgerService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService, ledgerService service.LedgerService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		ledgerService:  ledgerService,
		logger:         logger,
	}
}

// Create opens a new account for the authenticated user.
func (h *AccountHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	acc, err := h.accountService.CreateAccount(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to create account", "user_id", userID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID returns the account with its cached balance and version.
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccount(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "account_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// List returns every account of the authenticated user, inactive included.
func (h *AccountHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list accounts", "user_id", userID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		responses = append(responses, mapAccountToResponse(acc))
	}
	RespondOK(c, gin.H{"accounts": responses})
}

// Deactivate soft-deletes the account. Its ledger history stays readable.
func (h *AccountHandler) Deactivate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.accountService.DeactivateAccount(c.Request.Context(), id); err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to deactivate account", "account_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondNoContent(c)
}

// GetBalance recomputes the authoritative balance from the ledger.
func (h *AccountHandler) GetBalance(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	balance, err := h.ledgerService.Balance(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to compute balance", "account_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, BalanceResponse{AccountID: id.String(), Balance: balance.String()})
}

// GetEntries lists the account's ledger entries, newest first.
func (h *AccountHandler) GetEntries(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var params ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid list parameters: "+err.Error())
		return
	}

	entries, err := h.ledgerService.EntriesForAccount(c.Request.Context(), id, params.Limit)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to list ledger entries", "account_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapEntriesToResponse(entries))
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.ID.String(),
		UserID:    acc.UserID.String(),
		Balance:   acc.Balance.String(),
		Version:   acc.Version,
		IsActive:  acc.IsActive,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acc.UpdatedAt.Format(time.RFC3339),
	}
}

func mapEntriesToResponse(entries []*ledger.Entry) EntryListResponse {
	responses := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp := EntryResponse{
			ID:        entry.ID.String(),
			AccountID: entry.AccountID.String(),
			Amount:    entry.Amount.String(),
			Type:      string(entry.Type),
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		}
		if entry.TransactionID.Valid {
			resp.TransactionID = entry.TransactionID.UUID.String()
		}
		responses = append(responses, resp)
	}
	return EntryListResponse{Entries: responses}
}

package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fintrack/ledger-core/internal/api_gateway/middleware"
	"github.com/fintrack/ledger-core/internal/domain/account"
	"github.com/fintrack/ledger-core/internal/domain/idempotency"
	"github.com/fintrack/ledger-core/internal/domain/ledger"
	"github.com/fintrack/ledger-core/internal/domain/money"
	"github.com/fintrack/ledger-core/internal/service"
)

// IdempotencyKeyHeader carries the client-chosen deduplication key. A key is
// generated when the header is absent, which makes the request effectively
// non-idempotent across retries.
const IdempotencyKeyHeader = "Idempotency-Key"

// TransactionHandler handles HTTP requests for the write workflows
type TransactionHandler struct {
	transactionService service.TransactionService
	ledgerService      service.LedgerService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService, ledgerService service.LedgerService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		ledgerService:      ledgerService,
		logger:             logger,
	}
}

// Create appends a single credit or debit entry to an account.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: "+err.Error())
		return
	}
	// The wire amount is a magnitude; the entry type carries the direction.
	if req.Type == string(ledger.EntryTypeDebit) {
		amount = amount.Neg()
	}

	params := service.CreateParams{
		UserID:         middleware.GetUserID(c),
		AccountID:      uuid.MustParse(req.AccountID),
		Amount:         amount,
		Type:           ledger.EntryType(req.Type),
		IdempotencyKey: idempotencyKey(c),
	}

	outcome, err := h.transactionService.Create(c.Request.Context(), params)
	if err != nil {
		h.respondWorkflowError(c, "create transaction", err)
		return
	}

	writeOutcome(c, outcome)
}

// Transfer moves an amount between two accounts of the authenticated user.
func (h *TransactionHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: "+err.Error())
		return
	}

	params := service.TransferParams{
		UserID:         middleware.GetUserID(c),
		FromAccountID:  uuid.MustParse(req.FromAccountID),
		ToAccountID:    uuid.MustParse(req.ToAccountID),
		Amount:         amount,
		IdempotencyKey: idempotencyKey(c),
	}

	outcome, err := h.transactionService.Transfer(c.Request.Context(), params)
	if err != nil {
		h.respondWorkflowError(c, "transfer", err)
		return
	}

	writeOutcome(c, outcome)
}

// Reverse appends compensating entries for every leg of a prior transaction.
func (h *TransactionHandler) Reverse(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	params := service.ReverseParams{
		UserID:         middleware.GetUserID(c),
		TransactionID:  transactionID,
		IdempotencyKey: idempotencyKey(c),
	}

	outcome, err := h.transactionService.Reverse(c.Request.Context(), params)
	if err != nil {
		h.respondWorkflowError(c, "reverse transaction", err)
		return
	}

	writeOutcome(c, outcome)
}

// GetByID lists all ledger entries sharing the transaction id.
func (h *TransactionHandler) GetByID(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	entries, err := h.ledgerService.EntriesForTransaction(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound{}) {
			RespondNotFound(c, "Transaction not found")
			return
		}
		h.logger.Error("Failed to get transaction", "transaction_id", transactionID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapEntriesToResponse(entries))
}

func (h *TransactionHandler) respondWorkflowError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidEntry{}):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, account.ErrAccountNotFound{}):
		RespondNotFound(c, "Account not found")
	case errors.Is(err, ledger.ErrTransactionNotFound{}):
		RespondNotFound(c, "Transaction not found")
	case errors.Is(err, idempotency.ErrConflict{}):
		RespondConflict(c, "IDEMPOTENCY_CONFLICT", err.Error())
	case errors.Is(err, account.ErrConcurrentModification{}):
		RespondConflict(c, "CONCURRENT_MODIFICATION", "Account was modified concurrently, retry the request")
	default:
		h.logger.Error("Failed to "+op, "error", err)
		RespondInternalError(c)
	}
}

// writeOutcome replays the workflow response verbatim so a replayed request
// receives a byte-identical body.
func writeOutcome(c *gin.Context, outcome *service.WorkflowOutcome) {
	c.Data(outcome.Status, "application/json", outcome.Body)
}

func idempotencyKey(c *gin.Context) string {
	if key := c.GetHeader(IdempotencyKeyHeader); key != "" {
		return key
	}
	return uuid.New().String()
}

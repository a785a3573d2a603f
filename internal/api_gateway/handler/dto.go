package handler

// CreateTransactionRequest represents a request to append one ledger entry.
// Amount is the positive magnitude as a decimal string; Type decides the
// sign of the resulting entry.
type CreateTransactionRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
	Amount    string `json:"amount" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=credit debit"`
}

// TransferRequest represents a request to move an amount between two
// accounts of the authenticated user.
type TransferRequest struct {
	FromAccountID string `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string `json:"to_account_id" binding:"required,uuid"`
	Amount        string `json:"amount" binding:"required"`
}

// AccountResponse represents an account in API responses. Balance is the
// cached value; Version is its optimistic concurrency fencing token.
type AccountResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Balance   string `json:"balance"`
	Version   int64  `json:"version"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// BalanceResponse represents a balance recomputed from the ledger.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	Amount        string `json:"amount"`
	Type          string `json:"entry_type"`
	CreatedAt     string `json:"created_at"`
}

// EntryListResponse represents a list of ledger entries in API responses.
type EntryListResponse struct {
	Entries []EntryResponse `json:"entries"`
}

// ListParams bounds list endpoints.
type ListParams struct {
	Limit int `form:"limit,default=50" binding:"min=1,max=500"`
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/fintrack/ledger-core/internal/domain/account"
	"github.com/fintrack/ledger-core/internal/domain/idempotency"
	"github.com/fintrack/ledger-core/internal/domain/ledger"
	"github.com/fintrack/ledger-core/internal/domain/money"
	"github.com/fintrack/ledger-core/internal/domain/outbox"
	"github.com/fintrack/ledger-core/internal/platform/persistence"
)

// Mock implementations of the service dependencies. WithTx returns the mock
// itself so expectations set on it cover transactional use too.

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountRepository) SetBalance(ctx context.Context, id uuid.UUID, balance money.Amount, version int64) error {
	args := m.Called(ctx, id, balance, version)
	return args.Error(0)
}

func (m *MockAccountRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return m
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) SumByAccount(ctx context.Context, accountID uuid.UUID) (money.Amount, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(money.Amount), args.Error(1)
}

func (m *MockLedgerRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*ledger.Entry, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*ledger.Entry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return m
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, event *outbox.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Event, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Event), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status outbox.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockIdempotencyRepository struct {
	mock.Mock
}

func (m *MockIdempotencyRepository) TryStart(ctx context.Context, rec *idempotency.Record, staleAfter time.Duration) (bool, error) {
	args := m.Called(ctx, rec, staleAfter)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyRepository) Get(ctx context.Context, userID uuid.UUID, key, endpoint string) (*idempotency.Record, error) {
	args := m.Called(ctx, userID, key, endpoint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idempotency.Record), args.Error(1)
}

func (m *MockIdempotencyRepository) MarkCompleted(ctx context.Context, userID uuid.UUID, key, endpoint string, responseStatus int, responseBody []byte) error {
	args := m.Called(ctx, userID, key, endpoint, responseStatus, responseBody)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) MarkFailed(ctx context.Context, userID uuid.UUID, key, endpoint string) error {
	args := m.Called(ctx, userID, key, endpoint)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIdempotencyRepository) WithTx(tx pgx.Tx) idempotency.Repository {
	return m
}

type MockIdempotencyGate struct {
	mock.Mock
}

func (m *MockIdempotencyGate) Begin(ctx context.Context, userID uuid.UUID, key, endpoint, requestHash string) (*idempotency.BeginResult, error) {
	args := m.Called(ctx, userID, key, endpoint, requestHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idempotency.BeginResult), args.Error(1)
}

func (m *MockIdempotencyGate) Complete(ctx context.Context, tx pgx.Tx, userID uuid.UUID, key, endpoint string, responseStatus int, responseBody []byte) error {
	args := m.Called(ctx, tx, userID, key, endpoint, responseStatus, responseBody)
	return args.Error(0)
}

func (m *MockIdempotencyGate) Fail(ctx context.Context, userID uuid.UUID, key, endpoint string) error {
	args := m.Called(ctx, userID, key, endpoint)
	return args.Error(0)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireTx(ctx context.Context, q persistence.Querier, keys ...string) error {
	callArgs := make([]interface{}, 0, len(keys)+2)
	callArgs = append(callArgs, ctx, q)
	for _, key := range keys {
		callArgs = append(callArgs, key)
	}
	args := m.Called(callArgs...)
	return args.Error(0)
}

// MockTxRunner invokes the transactional function directly with a MockTx so
// workflow logic runs without a database.
type MockTxRunner struct {
	mock.Mock
	Tx pgx.Tx
}

func (m *MockTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	args := m.Called(ctx)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(m.Tx)
}

// MockTx implements the pgx.Tx interface for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return m, nil
}

func (m *MockTx) Commit(ctx context.Context) error {
	return nil
}

func (m *MockTx) Rollback(ctx context.Context) error {
	return nil
}

func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return &pgconn.StatementDescription{}, nil
}

func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *MockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *MockTx) Conn() *pgx.Conn {
	return nil
}

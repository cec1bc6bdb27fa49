package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	"github.com/stretchr/testify/mock"
)

// --- Mock LedgerRepository ---
type MockLedgerRepository struct {
	mock.Mock
	Tx *MockLedgerTx
}

var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, companyID, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, companyID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactions(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, companyID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Transaction), returnedNextToken, args.Error(2)
}

// WithinTx runs fn against the mock unit unless an error is configured for beginning it.
func (m *MockLedgerRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m.Tx)
}

// --- Mock LedgerTx ---
type MockLedgerTx struct {
	mock.Mock
}

var _ portsrepo.LedgerTx = (*MockLedgerTx)(nil)

func (m *MockLedgerTx) LockPeriodsCoveringDate(ctx context.Context, companyID string, date time.Time) ([]domain.AccountingPeriod, error) {
	args := m.Called(ctx, companyID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountingPeriod), args.Error(1)
}

func (m *MockLedgerTx) LockPeriodForUpdate(ctx context.Context, companyID, periodID string) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, companyID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountingPeriod), args.Error(1)
}

func (m *MockLedgerTx) ListPeriodLocks(ctx context.Context, periodID string) ([]domain.PeriodLock, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PeriodLock), args.Error(1)
}

func (m *MockLedgerTx) AppendPeriodLock(ctx context.Context, lock domain.PeriodLock) error {
	args := m.Called(ctx, lock)
	return args.Error(0)
}

func (m *MockLedgerTx) InsertPeriod(ctx context.Context, period domain.AccountingPeriod) (bool, error) {
	args := m.Called(ctx, period)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerTx) InsertTransaction(ctx context.Context, txn domain.Transaction) (bool, error) {
	args := m.Called(ctx, txn)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerTx) InsertLines(ctx context.Context, lines []domain.TransactionLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *MockLedgerTx) FindLineIDs(ctx context.Context, transactionID string) ([]string, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLedgerTx) FindReversalOf(ctx context.Context, companyID, originalID string) (*domain.Transaction, error) {
	args := m.Called(ctx, companyID, originalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// --- Mock PeriodReader ---
type MockPeriodReader struct {
	mock.Mock
}

var _ portsrepo.PeriodReader = (*MockPeriodReader)(nil)

func (m *MockPeriodReader) FindPeriodByID(ctx context.Context, companyID, periodID string) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, companyID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodReader) FindPeriodsCoveringDate(ctx context.Context, companyID string, date time.Time) ([]domain.AccountingPeriod, error) {
	args := m.Called(ctx, companyID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodReader) ListPeriodLocks(ctx context.Context, companyID, periodID string) ([]domain.PeriodLock, error) {
	args := m.Called(ctx, companyID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PeriodLock), args.Error(1)
}

// --- Mock CompanyReader ---
type MockCompanyReader struct {
	mock.Mock
}

var _ portsrepo.CompanyReader = (*MockCompanyReader)(nil)

func (m *MockCompanyReader) FindDefaultCurrency(ctx context.Context, companyID string) (string, error) {
	args := m.Called(ctx, companyID)
	return args.String(0), args.Error(1)
}

// --- Mock AuditSink ---
type MockAuditSink struct {
	mock.Mock
}

var _ portsrepo.AuditSink = (*MockAuditSink)(nil)

func (m *MockAuditSink) Record(ctx context.Context, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// Entries returns every entry the sink was called with, in order.
func (m *MockAuditSink) Entries() []domain.AuditLogEntry {
	var entries []domain.AuditLogEntry
	for _, call := range m.Calls {
		if call.Method == "Record" {
			entries = append(entries, call.Arguments.Get(1).(domain.AuditLogEntry))
		}
	}
	return entries
}

// Actions returns the action of every recorded entry, in order.
func (m *MockAuditSink) Actions() []domain.AuditAction {
	var actions []domain.AuditAction
	for _, e := range m.Entries() {
		actions = append(actions, e.Action)
	}
	return actions
}

func stringPtr(s string) *string {
	return &s
}

package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
)

// TransactionReader defines read operations for posted transactions.
type TransactionReader interface {
	// FindTransactionByID returns the transaction with its lines ordered by line number.
	// Returns apperrors.ErrNotFound when the id does not exist within companyID.
	FindTransactionByID(ctx context.Context, companyID, transactionID string) (*domain.Transaction, error)

	// ListTransactions returns a page of transactions, newest date first, and a token for the next page.
	ListTransactions(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// LedgerTx is the set of reads and writes available inside one atomic unit.
// Every call sees the writes made earlier in the same unit.
type LedgerTx interface {
	// LockPeriodsCoveringDate returns the company's periods covering date and holds a shared
	// lock on them until the unit ends, so no transition can commit in between.
	LockPeriodsCoveringDate(ctx context.Context, companyID string, date time.Time) ([]domain.AccountingPeriod, error)

	// LockPeriodForUpdate returns the period and holds an exclusive lock on it.
	// Returns apperrors.ErrNotFound when it does not exist within companyID.
	LockPeriodForUpdate(ctx context.Context, companyID, periodID string) (*domain.AccountingPeriod, error)

	// ListPeriodLocks returns the lock log of a period, oldest first.
	ListPeriodLocks(ctx context.Context, periodID string) ([]domain.PeriodLock, error)

	// AppendPeriodLock appends one entry to a period's lock log.
	AppendPeriodLock(ctx context.Context, lock domain.PeriodLock) error

	// InsertPeriod stores a period; inserted is false when a row with the same id or
	// the same company and range already exists.
	InsertPeriod(ctx context.Context, period domain.AccountingPeriod) (inserted bool, err error)

	// InsertTransaction stores the header row. inserted is false when any uniqueness
	// constraint (id, number, reversal back-reference) already holds a row.
	InsertTransaction(ctx context.Context, txn domain.Transaction) (inserted bool, err error)

	// InsertLines stores the lines of a freshly inserted transaction.
	InsertLines(ctx context.Context, lines []domain.TransactionLine) error

	// FindLineIDs returns the stored line ids of a transaction ordered by line number;
	// empty when the transaction does not exist.
	FindLineIDs(ctx context.Context, transactionID string) ([]string, error)

	// FindReversalOf returns the transaction reversing originalID.
	// Returns apperrors.ErrNotFound when there is none.
	FindReversalOf(ctx context.Context, companyID, originalID string) (*domain.Transaction, error)
}

// TransactionManager runs fn inside one atomic unit. The unit commits when fn returns nil
// and rolls back otherwise; fn's error is returned unchanged.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

// LedgerRepositoryFacade combines the ledger read side with the atomic write side.
type LedgerRepositoryFacade interface {
	TransactionReader
	TransactionManager
}

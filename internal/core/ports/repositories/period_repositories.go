package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
)

// PeriodReader defines read operations for accounting periods outside an atomic unit.
type PeriodReader interface {
	// FindPeriodByID returns apperrors.ErrNotFound when the period does not exist within companyID.
	FindPeriodByID(ctx context.Context, companyID, periodID string) (*domain.AccountingPeriod, error)

	// FindPeriodsCoveringDate returns every company period whose range contains date.
	FindPeriodsCoveringDate(ctx context.Context, companyID string, date time.Time) ([]domain.AccountingPeriod, error)

	// ListPeriodLocks returns the lock log of a period, oldest first.
	ListPeriodLocks(ctx context.Context, companyID, periodID string) ([]domain.PeriodLock, error)
}

// CompanyReader resolves company-level settings owned elsewhere.
type CompanyReader interface {
	// FindDefaultCurrency returns apperrors.ErrNotFound when the company is unknown.
	FindDefaultCurrency(ctx context.Context, companyID string) (string, error)
}

// AuditSink receives one append-only entry per accounting decision.
type AuditSink interface {
	Record(ctx context.Context, entry domain.AuditLogEntry) error
}

// AuditReader lists recorded entries; only database-backed sinks implement it.
type AuditReader interface {
	ListAuditEntries(ctx context.Context, companyID, entityID string) ([]domain.AuditLogEntry, error)
}

package pgsql

import (
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	ledgerRepo := newPgxLedgerRepository(dbPool)
	periodRepo := newPgxPeriodRepository(dbPool)
	companyRepo := newPgxCompanyRepository(dbPool)
	auditRepo := newPgxAuditRepository(dbPool)

	return portsrepo.RepositoryProvider{
		LedgerRepo:  ledgerRepo,
		PeriodRepo:  periodRepo,
		CompanyRepo: companyRepo,
		AuditRepo:   auditRepo,
		Close: func() error {
			dbPool.Close()
			return nil
		},
	}
}

// NewAuditRepository exposes the database audit sink for callers that read entries back.
func NewAuditRepository(dbPool *pgxpool.Pool) *PgxAuditRepository {
	return newPgxAuditRepository(dbPool)
}

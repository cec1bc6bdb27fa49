package sqlite

import (
	"database/sql"

	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every repository onto one SQLite handle.
func NewRepositoryProvider(db *sql.DB) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo:  newSQLiteLedgerRepository(db),
		PeriodRepo:  newSQLitePeriodRepository(db),
		CompanyRepo: newSQLiteCompanyRepository(db),
		AuditRepo:   newSQLiteAuditRepository(db),
		Close:       db.Close,
	}
}

// NewAuditRepository exposes the database audit sink for callers that read entries back.
func NewAuditRepository(db *sql.DB) *SQLiteAuditRepository {
	return newSQLiteAuditRepository(db)
}

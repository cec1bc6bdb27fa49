package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
)

type SQLiteCompanyRepository struct {
	BaseRepository
}

func newSQLiteCompanyRepository(db *sql.DB) *SQLiteCompanyRepository {
	return &SQLiteCompanyRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.CompanyReader = (*SQLiteCompanyRepository)(nil)

// FindDefaultCurrency returns the company's default currency code.
func (r *SQLiteCompanyRepository) FindDefaultCurrency(ctx context.Context, companyID string) (string, error) {
	var code string
	err := r.DB.QueryRowContext(ctx,
		`SELECT default_currency_code FROM companies WHERE company_id = ?`, companyID).Scan(&code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to find company %s: %w", companyID, err)
	}
	return code, nil
}

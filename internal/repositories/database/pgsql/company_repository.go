package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCompanyRepository struct {
	BaseRepository
}

func newPgxCompanyRepository(pool *pgxpool.Pool) *PgxCompanyRepository {
	return &PgxCompanyRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CompanyReader = (*PgxCompanyRepository)(nil)

// FindDefaultCurrency returns the company's default currency code.
func (r *PgxCompanyRepository) FindDefaultCurrency(ctx context.Context, companyID string) (string, error) {
	var code string
	err := r.Pool.QueryRow(ctx, `SELECT default_currency_code FROM companies WHERE company_id = $1`, companyID).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to find company %s: %w", companyID, err)
	}
	return strings.TrimSpace(code), nil
}

package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_ledger/internal/models"
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const FULL_PERIOD_SELECT_QUERY = `
SELECT period_id, company_id, start_date, end_date, name, created_at, created_by
FROM accounting_periods
`

const FULL_LOCK_SELECT_QUERY = `
SELECT lock_id, period_id, company_id, action, actor_id, reason, correlation_id, created_at
FROM accounting_period_locks
`

type PgxPeriodRepository struct {
	BaseRepository
}

func newPgxPeriodRepository(pool *pgxpool.Pool) *PgxPeriodRepository {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodReader = (*PgxPeriodRepository)(nil)

func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, companyID, periodID string) (*domain.AccountingPeriod, error) {
	periods, err := findPeriods(ctx, r.Pool, `WHERE company_id = $1 AND period_id = $2`, companyID, periodID)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &periods[0], nil
}

func (r *PgxPeriodRepository) FindPeriodsCoveringDate(ctx context.Context, companyID string, date time.Time) ([]domain.AccountingPeriod, error) {
	return findPeriods(ctx, r.Pool, `WHERE company_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date DESC, created_at DESC, period_id DESC`, companyID, domain.NormalizeDate(date))
}

func (r *PgxPeriodRepository) ListPeriodLocks(ctx context.Context, companyID, periodID string) ([]domain.PeriodLock, error) {
	return listPeriodLocks(ctx, r.Pool, `WHERE company_id = $1 AND period_id = $2 ORDER BY created_at, lock_id`, companyID, periodID)
}

func findPeriods(ctx context.Context, q querier, filterQuery string, args ...any) ([]domain.AccountingPeriod, error) {
	rows, err := q.Query(ctx, FULL_PERIOD_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	modelPeriods, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AccountingPeriod])
	if err != nil {
		return nil, fmt.Errorf("failed to collect period rows: %w", err)
	}
	periods := make([]domain.AccountingPeriod, len(modelPeriods))
	for i, m := range modelPeriods {
		periods[i] = mapping.ToDomainPeriod(m)
	}
	return periods, nil
}

func listPeriodLocks(ctx context.Context, q querier, filterQuery string, args ...any) ([]domain.PeriodLock, error) {
	rows, err := q.Query(ctx, FULL_LOCK_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query period locks: %w", err)
	}
	modelLocks, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.PeriodLock])
	if err != nil {
		return nil, fmt.Errorf("failed to collect period lock rows: %w", err)
	}
	locks := make([]domain.PeriodLock, len(modelLocks))
	for i, m := range modelLocks {
		locks[i] = mapping.ToDomainPeriodLock(m)
	}
	return locks, nil
}

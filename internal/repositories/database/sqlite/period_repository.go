package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_ledger/internal/models"
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/mapping"
)

const periodColumns = `period_id, company_id, start_date, end_date, name, created_at, created_by`

const lockColumns = `lock_id, period_id, company_id, action, actor_id, reason, correlation_id, created_at`

type SQLitePeriodRepository struct {
	BaseRepository
}

func newSQLitePeriodRepository(db *sql.DB) *SQLitePeriodRepository {
	return &SQLitePeriodRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.PeriodReader = (*SQLitePeriodRepository)(nil)

func (r *SQLitePeriodRepository) FindPeriodByID(ctx context.Context, companyID, periodID string) (*domain.AccountingPeriod, error) {
	return findPeriod(ctx, r.DB, companyID, periodID)
}

func (r *SQLitePeriodRepository) FindPeriodsCoveringDate(ctx context.Context, companyID string, date time.Time) ([]domain.AccountingPeriod, error) {
	return findPeriodsCovering(ctx, r.DB, companyID, date)
}

func (r *SQLitePeriodRepository) ListPeriodLocks(ctx context.Context, companyID, periodID string) ([]domain.PeriodLock, error) {
	return listPeriodLocks(ctx, r.DB, `SELECT `+lockColumns+` FROM accounting_period_locks
		WHERE company_id = ? AND period_id = ? ORDER BY created_at, lock_id`, companyID, periodID)
}

func scanPeriod(row rowScanner) (models.AccountingPeriod, error) {
	var m models.AccountingPeriod
	var start, end, createdAt string
	var name sql.NullString
	if err := row.Scan(&m.PeriodID, &m.CompanyID, &start, &end, &name, &createdAt, &m.CreatedBy); err != nil {
		return m, err
	}
	var err error
	if m.StartDate, err = parseDate(start); err != nil {
		return m, fmt.Errorf("bad start_date %q: %w", start, err)
	}
	if m.EndDate, err = parseDate(end); err != nil {
		return m, fmt.Errorf("bad end_date %q: %w", end, err)
	}
	if m.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return m, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	m.Name = nullableString(name)
	return m, nil
}

func findPeriod(ctx context.Context, q querier, companyID, periodID string) (*domain.AccountingPeriod, error) {
	m, err := scanPeriod(q.QueryRowContext(ctx,
		`SELECT `+periodColumns+` FROM accounting_periods WHERE company_id = ? AND period_id = ?`,
		companyID, periodID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	period := mapping.ToDomainPeriod(m)
	return &period, nil
}

func findPeriodsCovering(ctx context.Context, q querier, companyID string, date time.Time) ([]domain.AccountingPeriod, error) {
	day := formatDate(date)
	rows, err := q.QueryContext(ctx, `SELECT `+periodColumns+` FROM accounting_periods
		WHERE company_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date DESC, created_at DESC, period_id DESC`, companyID, day, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods covering %s: %w", day, err)
	}
	defer rows.Close()

	periods := []domain.AccountingPeriod{}
	for rows.Next() {
		m, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period row: %w", err)
		}
		periods = append(periods, mapping.ToDomainPeriod(m))
	}
	return periods, rows.Err()
}

func listPeriodLocks(ctx context.Context, q querier, query string, args ...any) ([]domain.PeriodLock, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query period locks: %w", err)
	}
	defer rows.Close()

	locks := []domain.PeriodLock{}
	for rows.Next() {
		var m models.PeriodLock
		var createdAt string
		if err := rows.Scan(&m.LockID, &m.PeriodID, &m.CompanyID, &m.Action, &m.ActorID, &m.Reason, &m.CorrelationID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan period lock: %w", err)
		}
		if m.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
		}
		locks = append(locks, mapping.ToDomainPeriodLock(m))
	}
	return locks, rows.Err()
}

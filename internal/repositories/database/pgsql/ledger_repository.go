package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_ledger/internal/models"
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/mapping"
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const FULL_TRANSACTION_SELECT_QUERY = `
SELECT
	transaction_id, company_id, transaction_number, transaction_date, transaction_type,
	description, reference_number, currency_code, idempotency_key, reversal_of_transaction_id,
	created_at, created_by
FROM transactions
`

const FULL_LINE_SELECT_QUERY = `
SELECT
	line_id, transaction_id, company_id, line_number, account_id, side, amount_minor,
	currency_code, description
FROM transaction_lines
`

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for posted transactions.
func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// WithinTx runs fn in one database transaction. It commits when fn returns nil and rolls
// back otherwise, returning fn's error unchanged.
func (r *PgxLedgerRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) (err error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	// Will be ignored if transaction is committed successfully
	defer func() {
		if err != nil {
			_ = r.Rollback(ctx, tx)
		}
	}()

	if err = fn(ctx, &pgxLedgerTx{q: tx}); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// FindTransactionByID retrieves a transaction and its lines within a company.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, companyID, transactionID string) (*domain.Transaction, error) {
	return findTransaction(ctx, r.Pool, `WHERE company_id = $1 AND transaction_id = $2`, companyID, transactionID)
}

// ListTransactions retrieves a page of transactions using token-based pagination.
func (r *PgxLedgerRepository) ListTransactions(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	filter := `WHERE company_id = $1`
	args := []any{companyID}
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		filter += ` AND (transaction_date, created_at, transaction_id) < ($2, $3, $4)`
		args = append(args, cursor.Date, cursor.CreatedAt, cursor.TransactionID)
	}
	filter += fmt.Sprintf(` ORDER BY transaction_date DESC, created_at DESC, transaction_id DESC LIMIT $%d`, len(args)+1)
	args = append(args, fetchLimit)

	headers, err := queryTransactions(ctx, r.Pool, filter, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transactions for company %s: %w", companyID, err)
	}

	var next *string
	if len(headers) > limit {
		headers = headers[:limit]
		last := headers[len(headers)-1]
		token := pagination.EncodeToken(pagination.Cursor{
			Date:          last.TransactionDate,
			CreatedAt:     last.CreatedAt,
			TransactionID: last.TransactionID,
		})
		next = &token
	}

	txns, err := attachLines(ctx, r.Pool, headers)
	if err != nil {
		return nil, nil, err
	}
	return txns, next, nil
}

// pgxLedgerTx is the set of operations available inside WithinTx.
type pgxLedgerTx struct {
	q querier
}

var _ portsrepo.LedgerTx = (*pgxLedgerTx)(nil)

// LockPeriodsCoveringDate takes FOR SHARE locks so a concurrent transition waits for this unit.
func (t *pgxLedgerTx) LockPeriodsCoveringDate(ctx context.Context, companyID string, date time.Time) ([]domain.AccountingPeriod, error) {
	return findPeriods(ctx, t.q, `WHERE company_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date DESC, created_at DESC, period_id DESC
		FOR SHARE`, companyID, domain.NormalizeDate(date))
}

func (t *pgxLedgerTx) LockPeriodForUpdate(ctx context.Context, companyID, periodID string) (*domain.AccountingPeriod, error) {
	periods, err := findPeriods(ctx, t.q, `WHERE company_id = $1 AND period_id = $2 FOR UPDATE`, companyID, periodID)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &periods[0], nil
}

func (t *pgxLedgerTx) ListPeriodLocks(ctx context.Context, periodID string) ([]domain.PeriodLock, error) {
	return listPeriodLocks(ctx, t.q, `WHERE period_id = $1 ORDER BY created_at, lock_id`, periodID)
}

func (t *pgxLedgerTx) AppendPeriodLock(ctx context.Context, lock domain.PeriodLock) error {
	m := mapping.ToModelPeriodLock(lock)
	_, err := t.q.Exec(ctx, `
		INSERT INTO accounting_period_locks (lock_id, period_id, company_id, action, actor_id, reason, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
		m.LockID, m.PeriodID, m.CompanyID, m.Action, m.ActorID, m.Reason, m.CorrelationID, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: lock %s: %w", apperrors.ErrDuplicate, m.LockID, err)
		}
		return fmt.Errorf("failed to append lock %s to period %s: %w", m.LockID, m.PeriodID, err)
	}
	return nil
}

func (t *pgxLedgerTx) InsertPeriod(ctx context.Context, period domain.AccountingPeriod) (bool, error) {
	m := mapping.ToModelPeriod(period)
	tag, err := t.q.Exec(ctx, `
		INSERT INTO accounting_periods (period_id, company_id, start_date, end_date, name, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING;`,
		m.PeriodID, m.CompanyID, m.StartDate, m.EndDate, m.Name, m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert period %s: %w", m.PeriodID, err)
	}
	return inserted(tag), nil
}

func (t *pgxLedgerTx) InsertTransaction(ctx context.Context, txn domain.Transaction) (bool, error) {
	m := mapping.ToModelTransaction(txn)
	tag, err := t.q.Exec(ctx, `
		INSERT INTO transactions (
			transaction_id, company_id, transaction_number, transaction_date, transaction_type,
			description, reference_number, currency_code, idempotency_key, reversal_of_transaction_id,
			created_at, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT DO NOTHING;`,
		m.TransactionID,
		m.CompanyID,
		m.TransactionNumber,
		m.TransactionDate,
		m.TransactionType,
		m.Description,
		m.ReferenceNumber,
		m.CurrencyCode,
		m.IdempotencyKey,
		m.ReversalOfTransactionID,
		m.CreatedAt,
		m.CreatedBy,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction %s: %w", m.TransactionID, err)
	}
	return inserted(tag), nil
}

// InsertLines queues every line in one batch.
func (t *pgxLedgerTx) InsertLines(ctx context.Context, lines []domain.TransactionLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO transaction_lines (line_id, transaction_id, company_id, line_number, account_id, side, amount_minor, currency_code, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	for _, line := range lines {
		m := mapping.ToModelLine(line)
		batch.Queue(lineQuery,
			m.LineID,
			m.TransactionID,
			m.CompanyID,
			m.LineNumber,
			m.AccountID,
			string(m.Side),
			m.AmountMinor,
			m.CurrencyCode,
			m.Description,
		)
	}

	// Close the batch results to check for errors in each command
	br := t.q.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: lines of transaction %s: %w", apperrors.ErrDuplicate, lines[0].TransactionID, err)
		}
		return fmt.Errorf("failed to insert lines of transaction %s: %w", lines[0].TransactionID, err)
	}
	return nil
}

func (t *pgxLedgerTx) FindLineIDs(ctx context.Context, transactionID string) ([]string, error) {
	rows, err := t.q.Query(ctx,
		`SELECT line_id FROM transaction_lines WHERE transaction_id = $1 ORDER BY line_number`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line ids for transaction %s: %w", transactionID, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect line ids: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (t *pgxLedgerTx) FindReversalOf(ctx context.Context, companyID, originalID string) (*domain.Transaction, error) {
	return findTransaction(ctx, t.q, `WHERE company_id = $1 AND reversal_of_transaction_id = $2`, companyID, originalID)
}

func inserted(tag pgconn.CommandTag) bool {
	return tag.RowsAffected() == 1
}

func queryTransactions(ctx context.Context, q querier, filterQuery string, args ...any) ([]models.Transaction, error) {
	rows, err := q.Query(ctx, FULL_TRANSACTION_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, err
	}
	headers, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		return nil, fmt.Errorf("failed to collect transaction rows: %w", err)
	}
	return headers, nil
}

func findTransaction(ctx context.Context, q querier, filterQuery string, args ...any) (*domain.Transaction, error) {
	headers, err := queryTransactions(ctx, q, filterQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	if len(headers) == 0 {
		return nil, apperrors.ErrNotFound
	}
	txns, err := attachLines(ctx, q, headers[:1])
	if err != nil {
		return nil, err
	}
	return &txns[0], nil
}

// attachLines loads the lines of every header in one query, ordered by line number.
func attachLines(ctx context.Context, q querier, headers []models.Transaction) ([]domain.Transaction, error) {
	txns := make([]domain.Transaction, 0, len(headers))
	if len(headers) == 0 {
		return txns, nil
	}

	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.TransactionID
	}
	rows, err := q.Query(ctx, FULL_LINE_SELECT_QUERY+`WHERE transaction_id = ANY($1) ORDER BY transaction_id, line_number`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction lines: %w", err)
	}
	lines, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.TransactionLine])
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to collect transaction lines: %w", err)
	}

	byTxn := make(map[string][]models.TransactionLine, len(headers))
	for _, l := range lines {
		byTxn[l.TransactionID] = append(byTxn[l.TransactionID], l)
	}
	for _, h := range headers {
		txns = append(txns, mapping.ToDomainTransaction(h, byTxn[h.TransactionID]))
	}
	return txns, nil
}

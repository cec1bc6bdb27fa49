package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_ledger/internal/models"
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/mapping"
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/pagination"
)

const transactionColumns = `transaction_id, company_id, transaction_number, transaction_date, transaction_type,
	description, reference_number, currency_code, idempotency_key, reversal_of_transaction_id,
	created_at, created_by`

const lineColumns = `line_id, transaction_id, company_id, line_number, account_id, side, amount_minor,
	currency_code, description`

type SQLiteLedgerRepository struct {
	BaseRepository
}

func newSQLiteLedgerRepository(db *sql.DB) *SQLiteLedgerRepository {
	return &SQLiteLedgerRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.LedgerRepositoryFacade = (*SQLiteLedgerRepository)(nil)

// WithinTx runs fn in one write transaction. It commits when fn returns nil and rolls back
// otherwise, returning fn's error unchanged.
func (r *SQLiteLedgerRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) (err error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = r.Rollback(tx)
		}
	}()

	if err = fn(ctx, &sqliteLedgerTx{q: tx}); err != nil {
		return err
	}
	return r.Commit(tx)
}

// FindTransactionByID retrieves a transaction and its lines within a company.
func (r *SQLiteLedgerRepository) FindTransactionByID(ctx context.Context, companyID, transactionID string) (*domain.Transaction, error) {
	return findTransaction(ctx, r.DB,
		`SELECT `+transactionColumns+` FROM transactions WHERE company_id = ? AND transaction_id = ?`,
		companyID, transactionID)
}

// ListTransactions retrieves a page of transactions using token-based pagination.
func (r *SQLiteLedgerRepository) ListTransactions(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE company_id = ?`
	args := []any{companyID}

	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (transaction_date, created_at, transaction_id) < (?, ?, ?)`
		args = append(args, formatDate(cursor.Date), formatTimestamp(cursor.CreatedAt), cursor.TransactionID)
	}
	query += ` ORDER BY transaction_date DESC, created_at DESC, transaction_id DESC LIMIT ?`
	args = append(args, fetchLimit)

	headers, err := queryTransactions(ctx, r.DB, query, args...)
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

	txns, err := attachLines(ctx, r.DB, headers)
	if err != nil {
		return nil, nil, err
	}
	return txns, next, nil
}

// sqliteLedgerTx is the set of operations available inside WithinTx.
type sqliteLedgerTx struct {
	q querier
}

var _ portsrepo.LedgerTx = (*sqliteLedgerTx)(nil)

// LockPeriodsCoveringDate reads the covering periods. The IMMEDIATE transaction already holds
// the database write lock, so no transition can commit until this unit ends.
func (t *sqliteLedgerTx) LockPeriodsCoveringDate(ctx context.Context, companyID string, date time.Time) ([]domain.AccountingPeriod, error) {
	return findPeriodsCovering(ctx, t.q, companyID, date)
}

func (t *sqliteLedgerTx) LockPeriodForUpdate(ctx context.Context, companyID, periodID string) (*domain.AccountingPeriod, error) {
	return findPeriod(ctx, t.q, companyID, periodID)
}

func (t *sqliteLedgerTx) ListPeriodLocks(ctx context.Context, periodID string) ([]domain.PeriodLock, error) {
	return listPeriodLocks(ctx, t.q, `SELECT `+lockColumns+` FROM accounting_period_locks
		WHERE period_id = ? ORDER BY created_at, lock_id`, periodID)
}

func (t *sqliteLedgerTx) AppendPeriodLock(ctx context.Context, lock domain.PeriodLock) error {
	m := mapping.ToModelPeriodLock(lock)
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO accounting_period_locks (lock_id, period_id, company_id, action, actor_id, reason, correlation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.LockID, m.PeriodID, m.CompanyID, m.Action, m.ActorID, m.Reason, m.CorrelationID, formatTimestamp(m.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: lock %s: %w", apperrors.ErrDuplicate, m.LockID, err)
		}
		return fmt.Errorf("failed to append lock %s to period %s: %w", m.LockID, m.PeriodID, err)
	}
	return nil
}

func (t *sqliteLedgerTx) InsertPeriod(ctx context.Context, period domain.AccountingPeriod) (bool, error) {
	m := mapping.ToModelPeriod(period)
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO accounting_periods (period_id, company_id, start_date, end_date, name, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		m.PeriodID, m.CompanyID, formatDate(m.StartDate), formatDate(m.EndDate), m.Name, formatTimestamp(m.CreatedAt), m.CreatedBy,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert period %s: %w", m.PeriodID, err)
	}
	return inserted(res)
}

func (t *sqliteLedgerTx) InsertTransaction(ctx context.Context, txn domain.Transaction) (bool, error) {
	m := mapping.ToModelTransaction(txn)
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		m.TransactionID, m.CompanyID, m.TransactionNumber, formatDate(m.TransactionDate), m.TransactionType,
		m.Description, m.ReferenceNumber, m.CurrencyCode, m.IdempotencyKey, m.ReversalOfTransactionID,
		formatTimestamp(m.CreatedAt), m.CreatedBy,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction %s: %w", m.TransactionID, err)
	}
	return inserted(res)
}

func (t *sqliteLedgerTx) InsertLines(ctx context.Context, lines []domain.TransactionLine) error {
	for _, line := range lines {
		m := mapping.ToModelLine(line)
		_, err := t.q.ExecContext(ctx, `
			INSERT INTO transaction_lines (`+lineColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.LineID, m.TransactionID, m.CompanyID, m.LineNumber, m.AccountID, string(m.Side), m.AmountMinor,
			m.CurrencyCode, m.Description,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: line %s: %w", apperrors.ErrDuplicate, m.LineID, err)
			}
			return fmt.Errorf("failed to insert line %d of transaction %s: %w", m.LineNumber, m.TransactionID, err)
		}
	}
	return nil
}

func (t *sqliteLedgerTx) FindLineIDs(ctx context.Context, transactionID string) ([]string, error) {
	rows, err := t.q.QueryContext(ctx,
		`SELECT line_id FROM transaction_lines WHERE transaction_id = ? ORDER BY line_number`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line ids for transaction %s: %w", transactionID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan line id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *sqliteLedgerTx) FindReversalOf(ctx context.Context, companyID, originalID string) (*domain.Transaction, error) {
	return findTransaction(ctx, t.q,
		`SELECT `+transactionColumns+` FROM transactions WHERE company_id = ? AND reversal_of_transaction_id = ?`,
		companyID, originalID)
}

func inserted(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var m models.Transaction
	var date, createdAt string
	var description, reference, reversalOf sql.NullString
	err := row.Scan(
		&m.TransactionID,
		&m.CompanyID,
		&m.TransactionNumber,
		&date,
		&m.TransactionType,
		&description,
		&reference,
		&m.CurrencyCode,
		&m.IdempotencyKey,
		&reversalOf,
		&createdAt,
		&m.CreatedBy,
	)
	if err != nil {
		return m, err
	}
	if m.TransactionDate, err = parseDate(date); err != nil {
		return m, fmt.Errorf("bad transaction_date %q: %w", date, err)
	}
	if m.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return m, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	m.Description = nullableString(description)
	m.ReferenceNumber = nullableString(reference)
	m.ReversalOfTransactionID = nullableString(reversalOf)
	return m, nil
}

func findTransaction(ctx context.Context, q querier, query string, args ...any) (*domain.Transaction, error) {
	header, err := scanTransaction(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	txns, err := attachLines(ctx, q, []models.Transaction{header})
	if err != nil {
		return nil, err
	}
	return &txns[0], nil
}

func queryTransactions(ctx context.Context, q querier, query string, args ...any) ([]models.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	headers := []models.Transaction{}
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		headers = append(headers, m)
	}
	return headers, rows.Err()
}

// attachLines loads the lines of every header in one query, ordered by line number.
func attachLines(ctx context.Context, q querier, headers []models.Transaction) ([]domain.Transaction, error) {
	txns := make([]domain.Transaction, 0, len(headers))
	if len(headers) == 0 {
		return txns, nil
	}

	placeholders := make([]string, len(headers))
	args := make([]any, len(headers))
	for i, h := range headers {
		placeholders[i] = "?"
		args[i] = h.TransactionID
	}
	rows, err := q.QueryContext(ctx, `SELECT `+lineColumns+` FROM transaction_lines
		WHERE transaction_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY transaction_id, line_number`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction lines: %w", err)
	}
	defer rows.Close()

	byTxn := make(map[string][]models.TransactionLine, len(headers))
	for rows.Next() {
		var l models.TransactionLine
		var side string
		var description sql.NullString
		if err := rows.Scan(&l.LineID, &l.TransactionID, &l.CompanyID, &l.LineNumber, &l.AccountID,
			&side, &l.AmountMinor, &l.CurrencyCode, &description); err != nil {
			return nil, fmt.Errorf("failed to scan transaction line: %w", err)
		}
		l.Side = models.Side(side)
		l.Description = nullableString(description)
		byTxn[l.TransactionID] = append(byTxn[l.TransactionID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction lines: %w", err)
	}

	for _, h := range headers {
		txns = append(txns, mapping.ToDomainTransaction(h, byTxn[h.TransactionID]))
	}
	return txns, nil
}

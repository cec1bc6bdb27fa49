package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_ledger/internal/models"
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/mapping"
)

// SQLiteAuditRepository stores audit entries in the audit_logs table.
type SQLiteAuditRepository struct {
	BaseRepository
}

func newSQLiteAuditRepository(db *sql.DB) *SQLiteAuditRepository {
	return &SQLiteAuditRepository{BaseRepository: BaseRepository{DB: db}}
}

var (
	_ portsrepo.AuditSink   = (*SQLiteAuditRepository)(nil)
	_ portsrepo.AuditReader = (*SQLiteAuditRepository)(nil)
)

func (r *SQLiteAuditRepository) Record(ctx context.Context, entry domain.AuditLogEntry) error {
	m := mapping.ToModelAuditLog(entry)
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO audit_logs (audit_id, company_id, user_id, action, entity_type, entity_id, changes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.AuditID, m.CompanyID, m.UserID, m.Action, m.EntityType, m.EntityID, string(m.Changes), formatTimestamp(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry %s: %w", m.AuditID, err)
	}
	return nil
}

// ListAuditEntries returns a company's entries, oldest first. An empty entityID lists all of them.
func (r *SQLiteAuditRepository) ListAuditEntries(ctx context.Context, companyID, entityID string) ([]domain.AuditLogEntry, error) {
	query := `SELECT audit_id, company_id, user_id, action, entity_type, entity_id, changes, created_at
		FROM audit_logs WHERE company_id = ?`
	args := []any{companyID}
	if entityID != "" {
		query += ` AND entity_id = ?`
		args = append(args, entityID)
	}
	query += ` ORDER BY created_at, audit_id`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditLogEntry{}
	for rows.Next() {
		var m models.AuditLog
		var changes, createdAt string
		if err := rows.Scan(&m.AuditID, &m.CompanyID, &m.UserID, &m.Action, &m.EntityType, &m.EntityID, &changes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		m.Changes = []byte(changes)
		if m.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
		}
		entries = append(entries, mapping.ToDomainAuditLog(m))
	}
	return entries, rows.Err()
}

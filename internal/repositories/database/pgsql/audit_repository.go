package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_ledger/internal/models"
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxAuditRepository stores audit entries in the audit_logs table.
type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(pool *pgxpool.Pool) *PgxAuditRepository {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var (
	_ portsrepo.AuditSink   = (*PgxAuditRepository)(nil)
	_ portsrepo.AuditReader = (*PgxAuditRepository)(nil)
)

func (r *PgxAuditRepository) Record(ctx context.Context, entry domain.AuditLogEntry) error {
	m := mapping.ToModelAuditLog(entry)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO audit_logs (audit_id, company_id, user_id, action, entity_type, entity_id, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8);`,
		m.AuditID, m.CompanyID, m.UserID, m.Action, m.EntityType, m.EntityID, string(m.Changes), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry %s: %w", m.AuditID, err)
	}
	return nil
}

// ListAuditEntries returns a company's entries, oldest first. An empty entityID lists all of them.
func (r *PgxAuditRepository) ListAuditEntries(ctx context.Context, companyID, entityID string) ([]domain.AuditLogEntry, error) {
	query := `SELECT audit_id, company_id, user_id, action, entity_type, entity_id, changes, created_at
		FROM audit_logs WHERE company_id = $1`
	args := []any{companyID}
	if entityID != "" {
		query += ` AND entity_id = $2`
		args = append(args, entityID)
	}
	query += ` ORDER BY created_at, audit_id`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	modelEntries, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AuditLog])
	if err != nil {
		return nil, fmt.Errorf("failed to collect audit entries: %w", err)
	}
	entries := make([]domain.AuditLogEntry, len(modelEntries))
	for i, m := range modelEntries {
		entries[i] = mapping.ToDomainAuditLog(m)
	}
	return entries, nil
}

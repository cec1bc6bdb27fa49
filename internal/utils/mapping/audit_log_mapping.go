package mapping

import (
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	"github.com/SscSPs/bookkeeping_ledger/internal/models"
)

// ToModelAuditLog converts a domain audit entry to its stored row
func ToModelAuditLog(d domain.AuditLogEntry) models.AuditLog {
	changes := []byte(d.Changes)
	if len(changes) == 0 {
		changes = []byte(`{}`)
	}
	return models.AuditLog{
		AuditID:    d.AuditID,
		CompanyID:  d.CompanyID,
		UserID:     d.UserID,
		Action:     string(d.Action),
		EntityType: d.EntityType,
		EntityID:   d.EntityID,
		Changes:    changes,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

// ToDomainAuditLog converts a stored row to a domain audit entry
func ToDomainAuditLog(m models.AuditLog) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		AuditID:    m.AuditID,
		CompanyID:  m.CompanyID,
		UserID:     m.UserID,
		Action:     domain.AuditAction(m.Action),
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Changes:    m.Changes,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

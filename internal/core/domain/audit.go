package domain

import (
	"encoding/json"
	"time"
)

// AuditAction tags an accounting decision.
type AuditAction string

const (
	AuditTransactionPosted    AuditAction = "accounting.transaction.posted"
	AuditTransactionDuplicate AuditAction = "accounting.transaction.post.duplicate"
	AuditTransactionFailed    AuditAction = "accounting.transaction.post.failed"
	AuditInvariantViolation   AuditAction = "accounting.invariant.violation"
	AuditPeriodViolation      AuditAction = "accounting.period.violation"
	AuditPeriodCreated        AuditAction = "accounting.period.created"
	AuditPeriodTransition     AuditAction = "accounting.period.transition"
	AuditTransactionVoided    AuditAction = "accounting.transaction.voided"
	AuditVoidDuplicate        AuditAction = "accounting.transaction.void.duplicate"
	AuditVoidRejected         AuditAction = "accounting.transaction.void.rejected"
)

// Entity types referenced by audit entries.
const (
	EntityTransaction = "transaction"
	EntityPeriod      = "accounting_period"
)

// AuditLogEntry is an immutable record of one decision.
type AuditLogEntry struct {
	AuditID    string          `json:"auditId"`
	CompanyID  string          `json:"companyId"`
	UserID     string          `json:"userId"`
	Action     AuditAction     `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Changes    json.RawMessage `json:"changes"`
	CreatedAt  time.Time       `json:"createdAt"`
}

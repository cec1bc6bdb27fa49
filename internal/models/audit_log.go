package models

import "time"

// AuditLog is one stored audit entry. Changes holds a JSON object.
type AuditLog struct {
	AuditID    string    `db:"audit_id"`
	CompanyID  string    `db:"company_id"`
	UserID     string    `db:"user_id"`
	Action     string    `db:"action"`
	EntityType string    `db:"entity_type"`
	EntityID   string    `db:"entity_id"`
	Changes    []byte    `db:"changes"`
	CreatedAt  time.Time `db:"created_at"`
}


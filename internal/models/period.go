package models

import "time"

// AccountingPeriod is a company date range; its state lives in the lock log.
type AccountingPeriod struct {
	PeriodID  string    `db:"period_id"`
	CompanyID string    `db:"company_id"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	Name      *string   `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	CreatedBy string    `db:"created_by"`
}

// PeriodLock is one row of the append-only lock log.
type PeriodLock struct {
	LockID        string    `db:"lock_id"`
	PeriodID      string    `db:"period_id"`
	CompanyID     string    `db:"company_id"`
	Action        string    `db:"action"`
	ActorID       string    `db:"actor_id"`
	Reason        string    `db:"reason"`
	CorrelationID string    `db:"correlation_id"`
	CreatedAt     time.Time `db:"created_at"`
}

package dto

import "github.com/SscSPs/bookkeeping_ledger/internal/core/domain"

// CreatePeriodRequest defines an accounting period over an inclusive date range.
type CreatePeriodRequest struct {
	CompanyID string       `json:"companyId" yaml:"companyId" validate:"required"`
	StartDate string       `json:"startDate" yaml:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string       `json:"endDate" yaml:"endDate" validate:"required,datetime=2006-01-02"`
	Name      *string      `json:"name,omitempty" yaml:"name,omitempty"`
	Actor     domain.Actor `json:"actor" yaml:"actor"`
}

// TransitionPeriodRequest appends a state change to a period's lock log.
type TransitionPeriodRequest struct {
	CompanyID     string             `json:"companyId" validate:"required"`
	PeriodID      string             `json:"periodId" validate:"required"`
	NextState     domain.PeriodState `json:"nextState" validate:"required,oneof=OPEN SOFT_CLOSED LOCKED"`
	ActorID       string             `json:"actorId" validate:"required"`
	CorrelationID string             `json:"correlationId,omitempty"`
	Reason        string             `json:"reason" validate:"max=500"`
}

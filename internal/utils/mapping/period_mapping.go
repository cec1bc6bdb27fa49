package mapping

import (
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	"github.com/SscSPs/bookkeeping_ledger/internal/models"
)

func ToModelPeriod(d domain.AccountingPeriod) models.AccountingPeriod {
	return models.AccountingPeriod{
		PeriodID:  d.PeriodID,
		CompanyID: d.CompanyID,
		StartDate: domain.NormalizeDate(d.StartDate),
		EndDate:   domain.NormalizeDate(d.EndDate),
		Name:      d.Name,
		CreatedAt: d.CreatedAt.UTC(),
		CreatedBy: d.CreatedBy,
	}
}

func ToDomainPeriod(m models.AccountingPeriod) domain.AccountingPeriod {
	return domain.AccountingPeriod{
		PeriodID:  m.PeriodID,
		CompanyID: m.CompanyID,
		StartDate: domain.NormalizeDate(m.StartDate),
		EndDate:   domain.NormalizeDate(m.EndDate),
		Name:      m.Name,
		CreatedAt: m.CreatedAt.UTC(),
		CreatedBy: m.CreatedBy,
	}
}

func ToModelPeriodLock(d domain.PeriodLock) models.PeriodLock {
	return models.PeriodLock{
		LockID:        d.LockID,
		PeriodID:      d.PeriodID,
		CompanyID:     d.CompanyID,
		Action:        string(d.Action),
		ActorID:       d.ActorID,
		Reason:        d.Reason,
		CorrelationID: d.CorrelationID,
		CreatedAt:     d.CreatedAt.UTC(),
	}
}

func ToDomainPeriodLock(m models.PeriodLock) domain.PeriodLock {
	return domain.PeriodLock{
		LockID:        m.LockID,
		PeriodID:      m.PeriodID,
		CompanyID:     m.CompanyID,
		Action:        domain.PeriodState(m.Action),
		ActorID:       m.ActorID,
		Reason:        m.Reason,
		CorrelationID: m.CorrelationID,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

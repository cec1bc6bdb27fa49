package services

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
)

// periodSource is where the gate reads periods and lock logs from: the plain reader for
// standalone checks, or the atomic unit of a post or void.
type periodSource interface {
	periodsCovering(ctx context.Context, companyID string, date time.Time) ([]domain.AccountingPeriod, error)
	locksFor(ctx context.Context, companyID, periodID string) ([]domain.PeriodLock, error)
}

type readerSource struct{ reader portsrepo.PeriodReader }

func (r readerSource) periodsCovering(ctx context.Context, companyID string, date time.Time) ([]domain.AccountingPeriod, error) {
	return r.reader.FindPeriodsCoveringDate(ctx, companyID, date)
}

func (r readerSource) locksFor(ctx context.Context, companyID, periodID string) ([]domain.PeriodLock, error) {
	return r.reader.ListPeriodLocks(ctx, companyID, periodID)
}

// txSource locks the covering periods for the rest of the unit.
type txSource struct{ tx portsrepo.LedgerTx }

func (t txSource) periodsCovering(ctx context.Context, companyID string, date time.Time) ([]domain.AccountingPeriod, error) {
	return t.tx.LockPeriodsCoveringDate(ctx, companyID, date)
}

func (t txSource) locksFor(ctx context.Context, _ string, periodID string) ([]domain.PeriodLock, error) {
	return t.tx.ListPeriodLocks(ctx, periodID)
}

// periodGate resolves the state governing a date and rejects non-open dates. Rejection is
// unconditional: owners are rejected like any other actor and must reopen the period first.
type periodGate struct {
	*BaseService
}

func (g periodGate) stateFor(ctx context.Context, src periodSource, companyID string, date time.Time) (domain.PeriodStateResult, error) {
	periods, err := src.periodsCovering(ctx, companyID, domain.NormalizeDate(date))
	if err != nil {
		return domain.PeriodStateResult{}, apperrors.Wrap(apperrors.KindPersistence, err, "failed to load accounting periods")
	}
	period := domain.ResolveCoveringPeriod(periods, date)
	if period == nil {
		return domain.PeriodStateResult{State: domain.PeriodOpen}, nil
	}
	locks, err := src.locksFor(ctx, companyID, period.PeriodID)
	if err != nil {
		return domain.PeriodStateResult{}, apperrors.Wrap(apperrors.KindPersistence, err, "failed to load period lock log")
	}
	return domain.PeriodStateResult{PeriodID: period.PeriodID, State: domain.FoldPeriodState(locks)}, nil
}

// periodClosed travels out of an atomic unit so the rejection is audited after rollback.
type periodClosed struct {
	result domain.PeriodStateResult
	date   time.Time
}

func (p *periodClosed) Error() string {
	return "period " + p.result.PeriodID + " is " + string(p.result.State)
}

// reject audits a period violation and returns the PERIOD_CLOSED error.
func (g periodGate) reject(ctx context.Context, companyID string, closed *periodClosed, actor domain.Actor, operation, entityID string) error {
	rejection := apperrors.Newf(apperrors.KindPeriodClosed, "period %s is %s for %s", closed.result.PeriodID, closed.result.State, closed.date.Format(domain.DateLayout)).
		WithDetail("periodId", closed.result.PeriodID).
		WithDetail("state", string(closed.result.State))

	g.LogWarn(ctx, "Rejected operation in non-open period",
		"company_id", companyID,
		"period_id", closed.result.PeriodID,
		"state", string(closed.result.State),
		"operation", operation,
		"actor_id", actor.UserID,
		"is_owner", actor.IsOwner,
	)

	return g.rejectAudited(ctx, rejection, auditRecord{
		companyID:  companyID,
		userID:     actor.UserID,
		action:     domain.AuditPeriodViolation,
		entityType: domain.EntityTransaction,
		entityID:   entityID,
		changes: map[string]any{
			"operation": operation,
			"date":      closed.date.Format(domain.DateLayout),
			"periodId":  closed.result.PeriodID,
			"state":     closed.result.State,
			"actorRole": actor.Role,
			"isOwner":   actor.IsOwner,
		},
	})
}

// check resolves the state and returns *periodClosed for anything but OPEN.
func (g periodGate) check(ctx context.Context, src periodSource, companyID string, date time.Time) error {
	result, err := g.stateFor(ctx, src, companyID, date)
	if err != nil {
		return err
	}
	if result.State != domain.PeriodOpen {
		return &periodClosed{result: result, date: domain.NormalizeDate(date)}
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_ledger/internal/dto"
	"github.com/SscSPs/bookkeeping_ledger/internal/platform/logging"
	"github.com/SscSPs/bookkeeping_ledger/internal/platform/metrics"
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/identity"
	"go.opentelemetry.io/otel/attribute"
)

type periodService struct {
	BaseService
	periodRepo portsrepo.PeriodReader
	ledgerRepo portsrepo.TransactionManager
	gate       periodGate
}

// PeriodOption is a functional option for configuring the period service
type PeriodOption func(*periodService)

// WithPeriodClock overrides the clock stamping periods, lock entries and audit entries.
func WithPeriodClock(clock func() time.Time) PeriodOption {
	return func(s *periodService) {
		s.Clock = clock
	}
}

// NewPeriodService creates a new period service
func NewPeriodService(periodRepo portsrepo.PeriodReader, ledgerRepo portsrepo.TransactionManager, audit portsrepo.AuditSink, m *metrics.LedgerMetrics, options ...PeriodOption) portssvc.PeriodSvcFacade {
	svc := &periodService{
		BaseService: newBaseService(audit, m),
		periodRepo:  periodRepo,
		ledgerRepo:  ledgerRepo,
	}
	for _, opt := range options {
		opt(svc)
	}
	svc.gate = periodGate{&svc.BaseService}
	return svc
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

// GetPeriodStateForDate resolves the covering period and folds its lock log. Dates without
// a covering period are OPEN with an empty period id.
func (s *periodService) GetPeriodStateForDate(ctx context.Context, companyID string, date time.Time) (*domain.PeriodStateResult, error) {
	if companyID == "" {
		return nil, apperrors.New(apperrors.KindValidation, "company id is required")
	}
	result, err := s.gate.stateFor(ctx, readerSource{s.periodRepo}, companyID, date)
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve period state", "company_id", companyID)
		return nil, err
	}
	return &result, nil
}

// AssertPeriodOpen applies the posting gate outside of a write.
func (s *periodService) AssertPeriodOpen(ctx context.Context, companyID string, date time.Time, actor domain.Actor, operation, entityID string) error {
	if companyID == "" {
		return apperrors.New(apperrors.KindValidation, "company id is required")
	}
	err := s.gate.check(ctx, readerSource{s.periodRepo}, companyID, date)
	var closed *periodClosed
	if errors.As(err, &closed) {
		return s.gate.reject(ctx, companyID, closed, actor, operation, entityID)
	}
	return err
}

// CreatePeriod stores a period whose id derives from company and range; creating the same
// range twice returns the stored period.
func (s *periodService) CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest) (*domain.AccountingPeriod, error) {
	if err := s.Validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid period request")
	}
	start, err := time.Parse(domain.DateLayout, req.StartDate)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid start date")
	}
	end, err := time.Parse(domain.DateLayout, req.EndDate)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid end date")
	}
	if end.Before(start) {
		return nil, apperrors.Newf(apperrors.KindValidation, "period end %s is before start %s", req.EndDate, req.StartDate)
	}

	period := domain.AccountingPeriod{
		PeriodID:  identity.DeriveID(identity.KindPeriod, req.CompanyID, req.StartDate, req.EndDate),
		CompanyID: req.CompanyID,
		StartDate: domain.NormalizeDate(start),
		EndDate:   domain.NormalizeDate(end),
		Name:      req.Name,
		CreatedAt: s.now(),
		CreatedBy: req.Actor.UserID,
	}

	var inserted bool
	err = s.ledgerRepo.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		var err error
		inserted, err = tx.InsertPeriod(ctx, period)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create period", "period_id", period.PeriodID)
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to create period")
	}

	if !inserted {
		stored, err := s.periodRepo.FindPeriodByID(ctx, req.CompanyID, period.PeriodID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindConflict, err, "a period with this range already exists")
		}
		return stored, nil
	}

	if err := s.confirmAudited(ctx, period.PeriodID, auditRecord{
		companyID:  period.CompanyID,
		userID:     req.Actor.UserID,
		action:     domain.AuditPeriodCreated,
		entityType: domain.EntityPeriod,
		entityID:   period.PeriodID,
		changes: map[string]any{
			"startDate": req.StartDate,
			"endDate":   req.EndDate,
			"name":      optional(req.Name),
		},
	}); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Accounting period created", "period_id", period.PeriodID, "start", req.StartDate, "end", req.EndDate)
	return &period, nil
}

// TransitionPeriod appends one entry to the period's lock log. Any state may follow any
// other; the previous entries are never touched.
func (s *periodService) TransitionPeriod(ctx context.Context, req dto.TransitionPeriodRequest) (*domain.PeriodLock, error) {
	started := time.Now()
	ctx, span := s.startSpan(ctx, "ledger.period.transition",
		attribute.String("ledger.company_id", req.CompanyID),
		attribute.String("ledger.period_id", req.PeriodID),
		attribute.String("ledger.next_state", string(req.NextState)),
	)
	ctx = logging.WithFields(ctx, map[string]any{
		"company_id": req.CompanyID,
		"period_id":  req.PeriodID,
		"actor_id":   req.ActorID,
	})

	lock, err := s.transition(ctx, req)
	s.finish(span, "transition", started, "", err)
	return lock, err
}

func (s *periodService) transition(ctx context.Context, req dto.TransitionPeriodRequest) (*domain.PeriodLock, error) {
	req.NextState = domain.PeriodState(strings.ToUpper(string(req.NextState)))
	if err := s.Validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid period transition")
	}
	if !req.NextState.Valid() {
		return nil, apperrors.Newf(apperrors.KindValidation, "unknown period state %q", req.NextState)
	}

	correlationID := strings.TrimSpace(req.CorrelationID)
	if correlationID == "" {
		correlationID = identity.NewSortableID(s.now())
	}
	lock := domain.PeriodLock{
		PeriodID:      req.PeriodID,
		CompanyID:     req.CompanyID,
		Action:        req.NextState,
		ActorID:       req.ActorID,
		Reason:        req.Reason,
		CorrelationID: correlationID,
	}

	var previous domain.PeriodState
	err := s.ledgerRepo.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		if _, err := tx.LockPeriodForUpdate(ctx, req.CompanyID, req.PeriodID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.Wrap(apperrors.KindNotFound, err, "period "+req.PeriodID+" not found")
			}
			return apperrors.Wrap(apperrors.KindPersistence, err, "failed to lock period")
		}
		locks, err := tx.ListPeriodLocks(ctx, req.PeriodID)
		if err != nil {
			return apperrors.Wrap(apperrors.KindPersistence, err, "failed to load period lock log")
		}
		previous = domain.FoldPeriodState(locks)

		// The new entry must fold after every existing one, whichever host's clock is ahead.
		lock.CreatedAt = domain.NextLockTime(locks, s.now())
		lock.LockID = identity.NewSortableID(lock.CreatedAt)
		if err := tx.AppendPeriodLock(ctx, lock); err != nil {
			return apperrors.Wrap(apperrors.KindPersistence, err, "failed to append period lock")
		}
		return nil
	})
	if err != nil {
		if !apperrors.IsKind(err, apperrors.KindNotFound) {
			s.LogError(ctx, err, "Failed to transition period")
		}
		return nil, err
	}

	s.Metrics.IncTransition(string(lock.Action))
	if err := s.confirmAudited(ctx, req.PeriodID, auditRecord{
		companyID:  req.CompanyID,
		userID:     req.ActorID,
		action:     domain.AuditPeriodTransition,
		entityType: domain.EntityPeriod,
		entityID:   req.PeriodID,
		changes: map[string]any{
			"from":          previous,
			"to":            lock.Action,
			"reason":        req.Reason,
			"correlationId": correlationID,
			"lockId":        lock.LockID,
		},
	}); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Period transitioned", "from", string(previous), "to", string(lock.Action), "correlation_id", correlationID)
	return &lock, nil
}

// ListPeriodLocks returns the period's lock log, oldest first.
func (s *periodService) ListPeriodLocks(ctx context.Context, companyID, periodID string) ([]domain.PeriodLock, error) {
	if _, err := s.periodRepo.FindPeriodByID(ctx, companyID, periodID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.KindNotFound, err, "period "+periodID+" not found")
		}
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to load period")
	}
	locks, err := s.periodRepo.ListPeriodLocks(ctx, companyID, periodID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list period locks", "period_id", periodID)
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to list period locks")
	}
	domain.SortPeriodLocks(locks)
	return locks, nil
}

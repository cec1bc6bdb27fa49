package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/services"
	"github.com/SscSPs/bookkeeping_ledger/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PeriodServiceTestSuite struct {
	suite.Suite
	periodRepo *MockPeriodReader
	ledgerRepo *MockLedgerRepository
	tx         *MockLedgerTx
	audit      *MockAuditSink
	service    portssvc.PeriodSvcFacade
	march      domain.AccountingPeriod
}

func (suite *PeriodServiceTestSuite) SetupTest() {
	suite.periodRepo = new(MockPeriodReader)
	suite.tx = new(MockLedgerTx)
	suite.ledgerRepo = &MockLedgerRepository{Tx: suite.tx}
	suite.audit = new(MockAuditSink)
	suite.service = services.NewPeriodService(suite.periodRepo, suite.ledgerRepo, suite.audit, nil)
	suite.march = domain.AccountingPeriod{
		PeriodID:  "period-march",
		CompanyID: "company-1",
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
	}
}

func (suite *PeriodServiceTestSuite) TestGetPeriodStateForDate_NoPeriodIsOpen() {
	ctx := context.Background()
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	suite.periodRepo.On("FindPeriodsCoveringDate", mock.Anything, "company-1", date).Return([]domain.AccountingPeriod{}, nil)

	result, err := suite.service.GetPeriodStateForDate(ctx, "company-1", date)

	suite.Require().NoError(err)
	suite.Equal(domain.PeriodOpen, result.State)
	suite.Empty(result.PeriodID)
	suite.periodRepo.AssertNotCalled(suite.T(), "ListPeriodLocks", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PeriodServiceTestSuite) TestGetPeriodStateForDate_LatestStartWins() {
	ctx := context.Background()
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	quarter := domain.AccountingPeriod{
		PeriodID:  "period-q1",
		CompanyID: "company-1",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	suite.periodRepo.On("FindPeriodsCoveringDate", mock.Anything, "company-1", date).Return([]domain.AccountingPeriod{quarter, suite.march}, nil)
	suite.periodRepo.On("ListPeriodLocks", mock.Anything, "company-1", "period-march").Return([]domain.PeriodLock{
		{LockID: "02", Action: domain.PeriodSoftClosed, CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}, nil)

	result, err := suite.service.GetPeriodStateForDate(ctx, "company-1", date)

	suite.Require().NoError(err)
	suite.Equal("period-march", result.PeriodID)
	suite.Equal(domain.PeriodSoftClosed, result.State)
}

func (suite *PeriodServiceTestSuite) TestGetPeriodStateForDate_StoreFailure() {
	ctx := context.Background()
	suite.periodRepo.On("FindPeriodsCoveringDate", mock.Anything, "company-1", mock.Anything).Return(nil, assert.AnError)

	_, err := suite.service.GetPeriodStateForDate(ctx, "company-1", time.Now())

	suite.True(apperrors.IsKind(err, apperrors.KindPersistence))
}

func (suite *PeriodServiceTestSuite) TestAssertPeriodOpen() {
	ctx := context.Background()
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	suite.periodRepo.On("FindPeriodsCoveringDate", mock.Anything, "company-1", date).Return([]domain.AccountingPeriod{suite.march}, nil)
	suite.periodRepo.On("ListPeriodLocks", mock.Anything, "company-1", "period-march").Return([]domain.PeriodLock{
		{LockID: "01", Action: domain.PeriodSoftClosed, CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}, nil).Once()
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	owner := domain.Actor{UserID: "owner-1", Role: "owner", IsOwner: true}
	err := suite.service.AssertPeriodOpen(ctx, "company-1", date, owner, "post", "JE-9")

	suite.Require().Error(err)
	suite.True(apperrors.IsKind(err, apperrors.KindPeriodClosed))
	suite.Equal([]domain.AuditAction{domain.AuditPeriodViolation}, suite.audit.Actions())
	suite.Equal("JE-9", suite.audit.Entries()[0].EntityID)

	suite.periodRepo.On("ListPeriodLocks", mock.Anything, "company-1", "period-march").Return([]domain.PeriodLock{}, nil).Once()
	suite.NoError(suite.service.AssertPeriodOpen(ctx, "company-1", date, owner, "post", "JE-9"))
	suite.Len(suite.audit.Actions(), 1, "open dates are not audited")
}

func (suite *PeriodServiceTestSuite) TestCreatePeriod() {
	ctx := context.Background()
	var inserted domain.AccountingPeriod
	suite.ledgerRepo.On("WithinTx", mock.Anything).Return(nil)
	suite.tx.On("InsertPeriod", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { inserted = args.Get(1).(domain.AccountingPeriod) }).
		Return(true, nil).Once()
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	req := dto.CreatePeriodRequest{
		CompanyID: "company-1",
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
		Name:      stringPtr("March 2024"),
		Actor:     domain.Actor{UserID: "user-1"},
	}
	period, err := suite.service.CreatePeriod(ctx, req)

	suite.Require().NoError(err)
	suite.NotEmpty(period.PeriodID)
	suite.Equal(inserted.PeriodID, period.PeriodID)
	suite.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), period.EndDate)
	suite.Equal([]domain.AuditAction{domain.AuditPeriodCreated}, suite.audit.Actions())

	suite.tx.On("InsertPeriod", mock.Anything, mock.Anything).Return(false, nil).Once()
	suite.periodRepo.On("FindPeriodByID", mock.Anything, "company-1", period.PeriodID).Return(period, nil).Once()

	again, err := suite.service.CreatePeriod(ctx, req)
	suite.Require().NoError(err)
	suite.Equal(period.PeriodID, again.PeriodID)
	suite.Len(suite.audit.Actions(), 1)
}

func (suite *PeriodServiceTestSuite) TestCreatePeriod_EndBeforeStart() {
	_, err := suite.service.CreatePeriod(context.Background(), dto.CreatePeriodRequest{
		CompanyID: "company-1",
		StartDate: "2024-03-31",
		EndDate:   "2024-03-01",
		Actor:     domain.Actor{UserID: "user-1"},
	})

	suite.True(apperrors.IsKind(err, apperrors.KindValidation))
	suite.ledgerRepo.AssertNotCalled(suite.T(), "WithinTx", mock.Anything)
}

func (suite *PeriodServiceTestSuite) TestTransitionPeriod_AppendsLock() {
	ctx := context.Background()
	var appended domain.PeriodLock
	suite.ledgerRepo.On("WithinTx", mock.Anything).Return(nil)
	suite.tx.On("LockPeriodForUpdate", mock.Anything, "company-1", "period-march").Return(&suite.march, nil)
	suite.tx.On("ListPeriodLocks", mock.Anything, "period-march").Return([]domain.PeriodLock{
		{LockID: "01", Action: domain.PeriodSoftClosed, CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}, nil)
	suite.tx.On("AppendPeriodLock", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { appended = args.Get(1).(domain.PeriodLock) }).
		Return(nil)
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	lock, err := suite.service.TransitionPeriod(ctx, dto.TransitionPeriodRequest{
		CompanyID: "company-1",
		PeriodID:  "period-march",
		NextState: "locked",
		ActorID:   "controller-1",
		Reason:    "year end",
	})

	suite.Require().NoError(err)
	suite.Equal(domain.PeriodLocked, lock.Action)
	suite.Equal(appended, *lock)
	suite.NotEmpty(lock.LockID)
	suite.NotEmpty(lock.CorrelationID, "a correlation id is generated when none is given")
	suite.Equal("controller-1", lock.ActorID)

	suite.Equal([]domain.AuditAction{domain.AuditPeriodTransition}, suite.audit.Actions())
	changes := string(suite.audit.Entries()[0].Changes)
	suite.Contains(changes, `"from":"SOFT_CLOSED"`)
	suite.Contains(changes, `"to":"LOCKED"`)
	suite.Contains(changes, `"reason":"year end"`)
}

func (suite *PeriodServiceTestSuite) TestTransitionPeriod_StampsAfterLatestEntry() {
	ctx := context.Background()
	ahead := time.Date(2024, 4, 1, 10, 0, 2, 0, time.UTC)
	service := services.NewPeriodService(suite.periodRepo, suite.ledgerRepo, suite.audit, nil,
		services.WithPeriodClock(func() time.Time { return ahead.Add(-2 * time.Second) }))

	var appended domain.PeriodLock
	suite.ledgerRepo.On("WithinTx", mock.Anything).Return(nil)
	suite.tx.On("LockPeriodForUpdate", mock.Anything, "company-1", "period-march").Return(&suite.march, nil)
	suite.tx.On("ListPeriodLocks", mock.Anything, "period-march").Return([]domain.PeriodLock{
		{LockID: "01ZZ", Action: domain.PeriodLocked, CreatedAt: ahead},
	}, nil)
	suite.tx.On("AppendPeriodLock", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { appended = args.Get(1).(domain.PeriodLock) }).
		Return(nil)
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	_, err := service.TransitionPeriod(ctx, dto.TransitionPeriodRequest{
		CompanyID: "company-1",
		PeriodID:  "period-march",
		NextState: domain.PeriodOpen,
		ActorID:   "controller-1",
	})

	suite.Require().NoError(err)
	suite.Equal(ahead.Add(time.Microsecond), appended.CreatedAt)
	suite.Equal(domain.PeriodOpen, domain.FoldPeriodState([]domain.PeriodLock{
		{LockID: "01ZZ", Action: domain.PeriodLocked, CreatedAt: ahead},
		appended,
	}))
}

func (suite *PeriodServiceTestSuite) TestTransitionPeriod_KeepsCallerCorrelation() {
	ctx := context.Background()
	suite.ledgerRepo.On("WithinTx", mock.Anything).Return(nil)
	suite.tx.On("LockPeriodForUpdate", mock.Anything, "company-1", "period-march").Return(&suite.march, nil)
	suite.tx.On("ListPeriodLocks", mock.Anything, "period-march").Return([]domain.PeriodLock{}, nil)
	suite.tx.On("AppendPeriodLock", mock.Anything, mock.Anything).Return(nil)
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	lock, err := suite.service.TransitionPeriod(ctx, dto.TransitionPeriodRequest{
		CompanyID:     "company-1",
		PeriodID:      "period-march",
		NextState:     domain.PeriodOpen,
		ActorID:       "controller-1",
		CorrelationID: "req-42",
	})

	suite.Require().NoError(err)
	suite.Equal("req-42", lock.CorrelationID)
}

func (suite *PeriodServiceTestSuite) TestTransitionPeriod_Invalid() {
	ctx := context.Background()

	_, err := suite.service.TransitionPeriod(ctx, dto.TransitionPeriodRequest{
		CompanyID: "company-1", PeriodID: "period-march", NextState: "ARCHIVED", ActorID: "controller-1",
	})
	suite.True(apperrors.IsKind(err, apperrors.KindValidation))

	_, err = suite.service.TransitionPeriod(ctx, dto.TransitionPeriodRequest{
		CompanyID: "company-1", PeriodID: "period-march", NextState: domain.PeriodLocked,
	})
	suite.True(apperrors.IsKind(err, apperrors.KindValidation), "actor is required")

	suite.ledgerRepo.AssertNotCalled(suite.T(), "WithinTx", mock.Anything)
}

func (suite *PeriodServiceTestSuite) TestTransitionPeriod_UnknownPeriod() {
	ctx := context.Background()
	suite.ledgerRepo.On("WithinTx", mock.Anything).Return(nil)
	suite.tx.On("LockPeriodForUpdate", mock.Anything, "company-2", "period-march").Return(nil, apperrors.ErrNotFound)

	_, err := suite.service.TransitionPeriod(ctx, dto.TransitionPeriodRequest{
		CompanyID: "company-2", PeriodID: "period-march", NextState: domain.PeriodLocked, ActorID: "controller-1",
	})

	suite.True(apperrors.IsKind(err, apperrors.KindNotFound))
	suite.tx.AssertNotCalled(suite.T(), "AppendPeriodLock", mock.Anything, mock.Anything)
	suite.audit.AssertNotCalled(suite.T(), "Record", mock.Anything, mock.Anything)
}

func (suite *PeriodServiceTestSuite) TestListPeriodLocks() {
	ctx := context.Background()
	suite.periodRepo.On("FindPeriodByID", mock.Anything, "company-1", "period-march").Return(&suite.march, nil)
	suite.periodRepo.On("ListPeriodLocks", mock.Anything, "company-1", "period-march").Return([]domain.PeriodLock{
		{LockID: "02", Action: domain.PeriodLocked, CreatedAt: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)},
		{LockID: "01", Action: domain.PeriodSoftClosed, CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}, nil)
	suite.periodRepo.On("FindPeriodByID", mock.Anything, "company-2", "period-march").Return(nil, apperrors.ErrNotFound)

	locks, err := suite.service.ListPeriodLocks(ctx, "company-1", "period-march")
	suite.Require().NoError(err)
	suite.Require().Len(locks, 2)
	suite.Equal("01", locks[0].LockID)

	_, err = suite.service.ListPeriodLocks(ctx, "company-2", "period-march")
	suite.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestPeriodServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PeriodServiceTestSuite))
}

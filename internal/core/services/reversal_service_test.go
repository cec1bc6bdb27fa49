package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ReversalServiceTestSuite struct {
	suite.Suite
	ledgerRepo *MockLedgerRepository
	tx         *MockLedgerTx
	audit      *MockAuditSink
	service    portssvc.ReversalSvc
	actor      domain.Actor
	original   domain.Transaction
}

func (suite *ReversalServiceTestSuite) SetupTest() {
	suite.tx = new(MockLedgerTx)
	suite.ledgerRepo = &MockLedgerRepository{Tx: suite.tx}
	suite.audit = new(MockAuditSink)
	suite.service = services.NewReversalService(suite.ledgerRepo, suite.audit, nil)
	suite.actor = domain.Actor{UserID: "user-1", Role: "accountant"}

	suite.original = domain.Transaction{
		CompanyID:         "company-1",
		TransactionID:     "0f1e2d3c-4b5a-8697-a8b9-cadbecfd0e1f",
		TransactionNumber: "JE-001",
		Date:              time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Type:              domain.JournalEntry,
		CurrencyCode:      "USD",
		IdempotencyKey:    "key-1",
		Lines: []domain.TransactionLine{
			{LineID: "line-1", LineNumber: 1, AccountID: "cash", Side: domain.Debit, AmountMinor: 5000000, CurrencyCode: "USD"},
			{LineID: "line-2", LineNumber: 2, AccountID: "equity", Side: domain.Credit, AmountMinor: 5000000, CurrencyCode: "USD"},
		},
	}
}

func (suite *ReversalServiceTestSuite) expectOriginal() {
	original := suite.original
	suite.ledgerRepo.On("FindTransactionByID", mock.Anything, "company-1", original.TransactionID).Return(&original, nil).Once()
}

func (suite *ReversalServiceTestSuite) expectOpenPeriod() {
	suite.ledgerRepo.On("WithinTx", mock.Anything).Return(nil)
	suite.tx.On("LockPeriodsCoveringDate", mock.Anything, "company-1", suite.original.Date).Return([]domain.AccountingPeriod{}, nil)
}

func (suite *ReversalServiceTestSuite) TestVoid_Success() {
	ctx := context.Background()
	reversal := &domain.Transaction{}
	suite.expectOriginal()
	suite.expectOpenPeriod()
	suite.tx.On("FindReversalOf", mock.Anything, "company-1", suite.original.TransactionID).Return(nil, apperrors.ErrNotFound)
	suite.tx.On("InsertTransaction", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { *reversal = args.Get(1).(domain.Transaction) }).
		Return(true, nil).Once()
	suite.tx.On("InsertLines", mock.Anything, mock.Anything).Return(nil).Once()
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)
	suite.ledgerRepo.On("FindTransactionByID", mock.Anything, "company-1",
		mock.MatchedBy(func(id string) bool { return id != suite.original.TransactionID })).Return(reversal, nil).Once()

	result, err := suite.service.VoidByReversal(ctx, "company-1", suite.original.TransactionID, suite.actor, "entered twice")

	suite.Require().NoError(err)
	suite.False(result.Duplicate)
	suite.Equal(reversal.TransactionID, result.ReversalID)
	suite.Equal("JE-001-REV-0f1e2d3c", reversal.TransactionNumber)
	suite.Equal("reversal:"+suite.original.TransactionID, reversal.IdempotencyKey)
	suite.Require().NotNil(reversal.ReversalOfTransactionID)
	suite.Equal(suite.original.TransactionID, *reversal.ReversalOfTransactionID)
	suite.Equal(suite.original.Date, reversal.Date)

	suite.Require().Len(reversal.Lines, 2)
	suite.Equal(domain.Credit, reversal.Lines[0].Side)
	suite.Equal("cash", reversal.Lines[0].AccountID)
	suite.Equal(domain.Debit, reversal.Lines[1].Side)
	suite.Equal("equity", reversal.Lines[1].AccountID)

	for account, net := range domain.NetByAccount(suite.original, *reversal) {
		suite.Zero(net, account)
	}

	suite.Equal([]domain.AuditAction{domain.AuditTransactionPosted, domain.AuditTransactionVoided}, suite.audit.Actions())
	voided := suite.audit.Entries()[1]
	suite.Equal(suite.original.TransactionID, voided.EntityID)
	suite.Contains(string(voided.Changes), reversal.TransactionID)
	suite.Contains(string(voided.Changes), "entered twice")
}

func (suite *ReversalServiceTestSuite) TestVoid_RepeatedReturnsExisting() {
	ctx := context.Background()
	originalID := suite.original.TransactionID
	existing := &domain.Transaction{TransactionID: "reversal-1", ReversalOfTransactionID: &originalID}
	suite.expectOriginal()
	suite.expectOpenPeriod()
	suite.tx.On("FindReversalOf", mock.Anything, "company-1", originalID).Return(existing, nil)
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	result, err := suite.service.VoidByReversal(ctx, "company-1", originalID, suite.actor, "retry")

	suite.Require().NoError(err)
	suite.True(result.Duplicate)
	suite.Equal("reversal-1", result.ReversalID)
	suite.Equal([]domain.AuditAction{domain.AuditVoidDuplicate}, suite.audit.Actions())
	suite.tx.AssertNotCalled(suite.T(), "InsertTransaction", mock.Anything, mock.Anything)
}

func (suite *ReversalServiceTestSuite) TestVoid_LosingConcurrentRaceIsDuplicate() {
	ctx := context.Background()
	winner := &domain.Transaction{}
	suite.expectOriginal()
	suite.expectOpenPeriod()
	suite.tx.On("FindReversalOf", mock.Anything, "company-1", suite.original.TransactionID).Return(nil, apperrors.ErrNotFound)
	// The concurrent winner stored the same derived reversal.
	suite.tx.On("InsertTransaction", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*winner = args.Get(1).(domain.Transaction)
			suite.tx.On("FindLineIDs", mock.Anything, winner.TransactionID).
				Return([]string{winner.Lines[0].LineID, winner.Lines[1].LineID}, nil).Once()
		}).
		Return(false, nil)
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)
	suite.ledgerRepo.On("FindTransactionByID", mock.Anything, "company-1",
		mock.MatchedBy(func(id string) bool { return id != suite.original.TransactionID })).Return(winner, nil).Once()

	result, err := suite.service.VoidByReversal(ctx, "company-1", suite.original.TransactionID, suite.actor, "retry")

	suite.Require().NoError(err)
	suite.True(result.Duplicate)
	suite.Equal(winner.TransactionID, result.ReversalID)
	suite.Equal([]domain.AuditAction{domain.AuditVoidDuplicate}, suite.audit.Actions())
}

func (suite *ReversalServiceTestSuite) TestVoid_NotFound() {
	ctx := context.Background()
	suite.ledgerRepo.On("FindTransactionByID", mock.Anything, "company-2", suite.original.TransactionID).Return(nil, apperrors.ErrNotFound)
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	_, err := suite.service.VoidByReversal(ctx, "company-2", suite.original.TransactionID, suite.actor, "wrong tenant")

	suite.Require().Error(err)
	suite.True(apperrors.IsKind(err, apperrors.KindNotFound))
	suite.Equal([]domain.AuditAction{domain.AuditVoidRejected}, suite.audit.Actions())
	suite.ledgerRepo.AssertNotCalled(suite.T(), "WithinTx", mock.Anything)
}

func (suite *ReversalServiceTestSuite) TestVoid_ReversalOfReversalIsConflict() {
	ctx := context.Background()
	originalID := "a-original"
	reversal := suite.original
	reversal.ReversalOfTransactionID = &originalID
	suite.ledgerRepo.On("FindTransactionByID", mock.Anything, "company-1", reversal.TransactionID).Return(&reversal, nil)
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	_, err := suite.service.VoidByReversal(ctx, "company-1", reversal.TransactionID, suite.actor, "undo the undo")

	suite.True(apperrors.IsKind(err, apperrors.KindConflict))
	suite.Equal([]domain.AuditAction{domain.AuditVoidRejected}, suite.audit.Actions())
}

func (suite *ReversalServiceTestSuite) TestVoid_LockedOriginalPeriod() {
	ctx := context.Background()
	suite.expectOriginal()
	suite.ledgerRepo.On("WithinTx", mock.Anything).Return(nil)
	suite.tx.On("LockPeriodsCoveringDate", mock.Anything, "company-1", suite.original.Date).Return([]domain.AccountingPeriod{{
		PeriodID:  "period-march",
		CompanyID: "company-1",
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}}, nil)
	suite.tx.On("ListPeriodLocks", mock.Anything, "period-march").Return([]domain.PeriodLock{
		{LockID: "01", Action: domain.PeriodLocked, CreatedAt: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)},
	}, nil)
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	_, err := suite.service.VoidByReversal(ctx, "company-1", suite.original.TransactionID, suite.actor, "late fix")

	suite.True(apperrors.IsKind(err, apperrors.KindPeriodClosed))
	suite.Equal([]domain.AuditAction{domain.AuditPeriodViolation}, suite.audit.Actions())
	suite.Contains(string(suite.audit.Entries()[0].Changes), `"operation":"void"`)
	suite.tx.AssertNotCalled(suite.T(), "FindReversalOf", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReversalServiceTestSuite) TestVoid_RequiresReason() {
	ctx := context.Background()
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	_, err := suite.service.VoidByReversal(ctx, "company-1", suite.original.TransactionID, suite.actor, "")

	suite.True(apperrors.IsKind(err, apperrors.KindValidation))
	suite.ledgerRepo.AssertNotCalled(suite.T(), "FindTransactionByID", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReversalServiceTestSuite) TestVoid_ReadBackFailureIsUnconfirmed() {
	ctx := context.Background()
	suite.expectOriginal()
	suite.expectOpenPeriod()
	suite.tx.On("FindReversalOf", mock.Anything, "company-1", suite.original.TransactionID).Return(nil, apperrors.ErrNotFound)
	suite.tx.On("InsertTransaction", mock.Anything, mock.Anything).Return(true, nil)
	suite.tx.On("InsertLines", mock.Anything, mock.Anything).Return(nil)
	suite.audit.On("Record", mock.Anything, mock.Anything).Return(nil)
	suite.ledgerRepo.On("FindTransactionByID", mock.Anything, "company-1", mock.Anything).Return(nil, assert.AnError)

	_, err := suite.service.VoidByReversal(ctx, "company-1", suite.original.TransactionID, suite.actor, "entered twice")

	suite.True(apperrors.IsKind(err, apperrors.KindUnconfirmed))
}

func TestReversalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReversalServiceTestSuite))
}

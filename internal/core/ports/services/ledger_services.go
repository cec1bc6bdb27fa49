package services

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	"github.com/SscSPs/bookkeeping_ledger/internal/dto"
)

// PostingSvc validates and atomically records balanced transactions.
type PostingSvc interface {
	// Post records the entry and returns it as re-read from storage. Re-posting identical
	// content returns the already stored transaction.
	Post(ctx context.Context, req dto.PostTransactionRequest) (*domain.Transaction, error)
}

// TransactionReaderSvc defines read operations for posted transactions.
type TransactionReaderSvc interface {
	GetTransaction(ctx context.Context, companyID, transactionID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, companyID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// PostingSvcFacade combines all posting-related service interfaces.
type PostingSvcFacade interface {
	PostingSvc
	TransactionReaderSvc
}

// ReversalSvc voids transactions by posting offsetting entries.
type ReversalSvc interface {
	// VoidByReversal posts the reversal of transactionID, or returns the existing one.
	VoidByReversal(ctx context.Context, companyID, transactionID string, actor domain.Actor, reason string) (*domain.VoidResult, error)
}

// PeriodGateSvc answers whether a date accepts postings.
type PeriodGateSvc interface {
	GetPeriodStateForDate(ctx context.Context, companyID string, date time.Time) (*domain.PeriodStateResult, error)

	// AssertPeriodOpen returns nil for OPEN dates without auditing. Any other state is audited
	// and rejected with a PERIOD_CLOSED error, for every actor.
	AssertPeriodOpen(ctx context.Context, companyID string, date time.Time, actor domain.Actor, operation, entityID string) error
}

// PeriodWriterSvc defines write operations for periods and their lock logs.
type PeriodWriterSvc interface {
	CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest) (*domain.AccountingPeriod, error)
	TransitionPeriod(ctx context.Context, req dto.TransitionPeriodRequest) (*domain.PeriodLock, error)
}

// PeriodReaderSvc defines read operations for periods.
type PeriodReaderSvc interface {
	ListPeriodLocks(ctx context.Context, companyID, periodID string) ([]domain.PeriodLock, error)
}

// PeriodSvcFacade combines all period-related service interfaces.
type PeriodSvcFacade interface {
	PeriodGateSvc
	PeriodWriterSvc
	PeriodReaderSvc
}

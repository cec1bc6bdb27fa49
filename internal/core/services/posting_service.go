package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
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
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/money"
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/pagination"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultFallbackCurrency = "USD"
	defaultPageSize         = 20
	maxPageSize             = 100
)

// postingService implements the PostingSvcFacade interface
type postingService struct {
	BaseService
	ledgerRepo       portsrepo.LedgerRepositoryFacade
	companyRepo      portsrepo.CompanyReader
	gate             periodGate
	fallbackCurrency string
}

// PostingOption is a functional option for configuring the posting service
type PostingOption func(*postingService)

// WithFallbackCurrency sets the currency used when neither the request nor the company provides one.
func WithFallbackCurrency(code string) PostingOption {
	return func(s *postingService) {
		if code != "" {
			s.fallbackCurrency = strings.ToUpper(code)
		}
	}
}

// WithPostingClock overrides the clock stamping created_at and audit entries.
func WithPostingClock(clock func() time.Time) PostingOption {
	return func(s *postingService) {
		s.Clock = clock
	}
}

// NewPostingService creates a new posting service with the provided options
func NewPostingService(ledgerRepo portsrepo.LedgerRepositoryFacade, companyRepo portsrepo.CompanyReader, audit portsrepo.AuditSink, m *metrics.LedgerMetrics, options ...PostingOption) portssvc.PostingSvcFacade {
	svc := &postingService{
		BaseService:      newBaseService(audit, m),
		ledgerRepo:       ledgerRepo,
		companyRepo:      companyRepo,
		fallbackCurrency: defaultFallbackCurrency,
	}
	svc.gate = periodGate{&svc.BaseService}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.PostingSvcFacade = (*postingService)(nil)

// parsedLine is a request line with its amounts in minor units.
type parsedLine struct {
	input  dto.LineInput
	debit  int64
	credit int64
}

func (l parsedLine) side() domain.Side {
	if l.debit != 0 {
		return domain.Debit
	}
	return domain.Credit
}

func (l parsedLine) amount() int64 {
	if l.debit != 0 {
		return l.debit
	}
	return l.credit
}

func (l parsedLine) description() string {
	if l.input.Description == nil {
		return ""
	}
	return *l.input.Description
}

// Post validates, gates, derives ids, writes atomically, audits and re-reads one entry.
func (s *postingService) Post(ctx context.Context, req dto.PostTransactionRequest) (*domain.Transaction, error) {
	started := time.Now()
	ctx, span := s.startSpan(ctx, "ledger.post",
		attribute.String("ledger.company_id", req.Transaction.CompanyID),
		attribute.String("ledger.transaction_number", req.Transaction.TransactionNumber),
	)
	ctx = logging.WithFields(ctx, map[string]any{
		"company_id":         req.Transaction.CompanyID,
		"transaction_number": req.Transaction.TransactionNumber,
		"actor_id":           req.Actor.UserID,
	})

	txn, duplicate, err := s.post(ctx, req)

	outcome := ""
	if err == nil && duplicate {
		outcome = metrics.OutcomeDuplicate
	}
	s.finish(span, "post", started, outcome, err)
	return txn, err
}

func (s *postingService) post(ctx context.Context, req dto.PostTransactionRequest) (*domain.Transaction, bool, error) {
	header := req.Transaction

	violation := func(rejection *apperrors.Error, changes map[string]any) error {
		changes["reason"] = string(rejection.Kind())
		changes["message"] = rejection.Message()
		s.LogWarn(ctx, "Rejected transaction", "kind", string(rejection.Kind()), "reason", rejection.Message())
		return s.rejectAudited(ctx, rejection, auditRecord{
			companyID:  header.CompanyID,
			userID:     req.Actor.UserID,
			action:     domain.AuditInvariantViolation,
			entityType: domain.EntityTransaction,
			entityID:   header.TransactionNumber,
			changes:    changes,
		})
	}

	if err := s.Validate.Struct(req); err != nil {
		return nil, false, violation(apperrors.Wrap(apperrors.KindValidation, err, "invalid transaction request"), map[string]any{"error": err.Error()})
	}
	date, err := time.Parse(domain.DateLayout, header.Date)
	if err != nil {
		return nil, false, violation(apperrors.Wrap(apperrors.KindValidation, err, "invalid transaction date"), map[string]any{"date": header.Date})
	}

	lines, rejection := parseLines(req.Lines)
	if rejection != nil {
		return nil, false, violation(rejection, map[string]any{"details": rejection.Details()})
	}

	debits, credits, rejection := sumSides(lines)
	if rejection != nil {
		return nil, false, violation(rejection, map[string]any{"details": rejection.Details()})
	}
	if debits != credits {
		unbalanced := apperrors.Newf(apperrors.KindUnbalanced, "debits %s do not equal credits %s",
			money.FormatMinorUnits(debits), money.FormatMinorUnits(credits)).
			WithDetail("debitTotal", money.FormatMinorUnits(debits)).
			WithDetail("creditTotal", money.FormatMinorUnits(credits))
		return nil, false, violation(unbalanced, map[string]any{
			"debitTotal":       money.FormatMinorUnits(debits),
			"creditTotal":      money.FormatMinorUnits(credits),
			"debitTotalMinor":  debits,
			"creditTotalMinor": credits,
		})
	}

	if rejection := checkLineShape(lines); rejection != nil {
		return nil, false, violation(rejection, map[string]any{"details": rejection.Details()})
	}

	currency := s.resolveCurrency(ctx, header)
	txn := s.buildTransaction(header, date, lines, currency, req.Actor)

	var inserted bool
	err = s.ledgerRepo.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		if err := s.gate.check(ctx, txSource{tx}, txn.CompanyID, txn.Date); err != nil {
			return err
		}
		ins, err := writeTransaction(ctx, tx, txn)
		inserted = ins
		return err
	})
	if err != nil {
		var closed *periodClosed
		if errors.As(err, &closed) {
			return nil, false, s.gate.reject(ctx, txn.CompanyID, closed, req.Actor, "post", txn.TransactionID)
		}
		if typed := apperrors.As(err); typed != nil && typed.Kind() == apperrors.KindConflict {
			return nil, false, violation(typed, map[string]any{"transactionId": txn.TransactionID, "idempotencyKey": txn.IdempotencyKey})
		}
		return nil, false, s.writeFailed(ctx, txn, req.Actor, err)
	}

	action := domain.AuditTransactionPosted
	if !inserted {
		action = domain.AuditTransactionDuplicate
		s.LogDebug(ctx, "Transaction already posted, treating as replay", "transaction_id", txn.TransactionID)
	}
	if err := s.confirmAudited(ctx, txn.TransactionID, auditRecord{
		companyID:  txn.CompanyID,
		userID:     req.Actor.UserID,
		action:     action,
		entityType: domain.EntityTransaction,
		entityID:   txn.TransactionID,
		changes: map[string]any{
			"transactionNumber": txn.TransactionNumber,
			"date":              txn.Date.Format(domain.DateLayout),
			"currency":          txn.CurrencyCode,
			"total":             money.FormatMinorUnits(debits),
			"lineCount":         len(txn.Lines),
			"idempotencyKey":    txn.IdempotencyKey,
		},
	}); err != nil {
		return nil, !inserted, err
	}

	stored, err := s.readBack(ctx, txn.CompanyID, txn.TransactionID)
	if err != nil {
		return nil, !inserted, err
	}

	if inserted {
		s.LogInfo(ctx, "Transaction posted",
			"transaction_id", stored.TransactionID,
			"total", money.Display(debits, stored.CurrencyCode),
			"lines", len(stored.Lines),
		)
	}
	return stored, !inserted, nil
}

// writeFailed audits and returns a failure of the atomic unit itself.
func (s *postingService) writeFailed(ctx context.Context, txn domain.Transaction, actor domain.Actor, err error) error {
	s.LogError(ctx, err, "Failed to write transaction", "transaction_id", txn.TransactionID)
	if apperrors.As(err) == nil {
		err = apperrors.Wrap(apperrors.KindPersistence, err, "failed to write transaction "+txn.TransactionID)
	}
	return s.rejectAudited(ctx, err, auditRecord{
		companyID:  txn.CompanyID,
		userID:     actor.UserID,
		action:     domain.AuditTransactionFailed,
		entityType: domain.EntityTransaction,
		entityID:   txn.TransactionID,
		changes:    map[string]any{"transactionNumber": txn.TransactionNumber, "error": err.Error()},
	})
}

// readBack loads what was committed. A failure here is UNCONFIRMED, never PERSISTENCE:
// the write may well be durable and a blind retry must not be encouraged.
func (s *postingService) readBack(ctx context.Context, companyID, transactionID string) (*domain.Transaction, error) {
	stored, err := s.ledgerRepo.FindTransactionByID(ctx, companyID, transactionID)
	if err != nil {
		s.LogError(ctx, err, "Committed transaction could not be read back", "transaction_id", transactionID)
		return nil, apperrors.Wrap(apperrors.KindUnconfirmed, err, "transaction committed but could not be read back").
			WithDetail("transactionId", transactionID)
	}
	return stored, nil
}

func parseLines(inputs []dto.LineInput) ([]parsedLine, *apperrors.Error) {
	lines := make([]parsedLine, len(inputs))
	for i, in := range inputs {
		debit, err := money.ParseToMinorUnits(in.Debit)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInvalidAmount, err, "invalid debit amount on line "+strconv.Itoa(i+1)).
				WithDetail("line", i+1).WithDetail("debit", in.Debit)
		}
		credit, err := money.ParseToMinorUnits(in.Credit)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInvalidAmount, err, "invalid credit amount on line "+strconv.Itoa(i+1)).
				WithDetail("line", i+1).WithDetail("credit", in.Credit)
		}
		lines[i] = parsedLine{input: in, debit: debit, credit: credit}
	}
	return lines, nil
}

func sumSides(lines []parsedLine) (debits, credits int64, rejection *apperrors.Error) {
	var ok bool
	for i, l := range lines {
		if debits, ok = addMinor(debits, l.debit); !ok {
			return 0, 0, apperrors.New(apperrors.KindInvalidAmount, "debit total overflows").WithDetail("line", i+1)
		}
		if credits, ok = addMinor(credits, l.credit); !ok {
			return 0, 0, apperrors.New(apperrors.KindInvalidAmount, "credit total overflows").WithDetail("line", i+1)
		}
	}
	return debits, credits, nil
}

func addMinor(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// checkLineShape requires exactly one positive side per line.
func checkLineShape(lines []parsedLine) *apperrors.Error {
	for i, l := range lines {
		switch {
		case l.debit != 0 && l.credit != 0:
			return apperrors.Newf(apperrors.KindMalformedLine, "line %d has both a debit and a credit", i+1).WithDetail("line", i+1)
		case l.debit == 0 && l.credit == 0:
			return apperrors.Newf(apperrors.KindMalformedLine, "line %d has neither a debit nor a credit", i+1).WithDetail("line", i+1)
		case l.amount() < 0:
			return apperrors.Newf(apperrors.KindMalformedLine, "line %d has a negative amount", i+1).WithDetail("line", i+1)
		}
	}
	return nil
}

// resolveCurrency prefers the request, then the company, then the configured fallback.
func (s *postingService) resolveCurrency(ctx context.Context, header dto.TransactionInput) string {
	if header.CurrencyCode != nil && strings.TrimSpace(*header.CurrencyCode) != "" {
		return strings.ToUpper(strings.TrimSpace(*header.CurrencyCode))
	}
	if s.companyRepo != nil {
		code, err := s.companyRepo.FindDefaultCurrency(ctx, header.CompanyID)
		if err == nil && code != "" {
			return strings.ToUpper(code)
		}
		errText := ""
		if err != nil {
			errText = err.Error()
		}
		s.LogWarn(ctx, "Company currency unavailable, using fallback", "fallback", s.fallbackCurrency, "error", errText)
	}
	return s.fallbackCurrency
}

// buildTransaction derives every identifier from content; nothing depends on time or order.
func (s *postingService) buildTransaction(header dto.TransactionInput, date time.Time, lines []parsedLine, currency string, actor domain.Actor) domain.Transaction {
	idempotencyKey := ""
	if header.IdempotencyKey != nil {
		idempotencyKey = strings.TrimSpace(*header.IdempotencyKey)
	}
	if idempotencyKey == "" {
		idempotencyKey = contentKey(header, date, lines, currency)
	}

	txnID := identity.DeriveID(identity.KindTransaction, header.CompanyID, header.TransactionNumber, idempotencyKey)
	now := s.now()

	txn := domain.Transaction{
		CompanyID:         header.CompanyID,
		TransactionID:     txnID,
		TransactionNumber: header.TransactionNumber,
		Date:              domain.NormalizeDate(date),
		Type:              header.Type,
		Description:       header.Description,
		ReferenceNumber:   header.ReferenceNumber,
		CurrencyCode:      currency,
		IdempotencyKey:    idempotencyKey,
		CreatedAt:         now,
		CreatedBy:         actor.UserID,
	}
	txn.Lines = deriveLines(txn, lines)
	return txn
}

func deriveLines(txn domain.Transaction, lines []parsedLine) []domain.TransactionLine {
	seen := make(map[string]int, len(lines))
	out := make([]domain.TransactionLine, len(lines))
	for i, l := range lines {
		side := l.side()
		amount := strconv.FormatInt(l.amount(), 10)
		shape := strings.Join([]string{l.input.AccountID, string(side), amount, l.description()}, "\x00")
		occurrence := seen[shape]
		seen[shape]++

		out[i] = domain.TransactionLine{
			LineID: identity.DeriveID(identity.KindLine,
				txn.CompanyID, txn.TransactionID, l.input.AccountID, string(side), amount,
				txn.CurrencyCode, l.description(), strconv.Itoa(occurrence)),
			TransactionID: txn.TransactionID,
			CompanyID:     txn.CompanyID,
			LineNumber:    i + 1,
			AccountID:     l.input.AccountID,
			Side:          side,
			AmountMinor:   l.amount(),
			CurrencyCode:  txn.CurrencyCode,
			Description:   l.input.Description,
		}
	}
	return out
}

// contentKey is the system idempotency key for requests without one. Lines are sorted, so
// resubmitting the same entry with its lines reordered is still a replay.
func contentKey(header dto.TransactionInput, date time.Time, lines []parsedLine, currency string) string {
	shapes := make([]string, len(lines))
	for i, l := range lines {
		shapes[i] = strings.Join([]string{l.input.AccountID, string(l.side()), strconv.FormatInt(l.amount(), 10), l.description()}, "\x00")
	}
	sort.Strings(shapes)

	components := []string{
		header.CompanyID,
		header.TransactionNumber,
		date.Format(domain.DateLayout),
		string(header.Type),
		currency,
		optional(header.Description),
		optional(header.ReferenceNumber),
	}
	components = append(components, shapes...)
	return identity.DeriveID(identity.KindIdempotency, components...)
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetTransaction returns a transaction scoped to its company.
func (s *postingService) GetTransaction(ctx context.Context, companyID, transactionID string) (*domain.Transaction, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, companyID, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.KindNotFound, err, "transaction "+transactionID+" not found")
		}
		s.LogError(ctx, err, "Failed to load transaction", "transaction_id", transactionID)
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to load transaction "+transactionID)
	}
	return txn, nil
}

// ListTransactions returns one page of a company's transactions.
func (s *postingService) ListTransactions(ctx context.Context, companyID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	if companyID == "" {
		return nil, apperrors.New(apperrors.KindValidation, "company id is required")
	}
	limit := pagination.ClampLimit(params.Limit, defaultPageSize, maxPageSize)

	txns, nextToken, err := s.ledgerRepo.ListTransactions(ctx, companyID, limit, params.NextToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid pagination token")
		}
		s.LogError(ctx, err, "Failed to list transactions", "company_id", companyID)
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to list transactions")
	}
	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	}, nil
}

package services

import (
	"context"
	"errors"
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
	"go.opentelemetry.io/otel/attribute"
)

const reversalKeyPrefix = "reversal:"

type reversalService struct {
	BaseService
	ledgerRepo portsrepo.LedgerRepositoryFacade
	gate       periodGate
}

// NewReversalService creates a new reversal service
func NewReversalService(ledgerRepo portsrepo.LedgerRepositoryFacade, audit portsrepo.AuditSink, m *metrics.LedgerMetrics) portssvc.ReversalSvc {
	svc := &reversalService{
		BaseService: newBaseService(audit, m),
		ledgerRepo:  ledgerRepo,
	}
	svc.gate = periodGate{&svc.BaseService}
	return svc
}

var _ portssvc.ReversalSvc = (*reversalService)(nil)

// VoidByReversal posts the offsetting entry for transactionID. At most one reversal exists
// per original; repeated calls return it with Duplicate set.
func (s *reversalService) VoidByReversal(ctx context.Context, companyID, transactionID string, actor domain.Actor, reason string) (*domain.VoidResult, error) {
	started := time.Now()
	ctx, span := s.startSpan(ctx, "ledger.void",
		attribute.String("ledger.company_id", companyID),
		attribute.String("ledger.transaction_id", transactionID),
	)
	ctx = logging.WithFields(ctx, map[string]any{
		"company_id":     companyID,
		"transaction_id": transactionID,
		"actor_id":       actor.UserID,
	})

	result, err := s.void(ctx, dto.VoidTransactionRequest{
		CompanyID:     companyID,
		TransactionID: transactionID,
		Reason:        reason,
		Actor:         actor,
	})

	outcome := ""
	if err == nil && result.Duplicate {
		outcome = metrics.OutcomeDuplicate
	}
	s.finish(span, "void", started, outcome, err)
	return result, err
}

func (s *reversalService) void(ctx context.Context, req dto.VoidTransactionRequest) (*domain.VoidResult, error) {
	rejected := func(rejection error, changes map[string]any) error {
		changes["reason"] = req.Reason
		changes["kind"] = string(apperrors.KindOf(rejection))
		s.LogWarn(ctx, "Rejected void", "kind", string(apperrors.KindOf(rejection)))
		return s.rejectAudited(ctx, rejection, auditRecord{
			companyID:  req.CompanyID,
			userID:     req.Actor.UserID,
			action:     domain.AuditVoidRejected,
			entityType: domain.EntityTransaction,
			entityID:   req.TransactionID,
			changes:    changes,
		})
	}

	if err := s.Validate.Struct(req); err != nil {
		return nil, rejected(apperrors.Wrap(apperrors.KindValidation, err, "invalid void request"), map[string]any{"error": err.Error()})
	}

	original, err := s.ledgerRepo.FindTransactionByID(ctx, req.CompanyID, req.TransactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, rejected(apperrors.Wrap(apperrors.KindNotFound, err, "transaction "+req.TransactionID+" not found"), map[string]any{})
		}
		s.LogError(ctx, err, "Failed to load transaction to void")
		return nil, rejected(apperrors.Wrap(apperrors.KindPersistence, err, "failed to load transaction "+req.TransactionID), map[string]any{})
	}
	if original.IsReversal() {
		return nil, rejected(apperrors.Newf(apperrors.KindConflict, "transaction %s is itself a reversal", original.TransactionID).
			WithDetail("reversalOfTransactionId", *original.ReversalOfTransactionID), map[string]any{})
	}

	reversal := s.buildReversal(*original, req.Actor)

	var existing *domain.Transaction
	var inserted bool
	err = s.ledgerRepo.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		if err := s.gate.check(ctx, txSource{tx}, original.CompanyID, original.Date); err != nil {
			return err
		}
		found, err := tx.FindReversalOf(ctx, original.CompanyID, original.TransactionID)
		switch {
		case err == nil:
			existing = found
			return nil
		case !errors.Is(err, apperrors.ErrNotFound):
			return apperrors.Wrap(apperrors.KindPersistence, err, "failed to look up existing reversal")
		}
		inserted, err = writeTransaction(ctx, tx, reversal)
		return err
	})
	if err != nil {
		var closed *periodClosed
		if errors.As(err, &closed) {
			return nil, s.gate.reject(ctx, original.CompanyID, closed, req.Actor, "void", original.TransactionID)
		}
		if apperrors.IsKind(err, apperrors.KindConflict) {
			return nil, rejected(err, map[string]any{"reversalNumber": reversal.TransactionNumber})
		}
		s.LogError(ctx, err, "Failed to write reversal")
		if apperrors.As(err) == nil {
			err = apperrors.Wrap(apperrors.KindPersistence, err, "failed to write reversal")
		}
		return nil, rejected(err, map[string]any{"reversalId": reversal.TransactionID})
	}

	if existing != nil || !inserted {
		return s.duplicate(ctx, req, existing, reversal.TransactionID)
	}

	if err := s.confirmAudited(ctx, reversal.TransactionID, auditRecord{
		companyID:  reversal.CompanyID,
		userID:     req.Actor.UserID,
		action:     domain.AuditTransactionPosted,
		entityType: domain.EntityTransaction,
		entityID:   reversal.TransactionID,
		changes: map[string]any{
			"transactionNumber":       reversal.TransactionNumber,
			"date":                    reversal.Date.Format(domain.DateLayout),
			"currency":                reversal.CurrencyCode,
			"lineCount":               len(reversal.Lines),
			"reversalOfTransactionId": original.TransactionID,
		},
	}); err != nil {
		return nil, err
	}
	if err := s.confirmAudited(ctx, original.TransactionID, auditRecord{
		companyID:  original.CompanyID,
		userID:     req.Actor.UserID,
		action:     domain.AuditTransactionVoided,
		entityType: domain.EntityTransaction,
		entityID:   original.TransactionID,
		changes: map[string]any{
			"reversalId": reversal.TransactionID,
			"reason":     req.Reason,
		},
	}); err != nil {
		return nil, err
	}

	stored, err := s.ledgerRepo.FindTransactionByID(ctx, reversal.CompanyID, reversal.TransactionID)
	if err != nil {
		s.LogError(ctx, err, "Committed reversal could not be read back", "reversal_id", reversal.TransactionID)
		return nil, apperrors.Wrap(apperrors.KindUnconfirmed, err, "reversal committed but could not be read back").
			WithDetail("transactionId", reversal.TransactionID)
	}

	debits, _ := stored.Totals()
	s.LogInfo(ctx, "Transaction voided by reversal",
		"reversal_id", stored.TransactionID,
		"total", money.Display(debits, stored.CurrencyCode),
	)
	return &domain.VoidResult{ReversalID: stored.TransactionID, Reversal: stored}, nil
}

// duplicate answers a repeated void with the reversal already on record.
func (s *reversalService) duplicate(ctx context.Context, req dto.VoidTransactionRequest, existing *domain.Transaction, derivedID string) (*domain.VoidResult, error) {
	reversalID := derivedID
	if existing != nil {
		reversalID = existing.TransactionID
	}
	s.LogDebug(ctx, "Transaction already reversed", "reversal_id", reversalID)

	if err := s.confirmAudited(ctx, req.TransactionID, auditRecord{
		companyID:  req.CompanyID,
		userID:     req.Actor.UserID,
		action:     domain.AuditVoidDuplicate,
		entityType: domain.EntityTransaction,
		entityID:   req.TransactionID,
		changes:    map[string]any{"reversalId": reversalID, "reason": req.Reason},
	}); err != nil {
		return nil, err
	}

	if existing == nil {
		found, err := s.ledgerRepo.FindTransactionByID(ctx, req.CompanyID, reversalID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindUnconfirmed, err, "existing reversal could not be read back").
				WithDetail("transactionId", reversalID)
		}
		existing = found
	}
	return &domain.VoidResult{ReversalID: reversalID, Duplicate: true, Reversal: existing}, nil
}

// buildReversal mirrors the original line for line with sides flipped. Its ids derive from
// the original's id, so every attempt to reverse the same transaction yields the same entry.
func (s *reversalService) buildReversal(original domain.Transaction, actor domain.Actor) domain.Transaction {
	number := original.TransactionNumber + "-REV-" + identity.ShortID(original.TransactionID)
	key := reversalKeyPrefix + original.TransactionID
	description := "Reversal of " + original.TransactionNumber
	originalID := original.TransactionID

	reversal := domain.Transaction{
		CompanyID:               original.CompanyID,
		TransactionID:           identity.DeriveID(identity.KindTransaction, original.CompanyID, number, key),
		TransactionNumber:       number,
		Date:                    original.Date,
		Type:                    original.Type,
		Description:             &description,
		ReferenceNumber:         original.ReferenceNumber,
		CurrencyCode:            original.CurrencyCode,
		IdempotencyKey:          key,
		ReversalOfTransactionID: &originalID,
		CreatedAt:               s.now(),
		CreatedBy:               actor.UserID,
	}

	reversal.Lines = make([]domain.TransactionLine, len(original.Lines))
	for i, line := range original.Lines {
		side := line.Side.Opposite()
		reversal.Lines[i] = domain.TransactionLine{
			LineID: identity.DeriveID(identity.KindLine,
				reversal.CompanyID, reversal.TransactionID, line.LineID, string(side)),
			TransactionID: reversal.TransactionID,
			CompanyID:     reversal.CompanyID,
			LineNumber:    line.LineNumber,
			AccountID:     line.AccountID,
			Side:          side,
			AmountMinor:   line.AmountMinor,
			CurrencyCode:  line.CurrencyCode,
			Description:   line.Description,
		}
	}
	return reversal
}

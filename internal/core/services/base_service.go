package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_ledger/internal/platform/logging"
	"github.com/SscSPs/bookkeeping_ledger/internal/platform/metrics"
	"github.com/SscSPs/bookkeeping_ledger/internal/utils/identity"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

const tracerName = "github.com/SscSPs/bookkeeping_ledger/internal/core/services"

// BaseService provides common functionality for all services
type BaseService struct {
	Audit    portsrepo.AuditSink
	Metrics  *metrics.LedgerMetrics
	Validate *validator.Validate
	Clock    func() time.Time
}

func newBaseService(audit portsrepo.AuditSink, m *metrics.LedgerMetrics) BaseService {
	return BaseService{
		Audit:    audit,
		Metrics:  m,
		Validate: validator.New(),
		Clock:    time.Now,
	}
}

// GetLogger gets the logger from context
func (s *BaseService) GetLogger(ctx context.Context) *zerolog.Logger {
	return logging.FromContext(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	s.GetLogger(ctx).Error().Err(err).Fields(keyvals).Msg(msg)
}

// LogWarn logs a rejected operation
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn().Fields(keyvals).Msg(msg)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info().Fields(keyvals).Msg(msg)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug().Fields(keyvals).Msg(msg)
}

// now returns the service clock in UTC at microsecond precision, the finest both stores keep.
func (s *BaseService) now() time.Time {
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Truncate(time.Microsecond)
}

// auditRecord is one decision about to be sent to the sink.
type auditRecord struct {
	companyID  string
	userID     string
	action     domain.AuditAction
	entityType string
	entityID   string
	changes    map[string]any
}

// recordAudit sends one entry to the sink. Failures are logged, counted and returned.
func (s *BaseService) recordAudit(ctx context.Context, rec auditRecord) error {
	changes, err := json.Marshal(rec.changes)
	if err != nil {
		changes = []byte(`{}`)
	}
	now := s.now()
	entry := domain.AuditLogEntry{
		AuditID:    identity.NewSortableID(now),
		CompanyID:  rec.companyID,
		UserID:     rec.userID,
		Action:     rec.action,
		EntityType: rec.entityType,
		EntityID:   rec.entityID,
		Changes:    changes,
		CreatedAt:  now,
	}
	if s.Audit == nil {
		return nil
	}
	if err := s.Audit.Record(ctx, entry); err != nil {
		s.Metrics.IncAuditFailure()
		s.LogError(ctx, err, "Failed to record audit entry", "action", string(rec.action), "entity_id", rec.entityID)
		return apperrors.Wrap(apperrors.KindPersistence, err, "failed to record audit entry "+string(rec.action))
	}
	return nil
}

// rejectAudited audits a rejection before it is returned. An audit failure is appended to
// the rejection, which keeps its kind.
func (s *BaseService) rejectAudited(ctx context.Context, rejection error, rec auditRecord) error {
	return multierr.Append(rejection, s.recordAudit(ctx, rec))
}

// confirmAudited audits a committed change. If the sink refuses the entry the caller cannot
// tell the change was recorded, so the result is UNCONFIRMED.
func (s *BaseService) confirmAudited(ctx context.Context, entityID string, rec auditRecord) error {
	if err := s.recordAudit(ctx, rec); err != nil {
		return apperrors.Wrap(apperrors.KindUnconfirmed, err, "change committed but its audit entry was not recorded").
			WithDetail("entityId", entityID)
	}
	return nil
}

func (s *BaseService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// finish closes the span and records metrics for one operation.
func (s *BaseService) finish(span trace.Span, operation string, started time.Time, outcome string, err error) {
	kind := ""
	if err != nil {
		kind = string(apperrors.KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		if outcome == "" {
			outcome = outcomeFor(err)
		}
	} else if outcome == "" {
		outcome = metrics.OutcomeCommitted
	}
	span.SetAttributes(attribute.String("ledger.outcome", outcome))
	span.End()
	s.Metrics.ObserveOperation(operation, outcome, kind, time.Since(started))
}

func outcomeFor(err error) string {
	switch apperrors.KindOf(err) {
	case apperrors.KindPersistence, apperrors.KindUnconfirmed:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomeRejected
	}
}

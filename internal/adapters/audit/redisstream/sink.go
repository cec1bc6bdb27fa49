package redisstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	"github.com/redis/go-redis/v9"
)

// DefaultStream is used when no stream name is configured.
const DefaultStream = "ledger:audit"

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Sink appends audit entries to a Redis stream, one stream entry per audit entry.
type Sink struct {
	client streamAdder
	stream string
	maxLen int64
}

var _ portsrepo.AuditSink = (*Sink)(nil)

// Option configures a Sink.
type Option func(*Sink)

// WithMaxLen caps the stream approximately at n entries. Zero keeps everything.
func WithMaxLen(n int64) Option {
	return func(s *Sink) { s.maxLen = n }
}

// New wraps an existing client.
func New(client *redis.Client, stream string, options ...Option) *Sink {
	if stream == "" {
		stream = DefaultStream
	}
	s := &Sink{client: client, stream: stream}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Connect parses a redis:// URL, verifies connectivity and returns the sink with its client,
// which the caller closes.
func Connect(ctx context.Context, url, stream string, options ...Option) (*Sink, *redis.Client, error) {
	if url == "" {
		return nil, nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, stream, options...), client, nil
}

// Record publishes the entry. The stream id is assigned by Redis; audit_id stays the entry's identity.
func (s *Sink) Record(ctx context.Context, entry domain.AuditLogEntry) error {
	changes := string(entry.Changes)
	if changes == "" {
		changes = "{}"
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"audit_id":    entry.AuditID,
			"company_id":  entry.CompanyID,
			"user_id":     entry.UserID,
			"action":      string(entry.Action),
			"entity_type": string(entry.EntityType),
			"entity_id":   entry.EntityID,
			"changes":     changes,
			"created_at":  entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish audit entry %s to %s: %w", entry.AuditID, s.stream, err)
	}
	return nil
}

package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/infrastructure/metrics"
)

// Option configures the ambient dependencies shared by use cases.
type Option func(*options)

type options struct {
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	retrier   Retrier
	auditRepo AuditRepository
}

func newOptions(opts []Option) options {
	o := options{
		logger:  zerolog.Nop(),
		now:     time.Now,
		retrier: noRetry{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRetrier wraps every unit of work in r.
func WithRetrier(r Retrier) Option {
	return func(o *options) {
		if r != nil {
			o.retrier = r
		}
	}
}

// WithAuditRepository records control actions in the audit log.
func WithAuditRepository(repo AuditRepository) Option {
	return func(o *options) { o.auditRepo = repo }
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, op func() error) error { return op() }

// runInTx executes fn in a transaction and commits it. The whole unit is
// re-run by the retrier on transient lock errors.
func (o *options) runInTx(ctx context.Context, txManager TransactionManager, fn func(ctx context.Context, tx Transaction) error) error {
	return o.retrier.Retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	})
}

// audit writes an audit record inside tx when auditing is enabled.
func (o *options) audit(ctx context.Context, tx Transaction, log *domain.AuditLog) error {
	if o.auditRepo == nil {
		return nil
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = o.now().UTC()
	}
	if log.Status == "" {
		log.Status = domain.AuditStatusSuccess
	}
	return o.auditRepo.CreateTx(ctx, tx, log)
}

// outboxEvent builds an outbox event for payload.
func (o *options) outboxEvent(id, aggregateType, aggregateID, eventType string, payload any) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            id,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       domain.MarshalState(payload),
		CreatedAt:     o.now().UTC(),
	}
}

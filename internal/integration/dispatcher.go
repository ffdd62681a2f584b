package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
)

// FailureLedger is the durable record of failed posting attempts.
type FailureLedger interface {
	RecordFailure(ctx context.Context, key domain.EventKey, payload json.RawMessage, cause error) (*domain.PostingFailure, error)
	ResolveFailure(ctx context.Context, key domain.EventKey) error
	GetFailure(ctx context.Context, key domain.EventKey) (*domain.PostingFailure, error)
	ListOpenFailures(ctx context.Context, limit, offset int) ([]*domain.PostingFailure, error)
}

// Enqueuer hands an envelope to a background worker.
type Enqueuer interface {
	EnqueuePosting(ctx context.Context, env Envelope) error
}

// PostingError is returned when posting failed for a reason that may go away,
// such as a lock timeout or a missing account mapping. Recorded tells whether
// the failure made it into the failure ledger for a later retry.
type PostingError struct {
	Key      domain.EventKey
	Err      error
	Recorded bool
}

func (e *PostingError) Error() string {
	if e.Recorded {
		return fmt.Sprintf("posting %s failed and was recorded for retry: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("posting %s failed: %v", e.Key, e.Err)
}

func (e *PostingError) Unwrap() error { return e.Err }

// RetryReport summarizes a retry sweep.
type RetryReport struct {
	Attempted int `json:"attempted"`
	Resolved  int `json:"resolved"`
	Failed    int `json:"failed"`
}

type handlerFunc func(ctx context.Context, payload json.RawMessage) (*domain.JournalEntry, error)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithEnqueuer makes post-commit hooks enqueue events instead of posting them inline.
func WithEnqueuer(q Enqueuer) DispatcherOption {
	return func(d *Dispatcher) { d.enqueuer = q }
}

// Dispatcher routes events to their hook and keeps the failure ledger in step:
// transient failures are recorded, successes resolve any open record, and
// invariant violations go straight back to the caller.
type Dispatcher struct {
	handlers map[string]handlerFunc
	failures FailureLedger
	enqueuer Enqueuer
	logger   zerolog.Logger
}

// NewDispatcher creates a Dispatcher with every hook of h registered.
func NewDispatcher(h *Hooks, failures FailureLedger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handlers: map[string]handlerFunc{
			EventInvoiceSent:                handle(h.InvoiceSent),
			EventPaymentReceived:            handle(h.PaymentReceived),
			EventChequeCleared:              handle(h.ChequeCleared),
			EventAdvanceReceived:            handle(h.AdvanceReceived),
			EventAdvanceRefunded:            handle(h.AdvanceRefunded),
			EventTaxInvoiceVAT:              handle(h.TaxInvoiceVAT),
			EventSalesCreditNoteApproved:    handle(h.SalesCreditNoteApproved),
			EventSupplierBillApproved:       handle(h.SupplierBillApproved),
			EventBillPaid:                   handle(h.BillPaid),
			EventSupplierCreditNoteApproved: handle(h.SupplierCreditNoteApproved),
			EventBankTransactionApproved:    handle(h.BankTransactionApproved),
			EventPayoutVoucherApproved:      handle(h.PayoutVoucherApproved),
			EventPOSSale:                    handle(h.POSSale),
			EventZReportClosed:              handle(h.ZReportClosed),
			EventOpeningBalance:             handle(h.OpeningBalance),
		},
		failures: failures,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func handle[E Event](fn func(context.Context, E) (*domain.JournalEntry, error)) handlerFunc {
	return func(ctx context.Context, payload json.RawMessage) (*domain.JournalEntry, error) {
		var ev E
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return fn(ctx, ev)
	}
}

// Dispatch posts ev now. A nil entry with a nil error means the event needed
// no journal entry.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (*domain.JournalEntry, error) {
	env, err := NewEnvelope(ev)
	if err != nil {
		return nil, err
	}
	return d.DispatchEnvelope(ctx, env)
}

// DispatchEnvelope posts a serialized event.
func (d *Dispatcher) DispatchEnvelope(ctx context.Context, env Envelope) (*domain.JournalEntry, error) {
	handler, ok := d.handlers[env.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoHandler, env.Name)
	}

	entry, err := handler(ctx, env.Payload)
	if err != nil {
		if Permanent(err) {
			d.logger.Warn().Err(err).Str("key", env.Key.String()).Msg("event rejected")
			return nil, err
		}
		return nil, d.record(ctx, env, err)
	}

	if err := d.failures.ResolveFailure(ctx, failureKey(env.Key)); err != nil {
		d.logger.Error().Err(err).Str("key", env.Key.String()).Msg("failed to resolve posting failure")
	}
	if entry != nil {
		d.logger.Info().
			Str("key", env.Key.String()).
			Str("entry_id", entry.ID).
			Str("number", entry.Number).
			Msg("event posted")
	}
	return entry, nil
}

// AfterCommit arranges for ev to be posted once tx commits: inline when no
// enqueuer is configured, through the enqueuer otherwise. Failures land in the
// failure ledger; nothing is posted if tx rolls back.
func (d *Dispatcher) AfterCommit(tx usecase.Transaction, ev Event) error {
	env, err := NewEnvelope(ev)
	if err != nil {
		return err
	}
	tx.AfterCommit(func(ctx context.Context) {
		if d.enqueuer != nil {
			_ = d.enqueue(ctx, env)
			return
		}
		_, _ = d.DispatchEnvelope(ctx, env)
	})
	return nil
}

// DispatchAsync hands ev to the enqueuer, posting inline when none is
// configured. An event that cannot be enqueued is recorded for retry.
func (d *Dispatcher) DispatchAsync(ctx context.Context, ev Event) error {
	env, err := NewEnvelope(ev)
	if err != nil {
		return err
	}
	if d.enqueuer == nil {
		_, err := d.DispatchEnvelope(ctx, env)
		return err
	}
	return d.enqueue(ctx, env)
}

func (d *Dispatcher) enqueue(ctx context.Context, env Envelope) error {
	if err := d.enqueuer.EnqueuePosting(ctx, env); err != nil {
		return d.record(ctx, env, fmt.Errorf("failed to enqueue: %w", err))
	}
	d.logger.Debug().Str("key", env.Key.String()).Msg("event enqueued")
	return nil
}

// Retry re-dispatches the event recorded under key. An event that is still
// rejected keeps its record open with the new error.
func (d *Dispatcher) Retry(ctx context.Context, key domain.EventKey) (*domain.JournalEntry, error) {
	failure, err := d.failures.GetFailure(ctx, key)
	if err != nil {
		return nil, err
	}
	env, err := DecodeEnvelope(failure.Payload)
	if err != nil {
		return nil, err
	}

	entry, err := d.DispatchEnvelope(ctx, env)
	if err != nil && Permanent(err) {
		if _, recErr := d.failures.RecordFailure(context.WithoutCancel(ctx), key, failure.Payload, err); recErr != nil {
			d.logger.Error().Err(recErr).Str("key", key.String()).Msg("failed to update posting failure")
		}
	}
	return entry, err
}

// RetryOpen retries up to limit open failures, oldest first.
func (d *Dispatcher) RetryOpen(ctx context.Context, limit int) (RetryReport, error) {
	var report RetryReport

	open, err := d.failures.ListOpenFailures(ctx, limit, 0)
	if err != nil {
		return report, err
	}

	for _, f := range open {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Attempted++
		if _, err := d.Retry(ctx, f.Key()); err != nil {
			report.Failed++
			continue
		}
		report.Resolved++
	}

	d.logger.Info().
		Int("attempted", report.Attempted).
		Int("resolved", report.Resolved).
		Int("failed", report.Failed).
		Msg("retry sweep finished")
	return report, nil
}

// record stores a transient failure. It uses a context that outlives the
// caller's, since a cancelled context is a common cause of the failure itself.
func (d *Dispatcher) record(ctx context.Context, env Envelope, cause error) error {
	perr := &PostingError{Key: env.Key, Err: cause}

	raw, err := env.Marshal()
	if err == nil {
		_, err = d.failures.RecordFailure(context.WithoutCancel(ctx), failureKey(env.Key), raw, cause)
	}
	if err != nil {
		d.logger.Error().Err(err).AnErr("cause", cause).Str("key", env.Key.String()).Msg("failed to record posting failure")
		return perr
	}
	perr.Recorded = true
	return perr
}

// Permanent reports whether err will not go away by retrying the same event.
func Permanent(err error) bool {
	return domain.IsStructural(err) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, domain.ErrNoHandler)
}

// failureKey is the key a failure is recorded under. Failure records are keyed
// by source id, so reference-keyed events carry their reference there.
func failureKey(key domain.EventKey) domain.EventKey {
	if key.HasSourceID() {
		return domain.EventKey{SourceType: key.SourceType, SourceID: key.SourceID, EventType: key.EventType}
	}
	return domain.EventKey{SourceType: key.SourceType, SourceID: "ref:" + key.SourceReference, EventType: key.EventType}
}

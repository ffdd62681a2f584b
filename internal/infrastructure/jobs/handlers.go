package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/infrastructure/metrics"
	"github.com/iho/ledgerpost/internal/integration"
)

// DefaultRetryBatch caps a sweep whose payload does not say otherwise.
const DefaultRetryBatch = 100

// Job outcomes reported on the jobs_processed metric.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeRecorded = "recorded"
	outcomeRetry    = "retry"
)

// Poster is the part of the dispatcher the worker drives.
type Poster interface {
	DispatchEnvelope(ctx context.Context, env integration.Envelope) (*domain.JournalEntry, error)
	RetryOpen(ctx context.Context, limit int) (integration.RetryReport, error)
}

// Handlers processes ledger tasks.
type Handlers struct {
	poster  Poster
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewHandlers creates task handlers. m may be nil.
func NewHandlers(poster Poster, logger zerolog.Logger, m *metrics.Metrics) *Handlers {
	return &Handlers{poster: poster, logger: logger, metrics: m}
}

// TaskHandlers lists the handlers to register on a worker.
func (h *Handlers) TaskHandlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskPostEvent, Handler: h.HandlePostEvent},
		{Type: TaskRetryFailures, Handler: h.HandleRetryFailures},
	}
}

// HandlePostEvent posts the event in the task payload.
//
// Rejected events and failures already in the failure ledger are not retried
// by asynq: the first need a different decision, the second are owned by the
// retry sweep. Only failures that could not be recorded are handed back to
// asynq for another attempt.
func (h *Handlers) HandlePostEvent(ctx context.Context, t *asynq.Task) error {
	env, err := integration.DecodeEnvelope(t.Payload())
	if err != nil {
		h.observe(TaskPostEvent, outcomeRejected)
		h.logger.Error().Err(err).Msg("dropping malformed posting task")
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	entry, err := h.poster.DispatchEnvelope(ctx, env)
	if err == nil {
		h.observe(TaskPostEvent, outcomeOK)
		if entry != nil {
			h.logger.Debug().Str("key", env.Key.String()).Str("entry_id", entry.ID).Msg("posting task done")
		}
		return nil
	}

	if integration.Permanent(err) {
		h.observe(TaskPostEvent, outcomeRejected)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	var perr *integration.PostingError
	if errors.As(err, &perr) && perr.Recorded {
		h.observe(TaskPostEvent, outcomeRecorded)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	h.observe(TaskPostEvent, outcomeRetry)
	return err
}

// HandleRetryFailures runs one retry sweep over the failure ledger.
func (h *Handlers) HandleRetryFailures(ctx context.Context, t *asynq.Task) error {
	payload := RetryFailuresPayload{Limit: DefaultRetryBatch}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			h.observe(TaskRetryFailures, outcomeRejected)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
	}
	if payload.Limit <= 0 {
		payload.Limit = DefaultRetryBatch
	}

	report, err := h.poster.RetryOpen(ctx, payload.Limit)
	if err != nil {
		h.observe(TaskRetryFailures, outcomeRetry)
		return err
	}

	h.observe(TaskRetryFailures, outcomeOK)
	h.logger.Info().
		Int("attempted", report.Attempted).
		Int("resolved", report.Resolved).
		Int("failed", report.Failed).
		Msg("failure sweep done")
	return nil
}

func (h *Handlers) observe(task, outcome string) {
	if h.metrics == nil {
		return
	}
	h.metrics.JobsProcessed.WithLabelValues(task, outcome).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Journal metrics
	EntriesCreated   prometheus.Counter
	EntriesPosted    prometheus.Counter
	EntriesReversed  prometheus.Counter
	PostingDuration  *prometheus.HistogramVec
	PostingErrors    *prometheus.CounterVec
	PostedAmount     prometheus.Histogram
	NumberCollisions prometheus.Counter

	// Idempotency metrics
	IdempotentHits prometheus.Counter
	DuplicateRaces prometheus.Counter

	// Failure ledger metrics
	FailuresRecorded *prometheus.CounterVec
	FailuresResolved *prometheus.CounterVec

	// Period metrics
	PeriodTransitions *prometheus.CounterVec

	// Database metrics
	DBRetries *prometheus.CounterVec

	// Job metrics
	JobsProcessed *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Journal metrics
		EntriesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerpost_entries_created_total",
			Help: "Total number of journal entries created",
		}),
		EntriesPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerpost_entries_posted_total",
			Help: "Total number of journal entries posted",
		}),
		EntriesReversed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerpost_entries_reversed_total",
			Help: "Total number of journal entries reversed",
		}),
		PostingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgerpost_posting_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		PostingErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerpost_posting_errors_total",
				Help: "Total number of posting errors by kind",
			},
			[]string{"operation", "kind"},
		),
		PostedAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgerpost_posted_amount",
			Help:    "Total debit of posted entries",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		NumberCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerpost_journal_number_collisions_total",
			Help: "Journal number collisions retried at insert time",
		}),

		// Idempotency metrics
		IdempotentHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerpost_idempotent_hits_total",
			Help: "create-or-get calls answered with an existing entry",
		}),
		DuplicateRaces: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerpost_duplicate_races_total",
			Help: "Unique-key races recovered by returning the winning entry",
		}),

		// Failure ledger metrics
		FailuresRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerpost_failures_recorded_total",
				Help: "Posting failures recorded by event type",
			},
			[]string{"event_type"},
		),
		FailuresResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerpost_failures_resolved_total",
				Help: "Posting failures resolved by event type",
			},
			[]string{"event_type"},
		),

		// Period metrics
		PeriodTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerpost_period_transitions_total",
				Help: "Fiscal period status transitions",
			},
			[]string{"status"},
		),

		// Database metrics
		DBRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerpost_db_retries_total",
				Help: "Transactions retried after deadlock or serialization failure",
			},
			[]string{"code"},
		),

		// Job metrics
		JobsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerpost_jobs_processed_total",
				Help: "Background jobs processed by task type and outcome",
			},
			[]string{"task", "outcome"},
		),
	}
}

// ObserveDuration records the duration of a ledger operation.
func (m *Metrics) ObserveDuration(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.PostingDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// CountError records a failed ledger operation.
func (m *Metrics) CountError(operation, kind string) {
	if m == nil {
		return
	}
	m.PostingErrors.WithLabelValues(operation, kind).Inc()
}

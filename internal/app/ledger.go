// Package app assembles the ledger from its repositories so the daemon and
// the operator CLI share one wiring.
package app

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/adapter/repository/memory"
	"github.com/iho/ledgerpost/internal/adapter/repository/postgres"
	"github.com/iho/ledgerpost/internal/infrastructure/metrics"
	"github.com/iho/ledgerpost/internal/integration"
	"github.com/iho/ledgerpost/internal/usecase"
)

// Stores bundles the repositories of one backend.
type Stores struct {
	TxManager usecase.TransactionManager
	Accounts  usecase.AccountRepository
	Periods   usecase.PeriodRepository
	Journal   usecase.JournalRepository
	Ledger    usecase.LedgerRepository
	Failures  usecase.FailureRepository
	Outbox    usecase.OutboxRepository
	Audit     usecase.AuditRepository
	Mappings  usecase.MappingRepository
}

// PostgresStores returns the Postgres-backed repositories over pool.
func PostgresStores(pool postgres.DB) Stores {
	return Stores{
		TxManager: postgres.NewTxManager(pool),
		Accounts:  postgres.NewAccountRepository(pool),
		Periods:   postgres.NewPeriodRepository(pool),
		Journal:   postgres.NewJournalRepository(pool),
		Ledger:    postgres.NewLedgerRepository(pool),
		Failures:  postgres.NewFailureRepository(pool),
		Outbox:    postgres.NewOutboxRepository(pool),
		Audit:     postgres.NewAuditRepository(pool),
		Mappings:  postgres.NewMappingRepository(pool),
	}
}

// MemoryStores returns the in-memory repositories of s.
func MemoryStores(s *memory.Store) Stores {
	return Stores{
		TxManager: s,
		Accounts:  s.Accounts(),
		Periods:   s.Periods(),
		Journal:   s.Journal(),
		Ledger:    s.Ledger(),
		Failures:  s.Failures(),
		Outbox:    s.Outbox(),
		Audit:     s.Audit(),
		Mappings:  s.Mappings(),
	}
}

// Options carries the ambient dependencies of a Ledger. Zero values are usable.
type Options struct {
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	IDGen   usecase.IDGenerator
	// Cache is optional; nil falls back to the journal lookup.
	Cache   usecase.EntryKeyCache
	Retrier usecase.Retrier
	Now     func() time.Time
	VATRate decimal.Decimal
	// Enqueuer switches after-commit posting to the job queue.
	Enqueuer integration.Enqueuer
}

// Ledger is every use case wired over one set of stores.
type Ledger struct {
	Stores Stores

	Accounts   *usecase.AccountUseCase
	Periods    *usecase.PeriodUseCase
	Journal    *usecase.JournalUseCase
	Posting    *usecase.PostingUseCase
	Reversal   *usecase.ReversalUseCase
	Failures   *usecase.FailureUseCase
	Integrity  *usecase.LedgerUseCase
	Hooks      *integration.Hooks
	Dispatcher *integration.Dispatcher
}

// NewLedger wires the use cases, posting hooks and dispatcher over s.
func NewLedger(s Stores, o Options) *Ledger {
	idGen := o.IDGen
	if idGen == nil {
		idGen = postgres.NewULIDGenerator()
	}

	ucOpts := []usecase.Option{
		usecase.WithLogger(o.Logger),
		usecase.WithMetrics(o.Metrics),
		usecase.WithClock(o.Now),
		usecase.WithRetrier(o.Retrier),
		usecase.WithAuditRepository(s.Audit),
	}

	l := &Ledger{Stores: s}
	l.Accounts = usecase.NewAccountUseCase(s.TxManager, s.Accounts, s.Journal, idGen, ucOpts...)
	l.Periods = usecase.NewPeriodUseCase(s.TxManager, s.Periods, s.Outbox, idGen, ucOpts...)
	l.Journal = usecase.NewJournalUseCase(s.TxManager, s.Journal, s.Accounts, s.Outbox, l.Accounts, l.Periods, idGen, ucOpts...)
	l.Posting = usecase.NewPostingUseCase(l.Journal, s.Journal, o.Cache, ucOpts...)
	l.Reversal = usecase.NewReversalUseCase(s.TxManager, s.Journal, s.Periods, s.Outbox, l.Journal, l.Posting, idGen, ucOpts...)
	l.Failures = usecase.NewFailureUseCase(s.Failures, s.Outbox, idGen, ucOpts...)
	l.Integrity = usecase.NewLedgerUseCase(s.Accounts, s.Ledger, ucOpts...)

	l.Hooks = integration.NewHooks(l.Posting, l.Reversal, s.Mappings, o.VATRate)

	dispatcherOpts := []integration.DispatcherOption{integration.WithDispatcherLogger(o.Logger)}
	if o.Enqueuer != nil {
		dispatcherOpts = append(dispatcherOpts, integration.WithEnqueuer(o.Enqueuer))
	}
	l.Dispatcher = integration.NewDispatcher(l.Hooks, l.Failures, dispatcherOpts...)

	return l
}

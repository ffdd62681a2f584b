package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
)

// Repositories accept a nil Transaction for reads outside a unit of work.

// AccountRepository defines data access for the chart of accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByCode(ctx context.Context, tx Transaction, code string) (*domain.Account, error)
	GetByCodes(ctx context.Context, tx Transaction, codes []string) ([]*domain.Account, error)
	// GetByIDsForUpdate locks the accounts in ascending id order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	SetActive(ctx context.Context, tx Transaction, id string, active bool, updatedAt time.Time) error
	Delete(ctx context.Context, tx Transaction, id string) error
	CountChildren(ctx context.Context, tx Transaction, id string) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// PeriodRepository defines data access for fiscal periods.
type PeriodRepository interface {
	Create(ctx context.Context, tx Transaction, period *domain.FiscalPeriod) error
	GetByID(ctx context.Context, tx Transaction, id string) (*domain.FiscalPeriod, error)
	// GetByIDForShare blocks concurrent status changes until tx ends.
	GetByIDForShare(ctx context.Context, tx Transaction, id string) (*domain.FiscalPeriod, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.FiscalPeriod, error)
	// FindOpenByDate returns the open period covering date, share-locked, or ErrPeriodNotFound.
	FindOpenByDate(ctx context.Context, tx Transaction, date time.Time) (*domain.FiscalPeriod, error)
	Count(ctx context.Context, tx Transaction) (int64, error)
	ListOverlapping(ctx context.Context, tx Transaction, start, end time.Time) ([]*domain.FiscalPeriod, error)
	UpdateStatus(ctx context.Context, tx Transaction, period *domain.FiscalPeriod) error
	List(ctx context.Context, limit, offset int) ([]*domain.FiscalPeriod, error)
}

// JournalRepository defines data access for journal entries and their lines.
type JournalRepository interface {
	// Create inserts an unposted entry with its lines. Key collisions return
	// domain.ErrDuplicateJournalNumber or domain.ErrDuplicateSourceEvent and leave tx usable.
	Create(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	GetByID(ctx context.Context, tx Transaction, id string) (*domain.JournalEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.JournalEntry, error)
	GetByNumber(ctx context.Context, tx Transaction, number string) (*domain.JournalEntry, error)
	FindBySourceKey(ctx context.Context, tx Transaction, sourceType domain.SourceType, sourceID, eventType string) (*domain.JournalEntry, error)
	FindByReference(ctx context.Context, tx Transaction, sourceType domain.SourceType, eventType, reference string) (*domain.JournalEntry, error)
	// MaxSequence returns the highest numeric suffix among numbers with prefix, or 0.
	MaxSequence(ctx context.Context, tx Transaction, prefix string) (int, error)
	MarkPosted(ctx context.Context, tx Transaction, id string, postedAt time.Time, periodID string) error
	MarkReversed(ctx context.Context, tx Transaction, id, reversedBy string, reversedAt time.Time) error
	UpdateDraft(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	Delete(ctx context.Context, tx Transaction, id string) error
	ListBySource(ctx context.Context, sourceType domain.SourceType, sourceID string) ([]*domain.JournalEntry, error)
	CountLinesByAccount(ctx context.Context, tx Transaction, accountID string) (int64, error)
}

// LedgerRepository defines data access for ledger-wide integrity checks.
type LedgerRepository interface {
	SumPostedLines(ctx context.Context) (debit, credit decimal.Decimal, err error)
	PostedLinesByAccount(ctx context.Context, accountID string) ([]domain.JournalLine, error)
}

// FailureRepository defines data access for the failure ledger. Writes are
// independent of any posting transaction so they survive its rollback.
type FailureRepository interface {
	// Upsert inserts a failure or bumps attempts on an existing one, re-opening it if resolved.
	Upsert(ctx context.Context, failure *domain.PostingFailure) (*domain.PostingFailure, error)
	// Resolve stamps resolved_at on an open failure and reports whether one existed.
	Resolve(ctx context.Context, key domain.EventKey, resolvedAt time.Time) (bool, error)
	Get(ctx context.Context, key domain.EventKey) (*domain.PostingFailure, error)
	ListOpen(ctx context.Context, limit, offset int) ([]*domain.PostingFailure, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// AccountMapper resolves a posting role such as "ar" or "vat_payable" to an account code.
type AccountMapper interface {
	AccountCode(ctx context.Context, role string) (string, error)
}

// MappingRepository stores the role to account-code mapping.
type MappingRepository interface {
	AccountMapper
	Set(ctx context.Context, role, accountCode string) error
	List(ctx context.Context) (map[string]string, error)
}

// EntryKeyCache remembers which entry answered an idempotency key.
type EntryKeyCache interface {
	// Get returns the cached entry id, or "" on a miss.
	Get(ctx context.Context, key domain.EventKey) (string, error)
	Set(ctx context.Context, key domain.EventKey, entryID string) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// AfterCommit queues fn to run once the transaction commits. Hooks never run on rollback.
	AfterCommit(fn func(ctx context.Context))
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs a unit of work on transient lock failures.
type Retrier interface {
	Retry(ctx context.Context, op func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

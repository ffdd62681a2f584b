package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
)

func testEntry() *domain.JournalEntry {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	amount := decimal.RequireFromString("118.00")
	return &domain.JournalEntry{
		ID:          "entry-1",
		Number:      "JE-20240315-0001",
		EntryDate:   domain.DateOf(now),
		EntryType:   domain.EntryTypeSystem,
		SourceType:  domain.SourceSalesInvoice,
		SourceID:    "42",
		EventType:   "invoice_sent",
		TotalDebit:  amount,
		TotalCredit: amount,
		CreatedAt:   now,
		UpdatedAt:   now,
		Lines: []domain.JournalLine{
			{ID: "line-1", LineNo: 1, AccountID: "acc-ar", Debit: amount, Credit: decimal.Zero, CreatedAt: now},
			{ID: "line-2", LineNo: 2, AccountID: "acc-sales", Debit: decimal.Zero, Credit: amount, CreatedAt: now},
		},
	}
}

func TestJournalRepositoryCreate(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO journal_entries").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("INSERT INTO journal_lines").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("INSERT INTO journal_lines").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()
	mockPool.ExpectCommit()

	ctx := context.Background()
	tx, err := NewTxManager(mockPool).Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	if err := NewJournalRepository(mockPool).Create(ctx, tx, testEntry()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestJournalRepositoryCreateCollisionKeepsTransaction(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO journal_entries").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "journal_entries_number_key"})
	mockPool.ExpectRollback()
	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO journal_entries").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("INSERT INTO journal_lines").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("INSERT INTO journal_lines").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()
	mockPool.ExpectCommit()

	ctx := context.Background()
	tx, err := NewTxManager(mockPool).Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	repo := NewJournalRepository(mockPool)

	entry := testEntry()
	err = repo.Create(ctx, tx, entry)
	if !errors.Is(err, domain.ErrDuplicateJournalNumber) {
		t.Fatalf("expected ErrDuplicateJournalNumber, got %v", err)
	}

	entry.Number = "JE-20240315-0002"
	if err := repo.Create(ctx, tx, entry); err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestJournalRepositoryMarkPostedMissingEntry(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectExec("UPDATE journal_entries").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockPool.ExpectQuery("SELECT (.+) FROM journal_entries WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(entryColumns))

	err := NewJournalRepository(mockPool).MarkPosted(context.Background(), nil, "missing", time.Now(), "")
	if !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestJournalRepositoryGetByIDNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("SELECT (.+) FROM journal_entries WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(entryColumns))

	_, err := NewJournalRepository(mockPool).GetByID(context.Background(), nil, "missing")
	if !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestJournalRepositoryRejectsForeignTransaction(t *testing.T) {
	mockPool := newMockPool(t)

	_, err := NewJournalRepository(mockPool).GetByID(context.Background(), foreignTx{}, "entry-1")
	if !errors.Is(err, ErrForeignTransaction) {
		t.Fatalf("expected ErrForeignTransaction, got %v", err)
	}
}

var entryColumns = []string{
	"id", "number", "entry_date", "entry_type", "source_type", "source_id", "event_type",
	"source_reference", "description", "total_debit", "total_credit", "is_posted", "posted_at",
	"fiscal_period_id", "reverses_id", "is_reversed", "reversed_by", "reversed_at",
	"created_by", "created_at", "updated_at",
}

type foreignTx struct{}

func (foreignTx) Commit(context.Context) error          { return nil }
func (foreignTx) Rollback(context.Context) error        { return nil }
func (foreignTx) AfterCommit(func(ctx context.Context)) {}

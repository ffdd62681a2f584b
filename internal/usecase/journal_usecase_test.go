package usecase_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
	"github.com/iho/ledgerpost/internal/usecase/mocks"
)

func TestJournalUseCase_CreateEntry_AutoPostUpdatesBalances(t *testing.T) {
	l := newLedger(t)
	l.salesAccounts(t)

	entry, err := l.journal.CreateEntry(context.Background(), saleInput("42", dec("1000")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !entry.IsPosted {
		t.Fatal("expected entry to be posted")
	}
	if entry.Number != "JE-20240315-0001" {
		t.Errorf("expected number JE-20240315-0001, got %s", entry.Number)
	}
	if entry.FiscalPeriodID != "" {
		t.Errorf("expected no period without any periods defined, got %s", entry.FiscalPeriodID)
	}
	if !entry.TotalDebit.Equal(dec("1000")) || !entry.TotalCredit.Equal(dec("1000")) {
		t.Errorf("unexpected totals %s/%s", entry.TotalDebit, entry.TotalCredit)
	}
	if got := l.balance(t, "1100"); !got.Equal(dec("1000")) {
		t.Errorf("expected AR balance 1000, got %s", got)
	}
	if got := l.balance(t, "4000"); !got.Equal(dec("1000")) {
		t.Errorf("expected sales balance 1000, got %s", got)
	}
}

func TestJournalUseCase_CreateEntry_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*usecase.CreateEntryInput)
		wantErr error
	}{
		{
			name: "unbalanced",
			mutate: func(in *usecase.CreateEntryInput) {
				in.Lines[1].Credit = dec("900")
			},
			wantErr: domain.ErrUnbalancedEntry,
		},
		{
			name: "unknown account",
			mutate: func(in *usecase.CreateEntryInput) {
				in.Lines[0].AccountCode = "9999"
			},
			wantErr: domain.ErrUnknownAccount,
		},
		{
			name: "grouping account",
			mutate: func(in *usecase.CreateEntryInput) {
				in.Lines[0].AccountCode = "1000"
			},
			wantErr: domain.ErrAccountNotPostable,
		},
		{
			name: "both sides set",
			mutate: func(in *usecase.CreateEntryInput) {
				in.Lines[0].Credit = dec("1")
			},
			wantErr: domain.ErrInvalidLine,
		},
		{
			name: "negative amount",
			mutate: func(in *usecase.CreateEntryInput) {
				in.Lines[0].Debit = dec("-1000")
			},
			wantErr: domain.ErrNegativeAmount,
		},
		{
			name: "too many decimals",
			mutate: func(in *usecase.CreateEntryInput) {
				in.Lines[0].Debit = dec("1000.001")
				in.Lines[1].Credit = dec("1000.001")
			},
			wantErr: domain.ErrAmountPrecision,
		},
		{
			name:    "empty event type",
			mutate:  func(in *usecase.CreateEntryInput) { in.EventType = "" },
			wantErr: domain.ErrEmptyEventType,
		},
		{
			name:    "unknown source type",
			mutate:  func(in *usecase.CreateEntryInput) { in.SourceType = "purchase_order" },
			wantErr: domain.ErrInvalidSourceType,
		},
		{
			name:    "no lines",
			mutate:  func(in *usecase.CreateEntryInput) { in.Lines = nil },
			wantErr: domain.ErrNoLines,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t)
			l.salesAccounts(t)
			if _, err := l.accounts.CreateAccount(context.Background(), usecase.CreateAccountInput{
				Code: "1000", Name: "Current assets", Category: domain.CategoryAsset, Grouping: true,
			}); err != nil {
				t.Fatalf("create grouping account: %v", err)
			}

			input := saleInput("42", dec("1000"))
			tt.mutate(&input)

			_, err := l.journal.CreateEntry(context.Background(), input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !domain.IsStructural(err) {
				t.Errorf("expected %v to be structural", err)
			}

			if n := l.store.Journal().Count(); n != 0 {
				t.Errorf("expected nothing persisted, got %d entries", n)
			}
			if got := l.balance(t, "1100"); !got.IsZero() {
				t.Errorf("expected AR balance untouched, got %s", got)
			}
		})
	}
}

func TestJournalUseCase_CreateEntry_SequentialNumbers(t *testing.T) {
	l := newLedger(t)
	l.salesAccounts(t)

	want := []string{"JE-20240315-0001", "JE-20240315-0002", "JE-20240315-0003"}
	for i, number := range want {
		input := saleInput("", dec("10"))
		// The number follows the creation day, not the entry date.
		input.EntryDate = day(2024, 3, 1+i)

		entry, err := l.journal.CreateEntry(context.Background(), input)
		require.NoError(t, err)
		require.Equal(t, number, entry.Number)
	}
}

func TestJournalUseCase_CreateEntry_ConcurrentNumbersAreUnique(t *testing.T) {
	l := newLedger(t)
	l.salesAccounts(t)
	l.mustPeriod(t, "March 2024", day(2024, 3, 1), day(2024, 3, 31))

	const n = 25
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := l.journal.CreateEntry(context.Background(), saleInput("", dec("1")))
			if err != nil {
				errs <- err
				return
			}
			numbers <- entry.Number
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}

	pattern := regexp.MustCompile(`^JE-\d{8}-\d{4}$`)
	seen := make(map[string]bool)
	for number := range numbers {
		require.Regexp(t, pattern, number)
		require.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
	require.Len(t, seen, n)
	require.True(t, l.balance(t, "1100").Equal(decimal.NewFromInt(n)))
}

// newMockedJournal builds a JournalUseCase over gomock repositories with no
// fiscal periods defined.
func newMockedJournal(ctrl *gomock.Controller) (*usecase.JournalUseCase, *mocks.MockJournalRepository, *mocks.MockAccountRepository) {
	txManager := mocks.NewFakeTransactionManager()
	idGen := mocks.NewSequenceIDGenerator("id")
	clock := usecase.WithClock(func() time.Time { return testNow })

	journalRepo := mocks.NewMockJournalRepository(ctrl)
	accountRepo := mocks.NewMockAccountRepository(ctrl)
	periodRepo := mocks.NewMockPeriodRepository(ctrl)
	outboxRepo := mocks.NewMockOutboxRepository(ctrl)

	periodRepo.EXPECT().FindOpenByDate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, domain.ErrPeriodNotFound).AnyTimes()
	periodRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()
	accountRepo.EXPECT().GetByCodes(gomock.Any(), gomock.Any(), gomock.Any()).Return([]*domain.Account{
		{ID: "acc-ar", Code: "1100", Category: domain.CategoryAsset, AllowTransactions: true, IsActive: true},
		{ID: "acc-sales", Code: "4000", Category: domain.CategoryIncome, AllowTransactions: true, IsActive: true},
	}, nil).AnyTimes()

	accounts := usecase.NewAccountUseCase(txManager, accountRepo, journalRepo, idGen, clock)
	periods := usecase.NewPeriodUseCase(txManager, periodRepo, outboxRepo, idGen, clock)
	uc := usecase.NewJournalUseCase(txManager, journalRepo, accountRepo, outboxRepo, accounts, periods, idGen, clock)

	return uc, journalRepo, accountRepo
}

func TestJournalUseCase_CreateEntry_RetriesNumberCollision(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, journalRepo, _ := newMockedJournal(ctrl)

	gomock.InOrder(
		journalRepo.EXPECT().MaxSequence(gomock.Any(), gomock.Any(), "JE-20240315-").Return(3, nil),
		journalRepo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ErrDuplicateJournalNumber),
		journalRepo.EXPECT().MaxSequence(gomock.Any(), gomock.Any(), "JE-20240315-").Return(4, nil),
		journalRepo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
	)

	input := saleInput("42", dec("100"))
	input.AutoPost = false

	entry, err := uc.CreateEntry(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Number != "JE-20240315-0005" {
		t.Errorf("expected JE-20240315-0005, got %s", entry.Number)
	}
}

func TestJournalUseCase_CreateEntry_NumberExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, journalRepo, _ := newMockedJournal(ctrl)

	journalRepo.EXPECT().MaxSequence(gomock.Any(), gomock.Any(), gomock.Any()).Return(7, nil).Times(usecase.MaxNumberAttempts)
	journalRepo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ErrDuplicateJournalNumber).Times(usecase.MaxNumberAttempts)

	input := saleInput("42", dec("100"))
	input.AutoPost = false

	_, err := uc.CreateEntry(context.Background(), input)
	if !errors.Is(err, domain.ErrNumberExhausted) {
		t.Fatalf("expected ErrNumberExhausted, got %v", err)
	}
}

func TestJournalUseCase_CreateEntry_RollsBackOnRepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txManager := mocks.NewFakeTransactionManager()
	idGen := mocks.NewSequenceIDGenerator("id")
	journalRepo := mocks.NewMockJournalRepository(ctrl)
	accountRepo := mocks.NewMockAccountRepository(ctrl)
	periodRepo := mocks.NewMockPeriodRepository(ctrl)
	outboxRepo := mocks.NewMockOutboxRepository(ctrl)

	periodRepo.EXPECT().FindOpenByDate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, domain.ErrPeriodNotFound)
	periodRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(int64(0), nil)
	accountRepo.EXPECT().GetByCodes(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	accounts := usecase.NewAccountUseCase(txManager, accountRepo, journalRepo, idGen)
	periods := usecase.NewPeriodUseCase(txManager, periodRepo, outboxRepo, idGen)
	uc := usecase.NewJournalUseCase(txManager, journalRepo, accountRepo, outboxRepo, accounts, periods, idGen)

	_, err := uc.CreateEntry(context.Background(), saleInput("42", dec("100")))
	if err == nil {
		t.Fatal("expected error")
	}
	if domain.IsStructural(err) {
		t.Errorf("storage error must not be structural: %v", err)
	}

	txs := txManager.Transactions()
	if len(txs) != 1 || !txs[0].RolledBack || txs[0].Committed {
		t.Errorf("expected a single rolled back transaction, got %+v", txs)
	}
}

func TestJournalUseCase_Post(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.salesAccounts(t)

	input := saleInput("42", dec("250.50"))
	input.AutoPost = false
	entry, err := l.journal.CreateEntry(ctx, input)
	require.NoError(t, err)
	require.False(t, entry.IsPosted)
	require.True(t, l.balance(t, "1100").IsZero())

	posted, err := l.journal.Post(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, posted.IsPosted)
	require.NotNil(t, posted.PostedAt)
	require.True(t, l.balance(t, "1100").Equal(dec("250.50")))
	require.True(t, l.balance(t, "4000").Equal(dec("250.50")))

	_, err = l.journal.Post(ctx, entry.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyPosted)
	require.True(t, l.balance(t, "1100").Equal(dec("250.50")))

	events, err := l.store.Outbox().GetByAggregate(ctx, domain.AggregateTypeJournalEntry, entry.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, domain.EventTypeJournalPosted, events[0].EventType)
}

func TestJournalUseCase_Post_ConcurrentCallsPostOnce(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.salesAccounts(t)

	input := saleInput("42", dec("1000"))
	input.AutoPost = false
	entry, err := l.journal.CreateEntry(ctx, input)
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.journal.Post(ctx, entry.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, already int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrAlreadyPosted):
			already++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, n-1, already)
	require.True(t, l.balance(t, "1100").Equal(dec("1000")))
}

func TestJournalUseCase_PeriodGating(t *testing.T) {
	ctx := context.Background()

	t.Run("date outside explicit period", func(t *testing.T) {
		l := newLedger(t)
		l.salesAccounts(t)
		feb := l.mustPeriod(t, "February 2024", day(2024, 2, 1), day(2024, 2, 29))
		l.mustPeriod(t, "March 2024", day(2024, 3, 1), day(2024, 3, 31))

		input := saleInput("42", dec("10"))
		input.FiscalPeriodID = feb.ID
		_, err := l.journal.CreateEntry(ctx, input)
		require.ErrorIs(t, err, domain.ErrDateOutsidePeriod)
	})

	t.Run("resolved by date", func(t *testing.T) {
		l := newLedger(t)
		l.salesAccounts(t)
		mar := l.mustPeriod(t, "March 2024", day(2024, 3, 1), day(2024, 3, 31))

		entry, err := l.journal.CreateEntry(ctx, saleInput("42", dec("10")))
		require.NoError(t, err)
		require.Equal(t, mar.ID, entry.FiscalPeriodID)
	})

	t.Run("closed period", func(t *testing.T) {
		l := newLedger(t)
		l.salesAccounts(t)
		mar := l.mustPeriod(t, "March 2024", day(2024, 3, 1), day(2024, 3, 31))
		_, err := l.periods.ClosePeriod(ctx, mar.ID, "controller")
		require.NoError(t, err)

		input := saleInput("42", dec("10"))
		input.FiscalPeriodID = mar.ID
		_, err = l.journal.CreateEntry(ctx, input)
		require.ErrorIs(t, err, domain.ErrPeriodClosed)

		_, err = l.journal.CreateEntry(ctx, saleInput("43", dec("10")))
		require.ErrorIs(t, err, domain.ErrNoOpenPeriod)
	})

	t.Run("locked period", func(t *testing.T) {
		l := newLedger(t)
		l.salesAccounts(t)
		mar := l.mustPeriod(t, "March 2024", day(2024, 3, 1), day(2024, 3, 31))
		_, err := l.periods.ClosePeriod(ctx, mar.ID, "controller")
		require.NoError(t, err)
		_, err = l.periods.LockPeriod(ctx, mar.ID, "controller")
		require.NoError(t, err)

		input := saleInput("42", dec("10"))
		input.FiscalPeriodID = mar.ID
		_, err = l.journal.CreateEntry(ctx, input)
		require.ErrorIs(t, err, domain.ErrPeriodLocked)
	})

	t.Run("period closed between create and post", func(t *testing.T) {
		l := newLedger(t)
		l.salesAccounts(t)
		mar := l.mustPeriod(t, "March 2024", day(2024, 3, 1), day(2024, 3, 31))

		input := saleInput("42", dec("10"))
		input.AutoPost = false
		entry, err := l.journal.CreateEntry(ctx, input)
		require.NoError(t, err)

		_, err = l.periods.ClosePeriod(ctx, mar.ID, "controller")
		require.NoError(t, err)

		_, err = l.journal.Post(ctx, entry.ID)
		require.ErrorIs(t, err, domain.ErrPeriodClosed)
		require.True(t, l.balance(t, "1100").IsZero())
	})
}

func TestJournalUseCase_AmendAndDiscard(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.salesAccounts(t)

	input := saleInput("42", dec("10"))
	input.AutoPost = false
	draft, err := l.journal.CreateEntry(ctx, input)
	require.NoError(t, err)

	description := "Invoice 42 (corrected)"
	amended, err := l.journal.AmendEntry(ctx, usecase.AmendEntryInput{ID: draft.ID, Description: &description, User: "alice"})
	require.NoError(t, err)
	require.Equal(t, description, amended.Description)

	_, err = l.journal.Post(ctx, draft.ID)
	require.NoError(t, err)

	_, err = l.journal.AmendEntry(ctx, usecase.AmendEntryInput{ID: draft.ID, Description: &description, User: "alice"})
	require.ErrorIs(t, err, domain.ErrEntryImmutable)
	require.ErrorIs(t, l.journal.DiscardEntry(ctx, draft.ID, "alice"), domain.ErrEntryImmutable)

	other := saleInput("43", dec("10"))
	other.AutoPost = false
	unposted, err := l.journal.CreateEntry(ctx, other)
	require.NoError(t, err)
	require.NoError(t, l.journal.DiscardEntry(ctx, unposted.ID, "alice"))

	_, err = l.journal.GetEntry(ctx, unposted.ID)
	require.ErrorIs(t, err, domain.ErrEntryNotFound)

	logs, err := l.store.Audit().List(ctx, domain.AuditFilter{ResourceID: draft.ID})
	require.NoError(t, err)
	require.NotEmpty(t, logs)
}

func TestJournalUseCase_Lookups(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.salesAccounts(t)

	entry, err := l.journal.CreateEntry(ctx, saleInput("42", dec("10")))
	require.NoError(t, err)

	byNumber, err := l.journal.GetEntryByNumber(ctx, entry.Number)
	require.NoError(t, err)
	require.Equal(t, entry.ID, byNumber.ID)
	require.Len(t, byNumber.Lines, 2)
	require.Equal(t, "1100", byNumber.Lines[0].AccountCode)

	bySource, err := l.journal.ListEntriesBySource(ctx, domain.SourceSalesInvoice, "42")
	require.NoError(t, err)
	require.Len(t, bySource, 1)
}

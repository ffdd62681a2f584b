package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/adapter/repository/memory"
	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
	"github.com/iho/ledgerpost/internal/usecase/mocks"
)

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ledger wires every use case over one memory store.
type ledger struct {
	store    *memory.Store
	accounts *usecase.AccountUseCase
	periods  *usecase.PeriodUseCase
	journal  *usecase.JournalUseCase
	posting  *usecase.PostingUseCase
	reversal *usecase.ReversalUseCase
	failures *usecase.FailureUseCase
	checks   *usecase.LedgerUseCase
}

func newLedger(t *testing.T, opts ...usecase.Option) *ledger {
	t.Helper()

	store := memory.NewStore()
	idGen := mocks.NewSequenceIDGenerator("id")
	opts = append([]usecase.Option{
		usecase.WithClock(func() time.Time { return testNow }),
		usecase.WithAuditRepository(store.Audit()),
	}, opts...)

	accounts := usecase.NewAccountUseCase(store, store.Accounts(), store.Journal(), idGen, opts...)
	periods := usecase.NewPeriodUseCase(store, store.Periods(), store.Outbox(), idGen, opts...)
	journal := usecase.NewJournalUseCase(store, store.Journal(), store.Accounts(), store.Outbox(), accounts, periods, idGen, opts...)
	posting := usecase.NewPostingUseCase(journal, store.Journal(), nil, opts...)

	return &ledger{
		store:    store,
		accounts: accounts,
		periods:  periods,
		journal:  journal,
		posting:  posting,
		reversal: usecase.NewReversalUseCase(store, store.Journal(), store.Periods(), store.Outbox(), journal, posting, idGen, opts...),
		failures: usecase.NewFailureUseCase(store.Failures(), store.Outbox(), idGen, opts...),
		checks:   usecase.NewLedgerUseCase(store.Accounts(), store.Ledger(), opts...),
	}
}

func (l *ledger) mustAccount(t *testing.T, code string, category domain.Category) *domain.Account {
	t.Helper()
	acc, err := l.accounts.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Code:     code,
		Name:     "Account " + code,
		Category: category,
	})
	if err != nil {
		t.Fatalf("create account %s: %v", code, err)
	}
	return acc
}

func (l *ledger) mustPeriod(t *testing.T, name string, start, end time.Time) *domain.FiscalPeriod {
	t.Helper()
	p, err := l.periods.CreatePeriod(context.Background(), usecase.CreatePeriodInput{
		Name:      name,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		t.Fatalf("create period %s: %v", name, err)
	}
	return p
}

func (l *ledger) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	acc, err := l.accounts.GetAccountByCode(context.Background(), code)
	if err != nil {
		t.Fatalf("get account %s: %v", code, err)
	}
	return acc.Balance
}

// saleInput is the AR 1100 / Sales 4000 invoice used throughout the tests.
func saleInput(sourceID string, amount decimal.Decimal) usecase.CreateEntryInput {
	return usecase.CreateEntryInput{
		EntryDate:   day(2024, 3, 15),
		SourceType:  domain.SourceSalesInvoice,
		SourceID:    sourceID,
		EventType:   "invoice_sent",
		Description: "Invoice " + sourceID,
		Lines: []usecase.LineInput{
			{AccountCode: "1100", Debit: amount},
			{AccountCode: "4000", Credit: amount},
		},
		AutoPost: true,
	}
}

func (l *ledger) salesAccounts(t *testing.T) {
	t.Helper()
	l.mustAccount(t, "1100", domain.CategoryAsset)
	l.mustAccount(t, "4000", domain.CategoryIncome)
}

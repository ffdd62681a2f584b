package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/adapter/repository/memory"
	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/integration"
	"github.com/iho/ledgerpost/internal/usecase"
	"github.com/iho/ledgerpost/internal/usecase/mocks"
)

var (
	testNow  = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	testDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	vatRate  = decimal.RequireFromString("0.18")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// chart is the role mapping every harness starts from.
var chart = []struct {
	role     string
	code     string
	category domain.Category
}{
	{integration.RoleCash, "1000", domain.CategoryAsset},
	{integration.RoleBank, "1010", domain.CategoryAsset},
	{integration.RoleChequesInHand, "1020", domain.CategoryAsset},
	{integration.RoleAR, "1100", domain.CategoryAsset},
	{integration.RoleVATReceivable, "1300", domain.CategoryAsset},
	{integration.RoleSupplierAdvances, "1400", domain.CategoryAsset},
	{integration.RoleAP, "2000", domain.CategoryLiability},
	{integration.RoleVATPayable, "2100", domain.CategoryLiability},
	{integration.RoleCustomerAdvances, "2200", domain.CategoryLiability},
	{integration.RoleOpeningBalanceEquity, "3900", domain.CategoryEquity},
	{integration.RoleSales, "4000", domain.CategoryIncome},
	{integration.RoleSalesReturns, "4100", domain.CategoryIncome},
	{integration.RolePurchases, "5000", domain.CategoryCostOfSales},
	{integration.RoleCashOverShort, "6900", domain.CategoryExpense},
}

type harness struct {
	store      *memory.Store
	accounts   *usecase.AccountUseCase
	failures   *usecase.FailureUseCase
	dispatcher *integration.Dispatcher
}

// newHarness builds a ledger with the full chart. Roles listed in unmapped
// get an account but no mapping.
func newHarness(t *testing.T, unmapped []string, opts ...integration.DispatcherOption) *harness {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	idGen := mocks.NewSequenceIDGenerator("id")
	ucOpts := []usecase.Option{
		usecase.WithClock(func() time.Time { return testNow }),
		usecase.WithAuditRepository(store.Audit()),
	}

	accounts := usecase.NewAccountUseCase(store, store.Accounts(), store.Journal(), idGen, ucOpts...)
	periods := usecase.NewPeriodUseCase(store, store.Periods(), store.Outbox(), idGen, ucOpts...)
	journal := usecase.NewJournalUseCase(store, store.Journal(), store.Accounts(), store.Outbox(), accounts, periods, idGen, ucOpts...)
	posting := usecase.NewPostingUseCase(journal, store.Journal(), nil, ucOpts...)
	reversal := usecase.NewReversalUseCase(store, store.Journal(), store.Periods(), store.Outbox(), journal, posting, idGen, ucOpts...)
	failures := usecase.NewFailureUseCase(store.Failures(), store.Outbox(), idGen, ucOpts...)

	skip := make(map[string]bool, len(unmapped))
	for _, role := range unmapped {
		skip[role] = true
	}
	for _, c := range chart {
		if _, err := accounts.CreateAccount(ctx, usecase.CreateAccountInput{
			Code:     c.code,
			Name:     c.role,
			Category: c.category,
		}); err != nil {
			t.Fatalf("create account %s: %v", c.code, err)
		}
		if skip[c.role] {
			continue
		}
		if err := store.Mappings().Set(ctx, c.role, c.code); err != nil {
			t.Fatalf("map %s: %v", c.role, err)
		}
	}
	if _, err := accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		Code:     "6100",
		Name:     "Rent",
		Category: domain.CategoryExpense,
	}); err != nil {
		t.Fatalf("create account 6100: %v", err)
	}

	hooks := integration.NewHooks(posting, reversal, store.Mappings(), vatRate)

	return &harness{
		store:      store,
		accounts:   accounts,
		failures:   failures,
		dispatcher: integration.NewDispatcher(hooks, failures, opts...),
	}
}

func (h *harness) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	acc, err := h.accounts.GetAccountByCode(context.Background(), code)
	if err != nil {
		t.Fatalf("get account %s: %v", code, err)
	}
	return acc.Balance
}

func (h *harness) mapRole(t *testing.T, role, code string) {
	t.Helper()
	if err := h.store.Mappings().Set(context.Background(), role, code); err != nil {
		t.Fatalf("map %s: %v", role, err)
	}
}

// fakeEnqueuer collects envelopes instead of handing them to a worker.
type fakeEnqueuer struct {
	envs []integration.Envelope
	err  error
}

func (q *fakeEnqueuer) EnqueuePosting(_ context.Context, env integration.Envelope) error {
	if q.err != nil {
		return q.err
	}
	q.envs = append(q.envs, env)
	return nil
}

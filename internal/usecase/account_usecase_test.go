package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
	"github.com/iho/ledgerpost/internal/usecase/mocks"
)

func TestAccountUseCase_CreateAccount(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	_, err := l.accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		Code: "1000", Name: "Current assets", Category: domain.CategoryAsset, Grouping: true,
	})
	require.NoError(t, err)
	l.mustAccount(t, "1010", domain.CategoryAsset)

	tests := []struct {
		name    string
		input   usecase.CreateAccountInput
		wantErr error
	}{
		{
			name:  "child of grouping account",
			input: usecase.CreateAccountInput{Code: "1100", Name: "Receivables", Category: domain.CategoryAsset, ParentCode: "1000"},
		},
		{
			name:    "parent allows transactions",
			input:   usecase.CreateAccountInput{Code: "1011", Name: "Petty cash", Category: domain.CategoryAsset, ParentCode: "1010"},
			wantErr: domain.ErrInvalidAccountParent,
		},
		{
			name:    "missing parent",
			input:   usecase.CreateAccountInput{Code: "1200", Name: "Inventory", Category: domain.CategoryAsset, ParentCode: "1999"},
			wantErr: domain.ErrInvalidAccountParent,
		},
		{
			name:    "duplicate code",
			input:   usecase.CreateAccountInput{Code: "1010", Name: "Cash again", Category: domain.CategoryAsset},
			wantErr: domain.ErrDuplicateAccountCode,
		},
		{
			name:    "unknown category",
			input:   usecase.CreateAccountInput{Code: "9000", Name: "Suspense", Category: "suspense"},
			wantErr: domain.ErrInvalidCategory,
		},
		{
			name:    "empty name",
			input:   usecase.CreateAccountInput{Code: "9001", Name: "", Category: domain.CategoryExpense},
			wantErr: domain.ErrInvalidAccountName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := l.accounts.CreateAccount(ctx, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !acc.Balance.IsZero() || !acc.IsActive || !acc.AllowTransactions {
				t.Errorf("unexpected new account %+v", acc)
			}
		})
	}
}

func TestAccountUseCase_DeactivateBlocksPosting(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.salesAccounts(t)

	acc, err := l.accounts.DeactivateAccount(ctx, "4000", "admin")
	require.NoError(t, err)
	require.False(t, acc.IsActive)

	_, err = l.journal.CreateEntry(ctx, saleInput("42", dec("10")))
	require.ErrorIs(t, err, domain.ErrAccountNotPostable)
}

func TestAccountUseCase_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.salesAccounts(t)
	l.mustAccount(t, "5000", domain.CategoryExpense)

	_, err := l.posting.CreateOrGet(ctx, saleInput("42", dec("10")))
	require.NoError(t, err)

	err = l.accounts.DeleteAccount(ctx, "1100", "admin")
	require.ErrorIs(t, err, domain.ErrAccountHasHistory)

	require.NoError(t, l.accounts.DeleteAccount(ctx, "5000", "admin"))
	_, err = l.accounts.GetAccountByCode(ctx, "5000")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = l.accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		Code: "6000", Name: "Expenses", Category: domain.CategoryExpense, Grouping: true,
	})
	require.NoError(t, err)
	_, err = l.accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		Code: "6100", Name: "Rent", Category: domain.CategoryExpense, ParentCode: "6000",
	})
	require.NoError(t, err)
	require.ErrorIs(t, l.accounts.DeleteAccount(ctx, "6000", "admin"), domain.ErrAccountHasChildren)

	accounts, err := l.accounts.ListAccounts(ctx, usecase.ListAccountsInput{Limit: 10})
	require.NoError(t, err)
	codes := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		codes = append(codes, acc.Code)
	}
	require.Equal(t, []string{"1100", "4000", "6000", "6100"}, codes)
}

func TestAccountUseCase_UpdateBalance(t *testing.T) {
	tests := []struct {
		name     string
		category domain.Category
		debit    string
		credit   string
		want     string
	}{
		{name: "asset debit", category: domain.CategoryAsset, debit: "100", credit: "0", want: "150"},
		{name: "asset credit", category: domain.CategoryAsset, debit: "0", credit: "80", want: "-30"},
		{name: "liability credit", category: domain.CategoryLiability, debit: "0", credit: "100", want: "150"},
		{name: "income debit", category: domain.CategoryIncome, debit: "20", credit: "0", want: "30"},
		{name: "expense debit", category: domain.CategoryExpense, debit: "5", credit: "0", want: "55"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mocks.NewMockAccountRepository(ctrl)
			repo.EXPECT().UpdateBalance(gomock.Any(), gomock.Any(), "acc-1", gomock.Any(), testNow).Return(nil)

			uc := usecase.NewAccountUseCase(mocks.NewFakeTransactionManager(), repo, mocks.NewMockJournalRepository(ctrl), mocks.NewSequenceIDGenerator("id"),
				usecase.WithClock(func() time.Time { return testNow }))
			acc := &domain.Account{ID: "acc-1", Code: "X", Category: tt.category, Balance: dec("50")}

			if err := uc.UpdateBalance(context.Background(), &mocks.FakeTransaction{}, acc, dec(tt.debit), dec(tt.credit)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !acc.Balance.Equal(dec(tt.want)) {
				t.Errorf("expected balance %s, got %s", tt.want, acc.Balance)
			}
		})
	}
}

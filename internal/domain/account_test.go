package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ApplyPosting(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		balance  decimal.Decimal
		debit    decimal.Decimal
		credit   decimal.Decimal
		expected decimal.Decimal
	}{
		{
			name:     "asset debit increases",
			category: CategoryAsset,
			balance:  decimal.NewFromInt(100),
			debit:    decimal.NewFromInt(50),
			credit:   decimal.Zero,
			expected: decimal.NewFromInt(150),
		},
		{
			name:     "asset credit decreases",
			category: CategoryAsset,
			balance:  decimal.NewFromInt(100),
			debit:    decimal.Zero,
			credit:   decimal.NewFromInt(150),
			expected: decimal.NewFromInt(-50),
		},
		{
			name:     "income credit increases",
			category: CategoryIncome,
			balance:  decimal.Zero,
			debit:    decimal.Zero,
			credit:   decimal.NewFromInt(1000),
			expected: decimal.NewFromInt(1000),
		},
		{
			name:     "liability debit decreases",
			category: CategoryLiability,
			balance:  decimal.NewFromInt(300),
			debit:    decimal.NewFromInt(100),
			credit:   decimal.Zero,
			expected: decimal.NewFromInt(200),
		},
		{
			name:     "expense debit increases",
			category: CategoryExpense,
			balance:  decimal.Zero,
			debit:    decimal.RequireFromString("12.34"),
			credit:   decimal.Zero,
			expected: decimal.RequireFromString("12.34"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Category: tt.category, Balance: tt.balance}

			got := acc.ApplyPosting(tt.debit, tt.credit)
			if !got.Equal(tt.expected) {
				t.Errorf("expected balance %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestCategory_NormalSide(t *testing.T) {
	debitNormal := []Category{CategoryAsset, CategoryExpense, CategoryCostOfSales, CategoryOtherExpense}
	creditNormal := []Category{CategoryLiability, CategoryEquity, CategoryIncome, CategoryOtherIncome}

	for _, c := range debitNormal {
		if c.NormalSide() != SideDebit {
			t.Errorf("%s should be debit-normal", c)
		}
	}
	for _, c := range creditNormal {
		if c.NormalSide() != SideCredit {
			t.Errorf("%s should be credit-normal", c)
		}
	}
	if Category("bogus").Valid() {
		t.Error("unknown category reported valid")
	}
}

func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name      string
		account   Account
		errorType error
	}{
		{
			name:    "valid",
			account: Account{ID: "a1", Code: "1100", Name: "Receivables", Category: CategoryAsset},
		},
		{
			name:      "own parent",
			account:   Account{ID: "a1", Code: "1100", Name: "Receivables", Category: CategoryAsset, ParentID: "a1"},
			errorType: ErrInvalidAccountParent,
		},
		{
			name:      "unknown category",
			account:   Account{ID: "a1", Code: "1100", Name: "Receivables", Category: "misc"},
			errorType: ErrInvalidCategory,
		},
		{
			name:      "empty code",
			account:   Account{ID: "a1", Name: "Receivables", Category: CategoryAsset},
			errorType: ErrInvalidAccountCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if tt.errorType == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.errorType) {
				t.Fatalf("expected %v, got %v", tt.errorType, err)
			}
		})
	}
}

func TestAccount_EnsurePostable(t *testing.T) {
	grouping := &Account{Code: "1000", AllowTransactions: false, IsActive: true}
	if err := grouping.EnsurePostable(); !errors.Is(err, ErrAccountNotPostable) {
		t.Fatalf("expected ErrAccountNotPostable, got %v", err)
	}

	inactive := &Account{Code: "1100", AllowTransactions: true, IsActive: false}
	if err := inactive.EnsurePostable(); !errors.Is(err, ErrAccountNotPostable) {
		t.Fatalf("expected ErrAccountNotPostable for inactive account, got %v", err)
	}

	ok := &Account{Code: "1100", AllowTransactions: true, IsActive: true}
	if err := ok.EnsurePostable(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecomputeBalance(t *testing.T) {
	lines := []JournalLine{
		{Debit: decimal.NewFromInt(1000), Credit: decimal.Zero},
		{Debit: decimal.Zero, Credit: decimal.NewFromInt(250)},
		{Debit: decimal.RequireFromString("10.50"), Credit: decimal.Zero},
	}

	got := RecomputeBalance(CategoryAsset, lines)
	if !got.Equal(decimal.RequireFromString("760.50")) {
		t.Fatalf("asset balance: got %s", got)
	}

	got = RecomputeBalance(CategoryIncome, lines)
	if !got.Equal(decimal.RequireFromString("-760.50")) {
		t.Fatalf("income balance: got %s", got)
	}
}

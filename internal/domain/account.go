package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies an account and fixes its normal balance side.
type Category string

const (
	CategoryAsset        Category = "asset"
	CategoryLiability    Category = "liability"
	CategoryEquity       Category = "equity"
	CategoryIncome       Category = "income"
	CategoryCostOfSales  Category = "cost_of_sales"
	CategoryExpense      Category = "expense"
	CategoryOtherIncome  Category = "other_income"
	CategoryOtherExpense Category = "other_expense"
)

// Side is the side of a journal line.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

var categorySides = map[Category]Side{
	CategoryAsset:        SideDebit,
	CategoryLiability:    SideCredit,
	CategoryEquity:       SideCredit,
	CategoryIncome:       SideCredit,
	CategoryCostOfSales:  SideDebit,
	CategoryExpense:      SideDebit,
	CategoryOtherIncome:  SideCredit,
	CategoryOtherExpense: SideDebit,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categorySides[c]
	return ok
}

// NormalSide returns the side on which the category's balance increases.
func (c Category) NormalSide() Side {
	return categorySides[c]
}

// Account represents an entry in the chart of accounts.
type Account struct {
	ID                string
	Code              string
	Name              string
	Category          Category
	ParentID          string
	AllowTransactions bool
	IsSystem          bool
	IsActive          bool
	Balance           decimal.Decimal
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate checks the account's own fields.
func (a *Account) Validate() error {
	if err := ValidateAccountCode(a.Code); err != nil {
		return err
	}
	if err := ValidateAccountName(a.Name); err != nil {
		return err
	}
	if !a.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, a.Category)
	}
	if a.ParentID != "" && a.ParentID == a.ID {
		return fmt.Errorf("%w: account cannot be its own parent", ErrInvalidAccountParent)
	}
	return nil
}

// EnsurePostable returns ErrAccountNotPostable unless lines may reference the account.
func (a *Account) EnsurePostable() error {
	if !a.AllowTransactions {
		return fmt.Errorf("%w: %s is a grouping account", ErrAccountNotPostable, a.Code)
	}
	if !a.IsActive {
		return fmt.Errorf("%w: %s is inactive", ErrAccountNotPostable, a.Code)
	}
	return nil
}

// BalanceDelta returns the change a debit/credit pair makes to the account balance.
func (a *Account) BalanceDelta(debit, credit decimal.Decimal) decimal.Decimal {
	return balanceDelta(a.Category, debit, credit)
}

// ApplyPosting returns the new balance after a line is posted.
func (a *Account) ApplyPosting(debit, credit decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(a.BalanceDelta(debit, credit))
}

func balanceDelta(category Category, debit, credit decimal.Decimal) decimal.Decimal {
	if category.NormalSide() == SideDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// RecomputeBalance derives an account balance from its posted lines.
// The stored balance must always equal this value.
func RecomputeBalance(category Category, lines []JournalLine) decimal.Decimal {
	balance := decimal.Zero
	for _, line := range lines {
		balance = balance.Add(balanceDelta(category, line.Debit, line.Credit))
	}
	return balance
}

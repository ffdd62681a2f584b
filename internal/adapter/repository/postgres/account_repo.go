package postgres

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgerpost/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	conn
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool DB) *AccountRepository {
	return &AccountRepository{conn{pool: pool}}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	return r.savepoint(ctx, tx, func(q *generated.Queries) error {
		return mapError(q.CreateAccount(ctx, generated.CreateAccountParams{
			ID:                account.ID,
			Code:              account.Code,
			Name:              account.Name,
			Category:          string(account.Category),
			ParentID:          text(account.ParentID),
			AllowTransactions: account.AllowTransactions,
			IsSystem:          account.IsSystem,
			IsActive:          account.IsActive,
			Balance:           decimalToNumeric(account.Balance),
			CreatedBy:         account.CreatedBy,
			CreatedAt:         timeToPgTimestamptz(account.CreatedAt),
			UpdatedAt:         timeToPgTimestamptz(account.UpdatedAt),
		}))
	})
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	q, err := r.queries(tx)
	if err != nil {
		return nil, err
	}
	row, err := q.GetAccountByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	return rowToAccount(row), nil
}

// GetByCode retrieves an account by code.
func (r *AccountRepository) GetByCode(ctx context.Context, tx usecase.Transaction, code string) (*domain.Account, error) {
	q, err := r.queries(tx)
	if err != nil {
		return nil, err
	}
	row, err := q.GetAccountByCode(ctx, code)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	return rowToAccount(row), nil
}

// GetByCodes retrieves the accounts with the given codes. Unknown codes are skipped.
func (r *AccountRepository) GetByCodes(ctx context.Context, tx usecase.Transaction, codes []string) ([]*domain.Account, error) {
	q, err := r.queries(tx)
	if err != nil {
		return nil, err
	}
	rows, err := q.GetAccountsByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	return rowsToAccounts(rows), nil
}

// GetByIDsForUpdate locks the accounts in ascending id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	q, err := r.queries(tx)
	if err != nil {
		return nil, err
	}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	rows, err := q.GetAccountsByIDsForUpdate(ctx, slices.Compact(sorted))
	if err != nil {
		return nil, err
	}
	return rowsToAccounts(rows), nil
}

// UpdateBalance stores the new balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	q, err := r.queries(tx)
	if err != nil {
		return err
	}
	n, err := q.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        id,
		Balance:   decimalToNumeric(balance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// SetActive toggles whether the account accepts new lines.
func (r *AccountRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	q, err := r.queries(tx)
	if err != nil {
		return err
	}
	n, err := q.SetAccountActive(ctx, generated.SetAccountActiveParams{
		ID:        id,
		IsActive:  active,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	var n int64
	err := r.savepoint(ctx, tx, func(q *generated.Queries) error {
		var err error
		n, err = q.DeleteAccount(ctx, id)
		return mapError(err)
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// CountChildren counts the accounts whose parent is id.
func (r *AccountRepository) CountChildren(ctx context.Context, tx usecase.Transaction, id string) (int64, error) {
	q, err := r.queries(tx)
	if err != nil {
		return 0, err
	}
	return q.CountChildAccounts(ctx, text(id))
}

// List lists accounts ordered by code.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	q, _ := r.queries(nil)
	rows, err := q.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}
	return rowsToAccounts(rows), nil
}

func rowsToAccounts(rows []generated.Account) []*domain.Account {
	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}
	return accounts
}

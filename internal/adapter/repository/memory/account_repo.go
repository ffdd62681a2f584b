package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

func accountCodeKey(code string) uniqueKey {
	return uniqueKey{key: "account_code:" + code, err: domain.ErrDuplicateAccountCode}
}

// Create inserts an account.
func (r *AccountRepository) Create(ctx context.Context, t usecase.Transaction, account *domain.Account) error {
	return r.store.write(ctx, t, func(tx *Tx) error {
		if err := tx.reserve(ctx, accountCodeKey(account.Code)); err != nil {
			return err
		}
		tx.accounts[account.ID] = copyOf(account)
		return nil
	})
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, t usecase.Transaction, id string) (*domain.Account, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return nil, err
	}
	acc, ok := lookup(r.store, r.store.accounts, tx.accountOverlay(), id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return copyOf(acc), nil
}

// GetByCode retrieves an account by code.
func (r *AccountRepository) GetByCode(_ context.Context, t usecase.Transaction, code string) (*domain.Account, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return nil, err
	}
	for _, acc := range visible(r.store, r.store.accounts, tx.accountOverlay()) {
		if acc.Code == code {
			return copyOf(acc), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

// GetByCodes retrieves the accounts with the given codes. Unknown codes are skipped.
func (r *AccountRepository) GetByCodes(_ context.Context, t usecase.Transaction, codes []string) ([]*domain.Account, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return nil, err
	}
	var result []*domain.Account
	for _, acc := range visible(r.store, r.store.accounts, tx.accountOverlay()) {
		if slices.Contains(codes, acc.Code) {
			result = append(result, copyOf(acc))
		}
	}
	return result, nil
}

// GetByIDsForUpdate locks the accounts in ascending id order and returns them.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, t usecase.Transaction, ids []string) ([]*domain.Account, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrTxDone
	}

	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	result := make([]*domain.Account, 0, len(sorted))
	for _, id := range sorted {
		if err := tx.lock(ctx, "account:"+id); err != nil {
			return nil, err
		}
		if acc, ok := lookup(r.store, r.store.accounts, tx.accounts, id); ok {
			result = append(result, copyOf(acc))
		}
	}
	return result, nil
}

func (r *AccountRepository) update(ctx context.Context, t usecase.Transaction, id string, fn func(*domain.Account)) error {
	return r.store.write(ctx, t, func(tx *Tx) error {
		acc, ok := lookup(r.store, r.store.accounts, tx.accounts, id)
		if !ok {
			return domain.ErrAccountNotFound
		}
		updated := copyOf(acc)
		fn(updated)
		tx.accounts[id] = updated
		return nil
	})
}

// UpdateBalance sets the stored balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, t usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	return r.update(ctx, t, id, func(acc *domain.Account) {
		acc.Balance = balance
		acc.UpdatedAt = updatedAt
	})
}

// SetActive activates or deactivates an account.
func (r *AccountRepository) SetActive(ctx context.Context, t usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	return r.update(ctx, t, id, func(acc *domain.Account) {
		acc.IsActive = active
		acc.UpdatedAt = updatedAt
	})
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, t usecase.Transaction, id string) error {
	return r.store.write(ctx, t, func(tx *Tx) error {
		acc, ok := lookup(r.store, r.store.accounts, tx.accounts, id)
		if !ok {
			return domain.ErrAccountNotFound
		}
		tx.accounts[id] = nil
		tx.free(accountCodeKey(acc.Code))
		return nil
	})
}

// CountChildren counts the accounts whose parent is id.
func (r *AccountRepository) CountChildren(_ context.Context, t usecase.Transaction, id string) (int64, error) {
	tx, err := r.store.txOf(t)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, acc := range visible(r.store, r.store.accounts, tx.accountOverlay()) {
		if acc.ParentID == id {
			n++
		}
	}
	return n, nil
}

// List lists committed accounts ordered by code.
func (r *AccountRepository) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	rows := visible(r.store, r.store.accounts, nil)
	slices.SortFunc(rows, func(a, b *domain.Account) int { return strings.Compare(a.Code, b.Code) })

	result := make([]*domain.Account, 0, len(rows))
	for _, acc := range page(rows, limit, offset) {
		result = append(result, copyOf(acc))
	}
	return result, nil
}

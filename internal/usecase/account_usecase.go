package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
)

// AccountUseCase maintains the chart of accounts.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	journalRepo JournalRepository
	idGen       IDGenerator
	options
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	journalRepo JournalRepository,
	idGen IDGenerator,
	opts ...Option,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		idGen:       idGen,
		options:     newOptions(opts),
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Code       string
	Name       string
	Category   domain.Category
	ParentCode string
	// Grouping accounts carry children and cannot appear on journal lines.
	Grouping  bool
	IsSystem  bool
	CreatedBy string
}

// CreateAccount creates a new account with a zero balance.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	now := uc.now().UTC()

	account := &domain.Account{
		ID:                uc.idGen.Generate(),
		Code:              input.Code,
		Name:              input.Name,
		Category:          input.Category,
		AllowTransactions: !input.Grouping,
		IsSystem:          input.IsSystem,
		IsActive:          true,
		Balance:           decimal.Zero,
		CreatedBy:         input.CreatedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := uc.runInTx(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		if input.ParentCode != "" {
			parent, err := uc.accountRepo.GetByCode(ctx, tx, input.ParentCode)
			if err != nil {
				if errors.Is(err, domain.ErrAccountNotFound) {
					return fmt.Errorf("%w: parent %s does not exist", domain.ErrInvalidAccountParent, input.ParentCode)
				}
				return err
			}
			if parent.AllowTransactions {
				return fmt.Errorf("%w: parent %s allows transactions", domain.ErrInvalidAccountParent, parent.Code)
			}
			account.ParentID = parent.ID
		}

		if err := account.Validate(); err != nil {
			return err
		}

		if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
			return err
		}

		return uc.audit(ctx, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       input.CreatedBy,
			Action:       domain.AuditActionAccountCreate,
			ResourceType: "account",
			ResourceID:   account.ID,
			AfterState:   domain.MarshalState(account),
		})
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().Str("account_id", account.ID).Str("code", account.Code).Msg("account created")

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, nil, id)
}

// GetAccountByCode retrieves an account by its code.
func (uc *AccountUseCase) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	return uc.accountRepo.GetByCode(ctx, nil, code)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts ordered by code.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}

// DeactivateAccount stops an account from receiving new lines. Accounts with
// history are deactivated rather than deleted.
func (uc *AccountUseCase) DeactivateAccount(ctx context.Context, code, user string) (*domain.Account, error) {
	var account *domain.Account

	err := uc.runInTx(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		acc, err := uc.accountRepo.GetByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		locked, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, []string{acc.ID})
		if err != nil {
			return err
		}
		if len(locked) != 1 {
			return domain.ErrAccountNotFound
		}
		account = locked[0]

		now := uc.now().UTC()
		if err := uc.accountRepo.SetActive(ctx, tx, account.ID, false, now); err != nil {
			return err
		}
		account.IsActive = false
		account.UpdatedAt = now

		return uc.audit(ctx, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       user,
			Action:       domain.AuditActionAccountDeactivate,
			ResourceType: "account",
			ResourceID:   account.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// DeleteAccount removes an account that has never been used and has no children.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, code, user string) error {
	return uc.runInTx(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		acc, err := uc.accountRepo.GetByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if _, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, []string{acc.ID}); err != nil {
			return err
		}

		lines, err := uc.journalRepo.CountLinesByAccount(ctx, tx, acc.ID)
		if err != nil {
			return err
		}
		if lines > 0 {
			return fmt.Errorf("%w: %s has %d lines, deactivate it instead", domain.ErrAccountHasHistory, code, lines)
		}

		children, err := uc.accountRepo.CountChildren(ctx, tx, acc.ID)
		if err != nil {
			return err
		}
		if children > 0 {
			return fmt.Errorf("%w: %s", domain.ErrAccountHasChildren, code)
		}

		if err := uc.accountRepo.Delete(ctx, tx, acc.ID); err != nil {
			return err
		}

		return uc.audit(ctx, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       user,
			Action:       domain.AuditActionAccountDelete,
			ResourceType: "account",
			ResourceID:   acc.ID,
			BeforeState:  domain.MarshalState(acc),
		})
	})
}

// UpdateBalance applies a line to an account. It is the only way a balance
// changes, and the caller must hold the account's row lock in tx.
func (uc *AccountUseCase) UpdateBalance(ctx context.Context, tx Transaction, account *domain.Account, debit, credit decimal.Decimal) error {
	at := uc.now().UTC()
	balance := account.ApplyPosting(debit, credit)
	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, balance, at); err != nil {
		return fmt.Errorf("update balance of %s: %w", account.Code, err)
	}
	account.Balance = balance
	account.UpdatedAt = at
	return nil
}

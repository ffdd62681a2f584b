package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when posted debits do not equal posted credits.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")
)

// LedgerUseCase handles ledger-wide integrity checks.
type LedgerUseCase struct {
	accountRepo AccountRepository
	ledgerRepo  LedgerRepository
	options
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(accountRepo AccountRepository, ledgerRepo LedgerRepository, opts ...Option) *LedgerUseCase {
	return &LedgerUseCase{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		options:     newOptions(opts),
	}
}

// ConsistencyReport holds the ledger-wide totals of posted lines.
type ConsistencyReport struct {
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Balanced    bool            `json:"balanced"`
}

// CheckConsistency verifies that posted debits equal posted credits.
// It returns ErrInconsistentLedger alongside the report when they differ.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	debit, credit, err := uc.ledgerRepo.SumPostedLines(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{TotalDebit: debit, TotalCredit: credit, Balanced: debit.Equal(credit)}
	if !report.Balanced {
		return report, fmt.Errorf("%w: debits=%s credits=%s", ErrInconsistentLedger, debit, credit)
	}
	return report, nil
}

// BalanceDiscrepancy is an account whose stored balance disagrees with its posted lines.
type BalanceDiscrepancy struct {
	AccountID string          `json:"account_id"`
	Code      string          `json:"code"`
	Stored    decimal.Decimal `json:"stored"`
	Computed  decimal.Decimal `json:"computed"`
}

// ReconciliationReport summarizes a full balance reconciliation.
type ReconciliationReport struct {
	AccountsChecked int                  `json:"accounts_checked"`
	Discrepancies   []BalanceDiscrepancy `json:"discrepancies"`
}

// Reconcile recomputes every account balance from its posted lines and
// reports the accounts whose stored balance differs.
func (uc *LedgerUseCase) Reconcile(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{Discrepancies: []BalanceDiscrepancy{}}

	const page = 100
	for offset := 0; ; offset += page {
		accounts, err := uc.accountRepo.List(ctx, page, offset)
		if err != nil {
			return nil, err
		}

		for _, acc := range accounts {
			lines, err := uc.ledgerRepo.PostedLinesByAccount(ctx, acc.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load lines of %s: %w", acc.Code, err)
			}
			computed := domain.RecomputeBalance(acc.Category, lines)
			report.AccountsChecked++
			if !computed.Equal(acc.Balance) {
				report.Discrepancies = append(report.Discrepancies, BalanceDiscrepancy{
					AccountID: acc.ID,
					Code:      acc.Code,
					Stored:    acc.Balance,
					Computed:  computed,
				})
				uc.logger.Error().
					Str("account", acc.Code).
					Str("stored", acc.Balance.String()).
					Str("computed", computed.String()).
					Msg("account balance drift")
			}
		}

		if len(accounts) < page {
			break
		}
	}

	return report, nil
}

package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository over committed state.
type LedgerRepository struct {
	store *Store
}

// SumPostedLines totals the debits and credits of posted lines.
func (r *LedgerRepository) SumPostedLines(_ context.Context) (debit, credit decimal.Decimal, err error) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, e := range visible(r.store, r.store.entries, nil) {
		if !e.IsPosted {
			continue
		}
		d, c := domain.SumLines(e.Lines)
		debit = debit.Add(d)
		credit = credit.Add(c)
	}
	return debit, credit, nil
}

// PostedLinesByAccount returns every posted line referencing an account.
func (r *LedgerRepository) PostedLinesByAccount(_ context.Context, accountID string) ([]domain.JournalLine, error) {
	var lines []domain.JournalLine
	for _, e := range visible(r.store, r.store.entries, nil) {
		if !e.IsPosted {
			continue
		}
		for _, line := range e.Lines {
			if line.AccountID == accountID {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

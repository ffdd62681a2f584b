package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	conn
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool DB) *LedgerRepository {
	return &LedgerRepository{conn{pool: pool}}
}

// SumPostedLines totals the debit and credit sides of every posted line.
func (r *LedgerRepository) SumPostedLines(ctx context.Context) (debit, credit decimal.Decimal, err error) {
	q, _ := r.queries(nil)
	row, err := q.SumPostedLines(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return numericToDecimal(row.TotalDebit), numericToDecimal(row.TotalCredit), nil
}

// PostedLinesByAccount lists the posted lines of one account.
func (r *LedgerRepository) PostedLinesByAccount(ctx context.Context, accountID string) ([]domain.JournalLine, error) {
	q, _ := r.queries(nil)
	rows, err := q.ListPostedLinesByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.JournalLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, rowToLine(row))
	}
	return lines, nil
}

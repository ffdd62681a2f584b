package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/infrastructure/postgres/generated"
)

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return timeToPgTimestamptz(*t)
}

func timestamptzPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func dateToPg(t time.Time) pgtype.Date {
	return pgtype.Date{Time: domain.DateOf(t), Valid: true}
}

func pgToDate(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return domain.DateOf(d.Time)
}

// text maps "" to NULL.
func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:                row.ID,
		Code:              row.Code,
		Name:              row.Name,
		Category:          domain.Category(row.Category),
		ParentID:          row.ParentID.String,
		AllowTransactions: row.AllowTransactions,
		IsSystem:          row.IsSystem,
		IsActive:          row.IsActive,
		Balance:           numericToDecimal(row.Balance),
		CreatedBy:         row.CreatedBy,
		CreatedAt:         row.CreatedAt.Time,
		UpdatedAt:         row.UpdatedAt.Time,
	}
}

func rowToPeriod(row generated.FiscalPeriod) *domain.FiscalPeriod {
	return &domain.FiscalPeriod{
		ID:        row.ID,
		Name:      row.Name,
		StartDate: pgToDate(row.StartDate),
		EndDate:   pgToDate(row.EndDate),
		Status:    domain.PeriodStatus(row.Status),
		ClosedBy:  row.ClosedBy.String,
		ClosedAt:  timestamptzPtr(row.ClosedAt),
		LockedBy:  row.LockedBy.String,
		LockedAt:  timestamptzPtr(row.LockedAt),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func rowToEntry(row generated.JournalEntry) *domain.JournalEntry {
	return &domain.JournalEntry{
		ID:              row.ID,
		Number:          row.Number,
		EntryDate:       pgToDate(row.EntryDate),
		EntryType:       domain.EntryType(row.EntryType),
		SourceType:      domain.SourceType(row.SourceType),
		SourceID:        row.SourceID.String,
		EventType:       row.EventType,
		SourceReference: row.SourceReference.String,
		Description:     row.Description,
		TotalDebit:      numericToDecimal(row.TotalDebit),
		TotalCredit:     numericToDecimal(row.TotalCredit),
		IsPosted:        row.IsPosted,
		PostedAt:        timestamptzPtr(row.PostedAt),
		FiscalPeriodID:  row.FiscalPeriodID.String,
		ReversesID:      row.ReversesID.String,
		IsReversed:      row.IsReversed,
		ReversedBy:      row.ReversedBy.String,
		ReversedAt:      timestamptzPtr(row.ReversedAt),
		CreatedBy:       row.CreatedBy,
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
}

func rowToLine(row generated.JournalLineRow) domain.JournalLine {
	return domain.JournalLine{
		ID:          row.ID,
		EntryID:     row.EntryID,
		LineNo:      int(row.LineNo),
		AccountID:   row.AccountID,
		AccountCode: row.AccountCode,
		Description: row.Description,
		Debit:       numericToDecimal(row.Debit),
		Credit:      numericToDecimal(row.Credit),
		CreatedAt:   row.CreatedAt.Time,
	}
}

func rowToFailure(row generated.PostingFailure) *domain.PostingFailure {
	return &domain.PostingFailure{
		ID:            row.ID,
		SourceType:    domain.SourceType(row.SourceType),
		SourceID:      row.SourceID,
		EventType:     row.EventType,
		Payload:       row.Payload,
		LastError:     row.LastError,
		Attempts:      int(row.Attempts),
		LastAttemptAt: row.LastAttemptAt.Time,
		ResolvedAt:    timestamptzPtr(row.ResolvedAt),
		CreatedAt:     row.CreatedAt.Time,
	}
}

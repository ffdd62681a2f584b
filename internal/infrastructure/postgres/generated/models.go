package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID                string             `json:"id"`
	Code              string             `json:"code"`
	Name              string             `json:"name"`
	Category          string             `json:"category"`
	ParentID          pgtype.Text        `json:"parent_id"`
	AllowTransactions bool               `json:"allow_transactions"`
	IsSystem          bool               `json:"is_system"`
	IsActive          bool               `json:"is_active"`
	Balance           pgtype.Numeric     `json:"balance"`
	CreatedBy         string             `json:"created_by"`
	CreatedAt         pgtype.Timestamptz `json:"created_at"`
	UpdatedAt         pgtype.Timestamptz `json:"updated_at"`
}

type AccountMapping struct {
	Role        string             `json:"role"`
	AccountCode string             `json:"account_code"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

type FiscalPeriod struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	StartDate pgtype.Date        `json:"start_date"`
	EndDate   pgtype.Date        `json:"end_date"`
	Status    string             `json:"status"`
	ClosedBy  pgtype.Text        `json:"closed_by"`
	ClosedAt  pgtype.Timestamptz `json:"closed_at"`
	LockedBy  pgtype.Text        `json:"locked_by"`
	LockedAt  pgtype.Timestamptz `json:"locked_at"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type JournalEntry struct {
	ID              string             `json:"id"`
	Number          string             `json:"number"`
	EntryDate       pgtype.Date        `json:"entry_date"`
	EntryType       string             `json:"entry_type"`
	SourceType      string             `json:"source_type"`
	SourceID        pgtype.Text        `json:"source_id"`
	EventType       string             `json:"event_type"`
	SourceReference pgtype.Text        `json:"source_reference"`
	Description     string             `json:"description"`
	TotalDebit      pgtype.Numeric     `json:"total_debit"`
	TotalCredit     pgtype.Numeric     `json:"total_credit"`
	IsPosted        bool               `json:"is_posted"`
	PostedAt        pgtype.Timestamptz `json:"posted_at"`
	FiscalPeriodID  pgtype.Text        `json:"fiscal_period_id"`
	ReversesID      pgtype.Text        `json:"reverses_id"`
	IsReversed      bool               `json:"is_reversed"`
	ReversedBy      pgtype.Text        `json:"reversed_by"`
	ReversedAt      pgtype.Timestamptz `json:"reversed_at"`
	CreatedBy       string             `json:"created_by"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

type JournalLine struct {
	ID          string             `json:"id"`
	EntryID     string             `json:"entry_id"`
	LineNo      int32              `json:"line_no"`
	AccountID   string             `json:"account_id"`
	Description string             `json:"description"`
	Debit       pgtype.Numeric     `json:"debit"`
	Credit      pgtype.Numeric     `json:"credit"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}

type PostingFailure struct {
	ID            string             `json:"id"`
	SourceType    string             `json:"source_type"`
	SourceID      string             `json:"source_id"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	LastError     string             `json:"last_error"`
	Attempts      int32              `json:"attempts"`
	LastAttemptAt pgtype.Timestamptz `json:"last_attempt_at"`
	ResolvedAt    pgtype.Timestamptz `json:"resolved_at"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

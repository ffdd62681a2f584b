package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/iho/ledgerpost/internal/domain"
)

type accountView struct {
	ID                string `json:"id"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	ParentID          string `json:"parent_id,omitempty"`
	AllowTransactions bool   `json:"allow_transactions"`
	IsActive          bool   `json:"is_active"`
	Balance           string `json:"balance"`
}

func toAccountView(a *domain.Account) accountView {
	return accountView{
		ID:                a.ID,
		Code:              a.Code,
		Name:              a.Name,
		Category:          string(a.Category),
		ParentID:          a.ParentID,
		AllowTransactions: a.AllowTransactions,
		IsActive:          a.IsActive,
		Balance:           a.Balance.StringFixed(domain.AmountScale),
	}
}

type periodView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	Status    string     `json:"status"`
	ClosedBy  string     `json:"closed_by,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	LockedBy  string     `json:"locked_by,omitempty"`
	LockedAt  *time.Time `json:"locked_at,omitempty"`
}

func toPeriodView(p *domain.FiscalPeriod) periodView {
	return periodView{
		ID:        p.ID,
		Name:      p.Name,
		StartDate: p.StartDate.Format(time.DateOnly),
		EndDate:   p.EndDate.Format(time.DateOnly),
		Status:    string(p.Status),
		ClosedBy:  p.ClosedBy,
		ClosedAt:  p.ClosedAt,
		LockedBy:  p.LockedBy,
		LockedAt:  p.LockedAt,
	}
}

type lineView struct {
	LineNo      int    `json:"line_no"`
	AccountCode string `json:"account_code"`
	Description string `json:"description,omitempty"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

type entryView struct {
	ID              string     `json:"id"`
	Number          string     `json:"number"`
	EntryDate       string     `json:"entry_date"`
	EntryType       string     `json:"entry_type"`
	SourceType      string     `json:"source_type"`
	SourceID        string     `json:"source_id,omitempty"`
	EventType       string     `json:"event_type,omitempty"`
	SourceReference string     `json:"source_reference,omitempty"`
	Description     string     `json:"description,omitempty"`
	TotalDebit      string     `json:"total_debit"`
	TotalCredit     string     `json:"total_credit"`
	IsPosted        bool       `json:"is_posted"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
	FiscalPeriodID  string     `json:"fiscal_period_id,omitempty"`
	ReversesID      string     `json:"reverses_id,omitempty"`
	IsReversed      bool       `json:"is_reversed"`
	ReversedBy      string     `json:"reversed_by,omitempty"`
	Lines           []lineView `json:"lines"`
}

func toEntryView(e *domain.JournalEntry) entryView {
	v := entryView{
		ID:              e.ID,
		Number:          e.Number,
		EntryDate:       e.EntryDate.Format(time.DateOnly),
		EntryType:       string(e.EntryType),
		SourceType:      string(e.SourceType),
		SourceID:        e.SourceID,
		EventType:       e.EventType,
		SourceReference: e.SourceReference,
		Description:     e.Description,
		TotalDebit:      e.TotalDebit.StringFixed(domain.AmountScale),
		TotalCredit:     e.TotalCredit.StringFixed(domain.AmountScale),
		IsPosted:        e.IsPosted,
		PostedAt:        e.PostedAt,
		FiscalPeriodID:  e.FiscalPeriodID,
		ReversesID:      e.ReversesID,
		IsReversed:      e.IsReversed,
		ReversedBy:      e.ReversedBy,
		Lines:           make([]lineView, 0, len(e.Lines)),
	}
	for _, l := range e.Lines {
		v.Lines = append(v.Lines, lineView{
			LineNo:      l.LineNo,
			AccountCode: l.AccountCode,
			Description: l.Description,
			Debit:       l.Debit.StringFixed(domain.AmountScale),
			Credit:      l.Credit.StringFixed(domain.AmountScale),
		})
	}
	return v
}

type failureView struct {
	SourceType    string          `json:"source_type"`
	SourceID      string          `json:"source_id"`
	EventType     string          `json:"event_type"`
	LastError     string          `json:"last_error"`
	Attempts      int             `json:"attempts"`
	LastAttemptAt time.Time       `json:"last_attempt_at"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

func toFailureView(f *domain.PostingFailure, withPayload bool) failureView {
	v := failureView{
		SourceType:    string(f.SourceType),
		SourceID:      f.SourceID,
		EventType:     f.EventType,
		LastError:     f.LastError,
		Attempts:      f.Attempts,
		LastAttemptAt: f.LastAttemptAt,
		ResolvedAt:    f.ResolvedAt,
	}
	if withPayload {
		v.Payload = f.Payload
	}
	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

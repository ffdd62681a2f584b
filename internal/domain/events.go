package domain

import "time"

// Event types
const (
	EventTypeJournalPosted   = "journal.posted"
	EventTypeJournalReversed = "journal.reversed"
	EventTypePeriodClosed    = "period.closed"
	EventTypePeriodLocked    = "period.locked"
	EventTypeFailureRecorded = "posting_failure.recorded"
	EventTypeFailureResolved = "posting_failure.resolved"
)

// Aggregate types
const (
	AggregateTypeJournalEntry   = "journal_entry"
	AggregateTypeFiscalPeriod   = "fiscal_period"
	AggregateTypePostingFailure = "posting_failure"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// JournalPostedEvent payload
type JournalPostedEvent struct {
	EntryID        string `json:"entry_id"`
	Number         string `json:"number"`
	SourceType     string `json:"source_type"`
	SourceID       string `json:"source_id,omitempty"`
	EventType      string `json:"event_type"`
	EntryDate      string `json:"entry_date"`
	Total          string `json:"total"`
	FiscalPeriodID string `json:"fiscal_period_id,omitempty"`
}

// JournalReversedEvent payload
type JournalReversedEvent struct {
	OriginalEntryID string `json:"original_entry_id"`
	OriginalNumber  string `json:"original_number"`
	ReversalEntryID string `json:"reversal_entry_id"`
	ReversalNumber  string `json:"reversal_number"`
	ReversedBy      string `json:"reversed_by"`
}

// PeriodStatusEvent payload
type PeriodStatusEvent struct {
	PeriodID string `json:"period_id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	By       string `json:"by"`
}

// FailureEvent payload
type FailureEvent struct {
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	EventType  string `json:"event_type"`
	Attempts   int    `json:"attempts"`
	LastError  string `json:"last_error,omitempty"`
}

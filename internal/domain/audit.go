package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for ledger control actions
type AuditLog struct {
	ID           string
	UserID       string // Who performed the action
	Action       AuditAction
	ResourceType string
	ResourceID   string
	BeforeState  JSON
	AfterState   JSON
	Status       AuditStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	// Account actions
	AuditActionAccountCreate     AuditAction = "account.create"
	AuditActionAccountDeactivate AuditAction = "account.deactivate"
	AuditActionAccountDelete     AuditAction = "account.delete"

	// Journal actions
	AuditActionJournalPost    AuditAction = "journal.post"
	AuditActionJournalReverse AuditAction = "journal.reverse"
	AuditActionJournalAmend   AuditAction = "journal.amend"
	AuditActionJournalDiscard AuditAction = "journal.discard"

	// Period actions
	AuditActionPeriodCreate AuditAction = "period.create"
	AuditActionPeriodClose  AuditAction = "period.close"
	AuditActionPeriodLock   AuditAction = "period.lock"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter narrows audit log queries
type AuditFilter struct {
	UserID       string
	Action       AuditAction
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}

package domain

import (
	"encoding/json"
	"time"
)

// PostingFailure records a posting attempt that failed for a source event.
type PostingFailure struct {
	ID            string
	SourceType    SourceType
	SourceID      string
	EventType     string
	Payload       json.RawMessage
	LastError     string
	Attempts      int
	LastAttemptAt time.Time
	ResolvedAt    *time.Time
	CreatedAt     time.Time
}

// Key returns the key the failure is recorded under.
func (f *PostingFailure) Key() EventKey {
	return EventKey{SourceType: f.SourceType, SourceID: f.SourceID, EventType: f.EventType}
}

// IsOpen reports whether the failure still awaits a successful retry.
func (f *PostingFailure) IsOpen() bool { return f.ResolvedAt == nil }

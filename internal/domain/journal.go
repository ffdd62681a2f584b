package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SourceType names the kind of business record that produced a journal entry.
type SourceType string

const (
	SourceSalesInvoice       SourceType = "sales_invoice"
	SourceInvoicePayment     SourceType = "invoice_payment"
	SourceSalesCreditNote    SourceType = "sales_credit_note"
	SourcePOSTransaction     SourceType = "pos_transaction"
	SourcePOSZReport         SourceType = "pos_zreport"
	SourceSupplierBill       SourceType = "supplier_bill"
	SourceBillPayment        SourceType = "bill_payment"
	SourceSupplierCreditNote SourceType = "supplier_credit_note"
	SourcePayoutVoucher      SourceType = "payout_voucher"
	SourceBankTransaction    SourceType = "bank_transaction"
	SourceManual             SourceType = "manual"
	SourceOpeningBalance     SourceType = "opening_balance"
)

var sourceTypes = map[SourceType]struct{}{
	SourceSalesInvoice:       {},
	SourceInvoicePayment:     {},
	SourceSalesCreditNote:    {},
	SourcePOSTransaction:     {},
	SourcePOSZReport:         {},
	SourceSupplierBill:       {},
	SourceBillPayment:        {},
	SourceSupplierCreditNote: {},
	SourcePayoutVoucher:      {},
	SourceBankTransaction:    {},
	SourceManual:             {},
	SourceOpeningBalance:     {},
}

// Valid reports whether s is one of the known source types.
func (s SourceType) Valid() bool {
	_, ok := sourceTypes[s]
	return ok
}

// EntryType distinguishes generated entries from ones keyed in by a user.
type EntryType string

const (
	EntryTypeSystem EntryType = "system"
	EntryTypeManual EntryType = "manual"
)

// ReversalSuffix is appended to the event type of a reversal entry.
const ReversalSuffix = "_reversal"

// EventKey identifies a business occurrence that may produce at most one journal entry.
type EventKey struct {
	SourceType      SourceType `json:"source_type"`
	SourceID        string     `json:"source_id,omitempty"`
	EventType       string     `json:"event_type"`
	SourceReference string     `json:"source_reference,omitempty"`
}

// HasSourceID reports whether the key is keyed by source id.
func (k EventKey) HasSourceID() bool { return k.SourceID != "" }

// HasReference reports whether the key falls back to the source reference.
func (k EventKey) HasReference() bool { return k.SourceID == "" && k.SourceReference != "" }

// Deduplicated reports whether entries with this key are unique in the ledger.
func (k EventKey) Deduplicated() bool { return k.HasSourceID() || k.HasReference() }

func (k EventKey) String() string {
	if k.HasSourceID() {
		return fmt.Sprintf("%s:%s:%s", k.SourceType, k.SourceID, k.EventType)
	}
	return fmt.Sprintf("%s:%s:ref=%s", k.SourceType, k.EventType, k.SourceReference)
}

// JournalEntry is a balanced set of journal lines for one business event.
type JournalEntry struct {
	ID              string
	Number          string
	EntryDate       time.Time
	EntryType       EntryType
	SourceType      SourceType
	SourceID        string
	EventType       string
	SourceReference string
	Description     string
	TotalDebit      decimal.Decimal
	TotalCredit     decimal.Decimal
	IsPosted        bool
	PostedAt        *time.Time
	FiscalPeriodID  string
	ReversesID      string
	IsReversed      bool
	ReversedBy      string
	ReversedAt      *time.Time
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Lines           []JournalLine
}

// Key returns the idempotency key of the entry.
func (e *JournalEntry) Key() EventKey {
	return EventKey{
		SourceType:      e.SourceType,
		SourceID:        e.SourceID,
		EventType:       e.EventType,
		SourceReference: e.SourceReference,
	}
}

// IsReversal reports whether the entry reverses another entry.
func (e *JournalEntry) IsReversal() bool { return e.ReversesID != "" }

// IsBalanced reports whether stored totals agree.
func (e *JournalEntry) IsBalanced() bool { return e.TotalDebit.Equal(e.TotalCredit) }

// EnsureMutable rejects changes to a posted entry.
func (e *JournalEntry) EnsureMutable() error {
	if e.IsPosted {
		return fmt.Errorf("%w: %s", ErrEntryImmutable, e.Number)
	}
	return nil
}

// CanReverse checks that a reversal entry may be generated for e.
func (e *JournalEntry) CanReverse() error {
	switch {
	case !e.IsPosted:
		return fmt.Errorf("%w: %s", ErrNotPosted, e.Number)
	case e.IsReversed:
		return fmt.Errorf("%w: %s", ErrAlreadyReversed, e.Number)
	case e.IsReversal():
		return fmt.Errorf("%w: %s", ErrReversalOfReversal, e.Number)
	}
	return nil
}

// JournalLine is one debit or credit against an account.
type JournalLine struct {
	ID          string
	EntryID     string
	LineNo      int
	AccountID   string
	AccountCode string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	CreatedAt   time.Time
}

// ValidateLine checks that exactly one side is strictly positive and neither is negative.
func ValidateLine(debit, credit decimal.Decimal) error {
	if debit.IsNegative() || credit.IsNegative() {
		return ErrNegativeAmount
	}
	if debit.IsPositive() == credit.IsPositive() {
		return ErrInvalidLine
	}
	if err := ValidateAmount(debit.Add(credit)); err != nil {
		return err
	}
	return nil
}

// SumLines returns total debits and total credits.
func SumLines(lines []JournalLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// ReverseLines returns copies of lines with debit and credit swapped.
func ReverseLines(lines []JournalLine) []JournalLine {
	reversed := make([]JournalLine, len(lines))
	for i, line := range lines {
		reversed[i] = JournalLine{
			LineNo:      line.LineNo,
			AccountID:   line.AccountID,
			AccountCode: line.AccountCode,
			Description: line.Description,
			Debit:       line.Credit,
			Credit:      line.Debit,
		}
	}
	return reversed
}

const journalNumberLayout = "20060102"

// JournalNumberPrefix returns the numbering prefix for day, e.g. "JE-20240131-".
func JournalNumberPrefix(day time.Time) string {
	return "JE-" + day.Format(journalNumberLayout) + "-"
}

// JournalNumber formats the journal number for the seq-th entry of day.
func JournalNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", JournalNumberPrefix(day), seq)
}

// ParseJournalSequence extracts the daily sequence from a number with the given prefix.
func ParseJournalSequence(number, prefix string) (int, bool) {
	suffix, ok := strings.CutPrefix(number, prefix)
	if !ok || suffix == "" {
		return 0, false
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

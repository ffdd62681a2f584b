package integration

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
)

// ErrInvalidPayload is returned for events that can never be posted as sent.
var ErrInvalidPayload = errors.New("invalid event payload")

// Event names, also used as the event type of the journal entry they produce.
const (
	EventInvoiceSent                = "invoice_sent"
	EventPaymentReceived            = "payment_received"
	EventChequeCleared              = "cheque_cleared"
	EventAdvanceReceived            = "advance_received"
	EventAdvanceRefunded            = "advance_refunded"
	EventTaxInvoiceVAT              = "tax_invoice_vat"
	EventSalesCreditNoteApproved    = "sales_credit_note_approved"
	EventSupplierBillApproved       = "supplier_bill_approved"
	EventBillPaid                   = "bill_paid"
	EventSupplierCreditNoteApproved = "supplier_credit_note_approved"
	EventBankTransactionApproved    = "bank_transaction_approved"
	EventPayoutVoucherApproved      = "payout_voucher_approved"
	EventPOSSale                    = "pos_sale"
	EventZReportClosed              = "zreport_closed"
	EventOpeningBalance             = "opening_balance"
)

// Payment methods accepted on money movements.
const (
	MethodCash     = "cash"
	MethodBank     = "bank"
	MethodCard     = "card"
	MethodTransfer = "transfer"
	MethodCheque   = "cheque"
)

// Event is a business occurrence that maps to at most one journal entry.
type Event interface {
	EventName() string
	EventKey() domain.EventKey
}

// Envelope is the serialized form of an Event, used for deferred delivery and
// kept on failure records so a retry re-dispatches the exact same event.
type Envelope struct {
	Name    string          `json:"name"`
	Key     domain.EventKey `json:"key"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope serializes ev.
func NewEnvelope(ev Event) (Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", ev.EventName(), err)
	}
	return Envelope{Name: ev.EventName(), Key: ev.EventKey(), Payload: payload}, nil
}

// Marshal returns the JSON form of the envelope.
func (e Envelope) Marshal() (json.RawMessage, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses the JSON form of an envelope.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if env.Name == "" {
		return Envelope{}, fmt.Errorf("%w: envelope has no event name", ErrInvalidPayload)
	}
	return env, nil
}

// InvoiceSent is raised when a sales invoice is issued to the customer.
type InvoiceSent struct {
	InvoiceID     string          `json:"invoice_id" validate:"required"`
	InvoiceNumber string          `json:"invoice_number"`
	Date          time.Time       `json:"date" validate:"required"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

func (e InvoiceSent) EventName() string { return EventInvoiceSent }

func (e InvoiceSent) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourceSalesInvoice, SourceID: e.InvoiceID, EventType: EventInvoiceSent}
}

// PaymentReceived is a customer payment against an invoice.
type PaymentReceived struct {
	PaymentID     string          `json:"payment_id" validate:"required"`
	InvoiceNumber string          `json:"invoice_number"`
	Date          time.Time       `json:"date" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method" validate:"required,oneof=cash bank card transfer cheque"`
	ChequeNumber  string          `json:"cheque_number" validate:"required_if=Method cheque"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

func (e PaymentReceived) EventName() string { return EventPaymentReceived }

func (e PaymentReceived) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourceInvoicePayment, SourceID: e.PaymentID, EventType: EventPaymentReceived}
}

// ChequeCleared moves a received cheque from cheques in hand to the bank.
type ChequeCleared struct {
	PaymentID    string          `json:"payment_id" validate:"required"`
	ChequeNumber string          `json:"cheque_number"`
	Date         time.Time       `json:"date" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedBy    string          `json:"created_by,omitempty"`
}

func (e ChequeCleared) EventName() string { return EventChequeCleared }

func (e ChequeCleared) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourceInvoicePayment, SourceID: e.PaymentID, EventType: EventChequeCleared}
}

// AdvanceReceived is money taken from a customer before an invoice exists.
// The amount is VAT inclusive.
type AdvanceReceived struct {
	ReceiptID string          `json:"receipt_id" validate:"required"`
	Date      time.Time       `json:"date" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,oneof=cash bank card transfer cheque"`
	CreatedBy string          `json:"created_by,omitempty"`
}

func (e AdvanceReceived) EventName() string { return EventAdvanceReceived }

func (e AdvanceReceived) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourceInvoicePayment, SourceID: e.ReceiptID, EventType: EventAdvanceReceived}
}

// AdvanceRefunded pays an unused customer advance back.
type AdvanceRefunded struct {
	RefundID     string          `json:"refund_id" validate:"required"`
	ReceiptID    string          `json:"receipt_id"`
	Date         time.Time       `json:"date" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method" validate:"required,oneof=cash bank card transfer cheque"`
	ChequeStatus string          `json:"cheque_status" validate:"omitempty,oneof=pending cleared bounced"`
	CreatedBy    string          `json:"created_by,omitempty"`
}

func (e AdvanceRefunded) EventName() string { return EventAdvanceRefunded }

func (e AdvanceRefunded) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourceInvoicePayment, SourceID: e.RefundID, EventType: EventAdvanceRefunded}
}

// TaxInvoiceVAT applies a VAT-inclusive customer advance to a tax invoice.
// The VAT already recognized on the advance is released so the invoice's own
// VAT is not counted twice.
type TaxInvoiceVAT struct {
	InvoiceID      string          `json:"invoice_id" validate:"required"`
	Date           time.Time       `json:"date" validate:"required"`
	AdvanceApplied decimal.Decimal `json:"advance_applied"`
	CreatedBy      string          `json:"created_by,omitempty"`
}

func (e TaxInvoiceVAT) EventName() string { return EventTaxInvoiceVAT }

func (e TaxInvoiceVAT) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourceSalesInvoice, SourceID: e.InvoiceID, EventType: EventTaxInvoiceVAT}
}

// SalesCreditNoteApproved reduces what a customer owes.
type SalesCreditNoteApproved struct {
	CreditNoteID string          `json:"credit_note_id" validate:"required"`
	Date         time.Time       `json:"date" validate:"required"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	CreatedBy    string          `json:"created_by,omitempty"`
}

func (e SalesCreditNoteApproved) EventName() string { return EventSalesCreditNoteApproved }

func (e SalesCreditNoteApproved) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourceSalesCreditNote, SourceID: e.CreditNoteID, EventType: EventSalesCreditNoteApproved}
}

// SupplierBillApproved recognizes a purchase on credit.
type SupplierBillApproved struct {
	BillID    string          `json:"bill_id" validate:"required"`
	Date      time.Time       `json:"date" validate:"required"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	CreatedBy string          `json:"created_by,omitempty"`
}

func (e SupplierBillApproved) EventName() string { return EventSupplierBillApproved }

func (e SupplierBillApproved) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourceSupplierBill, SourceID: e.BillID, EventType: EventSupplierBillApproved}
}

// BillPaid settles a supplier bill. Payments recorded without an id are keyed
// by their reference, e.g. the cheque or transfer number.
type BillPaid struct {
	PaymentID string          `json:"payment_id" validate:"required_without=Reference"`
	Reference string          `json:"reference"`
	Date      time.Time       `json:"date" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,oneof=cash bank card transfer cheque"`
	CreatedBy string          `json:"created_by,omitempty"`
}

func (e BillPaid) EventName() string { return EventBillPaid }

func (e BillPaid) EventKey() domain.EventKey {
	return domain.EventKey{
		SourceType:      domain.SourceBillPayment,
		SourceID:        e.PaymentID,
		EventType:       EventBillPaid,
		SourceReference: e.Reference,
	}
}

// SupplierCreditNoteApproved reduces what is owed to a supplier.
type SupplierCreditNoteApproved struct {
	CreditNoteID string          `json:"credit_note_id" validate:"required"`
	Date         time.Time       `json:"date" validate:"required"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	CreatedBy    string          `json:"created_by,omitempty"`
}

func (e SupplierCreditNoteApproved) EventName() string { return EventSupplierCreditNoteApproved }

func (e SupplierCreditNoteApproved) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourceSupplierCreditNote, SourceID: e.CreditNoteID, EventType: EventSupplierCreditNoteApproved}
}

// Bank transaction directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// BankTransactionApproved is a bank statement line matched to a ledger account.
type BankTransactionApproved struct {
	TransactionID      string          `json:"transaction_id" validate:"required"`
	Date               time.Time       `json:"date" validate:"required"`
	Amount             decimal.Decimal `json:"amount"`
	Direction          string          `json:"direction" validate:"required,oneof=in out"`
	CounterAccountCode string          `json:"counter_account_code" validate:"required"`
	Description        string          `json:"description"`
	CreatedBy          string          `json:"created_by,omitempty"`
}

func (e BankTransactionApproved) EventName() string { return EventBankTransactionApproved }

func (e BankTransactionApproved) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourceBankTransaction, SourceID: e.TransactionID, EventType: EventBankTransactionApproved}
}

// PayoutVoucherApproved pays an expense directly from cash or bank.
type PayoutVoucherApproved struct {
	VoucherID          string          `json:"voucher_id" validate:"required"`
	Date               time.Time       `json:"date" validate:"required"`
	Amount             decimal.Decimal `json:"amount"`
	ExpenseAccountCode string          `json:"expense_account_code" validate:"required"`
	Method             string          `json:"method" validate:"required,oneof=cash bank card transfer cheque"`
	Description        string          `json:"description"`
	CreatedBy          string          `json:"created_by,omitempty"`
}

func (e PayoutVoucherApproved) EventName() string { return EventPayoutVoucherApproved }

func (e PayoutVoucherApproved) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourcePayoutVoucher, SourceID: e.VoucherID, EventType: EventPayoutVoucherApproved}
}

// POSSale is a completed point-of-sale transaction.
type POSSale struct {
	TransactionID string          `json:"transaction_id" validate:"required"`
	Date          time.Time       `json:"date" validate:"required"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Method        string          `json:"method" validate:"required,oneof=cash bank card transfer"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

func (e POSSale) EventName() string { return EventPOSSale }

func (e POSSale) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourcePOSTransaction, SourceID: e.TransactionID, EventType: EventPOSSale}
}

// ZReportClosed closes a till session; a mismatch between expected and counted
// cash is booked against cash over/short.
type ZReportClosed struct {
	ZReportID    string          `json:"zreport_id" validate:"required"`
	Date         time.Time       `json:"date" validate:"required"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	CountedCash  decimal.Decimal `json:"counted_cash"`
	CreatedBy    string          `json:"created_by,omitempty"`
}

func (e ZReportClosed) EventName() string { return EventZReportClosed }

func (e ZReportClosed) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourcePOSZReport, SourceID: e.ZReportID, EventType: EventZReportClosed}
}

// OpeningBalanceLine is one account balance carried into the ledger.
type OpeningBalanceLine struct {
	AccountCode string          `json:"account_code" validate:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// OpeningBalance loads balances from a previous system. Any difference between
// debits and credits lands in opening balance equity.
type OpeningBalance struct {
	Reference string               `json:"reference" validate:"required"`
	Date      time.Time            `json:"date" validate:"required"`
	Lines     []OpeningBalanceLine `json:"lines" validate:"required,min=1,dive"`
	CreatedBy string               `json:"created_by,omitempty"`
}

func (e OpeningBalance) EventName() string { return EventOpeningBalance }

func (e OpeningBalance) EventKey() domain.EventKey {
	return domain.EventKey{SourceType: domain.SourceOpeningBalance, SourceID: e.Reference, EventType: EventOpeningBalance}
}

var validate = validator.New()

// validatePayload runs the struct tags of ev.
func validatePayload(ev any) error {
	if err := validate.Struct(ev); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed %q", ErrInvalidPayload, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// positive rejects non-positive amounts named field.
func positive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidPayload, field, amount)
	}
	return nil
}

// nonNegative rejects negative amounts named field.
func nonNegative(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s cannot be negative, got %s", ErrInvalidPayload, field, amount)
	}
	return nil
}

package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
)

// Posting roles resolved through the account mapping.
const (
	RoleAR                   = "ar"
	RoleAP                   = "ap"
	RoleSales                = "sales"
	RoleSalesReturns         = "sales_returns"
	RolePurchases            = "purchases"
	RoleVATPayable           = "vat_payable"
	RoleVATReceivable        = "vat_receivable"
	RoleCash                 = "cash"
	RoleBank                 = "bank"
	RoleChequesInHand        = "cheques_in_hand"
	RoleCustomerAdvances     = "customer_advances"
	RoleSupplierAdvances     = "supplier_advances"
	RoleCashOverShort        = "cash_over_short"
	RoleOpeningBalanceEquity = "opening_balance_equity"
)

// Roles lists every posting role.
var Roles = []string{
	RoleAR, RoleAP, RoleSales, RoleSalesReturns, RolePurchases,
	RoleVATPayable, RoleVATReceivable, RoleCash, RoleBank, RoleChequesInHand,
	RoleCustomerAdvances, RoleSupplierAdvances, RoleCashOverShort, RoleOpeningBalanceEquity,
}

// EntryPoster creates or returns the entry for an event key.
type EntryPoster interface {
	CreateOrGet(ctx context.Context, input usecase.CreateEntryInput) (*domain.JournalEntry, error)
}

// Refunder posts refunds of money that already moved.
type Refunder interface {
	Refund(ctx context.Context, input usecase.RefundInput) (*domain.JournalEntry, error)
}

// Hooks turns business events into journal entries. Every hook is a pure
// function of its event, the account mapping and the VAT rate, so delivering
// the same event twice yields the same entry.
type Hooks struct {
	poster   EntryPoster
	refunder Refunder
	mapper   usecase.AccountMapper
	vatRate  decimal.Decimal
}

// NewHooks creates a new Hooks.
func NewHooks(poster EntryPoster, refunder Refunder, mapper usecase.AccountMapper, vatRate decimal.Decimal) *Hooks {
	return &Hooks{
		poster:   poster,
		refunder: refunder,
		mapper:   mapper,
		vatRate:  vatRate,
	}
}

// VATRate returns the rate used to split VAT-inclusive amounts.
func (h *Hooks) VATRate() decimal.Decimal { return h.vatRate }

// InvoiceSent debits AR with the invoice total and credits sales and VAT payable.
func (h *Hooks) InvoiceSent(ctx context.Context, e InvoiceSent) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("subtotal", e.Subtotal); err != nil {
		return nil, err
	}
	if err := nonNegative("tax_amount", e.TaxAmount); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, RoleAR, RoleSales, RoleVATPayable)
	if err != nil {
		return nil, err
	}

	var lines lineSet
	lines.debit(codes[0], e.Subtotal.Add(e.TaxAmount))
	lines.credit(codes[1], e.Subtotal)
	lines.credit(codes[2], e.TaxAmount)

	return h.post(ctx, e, e.Date, "Invoice "+orID(e.InvoiceNumber, e.InvoiceID), e.CreatedBy, lines)
}

// PaymentReceived debits the receiving account and credits AR. Cheques go to
// cheques in hand until they clear.
func (h *Hooks) PaymentReceived(ctx context.Context, e PaymentReceived) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("amount", e.Amount); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, receivingRole(e.Method), RoleAR)
	if err != nil {
		return nil, err
	}

	var lines lineSet
	lines.debit(codes[0], e.Amount)
	lines.credit(codes[1], e.Amount)

	desc := "Payment " + e.PaymentID
	if e.InvoiceNumber != "" {
		desc += " for invoice " + e.InvoiceNumber
	}
	return h.post(ctx, e, e.Date, desc, e.CreatedBy, lines)
}

// ChequeCleared moves a cheque from cheques in hand to the bank.
func (h *Hooks) ChequeCleared(ctx context.Context, e ChequeCleared) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("amount", e.Amount); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, RoleBank, RoleChequesInHand)
	if err != nil {
		return nil, err
	}

	var lines lineSet
	lines.debit(codes[0], e.Amount)
	lines.credit(codes[1], e.Amount)

	return h.post(ctx, e, e.Date, "Cheque cleared "+orID(e.ChequeNumber, e.PaymentID), e.CreatedBy, lines)
}

// AdvanceReceived debits the receiving account with the gross amount and
// splits the credit between customer advances and VAT payable.
func (h *Hooks) AdvanceReceived(ctx context.Context, e AdvanceReceived) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("amount", e.Amount); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, receivingRole(e.Method), RoleCustomerAdvances, RoleVATPayable)
	if err != nil {
		return nil, err
	}

	net, vat := SplitVAT(e.Amount, h.vatRate)

	var lines lineSet
	lines.debit(codes[0], e.Amount)
	lines.credit(codes[1], net)
	lines.credit(codes[2], vat)

	return h.post(ctx, e, e.Date, "Advance "+e.ReceiptID, e.CreatedBy, lines)
}

// AdvanceRefunded pays an advance back to the customer. It is refused while
// the cheque the advance came in on has not cleared.
func (h *Hooks) AdvanceRefunded(ctx context.Context, e AdvanceRefunded) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("amount", e.Amount); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, RoleCustomerAdvances, payingRole(e.Method))
	if err != nil {
		return nil, err
	}

	key := e.EventKey()
	return h.refunder.Refund(ctx, usecase.RefundInput{
		SourceType:           key.SourceType,
		SourceID:             key.SourceID,
		EventType:            key.EventType,
		RefundDate:           e.Date,
		Amount:               e.Amount,
		Direction:            usecase.RefundToCustomer,
		LiabilityAccountCode: codes[0],
		CashAccountCode:      codes[1],
		ChequeStatus:         usecase.ChequeStatus(e.ChequeStatus),
		Description:          "Advance refund " + orID(e.ReceiptID, e.RefundID),
		CreatedBy:            e.CreatedBy,
	})
}

// TaxInvoiceVAT settles AR from a customer advance, releasing the VAT that was
// booked when the advance came in.
func (h *Hooks) TaxInvoiceVAT(ctx context.Context, e TaxInvoiceVAT) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("advance_applied", e.AdvanceApplied); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, RoleCustomerAdvances, RoleVATPayable, RoleAR)
	if err != nil {
		return nil, err
	}

	net, vat := SplitVAT(e.AdvanceApplied, h.vatRate)

	var lines lineSet
	lines.debit(codes[0], net)
	lines.debit(codes[1], vat)
	lines.credit(codes[2], e.AdvanceApplied)

	return h.post(ctx, e, e.Date, "Advance applied to invoice "+e.InvoiceID, e.CreatedBy, lines)
}

// SalesCreditNoteApproved debits sales returns and VAT payable and credits AR.
func (h *Hooks) SalesCreditNoteApproved(ctx context.Context, e SalesCreditNoteApproved) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("subtotal", e.Subtotal); err != nil {
		return nil, err
	}
	if err := nonNegative("tax_amount", e.TaxAmount); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, RoleSalesReturns, RoleVATPayable, RoleAR)
	if err != nil {
		return nil, err
	}

	var lines lineSet
	lines.debit(codes[0], e.Subtotal)
	lines.debit(codes[1], e.TaxAmount)
	lines.credit(codes[2], e.Subtotal.Add(e.TaxAmount))

	return h.post(ctx, e, e.Date, "Credit note "+e.CreditNoteID, e.CreatedBy, lines)
}

// SupplierBillApproved debits purchases and VAT receivable and credits AP.
func (h *Hooks) SupplierBillApproved(ctx context.Context, e SupplierBillApproved) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("subtotal", e.Subtotal); err != nil {
		return nil, err
	}
	if err := nonNegative("tax_amount", e.TaxAmount); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, RolePurchases, RoleVATReceivable, RoleAP)
	if err != nil {
		return nil, err
	}

	var lines lineSet
	lines.debit(codes[0], e.Subtotal)
	lines.debit(codes[1], e.TaxAmount)
	lines.credit(codes[2], e.Subtotal.Add(e.TaxAmount))

	return h.post(ctx, e, e.Date, "Supplier bill "+e.BillID, e.CreatedBy, lines)
}

// BillPaid debits AP and credits the paying account.
func (h *Hooks) BillPaid(ctx context.Context, e BillPaid) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("amount", e.Amount); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, RoleAP, payingRole(e.Method))
	if err != nil {
		return nil, err
	}

	var lines lineSet
	lines.debit(codes[0], e.Amount)
	lines.credit(codes[1], e.Amount)

	return h.post(ctx, e, e.Date, "Bill payment "+orID(e.PaymentID, e.Reference), e.CreatedBy, lines)
}

// SupplierCreditNoteApproved debits AP and credits purchases and VAT receivable.
func (h *Hooks) SupplierCreditNoteApproved(ctx context.Context, e SupplierCreditNoteApproved) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("subtotal", e.Subtotal); err != nil {
		return nil, err
	}
	if err := nonNegative("tax_amount", e.TaxAmount); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, RoleAP, RolePurchases, RoleVATReceivable)
	if err != nil {
		return nil, err
	}

	var lines lineSet
	lines.debit(codes[0], e.Subtotal.Add(e.TaxAmount))
	lines.credit(codes[1], e.Subtotal)
	lines.credit(codes[2], e.TaxAmount)

	return h.post(ctx, e, e.Date, "Supplier credit note "+e.CreditNoteID, e.CreatedBy, lines)
}

// BankTransactionApproved books a bank line against its counter account.
func (h *Hooks) BankTransactionApproved(ctx context.Context, e BankTransactionApproved) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("amount", e.Amount); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, RoleBank)
	if err != nil {
		return nil, err
	}

	var lines lineSet
	if e.Direction == DirectionIn {
		lines.debit(codes[0], e.Amount)
		lines.credit(e.CounterAccountCode, e.Amount)
	} else {
		lines.debit(e.CounterAccountCode, e.Amount)
		lines.credit(codes[0], e.Amount)
	}

	return h.post(ctx, e, e.Date, orID(e.Description, "Bank transaction "+e.TransactionID), e.CreatedBy, lines)
}

// PayoutVoucherApproved debits the expense account and credits the paying account.
func (h *Hooks) PayoutVoucherApproved(ctx context.Context, e PayoutVoucherApproved) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("amount", e.Amount); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, payingRole(e.Method))
	if err != nil {
		return nil, err
	}

	var lines lineSet
	lines.debit(e.ExpenseAccountCode, e.Amount)
	lines.credit(codes[0], e.Amount)

	return h.post(ctx, e, e.Date, orID(e.Description, "Payout voucher "+e.VoucherID), e.CreatedBy, lines)
}

// POSSale debits the till or card clearing account and credits sales and VAT payable.
func (h *Hooks) POSSale(ctx context.Context, e POSSale) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := positive("subtotal", e.Subtotal); err != nil {
		return nil, err
	}
	if err := nonNegative("tax_amount", e.TaxAmount); err != nil {
		return nil, err
	}

	codes, err := h.codes(ctx, receivingRole(e.Method), RoleSales, RoleVATPayable)
	if err != nil {
		return nil, err
	}

	var lines lineSet
	lines.debit(codes[0], e.Subtotal.Add(e.TaxAmount))
	lines.credit(codes[1], e.Subtotal)
	lines.credit(codes[2], e.TaxAmount)

	return h.post(ctx, e, e.Date, "POS sale "+e.TransactionID, e.CreatedBy, lines)
}

// ZReportClosed books the till difference against cash over/short. A till
// that balanced produces no entry and a nil result.
func (h *Hooks) ZReportClosed(ctx context.Context, e ZReportClosed) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}
	if err := nonNegative("expected_cash", e.ExpectedCash); err != nil {
		return nil, err
	}
	if err := nonNegative("counted_cash", e.CountedCash); err != nil {
		return nil, err
	}

	diff := e.CountedCash.Sub(e.ExpectedCash)
	if diff.IsZero() {
		return nil, nil
	}

	codes, err := h.codes(ctx, RoleCash, RoleCashOverShort)
	if err != nil {
		return nil, err
	}

	var lines lineSet
	if diff.IsPositive() {
		lines.debit(codes[0], diff)
		lines.credit(codes[1], diff)
	} else {
		lines.debit(codes[1], diff.Neg())
		lines.credit(codes[0], diff.Neg())
	}

	return h.post(ctx, e, e.Date, "Z report "+e.ZReportID, e.CreatedBy, lines)
}

// OpeningBalance posts the carried balances, plugging any difference into
// opening balance equity.
func (h *Hooks) OpeningBalance(ctx context.Context, e OpeningBalance) (*domain.JournalEntry, error) {
	if err := validatePayload(e); err != nil {
		return nil, err
	}

	var lines lineSet
	debit, credit := decimal.Zero, decimal.Zero
	for i, l := range e.Lines {
		if err := domain.ValidateLine(l.Debit, l.Credit); err != nil {
			return nil, fmt.Errorf("opening balance line %d: %w", i+1, err)
		}
		lines.debit(l.AccountCode, l.Debit)
		lines.credit(l.AccountCode, l.Credit)
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}

	if diff := debit.Sub(credit); !diff.IsZero() {
		codes, err := h.codes(ctx, RoleOpeningBalanceEquity)
		if err != nil {
			return nil, err
		}
		if diff.IsPositive() {
			lines.credit(codes[0], diff)
		} else {
			lines.debit(codes[0], diff.Neg())
		}
	}

	return h.post(ctx, e, e.Date, "Opening balance "+e.Reference, e.CreatedBy, lines)
}

// codes resolves roles to account codes, in order.
func (h *Hooks) codes(ctx context.Context, roles ...string) ([]string, error) {
	out := make([]string, len(roles))
	for i, role := range roles {
		code, err := h.mapper.AccountCode(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s account: %w", role, err)
		}
		out[i] = code
	}
	return out, nil
}

func (h *Hooks) post(ctx context.Context, ev Event, date time.Time, desc, createdBy string, lines lineSet) (*domain.JournalEntry, error) {
	key := ev.EventKey()
	return h.poster.CreateOrGet(ctx, usecase.CreateEntryInput{
		EntryDate:       date,
		EntryType:       domain.EntryTypeSystem,
		SourceType:      key.SourceType,
		SourceID:        key.SourceID,
		EventType:       key.EventType,
		SourceReference: key.SourceReference,
		Description:     desc,
		Lines:           lines,
		AutoPost:        true,
		CreatedBy:       createdBy,
	})
}

// lineSet collects proposed lines, dropping zero amounts.
type lineSet []usecase.LineInput

func (ls *lineSet) debit(code string, amount decimal.Decimal) {
	if amount.IsPositive() {
		*ls = append(*ls, usecase.LineInput{AccountCode: code, Debit: amount})
	}
}

func (ls *lineSet) credit(code string, amount decimal.Decimal) {
	if amount.IsPositive() {
		*ls = append(*ls, usecase.LineInput{AccountCode: code, Credit: amount})
	}
}

// receivingRole is the account money comes into for method.
func receivingRole(method string) string {
	switch method {
	case MethodCash:
		return RoleCash
	case MethodCheque:
		return RoleChequesInHand
	default:
		return RoleBank
	}
}

// payingRole is the account money leaves from. Issued cheques draw on the bank.
func payingRole(method string) string {
	if method == MethodCash {
		return RoleCash
	}
	return RoleBank
}

func orID(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}

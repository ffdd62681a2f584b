package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
)

// ReversalUseCase undoes posted entries with mirror entries and posts refunds.
type ReversalUseCase struct {
	txManager   TransactionManager
	journalRepo JournalRepository
	periodRepo  PeriodRepository
	outboxRepo  OutboxRepository
	journal     *JournalUseCase
	posting     *PostingUseCase
	idGen       IDGenerator
	options
}

// NewReversalUseCase creates a new ReversalUseCase.
func NewReversalUseCase(
	txManager TransactionManager,
	journalRepo JournalRepository,
	periodRepo PeriodRepository,
	outboxRepo OutboxRepository,
	journal *JournalUseCase,
	posting *PostingUseCase,
	idGen IDGenerator,
	opts ...Option,
) *ReversalUseCase {
	return &ReversalUseCase{
		txManager:   txManager,
		journalRepo: journalRepo,
		periodRepo:  periodRepo,
		outboxRepo:  outboxRepo,
		journal:     journal,
		posting:     posting,
		idGen:       idGen,
		options:     newOptions(opts),
	}
}

// ReverseInput represents input for reversing a posted entry.
type ReverseInput struct {
	EntryID string
	User    string
	// ReversalDate defaults to today.
	ReversalDate *time.Time
	Description  string
}

// Reverse posts a new entry with the original's lines mirrored and marks the
// original as reversed. The original entry is never modified otherwise.
func (uc *ReversalUseCase) Reverse(ctx context.Context, input ReverseInput) (*domain.JournalEntry, error) {
	start := time.Now()
	defer uc.metrics.ObserveDuration("reverse", start)

	var reversal *domain.JournalEntry

	err := uc.runInTx(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		original, err := uc.journalRepo.GetByIDForUpdate(ctx, tx, input.EntryID)
		if err != nil {
			return err
		}
		if err := original.CanReverse(); err != nil {
			return err
		}

		if original.FiscalPeriodID != "" {
			period, err := uc.periodRepo.GetByIDForShare(ctx, tx, original.FiscalPeriodID)
			if err != nil {
				return err
			}
			if period.Status == domain.PeriodStatusLocked {
				return fmt.Errorf("%w: %s is in %s", domain.ErrPeriodLocked, original.Number, period.Name)
			}
		}

		now := uc.now().UTC()
		date := domain.DateOf(now)
		if input.ReversalDate != nil {
			date = domain.DateOf(*input.ReversalDate)
		}
		if date.Before(domain.DateOf(original.EntryDate)) {
			return fmt.Errorf("%w: %s is before %s", domain.ErrInvalidReversalDate,
				date.Format(time.DateOnly), domain.DateOf(original.EntryDate).Format(time.DateOnly))
		}

		description := input.Description
		if description == "" {
			description = "Reversal of " + original.Number
		}

		mirrored := domain.ReverseLines(original.Lines)
		lines := make([]LineInput, len(mirrored))
		for i, line := range mirrored {
			lines[i] = LineInput{
				AccountCode: line.AccountCode,
				Debit:       line.Debit,
				Credit:      line.Credit,
				Description: line.Description,
			}
		}

		rev, err := uc.journal.createEntryTx(ctx, tx, CreateEntryInput{
			EntryDate:       date,
			EntryType:       original.EntryType,
			SourceType:      original.SourceType,
			SourceID:        original.SourceID,
			EventType:       original.EventType + domain.ReversalSuffix,
			SourceReference: original.SourceReference,
			Description:     description,
			Lines:           lines,
			CreatedBy:       input.User,
		}, original.ID)
		if err != nil {
			return err
		}
		if rev, err = uc.journal.postTx(ctx, tx, rev.ID); err != nil {
			return err
		}

		if err := uc.journalRepo.MarkReversed(ctx, tx, original.ID, input.User, now); err != nil {
			return err
		}

		event := uc.outboxEvent(uc.idGen.Generate(), domain.AggregateTypeJournalEntry, original.ID, domain.EventTypeJournalReversed,
			domain.JournalReversedEvent{
				OriginalEntryID: original.ID,
				OriginalNumber:  original.Number,
				ReversalEntryID: rev.ID,
				ReversalNumber:  rev.Number,
				ReversedBy:      input.User,
			})
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}

		reversal = rev
		return uc.audit(ctx, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       input.User,
			Action:       domain.AuditActionJournalReverse,
			ResourceType: "journal_entry",
			ResourceID:   original.ID,
			AfterState:   domain.JSON{"reversal_entry_id": rev.ID, "reversal_number": rev.Number},
		})
	})
	if err != nil {
		uc.metrics.CountError("reverse", errorKind(err))
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesReversed.Inc()
	}
	uc.journal.recordCreated(reversal)

	return reversal, nil
}

// RefundDirection says which way money moves in a refund.
type RefundDirection string

const (
	// RefundToCustomer pays money back out: debit the advance or receivable
	// account, credit cash or bank.
	RefundToCustomer RefundDirection = "to_customer"
	// RefundFromSupplier receives money back: debit cash or bank, credit the
	// payable or advance account.
	RefundFromSupplier RefundDirection = "from_supplier"
)

// ChequeStatus is the clearing state of the payment a refund originates from.
type ChequeStatus string

const (
	ChequeNone    ChequeStatus = ""
	ChequePending ChequeStatus = "pending"
	ChequeCleared ChequeStatus = "cleared"
	ChequeBounced ChequeStatus = "bounced"
)

// RefundInput represents a refund of money that already moved through an
// external account.
type RefundInput struct {
	SourceType           domain.SourceType
	SourceID             string
	EventType            string
	SourceReference      string
	RefundDate           time.Time
	Amount               decimal.Decimal
	Direction            RefundDirection
	LiabilityAccountCode string
	CashAccountCode      string
	ChequeStatus         ChequeStatus
	Description          string
	CreatedBy            string
}

// Refund posts a refund entry. It is idempotent by event key and refused
// while the originating cheque has not cleared.
func (uc *ReversalUseCase) Refund(ctx context.Context, input RefundInput) (*domain.JournalEntry, error) {
	if input.ChequeStatus != ChequeNone && input.ChequeStatus != ChequeCleared {
		return nil, fmt.Errorf("%w: cheque is %s", domain.ErrChequeNotCleared, input.ChequeStatus)
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	var lines []LineInput
	switch input.Direction {
	case RefundToCustomer:
		lines = []LineInput{
			{AccountCode: input.LiabilityAccountCode, Debit: input.Amount},
			{AccountCode: input.CashAccountCode, Credit: input.Amount},
		}
	case RefundFromSupplier:
		lines = []LineInput{
			{AccountCode: input.CashAccountCode, Debit: input.Amount},
			{AccountCode: input.LiabilityAccountCode, Credit: input.Amount},
		}
	default:
		return nil, fmt.Errorf("%w: unknown refund direction %q", domain.ErrInvalidLine, input.Direction)
	}

	return uc.posting.CreateOrGet(ctx, CreateEntryInput{
		EntryDate:       input.RefundDate,
		EntryType:       domain.EntryTypeSystem,
		SourceType:      input.SourceType,
		SourceID:        input.SourceID,
		EventType:       input.EventType,
		SourceReference: input.SourceReference,
		Description:     input.Description,
		Lines:           lines,
		AutoPost:        true,
		CreatedBy:       input.CreatedBy,
	})
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
)

// JournalUseCase creates and posts journal entries.
type JournalUseCase struct {
	txManager   TransactionManager
	journalRepo JournalRepository
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	accounts    *AccountUseCase
	periods     *PeriodUseCase
	idGen       IDGenerator
	options
}

// NewJournalUseCase creates a new JournalUseCase.
func NewJournalUseCase(
	txManager TransactionManager,
	journalRepo JournalRepository,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	accounts *AccountUseCase,
	periods *PeriodUseCase,
	idGen IDGenerator,
	opts ...Option,
) *JournalUseCase {
	return &JournalUseCase{
		txManager:   txManager,
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		accounts:    accounts,
		periods:     periods,
		idGen:       idGen,
		options:     newOptions(opts),
	}
}

// LineInput is a proposed journal line referencing an account by code.
type LineInput struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// CreateEntryInput represents input for creating a journal entry.
type CreateEntryInput struct {
	EntryDate       time.Time
	EntryType       domain.EntryType
	SourceType      domain.SourceType
	SourceID        string
	EventType       string
	SourceReference string
	Description     string
	Lines           []LineInput
	// FiscalPeriodID pins the entry to a period instead of resolving it by date.
	FiscalPeriodID string
	AutoPost       bool
	CreatedBy      string
}

// Key returns the idempotency key of the entry the input describes.
func (in CreateEntryInput) Key() domain.EventKey {
	return domain.EventKey{
		SourceType:      in.SourceType,
		SourceID:        in.SourceID,
		EventType:       in.EventType,
		SourceReference: in.SourceReference,
	}
}

// CreateEntry creates an entry with its lines and, when AutoPost is set,
// posts it in the same transaction.
func (uc *JournalUseCase) CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.JournalEntry, error) {
	start := time.Now()
	defer uc.metrics.ObserveDuration("create_entry", start)

	var entry *domain.JournalEntry
	err := uc.runInTx(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		e, err := uc.createEntryTx(ctx, tx, input, "")
		if err != nil {
			return err
		}
		if input.AutoPost {
			if e, err = uc.postTx(ctx, tx, e.ID); err != nil {
				return err
			}
		}
		entry = e
		return nil
	})
	if err != nil {
		uc.metrics.CountError("create_entry", errorKind(err))
		return nil, err
	}

	uc.recordCreated(entry)
	return entry, nil
}

// createEntryTx validates input, resolves its period and accounts, allocates a
// journal number and inserts the unposted entry.
func (uc *JournalUseCase) createEntryTx(ctx context.Context, tx Transaction, input CreateEntryInput, reversesID string) (*domain.JournalEntry, error) {
	if input.EventType == "" {
		return nil, domain.ErrEmptyEventType
	}
	if !input.SourceType.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSourceType, input.SourceType)
	}
	if len(input.Lines) == 0 {
		return nil, domain.ErrNoLines
	}
	if len(input.Description) > domain.MaxDescriptionLength {
		return nil, fmt.Errorf("description exceeds %d characters", domain.MaxDescriptionLength)
	}

	entryType := input.EntryType
	if entryType == "" {
		entryType = domain.EntryTypeSystem
	}
	entryDate := domain.DateOf(input.EntryDate)

	period, err := uc.periods.Resolve(ctx, tx, entryDate, input.FiscalPeriodID)
	if err != nil {
		return nil, err
	}

	lines, err := uc.resolveLines(ctx, tx, input.Lines)
	if err != nil {
		return nil, err
	}

	debit, credit := domain.SumLines(lines)
	if !debit.Equal(credit) {
		return nil, fmt.Errorf("%w: debit %s, credit %s", domain.ErrUnbalancedEntry, debit, credit)
	}

	now := uc.now().UTC()
	entry := &domain.JournalEntry{
		ID:              uc.idGen.Generate(),
		EntryDate:       entryDate,
		EntryType:       entryType,
		SourceType:      input.SourceType,
		SourceID:        input.SourceID,
		EventType:       input.EventType,
		SourceReference: input.SourceReference,
		Description:     input.Description,
		TotalDebit:      debit,
		TotalCredit:     credit,
		ReversesID:      reversesID,
		CreatedBy:       input.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if period != nil {
		entry.FiscalPeriodID = period.ID
	}
	for i := range lines {
		lines[i].ID = uc.idGen.Generate()
		lines[i].EntryID = entry.ID
		lines[i].CreatedAt = now
	}
	entry.Lines = lines

	if err := uc.insertNumbered(ctx, tx, entry, now); err != nil {
		return nil, err
	}

	return entry, nil
}

// resolveLines looks up every referenced account and validates the amounts.
func (uc *JournalUseCase) resolveLines(ctx context.Context, tx Transaction, inputs []LineInput) ([]domain.JournalLine, error) {
	codes := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if !slices.Contains(codes, in.AccountCode) {
			codes = append(codes, in.AccountCode)
		}
	}

	found, err := uc.accountRepo.GetByCodes(ctx, tx, codes)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*domain.Account, len(found))
	for _, acc := range found {
		byCode[acc.Code] = acc
	}

	lines := make([]domain.JournalLine, 0, len(inputs))
	for i, in := range inputs {
		acc, ok := byCode[in.AccountCode]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAccount, in.AccountCode)
		}
		if err := acc.EnsurePostable(); err != nil {
			return nil, err
		}
		if err := domain.ValidateLine(in.Debit, in.Credit); err != nil {
			return nil, fmt.Errorf("line %d (%s): %w", i+1, in.AccountCode, err)
		}
		lines = append(lines, domain.JournalLine{
			LineNo:      i + 1,
			AccountID:   acc.ID,
			AccountCode: acc.Code,
			Description: in.Description,
			Debit:       in.Debit,
			Credit:      in.Credit,
		})
	}

	return lines, nil
}

// insertNumbered allocates the next JE-YYYYMMDD-#### number for the creation
// day and inserts entry, retrying on number collisions.
func (uc *JournalUseCase) insertNumbered(ctx context.Context, tx Transaction, entry *domain.JournalEntry, now time.Time) error {
	prefix := domain.JournalNumberPrefix(now)

	for attempt := 0; attempt < MaxNumberAttempts; attempt++ {
		last, err := uc.journalRepo.MaxSequence(ctx, tx, prefix)
		if err != nil {
			return err
		}
		entry.Number = domain.JournalNumber(now, last+1)

		err = uc.journalRepo.Create(ctx, tx, entry)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicateJournalNumber) {
			return err
		}

		if uc.metrics != nil {
			uc.metrics.NumberCollisions.Inc()
		}
		uc.logger.Debug().Str("number", entry.Number).Int("attempt", attempt+1).Msg("journal number collision")
	}

	entry.Number = ""
	return fmt.Errorf("%w: %d attempts for %s", domain.ErrNumberExhausted, MaxNumberAttempts, prefix)
}

// Post posts an unposted entry and applies its lines to account balances.
func (uc *JournalUseCase) Post(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	start := time.Now()
	defer uc.metrics.ObserveDuration("post", start)

	var entry *domain.JournalEntry
	err := uc.runInTx(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		e, err := uc.postTx(ctx, tx, entryID)
		if err != nil {
			return err
		}
		entry = e
		return uc.audit(ctx, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       e.CreatedBy,
			Action:       domain.AuditActionJournalPost,
			ResourceType: "journal_entry",
			ResourceID:   e.ID,
		})
	})
	if err != nil {
		uc.metrics.CountError("post", errorKind(err))
		return nil, err
	}

	uc.recordPosted(entry)
	return entry, nil
}

// postTx locks the entry, then every account it touches in ascending id order,
// and applies the lines to the balances.
func (uc *JournalUseCase) postTx(ctx context.Context, tx Transaction, entryID string) (*domain.JournalEntry, error) {
	entry, err := uc.journalRepo.GetByIDForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.IsPosted {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyPosted, entry.Number)
	}

	debit, credit := domain.SumLines(entry.Lines)
	if !debit.Equal(credit) || !entry.IsBalanced() || !debit.Equal(entry.TotalDebit) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnbalancedEntry, entry.Number)
	}

	period, err := uc.periods.Resolve(ctx, tx, entry.EntryDate, entry.FiscalPeriodID)
	if err != nil {
		return nil, err
	}
	periodID := ""
	if period != nil {
		periodID = period.ID
	}

	now := uc.now().UTC()
	if err := uc.journalRepo.MarkPosted(ctx, tx, entry.ID, now, periodID); err != nil {
		return nil, err
	}
	entry.IsPosted = true
	entry.PostedAt = &now
	entry.FiscalPeriodID = periodID
	entry.UpdatedAt = now

	ids := make([]string, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		if !slices.Contains(ids, line.AccountID) {
			ids = append(ids, line.AccountID)
		}
	}
	slices.Sort(ids)

	locked, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Account, len(locked))
	for _, acc := range locked {
		byID[acc.ID] = acc
	}

	for _, line := range entry.Lines {
		acc, ok := byID[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAccount, line.AccountCode)
		}
		if err := acc.EnsurePostable(); err != nil {
			return nil, err
		}
		if err := uc.accounts.UpdateBalance(ctx, tx, acc, line.Debit, line.Credit); err != nil {
			return nil, err
		}
	}

	event := uc.outboxEvent(uc.idGen.Generate(), domain.AggregateTypeJournalEntry, entry.ID, domain.EventTypeJournalPosted,
		domain.JournalPostedEvent{
			EntryID:        entry.ID,
			Number:         entry.Number,
			SourceType:     string(entry.SourceType),
			SourceID:       entry.SourceID,
			EventType:      entry.EventType,
			EntryDate:      entry.EntryDate.Format(time.DateOnly),
			Total:          entry.TotalDebit.String(),
			FiscalPeriodID: periodID,
		})
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("failed to create outbox event: %w", err)
	}

	return entry, nil
}

func (uc *JournalUseCase) recordCreated(entry *domain.JournalEntry) {
	if uc.metrics != nil {
		uc.metrics.EntriesCreated.Inc()
	}
	uc.logger.Info().
		Str("entry_id", entry.ID).
		Str("number", entry.Number).
		Str("key", entry.Key().String()).
		Msg("journal entry created")
	if entry.IsPosted {
		uc.recordPosted(entry)
	}
}

func (uc *JournalUseCase) recordPosted(entry *domain.JournalEntry) {
	if uc.metrics != nil {
		uc.metrics.EntriesPosted.Inc()
		uc.metrics.PostedAmount.Observe(entry.TotalDebit.InexactFloat64())
	}
	uc.logger.Info().
		Str("entry_id", entry.ID).
		Str("number", entry.Number).
		Str("period_id", entry.FiscalPeriodID).
		Msg("journal entry posted")
}

// GetEntry retrieves an entry with its lines.
func (uc *JournalUseCase) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return uc.journalRepo.GetByID(ctx, nil, id)
}

// GetEntryByNumber retrieves an entry by its journal number.
func (uc *JournalUseCase) GetEntryByNumber(ctx context.Context, number string) (*domain.JournalEntry, error) {
	return uc.journalRepo.GetByNumber(ctx, nil, number)
}

// ListEntriesBySource lists every entry a source record produced, reversals included.
func (uc *JournalUseCase) ListEntriesBySource(ctx context.Context, sourceType domain.SourceType, sourceID string) ([]*domain.JournalEntry, error) {
	return uc.journalRepo.ListBySource(ctx, sourceType, sourceID)
}

// AmendEntryInput represents changes to an unposted entry.
type AmendEntryInput struct {
	ID          string
	Description *string
	EntryDate   *time.Time
	User        string
}

// AmendEntry changes the description or date of an unposted entry.
func (uc *JournalUseCase) AmendEntry(ctx context.Context, input AmendEntryInput) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry

	err := uc.runInTx(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		e, err := uc.journalRepo.GetByIDForUpdate(ctx, tx, input.ID)
		if err != nil {
			return err
		}
		if err := e.EnsureMutable(); err != nil {
			return err
		}
		before := domain.MarshalState(e)

		if input.Description != nil {
			if len(*input.Description) > domain.MaxDescriptionLength {
				return fmt.Errorf("description exceeds %d characters", domain.MaxDescriptionLength)
			}
			e.Description = *input.Description
		}
		if input.EntryDate != nil {
			e.EntryDate = domain.DateOf(*input.EntryDate)
			period, err := uc.periods.Resolve(ctx, tx, e.EntryDate, e.FiscalPeriodID)
			if err != nil {
				return err
			}
			e.FiscalPeriodID = ""
			if period != nil {
				e.FiscalPeriodID = period.ID
			}
		}
		e.UpdatedAt = uc.now().UTC()

		if err := uc.journalRepo.UpdateDraft(ctx, tx, e); err != nil {
			return err
		}

		entry = e
		return uc.audit(ctx, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       input.User,
			Action:       domain.AuditActionJournalAmend,
			ResourceType: "journal_entry",
			ResourceID:   e.ID,
			BeforeState:  before,
			AfterState:   domain.MarshalState(e),
		})
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// DiscardEntry deletes an unposted entry and its lines.
func (uc *JournalUseCase) DiscardEntry(ctx context.Context, id, user string) error {
	return uc.runInTx(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		e, err := uc.journalRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := e.EnsureMutable(); err != nil {
			return err
		}
		if err := uc.journalRepo.Delete(ctx, tx, id); err != nil {
			return err
		}

		uc.logger.Info().Str("entry_id", id).Str("by", user).Msg("unposted journal entry discarded")

		return uc.audit(ctx, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       user,
			Action:       domain.AuditActionJournalDiscard,
			ResourceType: "journal_entry",
			ResourceID:   id,
			BeforeState:  domain.MarshalState(e),
		})
	})
}

// errorKind labels err for metrics.
func errorKind(err error) string {
	switch {
	case domain.IsStructural(err):
		return "structural"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case errors.Is(err, domain.ErrDuplicateSourceEvent):
		return "duplicate"
	default:
		return "internal"
	}
}

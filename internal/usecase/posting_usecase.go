package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/ledgerpost/internal/domain"
)

// PostingUseCase is the idempotent front door for business events: each
// event key yields at most one journal entry no matter how often or how
// concurrently it is delivered.
type PostingUseCase struct {
	journal     *JournalUseCase
	journalRepo JournalRepository
	cache       EntryKeyCache
	options
}

// NewPostingUseCase creates a new PostingUseCase. cache may be nil.
func NewPostingUseCase(
	journal *JournalUseCase,
	journalRepo JournalRepository,
	cache EntryKeyCache,
	opts ...Option,
) *PostingUseCase {
	return &PostingUseCase{
		journal:     journal,
		journalRepo: journalRepo,
		cache:       cache,
		options:     newOptions(opts),
	}
}

// CreateOrGet returns the entry for the input's event key, creating and
// posting it if none exists yet.
//
// Inputs without a source id or reference always create a new entry. A
// concurrent caller that loses the insert race gets the winner's entry back.
func (uc *PostingUseCase) CreateOrGet(ctx context.Context, input CreateEntryInput) (*domain.JournalEntry, error) {
	start := time.Now()
	defer uc.metrics.ObserveDuration("create_or_get", start)

	key := input.Key()
	if !key.Deduplicated() {
		return uc.journal.CreateEntry(ctx, input)
	}

	if key.HasSourceID() {
		existing, err := uc.lookup(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if uc.metrics != nil {
				uc.metrics.IdempotentHits.Inc()
			}
			uc.logger.Debug().Str("key", key.String()).Str("entry_id", existing.ID).Msg("event already journaled")
			return existing, nil
		}
	}

	entry, err := uc.journal.CreateEntry(ctx, input)
	if err == nil {
		uc.remember(ctx, key, entry.ID)
		return entry, nil
	}
	if !errors.Is(err, domain.ErrDuplicateSourceEvent) {
		return nil, err
	}

	winner, lookupErr := uc.find(ctx, key)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if winner == nil {
		// The conflicting row was rolled back after it blocked us.
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DuplicateRaces.Inc()
	}
	uc.logger.Info().Str("key", key.String()).Str("entry_id", winner.ID).Msg("lost journal race, returning existing entry")
	uc.remember(ctx, key, winner.ID)

	return winner, nil
}

// lookup consults the cache, then the store. Cache failures fall through.
func (uc *PostingUseCase) lookup(ctx context.Context, key domain.EventKey) (*domain.JournalEntry, error) {
	if uc.cache != nil {
		id, err := uc.cache.Get(ctx, key)
		if err != nil {
			uc.logger.Warn().Err(err).Str("key", key.String()).Msg("entry key cache read failed")
		}
		if id != "" {
			entry, err := uc.journalRepo.GetByID(ctx, nil, id)
			if err == nil {
				return entry, nil
			}
			if !errors.Is(err, domain.ErrEntryNotFound) {
				return nil, err
			}
		}
	}

	entry, err := uc.find(ctx, key)
	if err != nil || entry == nil {
		return nil, err
	}
	uc.remember(ctx, key, entry.ID)
	return entry, nil
}

// find queries the store by the key's unique tuple and returns nil when absent.
func (uc *PostingUseCase) find(ctx context.Context, key domain.EventKey) (*domain.JournalEntry, error) {
	var (
		entry *domain.JournalEntry
		err   error
	)
	if key.HasSourceID() {
		entry, err = uc.journalRepo.FindBySourceKey(ctx, nil, key.SourceType, key.SourceID, key.EventType)
	} else {
		entry, err = uc.journalRepo.FindByReference(ctx, nil, key.SourceType, key.EventType, key.SourceReference)
	}
	if errors.Is(err, domain.ErrEntryNotFound) {
		return nil, nil
	}
	return entry, err
}

func (uc *PostingUseCase) remember(ctx context.Context, key domain.EventKey, entryID string) {
	if uc.cache == nil || !key.HasSourceID() {
		return
	}
	if err := uc.cache.Set(ctx, key, entryID); err != nil {
		uc.logger.Warn().Err(err).Str("key", key.String()).Msg("entry key cache write failed")
	}
}

package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgerpost/internal/domain"
)

func newAccount(id, code string) *domain.Account {
	return &domain.Account{
		ID:                id,
		Code:              code,
		Name:              "Account " + code,
		Category:          domain.CategoryAsset,
		AllowTransactions: true,
		IsActive:          true,
		Balance:           decimal.Zero,
	}
}

func TestTx_CommitPublishesOverlay(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Accounts()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx, newAccount("a1", "1100")))

	_, err = repo.GetByID(ctx, nil, "a1")
	require.ErrorIs(t, err, domain.ErrAccountNotFound, "uncommitted row must be invisible outside tx")

	got, err := repo.GetByID(ctx, tx, "a1")
	require.NoError(t, err)
	require.Equal(t, "1100", got.Code)

	require.NoError(t, tx.Commit(ctx))

	got, err = repo.GetByID(ctx, nil, "a1")
	require.NoError(t, err)
	require.Equal(t, "1100", got.Code)
}

func TestTx_RollbackDiscardsOverlayAndKeys(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Accounts()

	tx, _ := s.Begin(ctx)
	require.NoError(t, repo.Create(ctx, tx, newAccount("a1", "1100")))
	require.NoError(t, tx.Rollback(ctx))

	_, err := repo.GetByID(ctx, nil, "a1")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	// The code is free again.
	require.NoError(t, repo.Create(ctx, nil, newAccount("a2", "1100")))
}

func TestTx_RollbackAfterCommitIsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	tx, _ := s.Begin(ctx)
	require.NoError(t, s.Accounts().Create(ctx, tx, newAccount("a1", "1100")))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx))
	require.ErrorIs(t, tx.Commit(ctx), ErrTxDone)

	_, err := s.Accounts().GetByID(ctx, nil, "a1")
	require.NoError(t, err)
}

func TestTx_AfterCommitHooks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStore()

	var order []int
	tx, _ := s.Begin(ctx)
	tx.AfterCommit(func(hookCtx context.Context) {
		require.NoError(t, hookCtx.Err())
		order = append(order, 1)
	})
	tx.AfterCommit(func(context.Context) { order = append(order, 2) })
	cancel()
	require.NoError(t, tx.Commit(ctx))
	require.Equal(t, []int{1, 2}, order)

	var ran bool
	rolled, _ := s.Begin(context.Background())
	rolled.AfterCommit(func(context.Context) { ran = true })
	require.NoError(t, rolled.Rollback(context.Background()))
	require.False(t, ran, "hooks must not run on rollback")
}

func TestReserve_DuplicateCommittedKey(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Accounts()

	require.NoError(t, repo.Create(ctx, nil, newAccount("a1", "1100")))
	err := repo.Create(ctx, nil, newAccount("a2", "1100"))
	require.ErrorIs(t, err, domain.ErrDuplicateAccountCode)
}

func TestReserve_WaitsForInFlightOwner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Accounts()

	first, _ := s.Begin(ctx)
	require.NoError(t, repo.Create(ctx, first, newAccount("a1", "1100")))

	result := make(chan error, 1)
	go func() {
		result <- repo.Create(ctx, nil, newAccount("a2", "1100"))
	}()

	select {
	case err := <-result:
		t.Fatalf("second insert returned before first tx ended: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, first.Commit(ctx))
	require.ErrorIs(t, <-result, domain.ErrDuplicateAccountCode)
}

func TestReserve_ProceedsWhenOwnerRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Accounts()

	first, _ := s.Begin(ctx)
	require.NoError(t, repo.Create(ctx, first, newAccount("a1", "1100")))

	result := make(chan error, 1)
	go func() {
		result <- repo.Create(ctx, nil, newAccount("a2", "1100"))
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, first.Rollback(ctx))
	require.NoError(t, <-result)

	got, err := repo.GetByCode(ctx, nil, "1100")
	require.NoError(t, err)
	require.Equal(t, "a2", got.ID)
}

func TestLock_SerializesUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Accounts()
	require.NoError(t, repo.Create(ctx, nil, newAccount("a1", "1100")))

	const workers = 20
	var done atomic.Int32
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			errs <- func() error {
				tx, _ := s.Begin(ctx)
				defer func() { _ = tx.Rollback(ctx) }()

				locked, err := repo.GetByIDsForUpdate(ctx, tx, []string{"a1"})
				if err != nil {
					return err
				}
				if len(locked) != 1 {
					return errors.New("account not returned")
				}
				balance := locked[0].Balance.Add(decimal.NewFromInt(1))
				if err := repo.UpdateBalance(ctx, tx, "a1", balance, time.Now()); err != nil {
					return err
				}
				done.Add(1)
				return tx.Commit(ctx)
			}()
		}()
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-errs)
	}

	got, err := repo.GetByID(ctx, nil, "a1")
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.NewFromInt(workers)), "lost update: balance %s", got.Balance)
	require.EqualValues(t, workers, done.Load())
}

func TestLock_HonoursContext(t *testing.T) {
	s := NewStore()
	repo := s.Accounts()
	require.NoError(t, repo.Create(context.Background(), nil, newAccount("a1", "1100")))

	holder, _ := s.Begin(context.Background())
	_, err := repo.GetByIDsForUpdate(context.Background(), holder, []string{"a1"})
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	waiter, _ := s.Begin(ctx)
	_, err = repo.GetByIDsForUpdate(ctx, waiter, []string{"a1"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJournal_MaxSequenceSeesInFlightNumbers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Journal()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	prefix := domain.JournalNumberPrefix(day)

	tx, _ := s.Begin(ctx)
	require.NoError(t, repo.Create(ctx, tx, &domain.JournalEntry{ID: "e1", Number: domain.JournalNumber(day, 7)}))

	seq, err := repo.MaxSequence(ctx, nil, prefix)
	require.NoError(t, err)
	require.Equal(t, 7, seq)

	require.NoError(t, tx.Rollback(ctx))
	seq, err = repo.MaxSequence(ctx, nil, prefix)
	require.NoError(t, err)
	require.Equal(t, 0, seq)
}

func TestJournal_PostedEntryIsImmutable(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Journal()
	now := time.Now().UTC()

	entry := &domain.JournalEntry{
		ID:         "e1",
		Number:     "JE-20240301-0001",
		SourceType: domain.SourceSalesInvoice,
		SourceID:   "42",
		EventType:  "invoice_sent",
	}
	require.NoError(t, repo.Create(ctx, nil, entry))
	require.NoError(t, repo.MarkPosted(ctx, nil, "e1", now, ""))

	require.ErrorIs(t, repo.MarkPosted(ctx, nil, "e1", now, ""), domain.ErrAlreadyPosted)
	require.ErrorIs(t, repo.UpdateDraft(ctx, nil, &domain.JournalEntry{ID: "e1", Description: "x"}), domain.ErrEntryImmutable)
	require.ErrorIs(t, repo.Delete(ctx, nil, "e1"), domain.ErrEntryImmutable)

	require.NoError(t, repo.MarkReversed(ctx, nil, "e1", "alice", now))
	got, err := repo.GetByID(ctx, nil, "e1")
	require.NoError(t, err)
	require.True(t, got.IsReversed)
}

func TestJournal_DeleteFreesKeys(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Journal()

	entry := &domain.JournalEntry{
		ID:         "e1",
		Number:     "JE-20240301-0001",
		SourceType: domain.SourceSalesInvoice,
		SourceID:   "42",
		EventType:  "invoice_sent",
	}
	require.NoError(t, repo.Create(ctx, nil, entry))
	require.ErrorIs(t, repo.Create(ctx, nil, &domain.JournalEntry{
		ID: "e2", Number: "JE-20240301-0002", SourceType: domain.SourceSalesInvoice, SourceID: "42", EventType: "invoice_sent",
	}), domain.ErrDuplicateSourceEvent)

	require.NoError(t, repo.Delete(ctx, nil, "e1"))
	require.NoError(t, repo.Create(ctx, nil, &domain.JournalEntry{
		ID: "e2", Number: "JE-20240301-0001", SourceType: domain.SourceSalesInvoice, SourceID: "42", EventType: "invoice_sent",
	}))
}

func TestFailures_UpsertAndResolve(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Failures()
	key := domain.EventKey{SourceType: domain.SourceSalesInvoice, SourceID: "42", EventType: "invoice_sent"}
	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	f, err := repo.Upsert(ctx, &domain.PostingFailure{
		ID: "f1", SourceType: key.SourceType, SourceID: key.SourceID, EventType: key.EventType,
		LastError: "boom", LastAttemptAt: first,
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.Attempts)

	f, err = repo.Upsert(ctx, &domain.PostingFailure{
		ID: "f2", SourceType: key.SourceType, SourceID: key.SourceID, EventType: key.EventType,
		LastError: "boom again", LastAttemptAt: first.Add(time.Minute),
	})
	require.NoError(t, err)
	require.Equal(t, 2, f.Attempts)
	require.Equal(t, "f1", f.ID)
	require.Equal(t, "boom again", f.LastError)

	resolved, err := repo.Resolve(ctx, key, first.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, resolved)

	resolved, err = repo.Resolve(ctx, key, first.Add(2*time.Hour))
	require.NoError(t, err)
	require.False(t, resolved)

	open, err := repo.ListOpen(ctx, 10, 0)
	require.NoError(t, err)
	require.Empty(t, open)
}

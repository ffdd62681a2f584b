package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
)

func TestReversalUseCase_Reverse(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.salesAccounts(t)

	original, err := l.posting.CreateOrGet(ctx, saleInput("42", dec("1000")))
	require.NoError(t, err)

	reversal, err := l.reversal.Reverse(ctx, usecase.ReverseInput{EntryID: original.ID, User: "alice"})
	require.NoError(t, err)

	require.True(t, reversal.IsPosted)
	require.Equal(t, original.ID, reversal.ReversesID)
	require.Equal(t, "invoice_sent_reversal", reversal.EventType)
	require.Equal(t, original.SourceID, reversal.SourceID)
	require.False(t, reversal.EntryDate.Before(original.EntryDate))
	require.Equal(t, "Reversal of "+original.Number, reversal.Description)

	require.Len(t, reversal.Lines, len(original.Lines))
	for i, line := range reversal.Lines {
		require.Equal(t, original.Lines[i].AccountCode, line.AccountCode)
		require.True(t, line.Debit.Equal(original.Lines[i].Credit))
		require.True(t, line.Credit.Equal(original.Lines[i].Debit))
	}

	updated, err := l.journal.GetEntry(ctx, original.ID)
	require.NoError(t, err)
	require.True(t, updated.IsReversed)
	require.Equal(t, "alice", updated.ReversedBy)
	require.NotNil(t, updated.ReversedAt)
	require.True(t, updated.TotalDebit.Equal(dec("1000")), "original amounts must not change")

	require.True(t, l.balance(t, "1100").IsZero())
	require.True(t, l.balance(t, "4000").IsZero())

	_, err = l.reversal.Reverse(ctx, usecase.ReverseInput{EntryID: original.ID, User: "alice"})
	require.ErrorIs(t, err, domain.ErrAlreadyReversed)

	_, err = l.reversal.Reverse(ctx, usecase.ReverseInput{EntryID: reversal.ID, User: "alice"})
	require.ErrorIs(t, err, domain.ErrReversalOfReversal)

	report, err := l.checks.Reconcile(ctx)
	require.NoError(t, err)
	require.Empty(t, report.Discrepancies)
}

func TestReversalUseCase_Reverse_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("unposted entry", func(t *testing.T) {
		l := newLedger(t)
		l.salesAccounts(t)
		input := saleInput("42", dec("10"))
		input.AutoPost = false
		draft, err := l.journal.CreateEntry(ctx, input)
		require.NoError(t, err)

		_, err = l.reversal.Reverse(ctx, usecase.ReverseInput{EntryID: draft.ID, User: "alice"})
		require.ErrorIs(t, err, domain.ErrNotPosted)
	})

	t.Run("date before original", func(t *testing.T) {
		l := newLedger(t)
		l.salesAccounts(t)
		original, err := l.posting.CreateOrGet(ctx, saleInput("42", dec("10")))
		require.NoError(t, err)

		early := day(2024, 3, 14)
		_, err = l.reversal.Reverse(ctx, usecase.ReverseInput{EntryID: original.ID, User: "alice", ReversalDate: &early})
		require.ErrorIs(t, err, domain.ErrInvalidReversalDate)
	})

	t.Run("locked period", func(t *testing.T) {
		l := newLedger(t)
		l.salesAccounts(t)
		mar := l.mustPeriod(t, "March 2024", day(2024, 3, 1), day(2024, 3, 31))
		l.mustPeriod(t, "April 2024", day(2024, 4, 1), day(2024, 4, 30))

		original, err := l.posting.CreateOrGet(ctx, saleInput("42", dec("10")))
		require.NoError(t, err)
		require.Equal(t, mar.ID, original.FiscalPeriodID)

		_, err = l.periods.ClosePeriod(ctx, mar.ID, "controller")
		require.NoError(t, err)
		_, err = l.periods.LockPeriod(ctx, mar.ID, "controller")
		require.NoError(t, err)

		april := day(2024, 4, 2)
		_, err = l.reversal.Reverse(ctx, usecase.ReverseInput{EntryID: original.ID, User: "alice", ReversalDate: &april})
		require.ErrorIs(t, err, domain.ErrPeriodLocked)

		updated, err := l.journal.GetEntry(ctx, original.ID)
		require.NoError(t, err)
		require.False(t, updated.IsReversed)
	})

	t.Run("closed period reversed into the next open one", func(t *testing.T) {
		l := newLedger(t)
		l.salesAccounts(t)
		mar := l.mustPeriod(t, "March 2024", day(2024, 3, 1), day(2024, 3, 31))
		apr := l.mustPeriod(t, "April 2024", day(2024, 4, 1), day(2024, 4, 30))

		original, err := l.posting.CreateOrGet(ctx, saleInput("42", dec("10")))
		require.NoError(t, err)
		_, err = l.periods.ClosePeriod(ctx, mar.ID, "controller")
		require.NoError(t, err)

		april := day(2024, 4, 2)
		reversal, err := l.reversal.Reverse(ctx, usecase.ReverseInput{EntryID: original.ID, User: "alice", ReversalDate: &april})
		require.NoError(t, err)
		require.Equal(t, apr.ID, reversal.FiscalPeriodID)
	})
}

func TestReversalUseCase_Refund(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.mustAccount(t, "1000", domain.CategoryAsset)
	l.mustAccount(t, "2300", domain.CategoryLiability)

	// Customer advance of 500 received.
	_, err := l.posting.CreateOrGet(ctx, usecase.CreateEntryInput{
		EntryDate:  day(2024, 3, 10),
		SourceType: domain.SourceInvoicePayment,
		SourceID:   "pay-7",
		EventType:  "advance_received",
		Lines: []usecase.LineInput{
			{AccountCode: "1000", Debit: dec("500")},
			{AccountCode: "2300", Credit: dec("500")},
		},
		AutoPost: true,
	})
	require.NoError(t, err)

	refund := usecase.RefundInput{
		SourceType:           domain.SourceInvoicePayment,
		SourceID:             "pay-7",
		EventType:            "advance_refunded",
		RefundDate:           time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:               dec("200"),
		Direction:            usecase.RefundToCustomer,
		LiabilityAccountCode: "2300",
		CashAccountCode:      "1000",
		ChequeStatus:         usecase.ChequePending,
	}

	_, err = l.reversal.Refund(ctx, refund)
	require.ErrorIs(t, err, domain.ErrChequeNotCleared)

	refund.ChequeStatus = usecase.ChequeCleared
	entry, err := l.reversal.Refund(ctx, refund)
	require.NoError(t, err)
	require.True(t, entry.IsPosted)

	again, err := l.reversal.Refund(ctx, refund)
	require.NoError(t, err)
	require.Equal(t, entry.ID, again.ID)

	require.True(t, l.balance(t, "1000").Equal(dec("300")))
	require.True(t, l.balance(t, "2300").Equal(dec("300")))
}

func TestReversalUseCase_Refund_FromSupplier(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.mustAccount(t, "1010", domain.CategoryAsset)
	l.mustAccount(t, "1400", domain.CategoryAsset)

	entry, err := l.reversal.Refund(ctx, usecase.RefundInput{
		SourceType:           domain.SourceBillPayment,
		SourceID:             "bp-3",
		EventType:            "supplier_refund",
		RefundDate:           day(2024, 3, 15),
		Amount:               dec("75.25"),
		Direction:            usecase.RefundFromSupplier,
		LiabilityAccountCode: "1400",
		CashAccountCode:      "1010",
	})
	require.NoError(t, err)
	require.Equal(t, "1010", entry.Lines[0].AccountCode)
	require.True(t, entry.Lines[0].Debit.Equal(dec("75.25")))
	require.True(t, l.balance(t, "1010").Equal(dec("75.25")))
	require.True(t, l.balance(t, "1400").Equal(dec("-75.25")))
}

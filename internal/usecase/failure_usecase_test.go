package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iho/ledgerpost/internal/domain"
)

func TestFailureUseCase_RecordAndResolve(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	key := domain.EventKey{SourceType: domain.SourceSalesInvoice, SourceID: "42", EventType: "invoice_sent"}
	payload := json.RawMessage(`{"invoice_id":"42"}`)

	first, err := l.failures.RecordFailure(ctx, key, payload, errors.New("connection reset"))
	require.NoError(t, err)
	require.Equal(t, 1, first.Attempts)

	second, err := l.failures.RecordFailure(ctx, key, payload, errors.New("deadlock detected"))
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 2, second.Attempts)
	require.Equal(t, "deadlock detected", second.LastError)
	require.JSONEq(t, string(payload), string(second.Payload))

	open, err := l.failures.ListOpenFailures(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)

	require.NoError(t, l.failures.ResolveFailure(ctx, key))

	got, err := l.failures.GetFailure(ctx, key)
	require.NoError(t, err)
	require.False(t, got.IsOpen())

	open, err = l.failures.ListOpenFailures(ctx, 10, 0)
	require.NoError(t, err)
	require.Empty(t, open)

	events, err := l.store.Outbox().GetByAggregate(ctx, domain.AggregateTypePostingFailure, first.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
}

func TestFailureUseCase_ResolveWithoutFailure(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	key := domain.EventKey{SourceType: domain.SourceSalesInvoice, SourceID: "7", EventType: "invoice_sent"}
	if err := l.failures.ResolveFailure(ctx, key); err != nil {
		t.Fatalf("resolve with nothing open: %v", err)
	}

	_, err := l.failures.GetFailure(ctx, key)
	if !errors.Is(err, domain.ErrFailureNotFound) {
		t.Fatalf("expected ErrFailureNotFound, got %v", err)
	}
}

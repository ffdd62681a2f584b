package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/ledgerpost/internal/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "duplicate journal number",
			err:  &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "journal_entries_number_key"},
			want: domain.ErrDuplicateJournalNumber,
		},
		{
			name: "duplicate source event",
			err:  &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "journal_entries_source_key"},
			want: domain.ErrDuplicateSourceEvent,
		},
		{
			name: "duplicate reference",
			err:  &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "journal_entries_reference_key"},
			want: domain.ErrDuplicateSourceEvent,
		},
		{
			name: "second reversal",
			err:  &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "journal_entries_reverses_key"},
			want: domain.ErrAlreadyReversed,
		},
		{
			name: "duplicate account code",
			err:  &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "accounts_code_key"},
			want: domain.ErrDuplicateAccountCode,
		},
		{
			name: "posted entry trigger",
			err:  &pgconn.PgError{Code: pgErrEntryImmutable, Message: "journal entry JE-1 is posted"},
			want: domain.ErrEntryImmutable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMapErrorPassesThrough(t *testing.T) {
	deadlock := &pgconn.PgError{Code: pgErrDeadlock}
	if got := mapError(deadlock); got != deadlock {
		t.Fatalf("expected deadlock error unchanged, got %v", got)
	}

	unknown := &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "something_else"}
	if got := mapError(unknown); got != unknown {
		t.Fatalf("expected unknown constraint unchanged, got %v", got)
	}

	if mapError(nil) != nil {
		t.Fatalf("expected nil")
	}
}

func TestNotFound(t *testing.T) {
	if err := notFound(pgx.ErrNoRows, domain.ErrEntryNotFound); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	other := errors.New("boom")
	if err := notFound(other, domain.ErrEntryNotFound); err != other {
		t.Fatalf("expected error unchanged, got %v", err)
	}
}

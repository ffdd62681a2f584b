package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/ledgerpost/internal/domain"
)

// PostgreSQL error codes the adapter reacts to.
const (
	pgErrUniqueViolation      = "23505"
	pgErrForeignKeyViolation  = "23503"
	pgErrCheckViolation       = "23514"
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
	// pgErrEntryImmutable is raised by the journal_entries and journal_lines triggers.
	pgErrEntryImmutable = "LD001"
)

var constraintErrors = map[string]error{
	"accounts_code_key":                  domain.ErrDuplicateAccountCode,
	"accounts_not_own_parent":            domain.ErrInvalidAccountParent,
	"accounts_category_check":            domain.ErrInvalidCategory,
	"accounts_parent_id_fkey":            domain.ErrAccountHasChildren,
	"journal_entries_number_key":         domain.ErrDuplicateJournalNumber,
	"journal_entries_source_key":         domain.ErrDuplicateSourceEvent,
	"journal_entries_reference_key":      domain.ErrDuplicateSourceEvent,
	"journal_entries_reverses_key":       domain.ErrAlreadyReversed,
	"journal_entries_balanced":           domain.ErrUnbalancedEntry,
	"journal_lines_one_side":             domain.ErrInvalidLine,
	"journal_lines_account_id_fkey":      domain.ErrAccountHasHistory,
	"fiscal_periods_range":               domain.ErrInvalidPeriodRange,
	"account_mappings_account_code_fkey": domain.ErrUnknownAccount,
}

// mapError translates PostgreSQL errors into domain errors. Errors it does
// not recognise are returned unchanged so the retrier can still inspect them.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrUniqueViolation, pgErrForeignKeyViolation, pgErrCheckViolation:
		if target, ok := constraintErrors[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%w: %s", target, pgErr.Detail)
		}
	case pgErrEntryImmutable:
		return fmt.Errorf("%w: %s", domain.ErrEntryImmutable, pgErr.Message)
	}
	return err
}

// notFound maps pgx.ErrNoRows to target.
func notFound(err, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return mapError(err)
}

// isRetryableError reports whether a PostgreSQL error is worth re-running the
// whole unit of work for.
func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
			return true
		}
	}
	return false
}

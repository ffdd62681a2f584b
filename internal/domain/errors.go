package domain

import "errors"

var (
	// Posting errors
	ErrUnbalancedEntry      = errors.New("journal entry is unbalanced: total debit must equal total credit")
	ErrUnknownAccount       = errors.New("unknown account code")
	ErrAccountNotPostable   = errors.New("account does not allow transactions")
	ErrAlreadyPosted        = errors.New("journal entry is already posted")
	ErrNumberExhausted      = errors.New("could not allocate a unique journal number")
	ErrDuplicateSourceEvent = errors.New("journal entry already exists for source event")

	// Period errors
	ErrPeriodClosed            = errors.New("fiscal period is closed")
	ErrPeriodLocked            = errors.New("fiscal period is locked")
	ErrDateOutsidePeriod       = errors.New("entry date is outside the fiscal period")
	ErrNoOpenPeriod            = errors.New("no open fiscal period covers the entry date")
	ErrPeriodNotFound          = errors.New("fiscal period not found")
	ErrInvalidPeriodTransition = errors.New("invalid fiscal period status transition")
	ErrInvalidPeriodRange      = errors.New("fiscal period start date must be before end date")
	ErrPeriodOverlap           = errors.New("fiscal period overlaps an existing period")

	// Reversal errors
	ErrAlreadyReversed     = errors.New("journal entry is already reversed")
	ErrReversalOfReversal  = errors.New("cannot reverse a reversal entry")
	ErrNotPosted           = errors.New("journal entry is not posted")
	ErrInvalidReversalDate = errors.New("reversal date is before the original entry date")
	ErrChequeNotCleared    = errors.New("originating cheque has not cleared")

	// Entry errors
	ErrEntryNotFound          = errors.New("journal entry not found")
	ErrEntryImmutable         = errors.New("posted journal entry cannot be modified")
	ErrEmptyEventType         = errors.New("event type is required")
	ErrInvalidSourceType      = errors.New("invalid source type")
	ErrNoLines                = errors.New("journal entry has no lines")
	ErrInvalidLine            = errors.New("journal line must have exactly one positive side")
	ErrNegativeAmount         = errors.New("amount cannot be negative")
	ErrDuplicateJournalNumber = errors.New("journal number already taken")

	// Account errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrDuplicateAccountCode = errors.New("account code already exists")
	ErrInvalidCategory      = errors.New("invalid account category")
	ErrInvalidAccountParent = errors.New("invalid parent account")
	ErrAccountHasHistory    = errors.New("account has transaction history")
	ErrAccountHasChildren   = errors.New("account has child accounts")
	ErrMappingNotFound      = errors.New("account mapping not found")

	// Failure ledger errors
	ErrFailureNotFound = errors.New("posting failure not found")
	ErrNoHandler       = errors.New("no handler registered for event type")
)

var structuralErrors = []error{
	ErrUnbalancedEntry,
	ErrUnknownAccount,
	ErrAccountNotPostable,
	ErrAlreadyPosted,
	ErrPeriodClosed,
	ErrPeriodLocked,
	ErrDateOutsidePeriod,
	ErrNoOpenPeriod,
	ErrNumberExhausted,
	ErrAlreadyReversed,
	ErrReversalOfReversal,
	ErrNotPosted,
	ErrInvalidReversalDate,
	ErrChequeNotCleared,
	ErrEntryImmutable,
	ErrEmptyEventType,
	ErrInvalidSourceType,
	ErrNoLines,
	ErrInvalidLine,
	ErrNegativeAmount,
	ErrInvalidAmount,
	ErrAmountPrecision,
	ErrAmountTooLarge,
}

// IsStructural reports whether err violates a ledger invariant. Such errors need a different
// business decision and are surfaced to the caller instead of being recorded for retry.
func IsStructural(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range structuralErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

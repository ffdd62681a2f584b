package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// MaxNumberAttempts bounds journal number generation on insert collisions.
	MaxNumberAttempts = 5

	// DefaultFailureBatch is the page size for failure sweeps.
	DefaultFailureBatch = 100
)

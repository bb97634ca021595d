package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration of a store transaction
	// opened while an account lock is held.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultLockTimeout bounds how long a movement waits for its account.
	DefaultLockTimeout = 5 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPending is stored under a key while its first request is in flight.
	IdempotencyPending = "processing"
)

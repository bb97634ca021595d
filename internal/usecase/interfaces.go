package usecase

import (
	"context"
	"time"

	"github.com/iho/movledger/internal/domain"
)

// AccountDirectory is the source of account identity, initial balance and
// active state.
type AccountDirectory interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	ListActiveByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	SetActive(ctx context.Context, tx Transaction, id string, active bool, updatedAt time.Time) error
}

// MovementRepository is the append-only movement store. There is no update
// or delete.
type MovementRepository interface {
	Append(ctx context.Context, tx Transaction, movement *domain.Movement) error
	GetByID(ctx context.Context, id string) (*domain.Movement, error)
	// GetLatest returns the last movement of an account in (timestamp,
	// sequence) order, or domain.ErrMovementNotFound.
	GetLatest(ctx context.Context, accountID string) (*domain.Movement, error)
	GetLatestTx(ctx context.Context, tx Transaction, accountID string) (*domain.Movement, error)
	GetReversalOf(ctx context.Context, tx Transaction, movementID string) (*domain.Movement, error)
	// ListByAccount returns movements newest-first.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Movement, error)
	// ListByAccountInRange returns movements with from <= timestamp <= to, newest-first.
	ListByAccountInRange(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Movement, error)
	// History returns every movement of an account oldest-first.
	History(ctx context.Context, accountID string) ([]*domain.Movement, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a store transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// AccountLocker serializes work on a single account. Acquire blocks until
// the lock is held or ctx is done; the returned release func must be called
// exactly once.
type AccountLocker interface {
	Acquire(ctx context.Context, accountID string) (release func(), err error)
}

// Retrier re-runs an operation on transient store errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// LedgerMetrics receives engine observations.
type LedgerMetrics interface {
	MovementRecorded(kind domain.MovementKind, elapsed time.Duration)
	MovementFailed(kind domain.MovementKind, reason string)
	LockWait(elapsed time.Duration)
	StatementGenerated(accounts int)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so that the request can be retried.
	Release(ctx context.Context, key string) error
}

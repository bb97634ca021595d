package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/movledger/internal/domain"
)

// MovementUseCase records and reads movements. Recording is serialized per
// account: the balance read, the funds check and the append all happen
// while the account's lock is held.
type MovementUseCase struct {
	txManager   TransactionManager
	accounts    AccountDirectory
	movements   MovementRepository
	outbox      OutboxRepository
	locker      AccountLocker
	idGen       IDGenerator
	resolver    *BalanceResolver
	retrier     Retrier
	metrics     LedgerMetrics
	logger      zerolog.Logger
	lockTimeout time.Duration
	now         func() time.Time
}

// MovementUseCaseConfig holds the dependencies of a MovementUseCase.
// Retrier, Metrics, Logger, LockTimeout and Now are optional.
type MovementUseCaseConfig struct {
	TxManager   TransactionManager
	Accounts    AccountDirectory
	Movements   MovementRepository
	Outbox      OutboxRepository
	Locker      AccountLocker
	IDGen       IDGenerator
	Retrier     Retrier
	Metrics     LedgerMetrics
	Logger      *zerolog.Logger
	LockTimeout time.Duration
	Now         func() time.Time
}

// NewMovementUseCase creates a new MovementUseCase.
func NewMovementUseCase(cfg MovementUseCaseConfig) *MovementUseCase {
	if cfg.Retrier == nil {
		cfg.Retrier = noRetry{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &MovementUseCase{
		txManager:   cfg.TxManager,
		accounts:    cfg.Accounts,
		movements:   cfg.Movements,
		outbox:      cfg.Outbox,
		locker:      cfg.Locker,
		idGen:       cfg.IDGen,
		resolver:    NewBalanceResolver(cfg.Accounts, cfg.Movements),
		retrier:     cfg.Retrier,
		metrics:     cfg.Metrics,
		logger:      *cfg.Logger,
		lockTimeout: cfg.LockTimeout,
		now:         cfg.Now,
	}
}

// RecordMovementInput represents input for recording a movement.
// Timestamp backdates the movement; it may not precede the account's
// latest movement.
type RecordMovementInput struct {
	AccountID string
	Kind      domain.MovementKind
	Amount    decimal.Decimal
	Timestamp *time.Time
}

// RecordMovement validates and appends a deposit or withdrawal.
func (uc *MovementUseCase) RecordMovement(ctx context.Context, input RecordMovementInput) (*domain.Movement, error) {
	start := time.Now()
	movement, err := uc.record(ctx, input, nil)
	uc.observe(input.AccountID, input.Kind, start, err)

	return movement, err
}

// ReverseMovementInput represents input for compensating a movement.
type ReverseMovementInput struct {
	MovementID string
}

// ReverseMovement records a movement of the opposite kind and equal amount
// that references the original. Each movement can be reversed once.
func (uc *MovementUseCase) ReverseMovement(ctx context.Context, input ReverseMovementInput) (*domain.Movement, error) {
	original, err := uc.movements.GetByID(ctx, input.MovementID)
	if err != nil {
		return nil, err
	}

	record := RecordMovementInput{
		AccountID: original.AccountID,
		Kind:      original.Kind.Opposite(),
		Amount:    original.Amount,
	}

	start := time.Now()
	movement, err := uc.record(ctx, record, original)
	uc.observe(record.AccountID, record.Kind, start, err)

	return movement, err
}

func (uc *MovementUseCase) record(ctx context.Context, input RecordMovementInput, reverses *domain.Movement) (*domain.Movement, error) {
	// 1. Validate input before touching any store
	if err := input.Kind.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateMovementAmount(input.Amount); err != nil {
		return nil, err
	}

	// 2. Directory checks
	account, err := uc.accounts.GetByID(ctx, input.AccountID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, asPersistenceError(err)
	}
	if err := account.CanRecord(); err != nil {
		return nil, err
	}

	// 3. Serialize on the account
	release, err := uc.acquire(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	// 4. Resolve, validate and append under the lock
	var movement *domain.Movement
	err = uc.retrier.Retry(ctx, func() error {
		m, err := uc.appendLocked(ctx, input, reverses)
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, asPersistenceError(err)
	}

	return movement, nil
}

func (uc *MovementUseCase) acquire(ctx context.Context, accountID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	start := time.Now()
	release, err := uc.locker.Acquire(lockCtx, accountID)
	uc.metrics.LockWait(time.Since(start))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: waited %s for account %s", domain.ErrBusy, uc.lockTimeout, accountID)
	}

	return release, nil
}

func (uc *MovementUseCase) appendLocked(ctx context.Context, input RecordMovementInput, reverses *domain.Movement) (*domain.Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Re-read inside the transaction: the account may have been deactivated
	// while we waited for the lock.
	account, err := uc.accounts.GetByIDForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}
	if err := account.CanRecord(); err != nil {
		return nil, err
	}

	if reverses != nil {
		_, err := uc.movements.GetReversalOf(ctx, tx, reverses.ID)
		if err == nil {
			return nil, domain.ErrMovementAlreadyReversed
		}
		if !errors.Is(err, domain.ErrMovementNotFound) {
			return nil, err
		}
	}

	balance, err := uc.resolver.ResolveTx(ctx, tx, account)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC().Truncate(time.Microsecond)
	timestamp, err := movementTimestamp(input.Timestamp, balance, now)
	if err != nil {
		return nil, err
	}

	newBalance, err := balance.Apply(input.Kind, input.Amount)
	if err != nil {
		return nil, err
	}

	movement := &domain.Movement{
		ID:               uc.idGen.Generate(),
		AccountID:        account.ID,
		Sequence:         balance.NextSequence(),
		Timestamp:        timestamp,
		Kind:             input.Kind,
		Amount:           input.Amount,
		ResultingBalance: newBalance,
		CreatedAt:        now,
	}
	eventType := domain.EventTypeMovementRecorded
	if reverses != nil {
		id := reverses.ID
		movement.ReversesID = &id
		eventType = domain.EventTypeMovementReversed
	}

	if err := uc.movements.Append(ctx, tx, movement); err != nil {
		return nil, err
	}

	if err := uc.outbox.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     eventType,
		Payload:       domain.MovementRecordedEvent(movement),
		CreatedAt:     now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return movement, nil
}

// movementTimestamp keeps timestamps non-decreasing along an account's
// sequence so that (timestamp, sequence) and sequence order agree.
func movementTimestamp(requested *time.Time, balance domain.Balance, now time.Time) (time.Time, error) {
	if requested != nil {
		ts := requested.UTC().Truncate(time.Microsecond)
		if ts.After(now) {
			return time.Time{}, fmt.Errorf("%w: %s is in the future", domain.ErrTimestampOutOfOrder, ts.Format(time.RFC3339))
		}
		if balance.AsOf != nil && ts.Before(balance.AsOf.Timestamp) {
			return time.Time{}, fmt.Errorf("%w: latest movement is at %s",
				domain.ErrTimestampOutOfOrder, balance.AsOf.Timestamp.Format(time.RFC3339Nano))
		}
		return ts, nil
	}

	if balance.AsOf != nil && now.Before(balance.AsOf.Timestamp) {
		return balance.AsOf.Timestamp, nil
	}
	return now, nil
}

func (uc *MovementUseCase) observe(accountID string, kind domain.MovementKind, start time.Time, err error) {
	if err == nil {
		uc.metrics.MovementRecorded(kind, time.Since(start))
		return
	}

	reason := domain.ErrorKind(err)
	uc.metrics.MovementFailed(kind, reason)

	switch {
	case errors.Is(err, domain.ErrPersistence):
		uc.logger.Error().Err(err).Str("account_id", accountID).Str("kind", string(kind)).Msg("movement not persisted")
	case errors.Is(err, domain.ErrBusy):
		uc.logger.Warn().Err(err).Str("account_id", accountID).Msg("account lock timeout")
	default:
		uc.logger.Debug().Err(err).Str("account_id", accountID).Str("reason", reason).Msg("movement rejected")
	}
}

// GetMovement retrieves a movement by ID.
func (uc *MovementUseCase) GetMovement(ctx context.Context, id string) (*domain.Movement, error) {
	return uc.movements.GetByID(ctx, id)
}

// ListMovementsInput represents input for listing an account's movements.
type ListMovementsInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListMovements lists an account's movements newest-first.
func (uc *MovementUseCase) ListMovements(ctx context.Context, input ListMovementsInput) ([]*domain.Movement, error) {
	if _, err := uc.accounts.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	input.Limit, input.Offset = domain.ValidatePagination(input.Limit, input.Offset)
	return uc.movements.ListByAccount(ctx, input.AccountID, input.Limit, input.Offset)
}

// GetBalance returns the current resolved balance of an account.
func (uc *MovementUseCase) GetBalance(ctx context.Context, accountID string) (domain.Balance, error) {
	return uc.resolver.Resolve(ctx, accountID)
}

// asPersistenceError keeps domain errors as they are and marks everything
// else, including exhausted sequence conflicts, as a persistence failure.
func asPersistenceError(err error) error {
	if errors.Is(err, domain.ErrSequenceConflict) || domain.ErrorKind(err) == "internal" {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return err
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}

type nopMetrics struct{}

func (nopMetrics) MovementRecorded(domain.MovementKind, time.Duration) {}
func (nopMetrics) MovementFailed(domain.MovementKind, string)          {}
func (nopMetrics) LockWait(time.Duration)                              {}
func (nopMetrics) StatementGenerated(int)                              {}

package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/movledger/internal/domain"
)

// AccountUseCase administers the account directory.
type AccountUseCase struct {
	txManager TransactionManager
	accounts  AccountDirectory
	outbox    OutboxRepository
	locker    AccountLocker
	idGen     IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accounts AccountDirectory,
	outbox OutboxRepository,
	locker AccountLocker,
	idGen IDGenerator,
) *AccountUseCase {
	return &AccountUseCase{
		txManager: txManager,
		accounts:  accounts,
		outbox:    outbox,
		locker:    locker,
		idGen:     idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Number         string
	Type           domain.AccountType
	InitialBalance decimal.Decimal
	CustomerID     string
}

// CreateAccount registers a new active account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	input.Number = strings.TrimSpace(input.Number)

	if err := domain.ValidateAccountNumber(input.Number); err != nil {
		return nil, err
	}
	if err := domain.ValidateAccountType(input.Type); err != nil {
		return nil, err
	}
	if err := domain.ValidateInitialBalance(input.InitialBalance); err != nil {
		return nil, err
	}
	if err := domain.ValidateCustomerID(input.CustomerID); err != nil {
		return nil, err
	}

	if _, err := uc.accounts.GetByNumber(ctx, input.Number); err == nil {
		return nil, domain.ErrDuplicateAccountNumber
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		Number:         input.Number,
		Type:           input.Type,
		InitialBalance: input.InitialBalance,
		Active:         true,
		CustomerID:     input.CustomerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.accounts.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	if err := uc.outbox.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountCreated,
		Payload:       domain.AccountCreatedEvent(account),
		CreatedAt:     now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accounts.GetByID(ctx, id)
}

// GetAccountByNumber retrieves an account by its number.
func (uc *AccountUseCase) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return uc.accounts.GetByNumber(ctx, strings.TrimSpace(number))
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	input.Limit, input.Offset = domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accounts.List(ctx, input.Limit, input.Offset)
}

// ListCustomerAccounts lists every account of a customer, active or not.
func (uc *AccountUseCase) ListCustomerAccounts(ctx context.Context, customerID string) ([]*domain.Account, error) {
	return uc.accounts.ListByCustomer(ctx, customerID)
}

// SetAccountActiveInput represents input for activating or deactivating an account.
type SetAccountActiveInput struct {
	AccountID string
	Active    bool
}

// SetAccountActive flips an account's active flag. It takes the account's
// movement lock so the change never lands in the middle of a movement.
func (uc *AccountUseCase) SetAccountActive(ctx context.Context, input SetAccountActiveInput) (*domain.Account, error) {
	lockCtx, cancel := context.WithTimeout(ctx, DefaultLockTimeout)
	release, err := uc.locker.Acquire(lockCtx, input.AccountID)
	cancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, domain.ErrBusy
	}
	defer release()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accounts.GetByIDForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if account.Active == input.Active {
		return account, nil
	}

	now := time.Now().UTC()
	if err := uc.accounts.SetActive(ctx, tx, account.ID, input.Active, now); err != nil {
		return nil, err
	}
	account.Active = input.Active
	account.UpdatedAt = now

	if err := uc.outbox.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountStatus,
		Payload:       domain.AccountStatusEvent(account),
		CreatedAt:     now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

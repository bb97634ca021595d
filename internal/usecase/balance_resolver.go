package usecase

import (
	"context"
	"errors"

	"github.com/iho/movledger/internal/domain"
)

// BalanceResolver derives an account's balance from its most recent
// movement, falling back to the initial balance.
type BalanceResolver struct {
	accounts  AccountDirectory
	movements MovementRepository
}

// NewBalanceResolver creates a new BalanceResolver.
func NewBalanceResolver(accounts AccountDirectory, movements MovementRepository) *BalanceResolver {
	return &BalanceResolver{
		accounts:  accounts,
		movements: movements,
	}
}

// Resolve returns the current balance of an account.
func (r *BalanceResolver) Resolve(ctx context.Context, accountID string) (domain.Balance, error) {
	account, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		return domain.Balance{}, err
	}

	return r.ResolveAccount(ctx, account)
}

// ResolveAccount returns the current balance of an already loaded account.
func (r *BalanceResolver) ResolveAccount(ctx context.Context, account *domain.Account) (domain.Balance, error) {
	latest, err := r.movements.GetLatest(ctx, account.ID)
	return balanceFrom(account, latest, err)
}

// ResolveTx reads the balance inside tx. Callers must hold the account's
// lock so that the result stays current until they append.
func (r *BalanceResolver) ResolveTx(ctx context.Context, tx Transaction, account *domain.Account) (domain.Balance, error) {
	latest, err := r.movements.GetLatestTx(ctx, tx, account.ID)
	return balanceFrom(account, latest, err)
}

func balanceFrom(account *domain.Account, latest *domain.Movement, err error) (domain.Balance, error) {
	if errors.Is(err, domain.ErrMovementNotFound) {
		return domain.Balance{
			AccountID: account.ID,
			Amount:    account.InitialBalance,
		}, nil
	}
	if err != nil {
		return domain.Balance{}, err
	}

	return domain.Balance{
		AccountID: account.ID,
		Amount:    latest.ResultingBalance,
		AsOf:      latest.Ref(),
	}, nil
}

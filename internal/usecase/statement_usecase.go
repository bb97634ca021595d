package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iho/movledger/internal/domain"
)

// statementConcurrency bounds how many accounts of one customer are read in
// parallel.
const statementConcurrency = 8

// StatementUseCase builds customer statements. It never writes and takes no
// account locks; each account section reflects committed movements as of
// the moment it was read.
type StatementUseCase struct {
	accounts  AccountDirectory
	movements MovementRepository
	resolver  *BalanceResolver
	metrics   LedgerMetrics
	now       func() time.Time
}

// NewStatementUseCase creates a new StatementUseCase. metrics may be nil.
func NewStatementUseCase(accounts AccountDirectory, movements MovementRepository, metrics LedgerMetrics) *StatementUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &StatementUseCase{
		accounts:  accounts,
		movements: movements,
		resolver:  NewBalanceResolver(accounts, movements),
		metrics:   metrics,
		now:       time.Now,
	}
}

// StatementInput represents input for generating a statement. The window
// [From, To] is inclusive.
type StatementInput struct {
	CustomerID string
	From       time.Time
	To         time.Time
}

// GenerateStatement returns one statement per active account of the
// customer, in account number order. Movements in each statement are
// newest-first.
func (uc *StatementUseCase) GenerateStatement(ctx context.Context, input StatementInput) ([]*domain.AccountStatement, error) {
	if err := domain.ValidateDateRange(input.From, input.To); err != nil {
		return nil, err
	}

	accounts, err := uc.accounts.ListActiveByCustomer(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	statements := make([]*domain.AccountStatement, len(accounts))
	generatedAt := uc.now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statementConcurrency)
	for i, account := range accounts {
		g.Go(func() error {
			st, err := uc.accountStatement(gctx, account, input.From, input.To, generatedAt)
			if err != nil {
				return fmt.Errorf("statement for account %s: %w", account.Number, err)
			}
			statements[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	uc.metrics.StatementGenerated(len(statements))

	return statements, nil
}

func (uc *StatementUseCase) accountStatement(ctx context.Context, account *domain.Account, from, to, generatedAt time.Time) (*domain.AccountStatement, error) {
	movements, err := uc.movements.ListByAccountInRange(ctx, account.ID, from, to)
	if err != nil {
		return nil, err
	}

	current, err := uc.resolver.ResolveAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	return domain.NewAccountStatement(account, from, to, movements, current, generatedAt), nil
}

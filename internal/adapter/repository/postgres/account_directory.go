package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/infrastructure/postgres/generated"
	"github.com/iho/movledger/internal/usecase"
)

// AccountDirectory implements usecase.AccountDirectory.
type AccountDirectory struct {
	queries *generated.Queries
}

// NewAccountDirectory creates a new AccountDirectory. db is usually a
// *pgxpool.Pool.
func NewAccountDirectory(db generated.DBTX) *AccountDirectory {
	return &AccountDirectory{
		queries: generated.New(db),
	}
}

// Create inserts a new account within a transaction.
func (r *AccountDirectory) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	_, err = queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:             account.ID,
		Number:         account.Number,
		Type:           string(account.Type),
		InitialBalance: decimalToNumeric(account.InitialBalance),
		Active:         account.Active,
		CustomerID:     account.CustomerID,
		CreatedAt:      timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(account.UpdatedAt),
	})

	return translateUniqueViolation(err)
}

// GetByID retrieves an account by ID.
func (r *AccountDirectory) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	return accountResult(row, err)
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountDirectory) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetAccountByIDForUpdate(ctx, id)
	return accountResult(row, err)
}

// GetByNumber retrieves an account by number.
func (r *AccountDirectory) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByNumber(ctx, number)
	return accountResult(row, err)
}

// ListActiveByCustomer lists a customer's active accounts by number.
func (r *AccountDirectory) ListActiveByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error) {
	rows, err := r.queries.ListActiveAccountsByCustomer(ctx, customerID)
	return accountsResult(rows, err)
}

// ListByCustomer lists all of a customer's accounts by number.
func (r *AccountDirectory) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccountsByCustomer(ctx, customerID)
	return accountsResult(rows, err)
}

// List lists accounts with pagination.
func (r *AccountDirectory) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	return accountsResult(rows, err)
}

// SetActive updates an account's active flag within a transaction.
func (r *AccountDirectory) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.SetAccountActive(ctx, generated.SetAccountActiveParams{
		ID:        id,
		Active:    active,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
}

func accountResult(row generated.Account, err error) (*domain.Account, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

func accountsResult(rows []generated.Account, err error) ([]*domain.Account, error) {
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:             row.ID,
		Number:         row.Number,
		Type:           domain.AccountType(row.Type),
		InitialBalance: numericToDecimal(row.InitialBalance),
		Active:         row.Active,
		CustomerID:     row.CustomerID,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/usecase"
)

// AccountDirectory implements usecase.AccountDirectory in memory.
type AccountDirectory struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Account
	byNumber map[string]string
}

// NewAccountDirectory creates an empty AccountDirectory.
func NewAccountDirectory() *AccountDirectory {
	return &AccountDirectory{
		byID:     make(map[string]*domain.Account),
		byNumber: make(map[string]string),
	}
}

// Put stores an account immediately, outside any transaction.
func (d *AccountDirectory) Put(account *domain.Account) error {
	return d.insert(account)
}

// Create stages an account insert on tx.
func (d *AccountDirectory) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}
	stored := cloneAccount(account)
	return mtx.stage(func() (func(), error) {
		if err := d.insert(stored); err != nil {
			return nil, err
		}
		return func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.byID, stored.ID)
			delete(d.byNumber, stored.Number)
		}, nil
	})
}

func (d *AccountDirectory) insert(account *domain.Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byNumber[account.Number]; ok {
		return domain.ErrDuplicateAccountNumber
	}
	d.byID[account.ID] = cloneAccount(account)
	d.byNumber[account.Number] = account.ID
	return nil
}

// GetByID retrieves an account by ID.
func (d *AccountDirectory) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	account, ok := d.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

// GetByIDForUpdate retrieves an account by ID. Exclusion comes from the
// engine's account lock.
func (d *AccountDirectory) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}
	return d.GetByID(ctx, id)
}

// GetByNumber retrieves an account by number.
func (d *AccountDirectory) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byNumber[number]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(d.byID[id]), nil
}

// ListActiveByCustomer lists a customer's active accounts by number.
func (d *AccountDirectory) ListActiveByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error) {
	return d.filter(func(a *domain.Account) bool {
		return a.CustomerID == customerID && a.Active
	}, byNumber), nil
}

// ListByCustomer lists all of a customer's accounts by number.
func (d *AccountDirectory) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error) {
	return d.filter(func(a *domain.Account) bool {
		return a.CustomerID == customerID
	}, byNumber), nil
}

// List lists accounts by creation time with pagination.
func (d *AccountDirectory) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	all := d.filter(func(*domain.Account) bool { return true }, byCreation)

	if offset >= len(all) {
		return []*domain.Account{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// SetActive stages an active flag change on tx.
func (d *AccountDirectory) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}
	return mtx.stage(func() (func(), error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		account, ok := d.byID[id]
		if !ok {
			return nil, domain.ErrAccountNotFound
		}
		prevActive, prevUpdated := account.Active, account.UpdatedAt
		account.Active = active
		account.UpdatedAt = updatedAt
		return func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			account.Active = prevActive
			account.UpdatedAt = prevUpdated
		}, nil
	})
}

func (d *AccountDirectory) filter(keep func(*domain.Account) bool, less func(a, b *domain.Account) bool) []*domain.Account {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*domain.Account, 0)
	for _, a := range d.byID {
		if keep(a) {
			result = append(result, cloneAccount(a))
		}
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result
}

func byNumber(a, b *domain.Account) bool {
	return a.Number < b.Number
}

func byCreation(a, b *domain.Account) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

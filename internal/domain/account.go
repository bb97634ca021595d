package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeSavings, AccountTypeChecking:
		return true
	default:
		return false
	}
}

// Account is the directory view of an account. It carries no balance: the
// balance is always derived from the account's movements.
type Account struct {
	ID             string
	Number         string
	Type           AccountType
	InitialBalance decimal.Decimal
	Active         bool
	CustomerID     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanRecord returns ErrAccountInactive when movements may not be recorded
// against the account.
func (a *Account) CanRecord() error {
	if !a.Active {
		return ErrAccountInactive
	}
	return nil
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatement reports one account's movements over a window.
// EndingBalance is the account's current balance at generation time, not
// the balance as of To.
type AccountStatement struct {
	AccountID      string
	AccountNumber  string
	AccountType    AccountType
	Active         bool
	CustomerID     string
	From           time.Time
	To             time.Time
	InitialBalance decimal.Decimal
	NetMovement    decimal.Decimal
	EndingBalance  decimal.Decimal
	Movements      []*Movement
	GeneratedAt    time.Time
}

// NewAccountStatement builds a statement from in-window movements, which
// are expected newest-first.
func NewAccountStatement(account *Account, from, to time.Time, movements []*Movement, current Balance, now time.Time) *AccountStatement {
	if movements == nil {
		movements = []*Movement{}
	}
	return &AccountStatement{
		AccountID:      account.ID,
		AccountNumber:  account.Number,
		AccountType:    account.Type,
		Active:         account.Active,
		CustomerID:     account.CustomerID,
		From:           from,
		To:             to,
		InitialBalance: account.InitialBalance,
		NetMovement:    NetMovement(movements),
		EndingBalance:  current.Amount,
		Movements:      movements,
		GeneratedAt:    now,
	}
}

package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Number         string `json:"number"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
	CustomerID     string `json:"customer_id"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() (usecase.CreateAccountInput, error) {
	initial := decimal.Zero
	if r.InitialBalance != "" {
		parsed, err := decimal.NewFromString(r.InitialBalance)
		if err != nil {
			return usecase.CreateAccountInput{}, fmt.Errorf("%w: %v", domain.ErrInvalidInitialBalance, err)
		}
		initial = parsed
	}

	return usecase.CreateAccountInput{
		Number:         r.Number,
		Type:           domain.AccountType(r.Type),
		InitialBalance: initial,
		CustomerID:     r.CustomerID,
	}, nil
}

// CreateMovementRequest represents a request to record a movement.
type CreateMovementRequest struct {
	AccountID string     `json:"account_id"`
	Kind      string     `json:"kind"`
	Amount    string     `json:"amount"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateMovementRequest) ToUseCaseInput() (usecase.RecordMovementInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return usecase.RecordMovementInput{}, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}

	return usecase.RecordMovementInput{
		AccountID: r.AccountID,
		Kind:      domain.MovementKind(r.Kind),
		Amount:    amount,
		Timestamp: r.Timestamp,
	}, nil
}

// SetAccountStatusRequest toggles whether an account accepts movements.
type SetAccountStatusRequest struct {
	Active *bool `json:"active"`
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

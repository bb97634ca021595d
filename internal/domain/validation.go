package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountNumber  = errors.New("invalid account number")
	ErrInvalidAccountType    = errors.New("invalid account type")
	ErrInvalidInitialBalance = errors.New("invalid initial balance")
	ErrInvalidCustomerID     = errors.New("invalid customer id")
)

// Validation constants
const (
	MaxAccountNumberLength = 20
	AmountScale            = 2
	MinMovementAmount      = "0.01"
	MaxMovementAmount      = "9999999999999.99" // numeric(15,2)
	MaxBalance             = MaxMovementAmount

	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	minMovementAmount = decimal.RequireFromString(MinMovementAmount)
	maxMovementAmount = decimal.RequireFromString(MaxMovementAmount)
	maxBalance        = decimal.RequireFromString(MaxBalance)
)

// ValidateMovementAmount validates a deposit or withdrawal amount.
func ValidateMovementAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if amount.LessThan(minMovementAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrInvalidAmount, MinMovementAmount)
	}

	if amount.GreaterThan(maxMovementAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxMovementAmount)
	}

	if !hasScale(amount, AmountScale) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, AmountScale)
	}

	return nil
}

// ValidateInitialBalance validates an account's opening balance.
func ValidateInitialBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return fmt.Errorf("%w: must not be negative", ErrInvalidInitialBalance)
	}

	if balance.GreaterThan(maxBalance) {
		return fmt.Errorf("%w: maximum is %s", ErrInvalidInitialBalance, MaxBalance)
	}

	if !hasScale(balance, AmountScale) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidInitialBalance, AmountScale)
	}

	return nil
}

// ValidateAccountNumber validates a human-facing account number.
func ValidateAccountNumber(number string) error {
	number = strings.TrimSpace(number)

	if number == "" {
		return fmt.Errorf("%w: number cannot be empty", ErrInvalidAccountNumber)
	}

	if len(number) > MaxAccountNumberLength {
		return fmt.Errorf("%w: number exceeds %d characters", ErrInvalidAccountNumber, MaxAccountNumberLength)
	}

	for _, r := range number {
		if !(r >= '0' && r <= '9') && !(r >= 'A' && r <= 'Z') && !(r >= 'a' && r <= 'z') && r != '-' {
			return fmt.Errorf("%w: only letters, digits and '-' are allowed", ErrInvalidAccountNumber)
		}
	}

	return nil
}

// ValidateCustomerID requires a non-empty customer reference.
func ValidateCustomerID(customerID string) error {
	if strings.TrimSpace(customerID) == "" {
		return fmt.Errorf("%w: customer id cannot be empty", ErrInvalidCustomerID)
	}
	return nil
}

// ValidateAccountType validates an account type.
func ValidateAccountType(t AccountType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAccountType, string(t))
	}
	return nil
}

// ValidateDateRange requires from <= to. The window is inclusive on both ends.
func ValidateDateRange(from, to time.Time) error {
	if from.After(to) {
		return ErrInvalidRange
	}
	return nil
}

// ValidatePagination clamps limit to (0, MaxPageSize], defaulting to
// DefaultPageSize, and offset to >= 0.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

func hasScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

package domain

import "errors"

var (
	// Validation errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidMovementKind = errors.New("invalid movement kind")
	ErrInvalidRange        = errors.New("invalid date range: from is after to")

	// Account errors
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountInactive        = errors.New("account is inactive")
	ErrDuplicateAccountNumber = errors.New("account number already exists")

	// Movement errors
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrMovementNotFound        = errors.New("movement not found")
	ErrMovementAlreadyReversed = errors.New("movement already reversed")
	ErrTimestampOutOfOrder     = errors.New("timestamp precedes the account's latest movement")
	ErrBalanceLimitExceeded    = errors.New("balance would exceed the maximum")

	// Contention and storage errors
	ErrBusy             = errors.New("account is busy, retry later")
	ErrSequenceConflict = errors.New("movement sequence conflict")
	ErrPersistence      = errors.New("movement could not be persisted")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidAmount, "invalid_amount"},
	{ErrInvalidMovementKind, "invalid_movement_kind"},
	{ErrInvalidRange, "invalid_range"},
	{ErrInvalidAccountNumber, "invalid_account_number"},
	{ErrInvalidAccountType, "invalid_account_type"},
	{ErrInvalidInitialBalance, "invalid_initial_balance"},
	{ErrInvalidCustomerID, "invalid_customer_id"},
	{ErrAccountNotFound, "account_not_found"},
	{ErrAccountInactive, "account_inactive"},
	{ErrDuplicateAccountNumber, "duplicate_account_number"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrMovementNotFound, "movement_not_found"},
	{ErrMovementAlreadyReversed, "movement_already_reversed"},
	{ErrTimestampOutOfOrder, "timestamp_out_of_order"},
	{ErrBalanceLimitExceeded, "balance_limit_exceeded"},
	{ErrBusy, "busy"},
	{ErrPersistence, "persistence_error"},
	{ErrSequenceConflict, "sequence_conflict"},
}

// ErrorKind returns a stable label for err, or "internal" when err is not
// one of the domain errors.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind is the direction of a movement.
type MovementKind string

const (
	MovementKindDeposit    MovementKind = "deposit"
	MovementKindWithdrawal MovementKind = "withdrawal"
)

// Validate returns ErrInvalidMovementKind for unknown kinds.
func (k MovementKind) Validate() error {
	switch k {
	case MovementKindDeposit, MovementKindWithdrawal:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMovementKind, string(k))
	}
}

// Opposite returns the kind that compensates k.
func (k MovementKind) Opposite() MovementKind {
	if k == MovementKindDeposit {
		return MovementKindWithdrawal
	}
	return MovementKindDeposit
}

// Signed returns amount with the sign the kind applies to a balance.
func (k MovementKind) Signed(amount decimal.Decimal) decimal.Decimal {
	if k == MovementKindWithdrawal {
		return amount.Neg()
	}
	return amount
}

// Movement is an immutable deposit or withdrawal with the balance it left
// the account at. Movements of one account are totally ordered by
// (Timestamp, Sequence).
type Movement struct {
	ID               string
	AccountID        string
	Sequence         int64
	Timestamp        time.Time
	Kind             MovementKind
	Amount           decimal.Decimal
	ResultingBalance decimal.Decimal
	ReversesID       *string
	CreatedAt        time.Time
}

// Before reports whether m sorts before other in the account order.
func (m *Movement) Before(other *Movement) bool {
	if !m.Timestamp.Equal(other.Timestamp) {
		return m.Timestamp.Before(other.Timestamp)
	}
	return m.Sequence < other.Sequence
}

// MovementRef points at the movement a resolved balance was read from.
type MovementRef struct {
	ID        string
	Sequence  int64
	Timestamp time.Time
}

// Ref returns a reference to m.
func (m *Movement) Ref() *MovementRef {
	return &MovementRef{ID: m.ID, Sequence: m.Sequence, Timestamp: m.Timestamp}
}

// Balance is a resolved account balance. AsOf is nil when the account has
// no movements and Amount is its initial balance.
type Balance struct {
	AccountID string
	Amount    decimal.Decimal
	AsOf      *MovementRef
}

// NextSequence returns the sequence number the next movement must take.
func (b Balance) NextSequence() int64 {
	if b.AsOf == nil {
		return 1
	}
	return b.AsOf.Sequence + 1
}

// Apply returns the balance left after a movement of kind and amount.
// Withdrawals larger than the balance fail with ErrInsufficientFunds and
// deposits past MaxBalance with ErrBalanceLimitExceeded.
func (b Balance) Apply(kind MovementKind, amount decimal.Decimal) (decimal.Decimal, error) {
	if kind == MovementKindWithdrawal && amount.GreaterThan(b.Amount) {
		return decimal.Zero, fmt.Errorf("%w: balance %s, requested %s",
			ErrInsufficientFunds, b.Amount.StringFixed(2), amount.StringFixed(2))
	}
	next := b.Amount.Add(kind.Signed(amount))
	if next.GreaterThan(maxBalance) {
		return decimal.Zero, fmt.Errorf("%w: balance %s, deposit %s, maximum %s",
			ErrBalanceLimitExceeded, b.Amount.StringFixed(2), amount.StringFixed(2), MaxBalance)
	}
	return next, nil
}

// NetMovement sums deposits minus withdrawals.
func NetMovement(movements []*Movement) decimal.Decimal {
	net := decimal.Zero
	for _, m := range movements {
		net = net.Add(m.Kind.Signed(m.Amount))
	}
	return net
}

package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMovementKind_Validate(t *testing.T) {
	if err := MovementKindDeposit.Validate(); err != nil {
		t.Errorf("deposit: unexpected error %v", err)
	}
	if err := MovementKindWithdrawal.Validate(); err != nil {
		t.Errorf("withdrawal: unexpected error %v", err)
	}
	if err := MovementKind("transfer").Validate(); !errors.Is(err, ErrInvalidMovementKind) {
		t.Errorf("expected ErrInvalidMovementKind, got %v", err)
	}
}

func TestMovementKind_Opposite(t *testing.T) {
	if MovementKindDeposit.Opposite() != MovementKindWithdrawal {
		t.Error("expected deposit to be compensated by a withdrawal")
	}
	if MovementKindWithdrawal.Opposite() != MovementKindDeposit {
		t.Error("expected withdrawal to be compensated by a deposit")
	}
}

func TestBalance_Apply(t *testing.T) {
	tests := []struct {
		name        string
		balance     string
		kind        MovementKind
		amount      string
		want        string
		expectError error
	}{
		{"deposit", "1000.00", MovementKindDeposit, "500.00", "1500.00", nil},
		{"withdrawal", "1000.00", MovementKindWithdrawal, "300.00", "700.00", nil},
		{"withdraw exact balance", "100.00", MovementKindWithdrawal, "100.00", "0", nil},
		{"overdraft", "1000.00", MovementKindWithdrawal, "1500.00", "", ErrInsufficientFunds},
		{"deposit on empty balance", "0", MovementKindDeposit, "0.01", "0.01", nil},
		{"deposit up to the maximum", "9999999999999.00", MovementKindDeposit, "0.99", MaxBalance, nil},
		{"deposit past the maximum", "9999999999999.99", MovementKindDeposit, "0.01", "", ErrBalanceLimitExceeded},
		{"withdrawal at the maximum", MaxBalance, MovementKindWithdrawal, "0.99", "9999999999999.00", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Balance{Amount: decimal.RequireFromString(tt.balance)}

			got, err := b.Apply(tt.kind, decimal.RequireFromString(tt.amount))
			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Apply() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBalance_NextSequence(t *testing.T) {
	if got := (Balance{}).NextSequence(); got != 1 {
		t.Errorf("expected first sequence 1, got %d", got)
	}

	b := Balance{AsOf: &MovementRef{ID: "m-7", Sequence: 7}}
	if got := b.NextSequence(); got != 8 {
		t.Errorf("expected next sequence 8, got %d", got)
	}
}

func TestMovement_Before(t *testing.T) {
	now := time.Now()
	a := &Movement{Timestamp: now, Sequence: 1}
	b := &Movement{Timestamp: now, Sequence: 2}
	c := &Movement{Timestamp: now.Add(-time.Second), Sequence: 3}

	if !a.Before(b) {
		t.Error("equal timestamps should fall back to sequence")
	}
	if b.Before(a) {
		t.Error("higher sequence must not sort first")
	}
	if !c.Before(a) {
		t.Error("earlier timestamp should sort first")
	}
}

func TestNetMovement(t *testing.T) {
	movements := []*Movement{
		{Kind: MovementKindWithdrawal, Amount: decimal.RequireFromString("200.00")},
		{Kind: MovementKindDeposit, Amount: decimal.RequireFromString("500.00")},
	}

	if got := NetMovement(movements); !got.Equal(decimal.RequireFromString("300.00")) {
		t.Errorf("NetMovement() = %s, want 300.00", got)
	}

	if got := NetMovement(nil); !got.IsZero() {
		t.Errorf("NetMovement(nil) = %s, want 0", got)
	}
}

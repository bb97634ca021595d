package domain

import "github.com/shopspring/decimal"

// DiscrepancyType names what a ledger replay found wrong with a movement.
type DiscrepancyType string

const (
	DiscrepancyBalanceMismatch DiscrepancyType = "balance_mismatch"
	DiscrepancyNegativeBalance DiscrepancyType = "negative_balance"
	DiscrepancySequenceGap     DiscrepancyType = "sequence_gap"
	DiscrepancyTimestampOrder  DiscrepancyType = "timestamp_order"
	DiscrepancyForeignMovement DiscrepancyType = "foreign_movement"
)

// Discrepancy is a single replay finding.
type Discrepancy struct {
	MovementID string
	Sequence   int64
	Type       DiscrepancyType
	Expected   decimal.Decimal
	Recorded   decimal.Decimal
}

// ReplayResult is the outcome of replaying one account's movements.
type ReplayResult struct {
	AccountID      string
	MovementCount  int
	InitialBalance decimal.Decimal
	FinalBalance   decimal.Decimal
	Discrepancies  []Discrepancy
}

// Consistent reports whether the replay found nothing wrong.
func (r *ReplayResult) Consistent() bool {
	return len(r.Discrepancies) == 0
}

// ReplayLedger recomputes every resulting balance of an account from its
// initial balance. movements must be in ascending account order. After a
// mismatch the replay continues from the recorded balance so that each
// finding points at the movement that introduced it.
func ReplayLedger(account *Account, movements []*Movement) *ReplayResult {
	result := &ReplayResult{
		AccountID:      account.ID,
		MovementCount:  len(movements),
		InitialBalance: account.InitialBalance,
		Discrepancies:  []Discrepancy{},
	}

	balance := account.InitialBalance
	var prev *Movement
	for i, m := range movements {
		if m.AccountID != account.ID {
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				MovementID: m.ID,
				Sequence:   m.Sequence,
				Type:       DiscrepancyForeignMovement,
			})
			continue
		}

		if m.Sequence != int64(i+1) {
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				MovementID: m.ID,
				Sequence:   m.Sequence,
				Type:       DiscrepancySequenceGap,
				Expected:   decimal.NewFromInt(int64(i + 1)),
				Recorded:   decimal.NewFromInt(m.Sequence),
			})
		}

		if prev != nil && m.Timestamp.Before(prev.Timestamp) {
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				MovementID: m.ID,
				Sequence:   m.Sequence,
				Type:       DiscrepancyTimestampOrder,
			})
		}

		expected := balance.Add(m.Kind.Signed(m.Amount))
		if !expected.Equal(m.ResultingBalance) {
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				MovementID: m.ID,
				Sequence:   m.Sequence,
				Type:       DiscrepancyBalanceMismatch,
				Expected:   expected,
				Recorded:   m.ResultingBalance,
			})
		}

		if m.ResultingBalance.IsNegative() {
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				MovementID: m.ID,
				Sequence:   m.Sequence,
				Type:       DiscrepancyNegativeBalance,
				Recorded:   m.ResultingBalance,
			})
		}

		balance = m.ResultingBalance
		prev = m
	}

	result.FinalBalance = balance
	return result
}

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/movledger/internal/adapter/repository/memory"
	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/usecase"
)

// appendRaw writes a movement without going through the engine.
func appendRaw(t *testing.T, l *testLedger, m *domain.Movement) {
	t.Helper()

	ctx := context.Background()
	tx, err := memory.NewTxManager().Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := l.movements.Append(ctx, tx, m); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestReconcileAccount(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 150, true)
	recordAt(t, l, epoch, "acc-1", domain.MovementKindDeposit, "50")
	recordAt(t, l, epoch.Add(time.Minute), "acc-1", domain.MovementKindWithdrawal, "25.50")

	result, err := l.reconciliationUC.ReconcileAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mustEqualDecimal(t, amount("174.50"), result.RecordedBalance, "recorded balance")
	mustEqualDecimal(t, amount("174.50"), result.CalculatedBalance, "calculated balance")
	if !result.IsReconciled {
		t.Fatalf("expected account to be marked as reconciled, got %+v", result.Discrepancies)
	}
	if result.MovementCount != 2 {
		t.Fatalf("expected 2 movements, got %d", result.MovementCount)
	}
	if result.LastChecked.IsZero() {
		t.Fatal("expected LastChecked timestamp to be set")
	}
}

func TestReconcileAccount_NoMovements(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 42, true)

	result, err := l.reconciliationUC.ReconcileAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsReconciled || !result.RecordedBalance.Equal(amount("42")) {
		t.Fatalf("expected reconciled initial balance, got %+v", result)
	}
}

func TestReconcileAccount_DetectsCorruptBalance(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 100, true)
	appendRaw(t, l, &domain.Movement{
		ID: "m1", AccountID: "acc-1", Sequence: 1, Timestamp: epoch,
		Kind: domain.MovementKindDeposit, Amount: amount("10"), ResultingBalance: amount("111"),
	})

	result, err := l.reconciliationUC.ReconcileAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsReconciled {
		t.Fatal("expected corrupt account to fail reconciliation")
	}
	if len(result.Discrepancies) != 1 || result.Discrepancies[0].Type != domain.DiscrepancyBalanceMismatch {
		t.Fatalf("expected one balance mismatch, got %+v", result.Discrepancies)
	}
	mustEqualDecimal(t, amount("1"), result.Difference, "difference")
}

func TestReconcileAccount_NotFound(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)

	_, err := l.reconciliationUC.ReconcileAccount(context.Background(), "missing")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestGenerateReconciliationReport(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 100, true)
	l.addAccount(t, "acc-2", "1002", "cust-2", 100, true)
	recordAt(t, l, epoch, "acc-1", domain.MovementKindDeposit, "1")
	appendRaw(t, l, &domain.Movement{
		ID: "bad", AccountID: "acc-2", Sequence: 1, Timestamp: epoch,
		Kind: domain.MovementKindWithdrawal, Amount: amount("200"), ResultingBalance: amount("-100"),
	})

	report, err := l.reconciliationUC.GenerateReconciliationReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.TotalAccounts != 2 || report.ReconciledAccounts != 1 || report.TotalMovements != 2 {
		t.Fatalf("unexpected report totals: %+v", report)
	}
	if report.LedgerConsistent {
		t.Fatal("expected inconsistent ledger")
	}
	if len(report.Discrepancies) != 1 || report.Discrepancies[0].AccountID != "acc-2" {
		t.Fatalf("expected acc-2 to be reported, got %+v", report.Discrepancies)
	}
	if report.Discrepancies[0].Discrepancies[0].Type != domain.DiscrepancyNegativeBalance {
		t.Fatalf("expected negative balance finding, got %+v", report.Discrepancies[0].Discrepancies)
	}
}

func TestReconcileAllAccounts_Empty(t *testing.T) {
	t.Parallel()

	uc := usecase.NewReconciliationUseCase(memory.NewAccountDirectory(), memory.NewMovementStore())
	results, err := uc.ReconcileAllAccounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

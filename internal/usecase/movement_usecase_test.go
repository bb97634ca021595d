package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/usecase"
	"github.com/iho/movledger/internal/usecase/mocks"
)

func TestMovementUseCase_RecordMovement(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 1000, true)
	ctx := context.Background()

	deposit, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
		AccountID: "acc-1",
		Kind:      domain.MovementKindDeposit,
		Amount:    amount("500"),
	})
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	mustEqualDecimal(t, amount("1500"), deposit.ResultingBalance, "balance after deposit")
	if deposit.Sequence != 1 {
		t.Fatalf("expected sequence 1, got %d", deposit.Sequence)
	}
	if !deposit.Timestamp.Equal(epoch) {
		t.Fatalf("expected timestamp %s, got %s", epoch, deposit.Timestamp)
	}

	l.clock.Advance(time.Minute)
	withdrawal, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
		AccountID: "acc-1",
		Kind:      domain.MovementKindWithdrawal,
		Amount:    amount("300"),
	})
	if err != nil {
		t.Fatalf("withdrawal failed: %v", err)
	}
	mustEqualDecimal(t, amount("1200"), withdrawal.ResultingBalance, "balance after withdrawal")
	if withdrawal.Sequence != 2 {
		t.Fatalf("expected sequence 2, got %d", withdrawal.Sequence)
	}

	balance, err := l.movementUC.GetBalance(ctx, "acc-1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	mustEqualDecimal(t, amount("1200"), balance.Amount, "resolved balance")
	if balance.AsOf == nil || balance.AsOf.ID != withdrawal.ID {
		t.Fatalf("expected balance as of %s, got %+v", withdrawal.ID, balance.AsOf)
	}

	got, err := l.movementUC.GetMovement(ctx, deposit.ID)
	if err != nil {
		t.Fatalf("GetMovement failed: %v", err)
	}
	if got.Kind != domain.MovementKindDeposit || !got.Amount.Equal(amount("500")) {
		t.Fatalf("unexpected stored movement: %+v", got)
	}

	if n := l.outbox.Len(); n != 2 {
		t.Fatalf("expected 2 outbox events, got %d", n)
	}
}

func TestMovementUseCase_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   usecase.RecordMovementInput
		wantErr error
	}{
		{
			name:    "overdraft",
			input:   usecase.RecordMovementInput{AccountID: "acc-1", Kind: domain.MovementKindWithdrawal, Amount: amount("1500")},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "zero amount",
			input:   usecase.RecordMovementInput{AccountID: "acc-1", Kind: domain.MovementKindDeposit, Amount: decimal.Zero},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			input:   usecase.RecordMovementInput{AccountID: "acc-1", Kind: domain.MovementKindDeposit, Amount: amount("-5")},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "too many decimal places",
			input:   usecase.RecordMovementInput{AccountID: "acc-1", Kind: domain.MovementKindDeposit, Amount: amount("1.005")},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "unknown kind",
			input:   usecase.RecordMovementInput{AccountID: "acc-1", Kind: "transfer", Amount: amount("1")},
			wantErr: domain.ErrInvalidMovementKind,
		},
		{
			name:    "balance past the storable maximum",
			input:   usecase.RecordMovementInput{AccountID: "acc-full", Kind: domain.MovementKindDeposit, Amount: amount("1.00")},
			wantErr: domain.ErrBalanceLimitExceeded,
		},
		{
			name:    "unknown account",
			input:   usecase.RecordMovementInput{AccountID: "missing", Kind: domain.MovementKindDeposit, Amount: amount("1")},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "inactive account",
			input:   usecase.RecordMovementInput{AccountID: "acc-closed", Kind: domain.MovementKindDeposit, Amount: amount("1")},
			wantErr: domain.ErrAccountInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := newTestLedger(t)
			l.addAccount(t, "acc-1", "1001", "cust-1", 1000, true)
			l.addAccount(t, "acc-closed", "1002", "cust-1", 1000, false)
			l.addAccount(t, "acc-full", "1003", "cust-1", 9999999999999, true)

			movement, err := l.movementUC.RecordMovement(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if movement != nil {
				t.Fatalf("expected no movement, got %+v", movement)
			}

			history, _ := l.movements.History(context.Background(), tt.input.AccountID)
			if len(history) != 0 {
				t.Fatalf("expected no stored movements, got %d", len(history))
			}
			if n := l.outbox.Len(); n != 0 {
				t.Fatalf("expected no outbox events, got %d", n)
			}
		})
	}
}

func TestMovementUseCase_DepositUpToMaximumBalance(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 9999999999999, true)

	m, err := l.movementUC.RecordMovement(context.Background(), usecase.RecordMovementInput{
		AccountID: "acc-1",
		Kind:      domain.MovementKindDeposit,
		Amount:    amount("0.99"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.ResultingBalance.Equal(amount(domain.MaxBalance)) {
		t.Fatalf("expected balance %s, got %s", domain.MaxBalance, m.ResultingBalance)
	}
}

func TestMovementUseCase_WithdrawExactBalance(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 250, true)

	m, err := l.movementUC.RecordMovement(context.Background(), usecase.RecordMovementInput{
		AccountID: "acc-1",
		Kind:      domain.MovementKindWithdrawal,
		Amount:    amount("250.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.ResultingBalance.IsZero() {
		t.Fatalf("expected zero balance, got %s", m.ResultingBalance)
	}
}

func TestMovementUseCase_ConcurrentDeposits(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 1000, true)
	ctx := context.Background()

	const workers = 40
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
				AccountID: "acc-1",
				Kind:      domain.MovementKindDeposit,
				Amount:    amount("10"),
			})
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("deposit failed: %v", err)
	}

	history, err := l.movements.History(ctx, "acc-1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != workers {
		t.Fatalf("expected %d movements, got %d", workers, len(history))
	}
	for i, m := range history {
		if m.Sequence != int64(i+1) {
			t.Fatalf("expected sequence %d at position %d, got %d", i+1, i, m.Sequence)
		}
		want := decimal.NewFromInt(1000 + int64(i+1)*10)
		mustEqualDecimal(t, want, m.ResultingBalance, "resulting balance")
	}

	result, err := l.reconciliationUC.ReconcileAccount(ctx, "acc-1")
	if err != nil {
		t.Fatalf("ReconcileAccount failed: %v", err)
	}
	if !result.IsReconciled {
		t.Fatalf("expected reconciled account, got %+v", result.Discrepancies)
	}
}

func TestMovementUseCase_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 100, true)
	ctx := context.Background()

	const workers = 20
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
				AccountID: "acc-1",
				Kind:      domain.MovementKindWithdrawal,
				Amount:    amount("10"),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientFunds):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 || insufficient != 10 {
		t.Fatalf("expected 10 successes and 10 rejections, got %d and %d", succeeded, insufficient)
	}

	balance, err := l.movementUC.GetBalance(ctx, "acc-1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.Amount.IsZero() {
		t.Fatalf("expected zero balance, got %s", balance.Amount)
	}
}

func TestMovementUseCase_BusyWhenLockHeld(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 100, true)
	ctx := context.Background()

	release, err := l.locker.Acquire(ctx, "acc-1")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	_, err = l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
		AccountID: "acc-1",
		Kind:      domain.MovementKindDeposit,
		Amount:    amount("1"),
	})
	if !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	history, _ := l.movements.History(ctx, "acc-1")
	if len(history) != 0 {
		t.Fatalf("expected no movements, got %d", len(history))
	}
}

func TestMovementUseCase_CancelledContext(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 100, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
		AccountID: "acc-1",
		Kind:      domain.MovementKindDeposit,
		Amount:    amount("1"),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMovementUseCase_CancelledWhileWaitingForLock(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 100, true)

	release, err := l.locker.Acquire(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err = l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
		AccountID: "acc-1",
		Kind:      domain.MovementKindDeposit,
		Amount:    amount("1"),
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestMovementUseCase_Timestamps(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 100, true)
	ctx := context.Background()

	first, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
		AccountID: "acc-1", Kind: domain.MovementKindDeposit, Amount: amount("1"),
	})
	if err != nil {
		t.Fatalf("first movement failed: %v", err)
	}

	// A clock that steps backwards must not reorder the account.
	l.clock.Set(epoch.Add(-time.Hour))
	second, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
		AccountID: "acc-1", Kind: domain.MovementKindDeposit, Amount: amount("1"),
	})
	if err != nil {
		t.Fatalf("second movement failed: %v", err)
	}
	if !second.Timestamp.Equal(first.Timestamp) {
		t.Fatalf("expected timestamp to stay at %s, got %s", first.Timestamp, second.Timestamp)
	}
	if !first.Before(second) {
		t.Fatal("expected first movement to sort before second")
	}

	l.clock.Set(epoch.Add(2 * time.Hour))

	tests := []struct {
		name    string
		ts      time.Time
		wantErr error
	}{
		{name: "before latest movement", ts: epoch.Add(-time.Second), wantErr: domain.ErrTimestampOutOfOrder},
		{name: "in the future", ts: epoch.Add(3 * time.Hour), wantErr: domain.ErrTimestampOutOfOrder},
		{name: "between latest and now", ts: epoch.Add(time.Hour + 123456789*time.Nanosecond)},
	}
	for _, tt := range tests {
		ts := tt.ts
		m, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
			AccountID: "acc-1", Kind: domain.MovementKindDeposit, Amount: amount("1"), Timestamp: &ts,
		})
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if want := ts.Truncate(time.Microsecond); !m.Timestamp.Equal(want) {
			t.Fatalf("%s: expected timestamp %s, got %s", tt.name, want, m.Timestamp)
		}
	}
}

func TestMovementUseCase_ReverseMovement(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 100, true)
	ctx := context.Background()

	deposit, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
		AccountID: "acc-1", Kind: domain.MovementKindDeposit, Amount: amount("40"),
	})
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	reversal, err := l.movementUC.ReverseMovement(ctx, usecase.ReverseMovementInput{MovementID: deposit.ID})
	if err != nil {
		t.Fatalf("ReverseMovement failed: %v", err)
	}
	if reversal.Kind != domain.MovementKindWithdrawal {
		t.Fatalf("expected withdrawal, got %s", reversal.Kind)
	}
	if reversal.ReversesID == nil || *reversal.ReversesID != deposit.ID {
		t.Fatalf("expected reversal of %s, got %v", deposit.ID, reversal.ReversesID)
	}
	mustEqualDecimal(t, amount("100"), reversal.ResultingBalance, "balance after reversal")

	_, err = l.movementUC.ReverseMovement(ctx, usecase.ReverseMovementInput{MovementID: deposit.ID})
	if !errors.Is(err, domain.ErrMovementAlreadyReversed) {
		t.Fatalf("expected ErrMovementAlreadyReversed, got %v", err)
	}

	_, err = l.movementUC.ReverseMovement(ctx, usecase.ReverseMovementInput{MovementID: "missing"})
	if !errors.Is(err, domain.ErrMovementNotFound) {
		t.Fatalf("expected ErrMovementNotFound, got %v", err)
	}

	history, _ := l.movements.History(ctx, "acc-1")
	if len(history) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(history))
	}
}

func TestMovementUseCase_ReverseDepositAlreadySpent(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 0, true)
	ctx := context.Background()

	deposit, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
		AccountID: "acc-1", Kind: domain.MovementKindDeposit, Amount: amount("50"),
	})
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
		AccountID: "acc-1", Kind: domain.MovementKindWithdrawal, Amount: amount("30"),
	}); err != nil {
		t.Fatalf("withdrawal failed: %v", err)
	}

	_, err = l.movementUC.ReverseMovement(ctx, usecase.ReverseMovementInput{MovementID: deposit.ID})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestMovementUseCase_ListMovements(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	l.addAccount(t, "acc-1", "1001", "cust-1", 0, true)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.clock.Advance(time.Second)
		if _, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
			AccountID: "acc-1", Kind: domain.MovementKindDeposit, Amount: amount("1"),
		}); err != nil {
			t.Fatalf("deposit %d failed: %v", i, err)
		}
	}

	page, err := l.movementUC.ListMovements(ctx, usecase.ListMovementsInput{AccountID: "acc-1", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListMovements failed: %v", err)
	}
	if len(page) != 2 || page[0].Sequence != 4 || page[1].Sequence != 3 {
		t.Fatalf("expected sequences [4 3], got %+v", page)
	}

	for i := 0; i < domain.DefaultPageSize; i++ {
		l.clock.Advance(time.Second)
		if _, err := l.movementUC.RecordMovement(ctx, usecase.RecordMovementInput{
			AccountID: "acc-1", Kind: domain.MovementKindDeposit, Amount: amount("1"),
		}); err != nil {
			t.Fatalf("deposit %d failed: %v", i, err)
		}
	}

	page, err = l.movementUC.ListMovements(ctx, usecase.ListMovementsInput{AccountID: "acc-1"})
	if err != nil || len(page) != domain.DefaultPageSize {
		t.Fatalf("expected default page of %d, got %d err=%v", domain.DefaultPageSize, len(page), err)
	}

	page, err = l.movementUC.ListMovements(ctx, usecase.ListMovementsInput{AccountID: "acc-1", Limit: 10_000, Offset: -3})
	if err != nil || len(page) != 5+domain.DefaultPageSize {
		t.Fatalf("expected all %d movements, got %d err=%v", 5+domain.DefaultPageSize, len(page), err)
	}
	if page[0].Sequence != int64(5+domain.DefaultPageSize) {
		t.Fatalf("negative offset must start at the newest movement, got sequence %d", page[0].Sequence)
	}

	_, err = l.movementUC.ListMovements(ctx, usecase.ListMovementsInput{AccountID: "missing"})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestMovementUseCase_PersistenceFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	account := &domain.Account{ID: "acc-1", Number: "1001", InitialBalance: amount("10"), Active: true}
	commitErr := errors.New("connection reset")

	accounts := mocks.NewMockAccountDirectory(ctrl)
	movements := mocks.NewMockMovementRepository(ctrl)
	outbox := mocks.NewMockOutboxRepository(ctrl)
	txManager := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockTransaction(ctrl)
	locker := mocks.NewMockAccountLocker(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)
	metrics := mocks.NewMockLedgerMetrics(ctrl)

	released := false
	accounts.EXPECT().GetByID(gomock.Any(), "acc-1").Return(account, nil)
	locker.EXPECT().Acquire(gomock.Any(), "acc-1").Return(func() { released = true }, nil)
	metrics.EXPECT().LockWait(gomock.Any())
	txManager.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	accounts.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "acc-1").Return(account, nil)
	movements.EXPECT().GetLatestTx(gomock.Any(), tx, "acc-1").Return(nil, domain.ErrMovementNotFound)
	idGen.EXPECT().Generate().Return("id").Times(2)
	movements.EXPECT().Append(gomock.Any(), tx, gomock.Any()).Return(nil)
	outbox.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)
	tx.EXPECT().Commit(gomock.Any()).Return(commitErr)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	metrics.EXPECT().MovementFailed(domain.MovementKindDeposit, "persistence_error")

	uc := usecase.NewMovementUseCase(usecase.MovementUseCaseConfig{
		TxManager: txManager,
		Accounts:  accounts,
		Movements: movements,
		Outbox:    outbox,
		Locker:    locker,
		IDGen:     idGen,
		Metrics:   metrics,
	})

	_, err := uc.RecordMovement(context.Background(), usecase.RecordMovementInput{
		AccountID: "acc-1",
		Kind:      domain.MovementKindDeposit,
		Amount:    amount("5"),
	})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if !errors.Is(err, commitErr) {
		t.Fatalf("expected wrapped commit error, got %v", err)
	}
	if !released {
		t.Fatal("expected account lock to be released")
	}
}

func TestMovementUseCase_RetriesSequenceConflict(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	account := &domain.Account{ID: "acc-1", Number: "1001", InitialBalance: amount("10"), Active: true}

	accounts := mocks.NewMockAccountDirectory(ctrl)
	movements := mocks.NewMockMovementRepository(ctrl)
	outbox := mocks.NewMockOutboxRepository(ctrl)
	txManager := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockTransaction(ctrl)
	locker := mocks.NewMockAccountLocker(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)
	retrier := mocks.NewMockRetrier(ctrl)
	metrics := mocks.NewMockLedgerMetrics(ctrl)

	accounts.EXPECT().GetByID(gomock.Any(), "acc-1").Return(account, nil)
	locker.EXPECT().Acquire(gomock.Any(), "acc-1").Return(func() {}, nil)
	metrics.EXPECT().LockWait(gomock.Any())
	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, op func() error) error {
		if err := op(); !errors.Is(err, domain.ErrSequenceConflict) {
			t.Fatalf("expected sequence conflict on first attempt, got %v", err)
		}
		return op()
	})
	txManager.EXPECT().Begin(gomock.Any()).Return(tx, nil).Times(2)
	accounts.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "acc-1").Return(account, nil).Times(2)
	movements.EXPECT().GetLatestTx(gomock.Any(), tx, "acc-1").Return(nil, domain.ErrMovementNotFound).Times(2)
	idGen.EXPECT().Generate().Return("id").AnyTimes()
	gomock.InOrder(
		movements.EXPECT().Append(gomock.Any(), tx, gomock.Any()).Return(domain.ErrSequenceConflict),
		movements.EXPECT().Append(gomock.Any(), tx, gomock.Any()).Return(nil),
	)
	outbox.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)
	tx.EXPECT().Commit(gomock.Any()).Return(nil)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil).Times(2)
	metrics.EXPECT().MovementRecorded(domain.MovementKindDeposit, gomock.Any())

	uc := usecase.NewMovementUseCase(usecase.MovementUseCaseConfig{
		TxManager: txManager,
		Accounts:  accounts,
		Movements: movements,
		Outbox:    outbox,
		Locker:    locker,
		IDGen:     idGen,
		Retrier:   retrier,
		Metrics:   metrics,
	})

	m, err := uc.RecordMovement(context.Background(), usecase.RecordMovementInput{
		AccountID: "acc-1",
		Kind:      domain.MovementKindDeposit,
		Amount:    amount("5"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mustEqualDecimal(t, amount("15"), m.ResultingBalance, "resulting balance")
}

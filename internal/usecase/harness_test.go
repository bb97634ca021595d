package usecase_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/movledger/internal/adapter/repository/memory"
	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/infrastructure/lock"
	"github.com/iho/movledger/internal/usecase"
)

var epoch = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqIDGenerator struct {
	n atomic.Int64
}

func (g *seqIDGenerator) Generate() string {
	return fmt.Sprintf("id-%06d", g.n.Add(1))
}

type testLedger struct {
	accounts  *memory.AccountDirectory
	movements *memory.MovementStore
	outbox    *memory.OutboxRepository
	locker    *lock.KeyedMutex
	clock     *fakeClock

	movementUC       *usecase.MovementUseCase
	statementUC      *usecase.StatementUseCase
	accountUC        *usecase.AccountUseCase
	reconciliationUC *usecase.ReconciliationUseCase
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()

	l := &testLedger{
		accounts:  memory.NewAccountDirectory(),
		movements: memory.NewMovementStore(),
		outbox:    memory.NewOutboxRepository(),
		locker:    lock.NewKeyedMutex(),
		clock:     &fakeClock{now: epoch},
	}
	txManager := memory.NewTxManager()
	idGen := &seqIDGenerator{}

	l.movementUC = usecase.NewMovementUseCase(usecase.MovementUseCaseConfig{
		TxManager:   txManager,
		Accounts:    l.accounts,
		Movements:   l.movements,
		Outbox:      l.outbox,
		Locker:      l.locker,
		IDGen:       idGen,
		LockTimeout: 50 * time.Millisecond,
		Now:         l.clock.Now,
	})
	l.statementUC = usecase.NewStatementUseCase(l.accounts, l.movements, nil)
	l.accountUC = usecase.NewAccountUseCase(txManager, l.accounts, l.outbox, l.locker, idGen)
	l.reconciliationUC = usecase.NewReconciliationUseCase(l.accounts, l.movements)

	return l
}

func (l *testLedger) addAccount(t *testing.T, id, number, customerID string, initial int64, active bool) *domain.Account {
	t.Helper()

	account := &domain.Account{
		ID:             id,
		Number:         number,
		Type:           domain.AccountTypeChecking,
		InitialBalance: decimal.NewFromInt(initial),
		Active:         active,
		CustomerID:     customerID,
		CreatedAt:      epoch,
		UpdatedAt:      epoch,
	}
	if err := l.accounts.Put(account); err != nil {
		t.Fatalf("seed account %s: %v", id, err)
	}
	return account
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustEqualDecimal(t *testing.T, want, got decimal.Decimal, what string) {
	t.Helper()
	if !want.Equal(got) {
		t.Fatalf("%s: expected %s, got %s", what, want, got)
	}
}
